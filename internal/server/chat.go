package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/query"
)

// ClientMessage is sent by chat clients.
type ClientMessage struct {
	Type     string `json:"type"` // "question" or "ping"
	Question string `json:"question,omitempty"`
}

// ServerMessage is sent to chat clients.
type ServerMessage struct {
	Type     string          `json:"type"` // "answer", "pong" or "error"
	Text     string          `json:"text,omitempty"`
	FromAI   bool            `json:"from_ai,omitempty"`
	Sections []query.Section `json:"sections,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	family := mux.Vars(r)["family"]
	if strings.TrimSpace(family) == "" {
		s.writeError(w, r, invalid("family id is required"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	s.trackChat(1)
	defer s.trackChat(-1)

	log := s.log.WithFields(logrus.Fields{"family": family, "remote": r.RemoteAddr})
	log.Debug("chat connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("chat read failed")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = ClientMessage{Type: "question", Question: string(data)}
		}

		var reply ServerMessage
		switch msg.Type {
		case "ping":
			reply = ServerMessage{Type: "pong"}
		case "question", "":
			reply = s.answer(r, family, msg.Question, log)
		default:
			reply = ServerMessage{Type: "error", Error: "unknown message type: " + msg.Type}
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("chat write failed")
			return
		}
	}
}

func (s *Server) answer(r *http.Request, family, question string, log logrus.FieldLogger) ServerMessage {
	ans, err := s.svc.Ask(r.Context(), family, strings.TrimSpace(question))
	if err != nil {
		if !errors.Is(err, model.ErrInvalidInput) {
			log.WithError(err).Error("chat question failed")
		}
		return ServerMessage{Type: "error", Error: err.Error()}
	}
	return ServerMessage{
		Type:     "answer",
		Text:     ans.Text,
		FromAI:   ans.FromAI,
		Sections: ans.Bundle.Sections,
	}
}

func (s *Server) trackChat(delta int) {
	s.mu.Lock()
	s.chatClients += delta
	s.mu.Unlock()
}
