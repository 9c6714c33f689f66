package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/service"
	"github.com/famledger/famspend/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Options{
		Driver:   store.DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "famspend.db"),
		Location: time.UTC,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	if _, err := st.AddExpenses(ctx, []model.ExpenseRecord{
		{ID: "food-jan", FamilyID: "fam", OwnerID: "mai", Amount: decimal.NewFromInt(500_000), Category: "Food", Timestamp: day(2024, 1, 5)},
		{ID: "wedding", FamilyID: "fam", OwnerID: "tuan", Amount: decimal.NewFromInt(2_000_000), Category: "Wedding", Timestamp: day(2024, 1, 20)},
		{ID: "food-feb", FamilyID: "fam", OwnerID: "mai", Amount: decimal.NewFromInt(300_000), Category: "Food", Timestamp: day(2024, 2, 3)},
	}); err != nil {
		t.Fatalf("AddExpenses: %v", err)
	}
	if _, err := st.SaveGoal(ctx, model.SavingsGoal{
		ID:            "trip",
		FamilyID:      "fam",
		Name:          "Trip",
		TargetAmount:  decimal.NewFromInt(10_000_000),
		CurrentAmount: decimal.NewFromInt(4_000_000),
		CreatedAt:     day(2023, 6, 1),
	}); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := service.New(st, nil, service.Options{
		Location: time.UTC,
		Timeout:  time.Second,
		Now:      func() time.Time { return day(2024, 2, 15) },
		Log:      log,
	})
	return New(svc, st, Config{RefreshInterval: time.Hour}, log), st
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/v1/families/fam/analysis?from=2024-01-01&to=2024-02-29&granularity=month", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got service.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Total.Equal(decimal.NewFromInt(2_800_000)) {
		t.Errorf("total = %s, want 2800000", got.Total)
	}
	if len(got.Buckets) != 2 {
		t.Errorf("buckets = %d, want 2", len(got.Buckets))
	}
	if got.Insights == "" || got.FromAI {
		t.Errorf("insights = %q (fromAI %v), want local summary", got.Insights, got.FromAI)
	}
}

func TestErrorMapping(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"bad granularity", http.MethodGet, "/v1/families/fam/analysis?granularity=fortnight", "", http.StatusBadRequest},
		{"bad date", http.MethodGet, "/v1/families/fam/analysis?from=2024-13-01&to=2024-02-01", "", http.StatusBadRequest},
		{"inverted range", http.MethodGet, "/v1/families/fam/analysis?from=2024-03-01&to=2024-02-01", "", http.StatusBadRequest},
		{"half range", http.MethodGet, "/v1/families/fam/analysis?from=2024-02-01", "", http.StatusBadRequest},
		{"prev_to without prev_from", http.MethodGet, "/v1/families/fam/compare?from=2024-02-01&to=2024-02-29&prev_to=2024-01-31", "", http.StatusBadRequest},
		{"prev_from without prev_to", http.MethodGet, "/v1/families/fam/compare?from=2024-02-01&to=2024-02-29&prev_from=2024-01-01", "", http.StatusBadRequest},
		{"bad drill key", http.MethodGet, "/v1/families/fam/drill/month/2024-13", "", http.StatusBadRequest},
		{"bad months", http.MethodPost, "/v1/families/fam/predictions?months=13", "", http.StatusBadRequest},
		{"bad amount", http.MethodGet, "/v1/families/fam/anomaly?amount=lots", "", http.StatusBadRequest},
		{"empty question", http.MethodPost, "/v1/families/fam/ask", `{"question":"  "}`, http.StatusBadRequest},
		{"bad body", http.MethodPost, "/v1/families/fam/ask", `question`, http.StatusBadRequest},
		{"unknown goal", http.MethodGet, "/v1/goals/nope", "", http.StatusNotFound},
		{"unknown goal forecast", http.MethodGet, "/v1/goals/nope/forecast", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("error body = %q, want JSON error", rec.Body.String())
			}
		})
	}
}

func TestDrillEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/v1/families/fam/drill/month/2024-01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var got service.DrillDown
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 || got.Records[0].ID != "wedding" {
		t.Errorf("drill = %d records, first %q; want 2, wedding", got.Count, got.Records[0].ID)
	}
}

func TestPredictionEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/v1/families/fam/predictions/linear", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("linear status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/v1/families/fam/predictions?months=2", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("ai status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/v1/families/fam/predictions?month=3&year=2024", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var preds []model.Prediction
	if err := json.Unmarshal(rec.Body.Bytes(), &preds); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(preds) != 2 {
		t.Errorf("march predictions = %d, want 2 (linear + ai)", len(preds))
	}
}

func TestGoalEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	for _, path := range []string{"/v1/goals/trip", "/v1/goals/trip/compare", "/v1/goals/trip/suggestions", "/v1/goals/trip/forecast", "/v1/goals/trip/analysis", "/v1/families/fam/goals"} {
		if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, body %s", path, rec.Code, rec.Body.String())
		}
	}

	rec := do(t, h, http.MethodGet, "/v1/goals/trip", "")
	var gp struct {
		Progress model.Progress `json:"progress"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &gp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gp.Progress.Percentage != 40 {
		t.Errorf("percentage = %v, want 40", gp.Progress.Percentage)
	}
}

func TestAskEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodPost, "/v1/families/fam/ask", `{"question":"What is the largest expense?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "largest_expense") {
		t.Errorf("body missing largest_expense section: %s", rec.Body.String())
	}
}

func TestChatWebsocket(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/families/fam/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(ClientMessage{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var reply ServerMessage
	if err := conn.ReadJSON(&reply); err != nil || reply.Type != "pong" {
		t.Fatalf("ping reply = %+v, err %v", reply, err)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "question", Question: "What is the largest expense?"}); err != nil {
		t.Fatalf("write question: %v", err)
	}
	reply = ServerMessage{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read answer: %v", err)
	}
	if reply.Type != "answer" || reply.Text == "" || len(reply.Sections) == 0 {
		t.Errorf("answer = %+v", reply)
	}
	if reply.Sections[0].Intent != "largest_expense" {
		t.Errorf("first section = %q, want largest_expense", reply.Sections[0].Intent)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "question"}); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	reply = ServerMessage{}
	if err := conn.ReadJSON(&reply); err != nil || reply.Type != "error" {
		t.Errorf("empty question reply = %+v, err %v", reply, err)
	}
}

func TestRefreshAll(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()

	s.RefreshAll(ctx)
	s.RefreshAll(ctx)

	preds, err := st.ListPredictions(ctx, "fam", 0, 0)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(preds) != 1 {
		t.Errorf("predictions = %d, want 1 (second run is fresh)", len(preds))
	}

	status := s.snapshotStatus()
	if status.RefreshCount != 2 {
		t.Errorf("RefreshCount = %d, want 2", status.RefreshCount)
	}
	if !status.LastRuns["fam"].Equal(day(2024, 2, 15)) {
		t.Errorf("LastRuns[fam] = %v, want 2024-02-15", status.LastRuns["fam"])
	}
	if status.LastError != "" {
		t.Errorf("LastError = %q, want empty", status.LastError)
	}
}

func TestRefreshConfiguredFamilies(t *testing.T) {
	s, st := newTestServer(t)
	s.cfg.Families = []string{"fam", " "}
	ctx := context.Background()

	s.RefreshAll(ctx)

	if preds, _ := st.ListPredictions(ctx, "fam", 0, 0); len(preds) != 1 {
		t.Errorf("fam predictions = %d, want 1", len(preds))
	}
	if s.snapshotStatus().LastError == "" {
		t.Error("blank family should record an error")
	}
}
