package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/pipeline"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps sentinel errors to 400/404 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// queryRange reads from/to dates (to inclusive) in the service location.
// Without either it defaults to the current month; one alone is invalid.
func (s *Server) queryRange(r *http.Request, fromKey, toKey string) (model.Range, error) {
	loc := s.svc.Location()
	from, to := r.URL.Query().Get(fromKey), r.URL.Query().Get(toKey)
	if from == "" && to == "" {
		start, end := pipeline.PeriodBounds(s.svc.Now(), model.Month)
		return model.Range{Start: start, End: end}, nil
	}
	if from == "" || to == "" {
		return model.Range{}, invalid("%s and %s must be given together", fromKey, toKey)
	}
	start, err := time.ParseInLocation(time.DateOnly, from, loc)
	if err != nil {
		return model.Range{}, invalid("%s must be YYYY-MM-DD", fromKey)
	}
	last, err := time.ParseInLocation(time.DateOnly, to, loc)
	if err != nil {
		return model.Range{}, invalid("%s must be YYYY-MM-DD", toKey)
	}
	rng := model.Range{Start: start, End: last.AddDate(0, 0, 1)}
	return rng, rng.Validate()
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid("%s must be an integer", key)
	}
	return n, nil
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	rng, err := s.queryRange(r, "from", "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g := model.Month
	if v := r.URL.Query().Get("granularity"); v != "" {
		if g, err = model.ParseGranularity(v); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	a, err := s.svc.AnalyzePeriod(r.Context(), mux.Vars(r)["family"], rng, g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	cur, err := s.queryRange(r, "from", "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	prev, err := s.queryRange(r, "prev_from", "prev_to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("prev_from") == "" {
		prev = pipeline.PreviousRange(cur)
	}
	cmp, err := s.svc.ComparePeriods(r.Context(), mux.Vars(r)["family"], cur, prev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleDrill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	g, err := model.ParseGranularity(vars["granularity"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.svc.DrillDown(r.Context(), vars["family"], g, vars["key"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	month, err := queryInt(r, "month", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	year, err := queryInt(r, "year", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	preds, err := s.svc.ListPredictions(r.Context(), mux.Vars(r)["family"], time.Month(month), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", 3)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Predict(r.Context(), mux.Vars(r)["family"], months)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handlePredictLinear(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.PredictLinear(r.Context(), mux.Vars(r)["family"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleAnomaly(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		s.writeError(w, r, invalid("amount must be a number"))
		return
	}
	check, err := s.svc.CheckAnomaly(r.Context(), mux.Vars(r)["family"], amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (s *Server) handleFamilyGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.FamilyGoals(r.Context(), mux.Vars(r)["family"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, invalid("body must be {\"question\": \"...\"}"))
		return
	}
	ans, err := s.svc.Ask(r.Context(), mux.Vars(r)["family"], strings.TrimSpace(req.Question))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	gp, err := s.svc.GoalProgress(r.Context(), mux.Vars(r)["goal"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gp)
}

func (s *Server) handleGoalCompare(w http.ResponseWriter, r *http.Request) {
	rank, err := s.svc.CompareGoal(r.Context(), mux.Vars(r)["goal"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}

func (s *Server) handleGoalSuggestions(w http.ResponseWriter, r *http.Request) {
	adj, err := s.svc.SuggestForGoal(r.Context(), mux.Vars(r)["goal"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adj)
}

func (s *Server) handleGoalForecast(w http.ResponseWriter, r *http.Request) {
	ach, err := s.svc.ForecastGoal(r.Context(), mux.Vars(r)["goal"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ach)
}

func (s *Server) handleGoalAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.AnalyzeGoal(r.Context(), mux.Vars(r)["goal"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
