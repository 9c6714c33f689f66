// Package service exposes the analytics entry points shared by the CLI and
// the HTTP server.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/forecast"
	"github.com/famledger/famspend/internal/insight"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/query"
	"github.com/famledger/famspend/internal/savings"
)

// Store is the persistence the service reads from and appends predictions to.
type Store interface {
	ListExpenses(ctx context.Context, familyID string, limit int) ([]model.ExpenseRecord, error)
	GetGoal(ctx context.Context, id string) (model.SavingsGoal, error)
	ListGoals(ctx context.Context, familyID string) ([]model.SavingsGoal, error)
	InsertPrediction(ctx context.Context, p model.Prediction) (model.Prediction, error)
	ListPredictions(ctx context.Context, familyID string, month time.Month, year int) ([]model.Prediction, error)
}

// Options configures a Service. Zero values take defaults.
type Options struct {
	Thresholds     analysis.Thresholds
	Policy         savings.Policy
	Location       *time.Location
	Timeout        time.Duration
	LookbackMonths int
	Now            func() time.Time
	Log            logrus.FieldLogger
}

// Service wires the store to the analytics engines.
type Service struct {
	store    Store
	insights insight.Generator
	opts     Options

	Forecast *forecast.Engine
	Goals    *savings.Tracker
	Query    *query.Engine
}

// New builds a Service. A nil generator disables narration.
func New(st Store, gen insight.Generator, opts Options) *Service {
	if gen == nil {
		gen = insight.Nop{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Timeout <= 0 {
		opts.Timeout = insight.DefaultTimeout
	}
	if opts.LookbackMonths <= 0 {
		opts.LookbackMonths = forecast.LinearLookbackMonths
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	opts.Thresholds = opts.Thresholds.WithDefaults()
	opts.Policy = opts.Policy.WithDefaults()

	// Engines resolve "this month" and "next month" in the family's zone.
	clock := opts.Now
	now := func() time.Time { return clock().In(opts.Location) }

	return &Service{
		store:    st,
		insights: gen,
		opts:     opts,
		Forecast: &forecast.Engine{
			Expenses:    st,
			Predictions: st,
			Insights:    gen,
			Thresholds:  opts.Thresholds,
			Timeout:     opts.Timeout,
			Now:         now,
			Log:         opts.Log,
		},
		Goals: &savings.Tracker{
			Expenses:   st,
			Goals:      st,
			Insights:   gen,
			Policy:     opts.Policy,
			Thresholds: opts.Thresholds,
			Timeout:    opts.Timeout,
			Now:        now,
			Log:        opts.Log,
		},
		Query: &query.Engine{
			Expenses:   st,
			Goals:      st,
			Insights:   gen,
			Thresholds: opts.Thresholds,
			Policy:     opts.Policy,
			Timeout:    opts.Timeout,
			Now:        now,
			Log:        opts.Log,
		},
	}
}

// Location returns the zone bucket keys are interpreted in.
func (s *Service) Location() *time.Location {
	return s.opts.Location
}

// Now returns the service clock in its location.
func (s *Service) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func validFamily(familyID string) error {
	if strings.TrimSpace(familyID) == "" {
		return fmt.Errorf("%w: family id is required", model.ErrInvalidInput)
	}
	return nil
}

func (s *Service) expenses(ctx context.Context, familyID string) ([]model.ExpenseRecord, error) {
	if err := validFamily(familyID); err != nil {
		return nil, err
	}
	records, err := s.store.ListExpenses(ctx, familyID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading expenses: %w", err)
	}
	return records, nil
}

// Predict runs the multi-month forecast.
func (s *Service) Predict(ctx context.Context, familyID string, months int) (forecast.AIResult, error) {
	return s.Forecast.PredictWithAI(ctx, familyID, months)
}

// PredictLinear runs the next-month linear forecast.
func (s *Service) PredictLinear(ctx context.Context, familyID string) (model.Prediction, error) {
	return s.Forecast.PredictNextMonthLinear(ctx, familyID)
}

// ListPredictions returns the prediction history.
func (s *Service) ListPredictions(ctx context.Context, familyID string, month time.Month, year int) ([]model.Prediction, error) {
	return s.Forecast.ListPredictions(ctx, familyID, month, year)
}

// CheckAnomaly classifies a live monthly figure.
func (s *Service) CheckAnomaly(ctx context.Context, familyID string, amount decimal.Decimal) (model.AnomalyCheck, error) {
	return s.Forecast.DetectAnomalies(ctx, familyID, amount)
}

// Refresh runs the linear forecast when lastRun is older than interval.
func (s *Service) Refresh(ctx context.Context, familyID string, lastRun time.Time, interval time.Duration) (time.Time, *model.Prediction, error) {
	if err := validFamily(familyID); err != nil {
		return lastRun, nil, err
	}
	return s.Forecast.RefreshIfStale(ctx, familyID, lastRun, interval)
}

// Ask answers a free-text question.
func (s *Service) Ask(ctx context.Context, familyID, question string) (query.Answer, error) {
	return s.Query.Answer(ctx, familyID, question)
}

// GoalProgress returns a goal's progress.
func (s *Service) GoalProgress(ctx context.Context, goalID string) (savings.GoalProgress, error) {
	return s.Goals.Progress(ctx, goalID)
}

// CompareGoal ranks a goal within its family.
func (s *Service) CompareGoal(ctx context.Context, goalID string) (savings.Ranking, error) {
	return s.Goals.Compare(ctx, goalID)
}

// SuggestForGoal proposes spending reductions for a goal.
func (s *Service) SuggestForGoal(ctx context.Context, goalID string) (savings.Adjustments, error) {
	return s.Goals.Suggest(ctx, goalID)
}

// ForecastGoal projects goal achievement.
func (s *Service) ForecastGoal(ctx context.Context, goalID string) (savings.Achievement, error) {
	return s.Goals.Forecast(ctx, goalID)
}

// AnalyzeGoal returns the narrative goal review.
func (s *Service) AnalyzeGoal(ctx context.Context, goalID string) (savings.Analysis, error) {
	return s.Goals.Analyze(ctx, goalID)
}

// FamilyGoals returns every goal of a family with its progress.
func (s *Service) FamilyGoals(ctx context.Context, familyID string) ([]savings.GoalProgress, error) {
	if err := validFamily(familyID); err != nil {
		return nil, err
	}
	goals, err := s.store.ListGoals(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("listing goals: %w", err)
	}
	now := s.Now()
	out := make([]savings.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, savings.GoalProgress{
			Goal:     g,
			Progress: savings.CalculateProgress(g, now, s.opts.Policy),
		})
	}
	return out, nil
}
