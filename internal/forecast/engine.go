package forecast

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/insight"
	"github.com/famledger/famspend/internal/model"
)

var predictionsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "famspend",
	Name:      "predictions_appended_total",
	Help:      "Predictions appended to the history, by algorithm.",
}, []string{"algorithm"})

// ExpenseLister reads a family's expenses, newest first.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, familyID string, limit int) ([]model.ExpenseRecord, error)
}

// PredictionStore is the append-only prediction history.
type PredictionStore interface {
	InsertPrediction(ctx context.Context, p model.Prediction) (model.Prediction, error)
	ListPredictions(ctx context.Context, familyID string, month time.Month, year int) ([]model.Prediction, error)
}

// Engine computes forecasts from stored expenses and records them.
type Engine struct {
	Expenses    ExpenseLister
	Predictions PredictionStore
	Insights    insight.Generator
	Thresholds  analysis.Thresholds
	Timeout     time.Duration
	Now         func() time.Time
	Log         logrus.FieldLogger
}

// AIResult is the outcome of a multi-month forecast.
type AIResult struct {
	Pattern     model.SpendingPattern `json:"pattern"`
	Predictions []model.Prediction    `json:"predictions"`
	Narrative   string                `json:"narrative"`
	FromAI      bool                  `json:"from_ai"`
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

func (e *Engine) insights() insight.Generator {
	if e.Insights != nil {
		return e.Insights
	}
	return insight.Nop{}
}

// Pattern loads a family's history and summarizes the last lookback months.
func (e *Engine) Pattern(ctx context.Context, familyID string, lookback int) (model.SpendingPattern, error) {
	if familyID == "" {
		return model.SpendingPattern{}, fmt.Errorf("%w: family id is required", model.ErrInvalidInput)
	}
	records, err := e.Expenses.ListExpenses(ctx, familyID, 0)
	if err != nil {
		return model.SpendingPattern{}, fmt.Errorf("loading expenses: %w", err)
	}
	return analysis.AnalyzePattern(records, e.now(), lookback, e.Thresholds), nil
}

// PredictNextMonthLinear forecasts next calendar month with the linear
// heuristic and appends the prediction.
func (e *Engine) PredictNextMonthLinear(ctx context.Context, familyID string) (model.Prediction, error) {
	pattern, err := e.Pattern(ctx, familyID, LinearLookbackMonths)
	if err != nil {
		return model.Prediction{}, err
	}

	est := LinearForecast(pattern, e.now(), e.Thresholds)
	return e.append(ctx, familyID, est, model.AlgorithmLinear)
}

// PredictWithAI forecasts the next months (1..12) and asks the collaborator
// to explain them. The numbers never depend on the collaborator: on error
// or timeout a locally written narrative is used instead.
func (e *Engine) PredictWithAI(ctx context.Context, familyID string, months int) (AIResult, error) {
	if months < 1 || months > MaxMonthsAhead {
		return AIResult{}, fmt.Errorf("%w: months must be between 1 and %d, got %d", model.ErrInvalidInput, MaxMonthsAhead, months)
	}
	pattern, err := e.Pattern(ctx, familyID, AILookbackMonths)
	if err != nil {
		return AIResult{}, err
	}

	estimates, err := AIForecast(pattern, e.now(), months)
	if err != nil {
		return AIResult{}, err
	}

	bundle := map[string]any{
		"family_id":   familyID,
		"pattern":     pattern,
		"predictions": estimates,
	}
	res := insight.Narrate(ctx, "prediction", e.Timeout,
		func(ctx context.Context) (string, error) {
			return e.insights().GeneratePredictionNarrative(ctx, bundle)
		},
		func() string { return fallbackNarrative(pattern, estimates) },
	)
	if res.Err != nil {
		e.log().WithFields(logrus.Fields{"family": familyID, "error": res.Err}).
			Warn("prediction narrative unavailable, using local summary")
	}

	out := AIResult{Pattern: pattern, Narrative: res.Text, FromAI: res.FromAI}
	for _, est := range estimates {
		p, err := e.append(ctx, familyID, est, model.AlgorithmAI)
		if err != nil {
			return out, err
		}
		out.Predictions = append(out.Predictions, p)
	}
	return out, nil
}

func (e *Engine) append(ctx context.Context, familyID string, est Estimate, algo model.Algorithm) (model.Prediction, error) {
	p, err := e.Predictions.InsertPrediction(ctx, model.Prediction{
		FamilyID:        familyID,
		PredictedAmount: est.Amount,
		PredictedMonth:  est.Month,
		PredictedYear:   est.Year,
		Confidence:      est.Confidence,
		Algorithm:       algo,
		Reasoning:       est.Reasoning,
		CreatedAt:       e.now(),
	})
	if err != nil {
		return model.Prediction{}, fmt.Errorf("saving %s prediction: %w", algo, err)
	}
	predictionsAppended.WithLabelValues(string(algo)).Inc()
	return p, nil
}

// DetectAnomalies classifies a caller-supplied figure for the current month
// against the 6-month pattern.
func (e *Engine) DetectAnomalies(ctx context.Context, familyID string, amount decimal.Decimal) (model.AnomalyCheck, error) {
	if amount.IsNegative() {
		return model.AnomalyCheck{}, fmt.Errorf("%w: amount must not be negative", model.ErrInvalidInput)
	}
	pattern, err := e.Pattern(ctx, familyID, LinearLookbackMonths)
	if err != nil {
		return model.AnomalyCheck{}, err
	}
	return analysis.ClassifyLiveFigure(amount, pattern, e.Thresholds), nil
}

// ListPredictions returns the stored history; zero month or year matches any.
func (e *Engine) ListPredictions(ctx context.Context, familyID string, month time.Month, year int) ([]model.Prediction, error) {
	if familyID == "" {
		return nil, fmt.Errorf("%w: family id is required", model.ErrInvalidInput)
	}
	if month < 0 || month > time.December {
		return nil, fmt.Errorf("%w: month %d out of range", model.ErrInvalidInput, month)
	}
	return e.Predictions.ListPredictions(ctx, familyID, month, year)
}

// RefreshIfStale runs the linear forecast when lastRun is zero or older than
// interval. It returns the new last-run time and the prediction, if one was
// made. Callers own the last-run bookkeeping.
func (e *Engine) RefreshIfStale(ctx context.Context, familyID string, lastRun time.Time, interval time.Duration) (time.Time, *model.Prediction, error) {
	now := e.now()
	if !lastRun.IsZero() && now.Sub(lastRun) < interval {
		return lastRun, nil, nil
	}
	p, err := e.PredictNextMonthLinear(ctx, familyID)
	if err != nil {
		return lastRun, nil, err
	}
	return now, &p, nil
}

func fallbackNarrative(pattern model.SpendingPattern, estimates []Estimate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Average monthly spending over the last %d months is %s and the trend is %s.",
		pattern.LookbackMonths, pattern.AverageMonthly.StringFixed(0), pattern.Trend)

	switch pattern.Trend {
	case model.TrendIncreasing:
		b.WriteString(" Each month ahead adds 5% to reflect the rising trend.")
	case model.TrendDecreasing:
		b.WriteString(" Each month ahead removes 5% to reflect the falling trend.")
	}

	var seasonal []string
	for _, est := range estimates {
		if MonthMultiplier(est.Month) > 1 {
			seasonal = append(seasonal, fmt.Sprintf("%s %d", est.Month, est.Year))
		}
	}
	if len(seasonal) > 0 {
		fmt.Fprintf(&b, " Higher spending is expected in %s (holidays and seasonal costs).", strings.Join(seasonal, ", "))
	}
	if len(pattern.AnomalyMonths) > 0 {
		fmt.Fprintf(&b, " %d unusual month(s) in the history may skew the average.", len(pattern.AnomalyMonths))
	}
	return b.String()
}
