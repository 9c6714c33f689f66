package forecast

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/model"
)

type memStore struct {
	expenses    []model.ExpenseRecord
	predictions []model.Prediction
	insertErr   error
}

func (m *memStore) ListExpenses(_ context.Context, familyID string, _ int) ([]model.ExpenseRecord, error) {
	var out []model.ExpenseRecord
	for _, r := range m.expenses {
		if r.FamilyID == familyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) InsertPrediction(_ context.Context, p model.Prediction) (model.Prediction, error) {
	if m.insertErr != nil {
		return p, m.insertErr
	}
	p.ID = "p" + string(rune('a'+len(m.predictions)))
	m.predictions = append(m.predictions, p)
	return p, nil
}

func (m *memStore) ListPredictions(_ context.Context, familyID string, month time.Month, year int) ([]model.Prediction, error) {
	var out []model.Prediction
	for _, p := range m.predictions {
		if p.FamilyID == familyID && (month == 0 || p.PredictedMonth == month) && (year == 0 || p.PredictedYear == year) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (f fakeGenerator) GenerateInsights(context.Context, any) (string, error) { return f.text, f.err }

func (f fakeGenerator) GeneratePredictionNarrative(context.Context, any) (string, error) {
	return f.text, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Six months of 1,000,000 spend, January to June 2024.
func newEngine(gen fakeGenerator) (*Engine, *memStore) {
	st := &memStore{}
	for m := time.January; m <= time.June; m++ {
		st.expenses = append(st.expenses, model.ExpenseRecord{
			ID:        m.String(),
			FamilyID:  "fam",
			Amount:    decimal.NewFromInt(1_000_000),
			Category:  "Food",
			Timestamp: time.Date(2024, m, 20, 0, 0, 0, 0, time.UTC),
		})
	}
	e := &Engine{
		Expenses:    st,
		Predictions: st,
		Insights:    gen,
		Timeout:     time.Second,
		Now:         func() time.Time { return time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC) },
		Log:         quietLogger(),
	}
	return e, st
}

func TestPredictNextMonthLinear(t *testing.T) {
	e, st := newEngine(fakeGenerator{})

	p, err := e.PredictNextMonthLinear(context.Background(), "fam")
	if err != nil {
		t.Fatalf("PredictNextMonthLinear: %v", err)
	}
	if p.PredictedMonth != time.August || p.PredictedYear != 2024 {
		t.Errorf("target = %s, want 2024-08", p.Period())
	}
	if !p.PredictedAmount.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("amount = %s, want 1000000", p.PredictedAmount)
	}
	if p.Algorithm != model.AlgorithmLinear {
		t.Errorf("algorithm = %s, want linear", p.Algorithm)
	}
	if len(st.predictions) != 1 {
		t.Errorf("stored = %d, want 1", len(st.predictions))
	}
}

func TestPredictWithAI_FallbackKeepsNumbers(t *testing.T) {
	ctx := context.Background()
	withAI, _ := newEngine(fakeGenerator{text: "Spending holds steady."})
	without, st := newEngine(fakeGenerator{err: errors.New("upstream down")})

	a, err := withAI.PredictWithAI(ctx, "fam", 3)
	if err != nil {
		t.Fatalf("PredictWithAI: %v", err)
	}
	b, err := without.PredictWithAI(ctx, "fam", 3)
	if err != nil {
		t.Fatalf("PredictWithAI (fallback): %v", err)
	}

	if !a.FromAI || a.Narrative != "Spending holds steady." {
		t.Errorf("narrative = %q (fromAI %v), want collaborator text", a.Narrative, a.FromAI)
	}
	if b.FromAI || b.Narrative == "" {
		t.Errorf("fallback narrative = %q (fromAI %v), want local text", b.Narrative, b.FromAI)
	}
	if len(a.Predictions) != 3 || len(b.Predictions) != 3 {
		t.Fatalf("predictions = %d, %d, want 3 each", len(a.Predictions), len(b.Predictions))
	}
	for i := range a.Predictions {
		if !a.Predictions[i].PredictedAmount.Equal(b.Predictions[i].PredictedAmount) {
			t.Errorf("[%d] %s != %s", i, a.Predictions[i].PredictedAmount, b.Predictions[i].PredictedAmount)
		}
		if b.Predictions[i].Algorithm != model.AlgorithmAI {
			t.Errorf("[%d] algorithm = %s, want ai", i, b.Predictions[i].Algorithm)
		}
	}
	if len(st.predictions) != 3 {
		t.Errorf("stored = %d, want 3", len(st.predictions))
	}
}

func TestPredictWithAI_AppendsDuplicates(t *testing.T) {
	e, st := newEngine(fakeGenerator{})
	for i := 0; i < 2; i++ {
		if _, err := e.PredictWithAI(context.Background(), "fam", 1); err != nil {
			t.Fatalf("PredictWithAI: %v", err)
		}
	}
	got, _ := e.ListPredictions(context.Background(), "fam", time.August, 2024)
	if len(got) != 2 || len(st.predictions) != 2 {
		t.Errorf("August predictions = %d, want 2 rows of history", len(got))
	}
}

func TestEngine_Validation(t *testing.T) {
	e, _ := newEngine(fakeGenerator{})
	ctx := context.Background()

	if _, err := e.PredictNextMonthLinear(ctx, ""); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("empty family err = %v, want ErrInvalidInput", err)
	}
	if _, err := e.PredictWithAI(ctx, "fam", 13); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("months=13 err = %v, want ErrInvalidInput", err)
	}
	if _, err := e.DetectAnomalies(ctx, "fam", decimal.NewFromInt(-5)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("negative amount err = %v, want ErrInvalidInput", err)
	}
	if _, err := e.ListPredictions(ctx, "fam", 13, 0); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("month 13 err = %v, want ErrInvalidInput", err)
	}
}

func TestPredict_StoreErrorSurfaces(t *testing.T) {
	e, st := newEngine(fakeGenerator{})
	st.insertErr = errors.New("disk full")
	if _, err := e.PredictNextMonthLinear(context.Background(), "fam"); err == nil {
		t.Error("expected store error")
	}
}

func TestDetectAnomalies(t *testing.T) {
	e, _ := newEngine(fakeGenerator{})

	check, err := e.DetectAnomalies(context.Background(), "fam", decimal.NewFromInt(1_600_000))
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if !check.IsAnomaly || check.Severity != model.SeverityHigh {
		t.Errorf("check = %+v, want high anomaly", check)
	}
}

func TestRefreshIfStale(t *testing.T) {
	e, st := newEngine(fakeGenerator{})
	ctx := context.Background()
	now := e.Now()

	last, p, err := e.RefreshIfStale(ctx, "fam", now.Add(-time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("RefreshIfStale: %v", err)
	}
	if p != nil || !last.Equal(now.Add(-time.Hour)) || len(st.predictions) != 0 {
		t.Errorf("fresh run refreshed: last=%v p=%v", last, p)
	}

	last, p, err = e.RefreshIfStale(ctx, "fam", time.Time{}, 24*time.Hour)
	if err != nil {
		t.Fatalf("RefreshIfStale: %v", err)
	}
	if p == nil || !last.Equal(now) {
		t.Errorf("stale run: last=%v p=%v, want prediction at now", last, p)
	}
}
