package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newService(t *testing.T) *Service {
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
	_, err = st.AddExpenses(ctx, []model.ExpenseRecord{
		{ID: "food-jan", FamilyID: "fam", OwnerID: "mai", Amount: decimal.NewFromInt(500_000), Category: "Food", Timestamp: day(2024, 1, 5)},
		{ID: "wedding", FamilyID: "fam", OwnerID: "tuan", Amount: decimal.NewFromInt(2_000_000), Category: "Wedding", Timestamp: day(2024, 1, 20)},
		{ID: "food-feb", FamilyID: "fam", OwnerID: "mai", Amount: decimal.NewFromInt(300_000), Category: "Food", Timestamp: day(2024, 2, 3)},
	})
	if err != nil {
		t.Fatalf("AddExpenses: %v", err)
	}
	if _, err := st.SaveGoal(ctx, model.SavingsGoal{
		ID:            "trip",
		FamilyID:      "fam",
		Name:          "Trip",
		TargetAmount:  decimal.NewFromInt(10_000_000),
		CurrentAmount: decimal.NewFromInt(12_000_000),
		CreatedAt:     day(2023, 6, 1),
	}); err != nil {
		t.Fatalf("SaveGoal: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(st, nil, Options{
		Location: time.UTC,
		Timeout:  time.Second,
		Now:      func() time.Time { return day(2024, 2, 15) },
		Log:      log,
	})
}

func TestAnalyzePeriod(t *testing.T) {
	s := newService(t)

	a, err := s.AnalyzePeriod(context.Background(), "fam",
		model.Range{Start: day(2024, 1, 1), End: day(2024, 3, 1)}, model.Month)
	if err != nil {
		t.Fatalf("AnalyzePeriod: %v", err)
	}

	if len(a.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(a.Buckets))
	}
	if a.Buckets[0].Key != "2024-01" || !a.Buckets[0].Total.Equal(decimal.NewFromInt(2_500_000)) {
		t.Errorf("bucket[0] = %s %s, want 2024-01 2500000", a.Buckets[0].Key, a.Buckets[0].Total)
	}
	if a.Buckets[1].Key != "2024-02" || !a.Buckets[1].Total.Equal(decimal.NewFromInt(300_000)) {
		t.Errorf("bucket[1] = %s %s, want 2024-02 300000", a.Buckets[1].Key, a.Buckets[1].Total)
	}
	if !a.Total.Equal(decimal.NewFromInt(2_800_000)) || a.Count != 3 {
		t.Errorf("total = %s/%d, want 2800000/3", a.Total, a.Count)
	}
	if a.Largest == nil || a.Largest.ID != "wedding" {
		t.Errorf("largest = %+v, want wedding", a.Largest)
	}
	if a.FromAI || a.Insights == "" {
		t.Errorf("insights = %q (fromAI %v), want local summary", a.Insights, a.FromAI)
	}
	// Nothing was spent in the two months before.
	if a.Comparison.ChangePercentage != 0 {
		t.Errorf("ChangePercentage = %v, want 0", a.Comparison.ChangePercentage)
	}
}

func TestAnalyzePeriod_Validation(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	good := model.Range{Start: day(2024, 1, 1), End: day(2024, 2, 1)}

	tests := []struct {
		name   string
		family string
		r      model.Range
		g      model.Granularity
	}{
		{"empty family", "", good, model.Month},
		{"inverted range", "fam", model.Range{Start: good.End, End: good.Start}, model.Month},
		{"zero range", "fam", model.Range{}, model.Month},
		{"bad granularity", "fam", good, "fortnight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AnalyzePeriod(ctx, tt.family, tt.r, tt.g); !errors.Is(err, model.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestDrillDown(t *testing.T) {
	s := newService(t)

	d, err := s.DrillDown(context.Background(), "fam", model.Month, "2024-01")
	if err != nil {
		t.Fatalf("DrillDown: %v", err)
	}
	if d.Count != 2 || !d.Total.Equal(decimal.NewFromInt(2_500_000)) {
		t.Errorf("drill = %s/%d, want 2500000/2", d.Total, d.Count)
	}
	if d.Records[0].ID != "wedding" || d.Records[1].ID != "food-jan" {
		t.Errorf("records = %s, %s, want newest first", d.Records[0].ID, d.Records[1].ID)
	}
	if !d.Average.Equal(decimal.NewFromInt(1_250_000)) {
		t.Errorf("average = %s, want 1250000", d.Average)
	}

	if _, err := s.DrillDown(context.Background(), "fam", model.Month, "2024-13"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("bad key err = %v, want ErrInvalidInput", err)
	}
}

func TestComparePeriods(t *testing.T) {
	s := newService(t)
	cmp, err := s.ComparePeriods(context.Background(), "fam",
		model.Range{Start: day(2024, 2, 1), End: day(2024, 3, 1)},
		model.Range{Start: day(2024, 1, 1), End: day(2024, 2, 1)})
	if err != nil {
		t.Fatalf("ComparePeriods: %v", err)
	}
	if !cmp.Change.Equal(decimal.NewFromInt(-2_200_000)) {
		t.Errorf("change = %s, want -2200000", cmp.Change)
	}
	if cmp.ChangePercentage != -88 {
		t.Errorf("ChangePercentage = %v, want -88", cmp.ChangePercentage)
	}
}

func TestPredictPersistsHistory(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	res, err := s.Predict(ctx, "fam", 2)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(res.Predictions) != 2 || res.FromAI {
		t.Fatalf("Predict = %d predictions (fromAI %v), want 2 local", len(res.Predictions), res.FromAI)
	}
	if _, err := s.PredictLinear(ctx, "fam"); err != nil {
		t.Fatalf("PredictLinear: %v", err)
	}

	march, err := s.ListPredictions(ctx, "fam", time.March, 2024)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(march) != 2 {
		t.Errorf("March predictions = %d, want ai + linear", len(march))
	}
}

func TestFamilyGoals(t *testing.T) {
	s := newService(t)
	goals, err := s.FamilyGoals(context.Background(), "fam")
	if err != nil {
		t.Fatalf("FamilyGoals: %v", err)
	}
	if len(goals) != 1 || goals[0].Progress.Percentage != 120 {
		t.Fatalf("goals = %+v, want trip at 120%%", goals)
	}
	if !goals[0].Progress.Remaining.Equal(decimal.NewFromInt(-2_000_000)) {
		t.Errorf("remaining = %s, want -2000000", goals[0].Progress.Remaining)
	}
	if _, err := s.GoalProgress(context.Background(), "nope"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown goal err = %v, want ErrNotFound", err)
	}
}

func TestEnginesUseServiceZone(t *testing.T) {
	ict := time.FixedZone("ICT", 7*3600)
	st, err := store.Open(store.Options{
		Driver:   store.DriverSQLite,
		DSN:      filepath.Join(t.TempDir(), "famspend.db"),
		Location: ict,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	_, err = st.AddExpenses(ctx, []model.ExpenseRecord{
		{ID: "jan", FamilyID: "fam", Amount: decimal.NewFromInt(100), Category: "Food", Timestamp: time.Date(2024, 1, 10, 12, 0, 0, 0, ict)},
		{ID: "feb", FamilyID: "fam", Amount: decimal.NewFromInt(40), Category: "Food", Timestamp: time.Date(2024, 2, 1, 1, 0, 0, 0, ict)},
	})
	if err != nil {
		t.Fatalf("AddExpenses: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	// 2024-01-31 20:00 UTC is already February 1st in the family's zone.
	s := New(st, nil, Options{
		Location: ict,
		Timeout:  time.Second,
		Now:      func() time.Time { return time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC) },
		Log:      log,
	})

	p, err := s.PredictLinear(ctx, "fam")
	if err != nil {
		t.Fatalf("PredictLinear: %v", err)
	}
	if p.PredictedMonth != time.March || p.PredictedYear != 2024 {
		t.Errorf("PredictLinear targets %s %d, want March 2024", p.PredictedMonth, p.PredictedYear)
	}

	ans, err := s.Ask(ctx, "fam", "total this month")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	var found bool
	for _, sec := range ans.Bundle.Sections {
		if sec.Intent != "total_spending" {
			continue
		}
		found = true
		pt, ok := sec.Data.(model.PeriodTotal)
		if !ok {
			t.Fatalf("total section data = %T, want model.PeriodTotal", sec.Data)
		}
		if !pt.Total.Equal(decimal.NewFromInt(40)) || pt.Count != 1 {
			t.Errorf("this month total = %s over %d, want 40 over 1", pt.Total, pt.Count)
		}
	}
	if !found {
		t.Fatalf("no total_spending section in %+v", ans.Bundle.Sections)
	}
}
