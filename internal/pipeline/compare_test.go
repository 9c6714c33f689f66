package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

func monthRange(t *testing.T, key string) model.Range {
	t.Helper()
	r, err := BucketRange(key, model.Month, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestCompare_ZeroPreviousFloor(t *testing.T) {
	records := []model.ExpenseRecord{expense("a", 500_000, "Food", "2024-02-10")}
	cmp := Compare(records, monthRange(t, "2024-02"), monthRange(t, "2024-01"), "month")

	if cmp.ChangePercentage != 0 {
		t.Errorf("ChangePercentage = %v, want 0 when previous is 0", cmp.ChangePercentage)
	}
	if !cmp.Change.Equal(decimal.NewFromInt(500_000)) {
		t.Errorf("Change = %s, want 500000", cmp.Change)
	}
}

func TestCompare_CategoryDeltas(t *testing.T) {
	records := []model.ExpenseRecord{
		expense("a", 1_000, "Food", "2024-01-03"),
		expense("b", 5_000, "Travel", "2024-01-09"),
		expense("c", 1_500, "Food", "2024-02-03"),
		expense("d", 700, "Fuel", "2024-02-04"),
	}
	cmp := Compare(records, monthRange(t, "2024-02"), monthRange(t, "2024-01"), "month")

	if !cmp.Current.Total.Equal(decimal.NewFromInt(2_200)) || !cmp.Previous.Total.Equal(decimal.NewFromInt(6_000)) {
		t.Fatalf("totals = %s / %s, want 2200 / 6000", cmp.Current.Total, cmp.Previous.Total)
	}
	if want := (2200.0 - 6000.0) / 6000.0 * 100; math.Abs(cmp.ChangePercentage-want) > 1e-9 {
		t.Errorf("ChangePercentage = %v, want %v", cmp.ChangePercentage, want)
	}

	wantOrder := []string{"Travel", "Fuel", "Food"}
	if len(cmp.Categories) != len(wantOrder) {
		t.Fatalf("categories = %+v", cmp.Categories)
	}
	for i, name := range wantOrder {
		if cmp.Categories[i].Category != name {
			t.Errorf("Categories[%d] = %s, want %s", i, cmp.Categories[i].Category, name)
		}
	}
	travel := cmp.Categories[0]
	if !travel.Current.IsZero() || !travel.Change.Equal(decimal.NewFromInt(-5_000)) {
		t.Errorf("Travel delta = %+v, want current 0 change -5000", travel)
	}
}

func TestPreviousMonth(t *testing.T) {
	prev := PreviousMonth(monthRange(t, "2024-03"))
	if prev.Start.Format(time.DateOnly) != "2024-02-01" || prev.End.Format(time.DateOnly) != "2024-03-01" {
		t.Errorf("PreviousMonth = %v, want February 2024", prev)
	}

	r := model.Range{
		Start: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
	}
	prev = PreviousMonth(r)
	if prev.Start.Format(time.DateOnly) != "2024-02-29" || !prev.End.Equal(r.Start) {
		t.Errorf("PreviousMonth(partial) = %v, want 10 days before", prev)
	}
}
