package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/model"
)

func pattern(avg int64, trend model.Trend) model.SpendingPattern {
	return model.SpendingPattern{
		LookbackMonths: 6,
		Trend:          trend,
		AverageMonthly: decimal.NewFromInt(avg),
		SeasonalFactor: 1.0,
	}
}

func TestLinearForecast(t *testing.T) {
	known := pattern(10_000_000, model.TrendIncreasing)
	known.SeasonalFactor = 1.3
	known.SeasonalKnown = true

	tests := []struct {
		name    string
		pattern model.SpendingPattern
		now     time.Time
		want    int64
		month   time.Month
	}{
		{"increasing off-season", pattern(10_000_000, model.TrendIncreasing), time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 10_500_000, time.March},
		{"decreasing off-season", pattern(10_000_000, model.TrendDecreasing), time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 9_500_000, time.March},
		{"stable off-season", pattern(10_000_000, model.TrendStable), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 10_000_000, time.April},
		{"unknown factor uses default", pattern(10_000_000, model.TrendIncreasing), time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), 12_075_000, time.January},
		{"known factor", known, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), 13_650_000, time.January},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinearForecast(tt.pattern, tt.now, analysis.Thresholds{})
			if !got.Amount.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("Amount = %s, want %d", got.Amount, tt.want)
			}
			if got.Month != tt.month {
				t.Errorf("Month = %s, want %s", got.Month, tt.month)
			}
			if got.Confidence != LinearConfidence {
				t.Errorf("Confidence = %v, want %v", got.Confidence, LinearConfidence)
			}
			if got.Reasoning == "" {
				t.Error("Reasoning is empty")
			}
		})
	}
}

func TestLinearForecast_SeasonalBump(t *testing.T) {
	p := pattern(10_000_000, model.TrendIncreasing)
	th := analysis.Thresholds{}

	january := LinearForecast(p, time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC), th)
	if january.Month != time.January || january.Year != 2025 {
		t.Fatalf("target = %s %d, want January 2025", january.Month, january.Year)
	}
	for _, m := range []time.Month{time.March, time.April, time.May, time.August, time.September, time.October} {
		now := time.Date(2024, m-1, 15, 0, 0, 0, 0, time.UTC)
		plain := LinearForecast(p, now, th)
		if plain.Month != m {
			t.Fatalf("target = %s, want %s", plain.Month, m)
		}
		if !january.Amount.GreaterThan(plain.Amount) {
			t.Errorf("January %s not above %s %s", january.Amount, m, plain.Amount)
		}
		if !plain.Amount.Equal(decimal.NewFromInt(10_500_000)) {
			t.Errorf("%s = %s, want increasing-only 10500000", m, plain.Amount)
		}
	}
}

func TestAIForecast(t *testing.T) {
	now := time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)
	got, err := AIForecast(pattern(10_000_000, model.TrendIncreasing), now, 3)
	if err != nil {
		t.Fatalf("AIForecast: %v", err)
	}

	want := []struct {
		month  time.Month
		year   int
		amount int64
	}{
		{time.January, 2025, 13_650_000},
		{time.February, 2025, 14_300_000},
		{time.March, 2025, 11_500_000},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Month != w.month || got[i].Year != w.year {
			t.Errorf("[%d] = %s %d, want %s %d", i, got[i].Month, got[i].Year, w.month, w.year)
		}
		if !got[i].Amount.Equal(decimal.NewFromInt(w.amount)) {
			t.Errorf("[%d] amount = %s, want %d", i, got[i].Amount, w.amount)
		}
		if got[i].Confidence != AIConfidence {
			t.Errorf("[%d] confidence = %v, want %v", i, got[i].Confidence, AIConfidence)
		}
	}
}

func TestAIForecast_Decreasing(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := AIForecast(pattern(1_000_000, model.TrendDecreasing), now, 2)
	if err != nil {
		t.Fatalf("AIForecast: %v", err)
	}
	// April x0.95, May x0.90; neither is seasonal.
	if !got[0].Amount.Equal(decimal.NewFromInt(950_000)) || !got[1].Amount.Equal(decimal.NewFromInt(900_000)) {
		t.Errorf("amounts = %s, %s, want 950000, 900000", got[0].Amount, got[1].Amount)
	}
}

func TestAIForecast_MonthsOutOfRange(t *testing.T) {
	for _, n := range []int{0, -1, 13} {
		if _, err := AIForecast(pattern(1, model.TrendStable), time.Now(), n); !errors.Is(err, model.ErrInvalidInput) {
			t.Errorf("AIForecast(n=%d) err = %v, want ErrInvalidInput", n, err)
		}
	}
}

func TestMonthMultiplier(t *testing.T) {
	tests := map[time.Month]float64{
		time.January:   1.30,
		time.February:  1.30,
		time.March:     1.0,
		time.June:      1.20,
		time.July:      1.20,
		time.September: 1.0,
		time.November:  1.15,
		time.December:  1.15,
	}
	for m, want := range tests {
		if got := MonthMultiplier(m); got != want {
			t.Errorf("MonthMultiplier(%s) = %v, want %v", m, got, want)
		}
	}
}
