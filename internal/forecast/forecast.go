// Package forecast produces month-ahead spending predictions and persists
// them to the append-only prediction history.
package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/model"
)

const (
	LinearLookbackMonths = 6
	AILookbackMonths     = 12
	MaxMonthsAhead       = 12

	LinearConfidence = 0.7
	AIConfidence     = 0.8

	trendStep       = 0.05
	unknownSeasonal = 1.15
)

// monthMultipliers are the fixed month-of-year multipliers of the
// multi-month forecast. Months not listed use 1.0.
var monthMultipliers = map[time.Month]float64{
	time.January:  1.30,
	time.February: 1.30,
	time.June:     1.20,
	time.July:     1.20,
	time.November: 1.15,
	time.December: 1.15,
}

// MonthMultiplier returns the seasonal multiplier for m.
func MonthMultiplier(m time.Month) float64 {
	if f, ok := monthMultipliers[m]; ok {
		return f
	}
	return 1.0
}

// Estimate is a computed but not yet persisted forecast for one month.
type Estimate struct {
	Month      time.Month      `json:"month"`
	Year       int             `json:"year"`
	Amount     decimal.Decimal `json:"amount"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// NextMonth returns the calendar month after now.
func NextMonth(now time.Time) (time.Month, int) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	next := first.AddDate(0, 1, 0)
	return next.Month(), next.Year()
}

// LinearForecast projects the month after now from a 6-month pattern:
// the monthly average nudged 5% in the trend direction and, for a
// high-season month, scaled by the seasonal factor.
func LinearForecast(pattern model.SpendingPattern, now time.Time, th analysis.Thresholds) Estimate {
	th = th.WithDefaults()
	month, year := NextMonth(now)

	amount := pattern.AverageMonthly
	reasoning := fmt.Sprintf("Based on an average of %s per month over the last %d months",
		pattern.AverageMonthly.StringFixed(0), pattern.LookbackMonths)

	switch pattern.Trend {
	case model.TrendIncreasing:
		amount = amount.Mul(decimal.NewFromFloat(1 + trendStep))
		reasoning += ", spending is rising (+5%)"
	case model.TrendDecreasing:
		amount = amount.Mul(decimal.NewFromFloat(1 - trendStep))
		reasoning += ", spending is falling (-5%)"
	default:
		reasoning += ", spending is stable"
	}

	if th.IsHighSeason(month) {
		factor := pattern.SeasonalFactor
		if !pattern.SeasonalKnown {
			factor = unknownSeasonal
		}
		amount = amount.Mul(decimal.NewFromFloat(factor))
		reasoning += fmt.Sprintf(", %s is a high-spending season (x%.2f)", month, factor)
	}

	return Estimate{
		Month:      month,
		Year:       year,
		Amount:     amount.Round(0),
		Confidence: LinearConfidence,
		Reasoning:  reasoning + ".",
	}
}

// AIForecast projects months 1..n after now from a 12-month pattern. Each
// step compounds the trend by 5% per month ahead and applies the fixed
// month-of-year multiplier.
func AIForecast(pattern model.SpendingPattern, now time.Time, n int) ([]Estimate, error) {
	if n < 1 || n > MaxMonthsAhead {
		return nil, fmt.Errorf("%w: months must be between 1 and %d, got %d", model.ErrInvalidInput, MaxMonthsAhead, n)
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	estimates := make([]Estimate, 0, n)
	for i := 1; i <= n; i++ {
		target := first.AddDate(0, i, 0)

		trend := 1.0
		switch pattern.Trend {
		case model.TrendIncreasing:
			trend = 1 + trendStep*float64(i)
		case model.TrendDecreasing:
			trend = 1 - trendStep*float64(i)
		}
		seasonal := MonthMultiplier(target.Month())

		amount := pattern.AverageMonthly.
			Mul(decimal.NewFromFloat(trend)).
			Mul(decimal.NewFromFloat(seasonal)).
			Round(0)

		estimates = append(estimates, Estimate{
			Month:      target.Month(),
			Year:       target.Year(),
			Amount:     amount,
			Confidence: AIConfidence,
			Reasoning: fmt.Sprintf("%d month(s) ahead: trend %s (x%.2f), seasonal x%.2f",
				i, pattern.Trend, trend, seasonal),
		})
	}
	return estimates, nil
}
