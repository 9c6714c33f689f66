package analysis

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/pipeline"
)

// AnalyzePattern summarizes records in [now - lookbackMonths, now].
//
// Months without spend between the first and last month that has data count
// as zero in the average. Months outside that span are not invented.
func AnalyzePattern(records []model.ExpenseRecord, now time.Time, lookbackMonths int, th Thresholds) model.SpendingPattern {
	th = th.WithDefaults()
	windowStart := now.AddDate(0, -lookbackMonths, 0)

	pattern := model.SpendingPattern{
		LookbackMonths: lookbackMonths,
		WindowStart:    windowStart,
		WindowEnd:      now,
		Trend:          model.TrendStable,
		AverageMonthly: decimal.Zero,
		SeasonalFactor: 1.0,
	}

	var windowed []model.ExpenseRecord
	for _, r := range records {
		if !r.HasTimestamp() || r.Timestamp.Before(windowStart) || r.Timestamp.After(now) {
			continue
		}
		windowed = append(windowed, r)
	}

	months := pipeline.FillMonths(pipeline.Bucket(windowed, model.Month))
	if len(months) == 0 {
		return pattern
	}

	totals := make([]decimal.Decimal, len(months))
	sum := decimal.Zero
	for i, b := range months {
		totals[i] = b.Total
		sum = sum.Add(b.Total)
		pattern.Months = append(pattern.Months, model.MonthTotal{
			Year:   b.Start.Year(),
			Month:  b.Start.Month(),
			Amount: b.Total,
			Count:  b.Count,
		})
	}
	avg := pipeline.Average(sum, len(totals))
	pattern.AverageMonthly = avg
	pattern.Trend = trendOf(totals, th)
	pattern.SeasonalFactor, pattern.SeasonalKnown = seasonalFactor(pattern.Months, avg, th)
	pattern.AnomalyMonths = anomalyMonths(pattern.Months, avg, th)

	return pattern
}

func trendOf(totals []decimal.Decimal, th Thresholds) model.Trend {
	if len(totals) < th.MinTrendMonths {
		return model.TrendStable
	}

	mid := len(totals) / 2
	first := mean(totals[:mid])
	second := mean(totals[mid:])

	switch {
	case second.GreaterThan(first.Mul(decimal.NewFromFloat(th.TrendUp))):
		return model.TrendIncreasing
	case second.LessThan(first.Mul(decimal.NewFromFloat(th.TrendDown))):
		return model.TrendDecreasing
	default:
		return model.TrendStable
	}
}

func seasonalFactor(months []model.MonthTotal, avg decimal.Decimal, th Thresholds) (float64, bool) {
	if avg.IsZero() {
		return 1.0, false
	}

	var high []decimal.Decimal
	for _, m := range months {
		if th.IsHighSeason(m.Month) {
			high = append(high, m.Amount)
		}
	}
	if len(high) == 0 {
		return 1.0, false
	}
	return mean(high).Div(avg).InexactFloat64(), true
}

func anomalyMonths(months []model.MonthTotal, avg decimal.Decimal, th Thresholds) []model.AnomalyMonth {
	if avg.IsZero() {
		return nil
	}

	elevated := avg.Mul(decimal.NewFromFloat(th.AnomalyElevated))
	high := avg.Mul(decimal.NewFromFloat(th.AnomalyHigh))

	var anomalies []model.AnomalyMonth
	for _, m := range months {
		if !m.Amount.GreaterThan(elevated) {
			continue
		}
		reason := "elevated spending"
		if m.Amount.GreaterThan(high) {
			reason = "high spending"
		}
		anomalies = append(anomalies, model.AnomalyMonth{
			Month:  m.Month,
			Year:   m.Year,
			Amount: m.Amount,
			Reason: reason,
		})
	}
	return anomalies
}

func mean(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return pipeline.Average(sum, len(values))
}
