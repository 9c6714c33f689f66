// Package analysis derives spending patterns from monthly bucketed history.
package analysis

import "time"

// Thresholds holds the heuristic multipliers of the pattern analyzer and the
// forecasts built on it. Zero fields fall back to DefaultThresholds.
type Thresholds struct {
	TrendUp          float64 // second half > first half * TrendUp => increasing
	TrendDown        float64 // second half < first half * TrendDown => decreasing
	MinTrendMonths   int
	AnomalyElevated  float64 // month > avg * AnomalyElevated is flagged
	AnomalyHigh      float64 // month > avg * AnomalyHigh is "high spending"
	LiveMedium       float64 // live figure above avg * LiveMedium is anomalous
	LiveHigh         float64 // live figure above avg * LiveHigh is high severity
	HighSeasonMonths []time.Month
}

// DefaultThresholds returns the stock heuristic constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TrendUp:         1.10,
		TrendDown:       0.90,
		MinTrendMonths:  3,
		AnomalyElevated: 1.5,
		AnomalyHigh:     2.0,
		LiveMedium:      1.2,
		LiveHigh:        1.5,
		// Lunar New Year, summer, year-end
		HighSeasonMonths: []time.Month{
			time.January, time.February, time.June, time.July, time.November, time.December,
		},
	}
}

// WithDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.TrendUp == 0 {
		t.TrendUp = d.TrendUp
	}
	if t.TrendDown == 0 {
		t.TrendDown = d.TrendDown
	}
	if t.MinTrendMonths == 0 {
		t.MinTrendMonths = d.MinTrendMonths
	}
	if t.AnomalyElevated == 0 {
		t.AnomalyElevated = d.AnomalyElevated
	}
	if t.AnomalyHigh == 0 {
		t.AnomalyHigh = d.AnomalyHigh
	}
	if t.LiveMedium == 0 {
		t.LiveMedium = d.LiveMedium
	}
	if t.LiveHigh == 0 {
		t.LiveHigh = d.LiveHigh
	}
	if len(t.HighSeasonMonths) == 0 {
		t.HighSeasonMonths = d.HighSeasonMonths
	}
	return t
}

// IsHighSeason reports whether m is one of the high-season months.
func (t Thresholds) IsHighSeason(m time.Month) bool {
	for _, hs := range t.HighSeasonMonths {
		if hs == m {
			return true
		}
	}
	return false
}
