package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend is the coarse direction of monthly spending.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// MonthTotal is one month of the analyzed window.
type MonthTotal struct {
	Year   int             `json:"year"`
	Month  time.Month      `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// AnomalyMonth is a month whose total stands out against the window average.
type AnomalyMonth struct {
	Month  time.Month      `json:"month"`
	Year   int             `json:"year"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// SpendingPattern summarizes a lookback window of monthly spending.
type SpendingPattern struct {
	LookbackMonths int             `json:"lookback_months"`
	WindowStart    time.Time       `json:"window_start"`
	WindowEnd      time.Time       `json:"window_end"`
	Trend          Trend           `json:"trend"`
	AverageMonthly decimal.Decimal `json:"average_monthly"`
	SeasonalFactor float64         `json:"seasonal_factor"`
	// SeasonalKnown is false when the window had no high-season data and
	// SeasonalFactor holds the 1.0 default.
	SeasonalKnown bool           `json:"seasonal_known"`
	Months        []MonthTotal   `json:"months,omitempty"`
	AnomalyMonths []AnomalyMonth `json:"anomaly_months,omitempty"`
}

// Severity classifies a live spending figure against its history.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AnomalyCheck is the result of comparing a figure against the monthly average.
type AnomalyCheck struct {
	IsAnomaly      bool            `json:"is_anomaly"`
	Severity       Severity        `json:"severity"`
	CurrentAmount  decimal.Decimal `json:"current_amount"`
	AverageMonthly decimal.Decimal `json:"average_monthly"`
	Ratio          float64         `json:"ratio"` // current / average, 0 without history
	Suggestions    []string        `json:"suggestions,omitempty"`
}
