package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity selects the period length used for bucketing.
type Granularity string

const (
	Day     Granularity = "day"
	Week    Granularity = "week"
	Month   Granularity = "month"
	Quarter Granularity = "quarter"
	Year    Granularity = "year"
)

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Day, Week, Month, Quarter, Year:
		return g, nil
	}
	return "", fmt.Errorf("%w: unknown granularity %q", ErrInvalidInput, s)
}

// TimeBucket is the aggregate of all expenses falling in one period.
type TimeBucket struct {
	Key   string          `json:"key"`
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"` // exclusive
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Range is a half-open time interval [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects zero bounds and empty or inverted ranges.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: date range needs both start and end", ErrInvalidInput)
	}
	if !r.End.After(r.Start) {
		return fmt.Errorf("%w: range end %s is not after start %s",
			ErrInvalidInput, r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}

// Contains reports whether t falls in [Start, End).
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// CategoryTotal holds the aggregate spend of one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
	Share    float64         `json:"share"` // percent of the period total
}

// MemberTotal holds the aggregate spend attributed to one family member.
type MemberTotal struct {
	OwnerID string          `json:"owner_id"`
	Amount  decimal.Decimal `json:"amount"`
	Count   int             `json:"count"`
	Share   float64         `json:"share"`
}

// CategoryDelta compares one category across two periods.
type CategoryDelta struct {
	Category         string          `json:"category"`
	Current          decimal.Decimal `json:"current"`
	Previous         decimal.Decimal `json:"previous"`
	Change           decimal.Decimal `json:"change"`
	ChangePercentage float64         `json:"change_percentage"`
}

// PeriodTotal is the summary of one side of a comparison.
type PeriodTotal struct {
	Range Range           `json:"range"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Comparison holds current and previous period totals and their deltas.
type Comparison struct {
	Label            string          `json:"label"`
	Current          PeriodTotal     `json:"current"`
	Previous         PeriodTotal     `json:"previous"`
	Change           decimal.Decimal `json:"change"`
	ChangePercentage float64         `json:"change_percentage"`
	Categories       []CategoryDelta `json:"categories,omitempty"`
}
