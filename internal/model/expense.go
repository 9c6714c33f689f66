// Package model defines domain types for famspend expenses, forecasts and goals.
package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to expenses recorded without a category.
const DefaultCategory = "Other"

var (
	// ErrInvalidInput marks a rejected request (missing family, bad range, bad argument).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a lookup of a record that does not exist.
	ErrNotFound = errors.New("not found")
)

// ExpenseRecord is one immutable spend entry. The analytics code only reads it.
type ExpenseRecord struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"` // zero when the source had no date
	OwnerID     string          `json:"owner_id"`  // family member the spend is attributed to
	FamilyID    string          `json:"family_id"`
}

// CategoryOrDefault returns the record's category, or DefaultCategory when empty.
func (e ExpenseRecord) CategoryOrDefault() string {
	if e.Category == "" {
		return DefaultCategory
	}
	return e.Category
}

// HasTimestamp reports whether the record can be placed in a time bucket.
func (e ExpenseRecord) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}
