package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Algorithm tags which forecast method produced a prediction.
type Algorithm string

const (
	AlgorithmLinear Algorithm = "linear"
	AlgorithmAI     Algorithm = "ai"
)

// Prediction is one persisted month-ahead forecast. Rows are append-only.
type Prediction struct {
	ID              string          `json:"id"`
	FamilyID        string          `json:"family_id"`
	PredictedAmount decimal.Decimal `json:"predicted_amount"`
	PredictedMonth  time.Month      `json:"predicted_month"`
	PredictedYear   int             `json:"predicted_year"`
	Category        *string         `json:"category,omitempty"`
	Confidence      float64         `json:"confidence"`
	Algorithm       Algorithm       `json:"algorithm"`
	Reasoning       string          `json:"reasoning"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Period returns the "YYYY-MM" key of the predicted month.
func (p Prediction) Period() string {
	return fmt.Sprintf("%04d-%02d", p.PredictedYear, int(p.PredictedMonth))
}
