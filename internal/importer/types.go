// Package importer reads expense and goal fixtures from JSONL files into the store.
package importer

import (
	"github.com/shopspring/decimal"
)

// Line types routed by the top-level "type" field.
const (
	TypeExpense = "expense"
	TypeGoal    = "goal"
)

// rawExpense is one "expense" line. Amounts accept JSON strings or numbers.
type rawExpense struct {
	ID          string          `json:"id"`
	FamilyID    string          `json:"family_id"`
	OwnerID     string          `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Timestamp   string          `json:"timestamp"`
}

// rawGoal is one "goal" line.
type rawGoal struct {
	ID            string          `json:"id"`
	FamilyID      string          `json:"family_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    string          `json:"target_date"`
	Category      string          `json:"category"`
	CreatedAt     string          `json:"created_at"`
	Status        string          `json:"status"`
}
