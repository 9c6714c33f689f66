package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalPaused    GoalStatus = "paused"
	GoalCancelled GoalStatus = "cancelled"
)

var goalTransitions = map[GoalStatus][]GoalStatus{
	GoalActive: {GoalCompleted, GoalPaused, GoalCancelled},
	GoalPaused: {GoalActive},
}

// CanTransition reports whether from -> to is a legal status change.
// The analytics code never changes status; presentation layers consult this.
func CanTransition(from, to GoalStatus) bool {
	for _, s := range goalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SavingsGoal is owned by the host application; analytics only reads it.
type SavingsGoal struct {
	ID            string          `json:"id"`
	FamilyID      string          `json:"family_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	Category      string          `json:"category"`
	CreatedAt     time.Time       `json:"created_at"`
	Status        GoalStatus      `json:"status"`
}

// Progress is derived per request and never stored.
type Progress struct {
	Percentage       float64         `json:"percentage"`
	Remaining        decimal.Decimal `json:"remaining"` // negative on overshoot
	DaysRemaining    *int            `json:"days_remaining,omitempty"`
	MonthlyRequired  decimal.Decimal `json:"monthly_required"`
	ExpectedProgress float64         `json:"expected_progress"`
	OnTrack          bool            `json:"on_track"`
	// TargetReached lets callers decide whether to mark the goal completed.
	TargetReached           bool       `json:"target_reached"`
	EstimatedCompletionDate *time.Time `json:"estimated_completion_date,omitempty"`
}
