package savings

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

const day = 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// CalculateProgress derives the progress of goal at now. Overshoot is not
// clamped: 12M saved of a 10M target is 120% with -2M remaining.
func CalculateProgress(goal model.SavingsGoal, now time.Time, policy Policy) model.Progress {
	policy = policy.WithDefaults()

	p := model.Progress{
		Percentage:      percentage(goal),
		Remaining:       goal.TargetAmount.Sub(goal.CurrentAmount),
		MonthlyRequired: decimal.Zero,
	}
	p.TargetReached = p.Percentage >= 100

	if goal.TargetDate != nil {
		days := int(math.Ceil(goal.TargetDate.Sub(now).Hours() / 24))
		p.DaysRemaining = &days
		// Negative on overshoot: the surplus per remaining month.
		if days > 0 {
			p.MonthlyRequired = p.Remaining.
				Mul(decimal.NewFromInt(30)).
				Div(decimal.NewFromInt(int64(days))).
				Round(2)
		}
	}

	elapsed := daysElapsed(goal, now)
	switch {
	case p.TargetReached || !p.Remaining.IsPositive():
		done := now
		p.EstimatedCompletionDate = &done
	case goal.CurrentAmount.IsPositive() && elapsed > 0:
		rate := goal.CurrentAmount.Div(decimal.NewFromInt(int64(elapsed)))
		need := p.Remaining.Div(rate).Ceil().IntPart()
		est := now.AddDate(0, 0, int(need))
		p.EstimatedCompletionDate = &est
	}

	if goal.TargetDate == nil {
		p.OnTrack = true
		return p
	}
	p.ExpectedProgress = expectedProgress(goal, now)
	p.OnTrack = p.Percentage >= p.ExpectedProgress*policy.OnTrackTolerance

	return p
}

func percentage(goal model.SavingsGoal) float64 {
	if !goal.TargetAmount.IsPositive() {
		return 0
	}
	pct := goal.CurrentAmount.Div(goal.TargetAmount).Mul(hundred).InexactFloat64()
	return math.Max(pct, 0)
}

// daysElapsed counts whole days since the goal was created.
func daysElapsed(goal model.SavingsGoal, now time.Time) int {
	if goal.CreatedAt.IsZero() || !now.After(goal.CreatedAt) {
		return 0
	}
	return int(now.Sub(goal.CreatedAt) / day)
}

// expectedProgress is the percentage linear pacing would have reached by
// now, within [0, 100].
func expectedProgress(goal model.SavingsGoal, now time.Time) float64 {
	total := goal.TargetDate.Sub(goal.CreatedAt)
	if total <= 0 || goal.CreatedAt.IsZero() {
		return 100
	}
	elapsed := now.Sub(goal.CreatedAt)
	pct := float64(elapsed) / float64(total) * 100
	return math.Min(math.Max(pct, 0), 100)
}
