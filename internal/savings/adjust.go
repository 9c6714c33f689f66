package savings

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/pipeline"
)

// SuggestLookbackMonths is the window whose category spend is averaged into
// a monthly figure for adjustments.
const SuggestLookbackMonths = 3

// MonthlyCategoryAverages returns category spend over the months before now
// divided by months.
func MonthlyCategoryAverages(records []model.ExpenseRecord, now time.Time, months int) []model.CategoryTotal {
	if months <= 0 {
		return nil
	}
	recent := pipeline.FilterByTime(records, now.AddDate(0, -months, 0), now)
	divisor := decimal.NewFromInt(int64(months))
	categories := pipeline.CategoryBreakdown(recent)
	for i := range categories {
		categories[i].Amount = categories[i].Amount.Div(divisor)
	}
	return categories
}

// Adjustment proposes a reduction for one spending category.
type Adjustment struct {
	Category         string          `json:"category"`
	CurrentMonthly   decimal.Decimal `json:"current_monthly"`
	ReductionPercent float64         `json:"reduction_percent"`
	MonthlySavings   decimal.Decimal `json:"monthly_savings"`
	Essential        bool            `json:"essential"`
}

// Adjustments is the top reductions and what they would free up.
type Adjustments struct {
	Items               []Adjustment    `json:"items"`
	TotalMonthlySavings decimal.Decimal `json:"total_monthly_savings"`
	// MonthsToTarget is how long the freed-up money alone takes to cover
	// the remaining amount; nil when nothing can be saved.
	MonthsToTarget *int `json:"months_to_target,omitempty"`
}

// SuggestAdjustments proposes a reduction per category of monthly spend:
// a small cut for essential categories, a larger one otherwise. Items are
// sorted by savings, largest first, and capped at policy.MaxSuggestions.
func SuggestAdjustments(monthly []model.CategoryTotal, policy Policy) Adjustments {
	policy = policy.WithDefaults()

	items := make([]Adjustment, 0, len(monthly))
	for _, c := range monthly {
		if !c.Amount.IsPositive() {
			continue
		}
		essential := policy.IsEssential(c.Category)
		cut := policy.DefaultReduction
		if essential {
			cut = policy.EssentialReduction
		}
		items = append(items, Adjustment{
			Category:         c.Category,
			CurrentMonthly:   c.Amount.Round(2),
			ReductionPercent: decimal.NewFromFloat(cut).Mul(hundred).InexactFloat64(),
			MonthlySavings:   c.Amount.Mul(decimal.NewFromFloat(cut)).Round(2),
			Essential:        essential,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].MonthlySavings.Equal(items[j].MonthlySavings) {
			return items[i].MonthlySavings.GreaterThan(items[j].MonthlySavings)
		}
		return items[i].Category < items[j].Category
	})
	if len(items) > policy.MaxSuggestions {
		items = items[:policy.MaxSuggestions]
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.MonthlySavings)
	}
	return Adjustments{Items: items, TotalMonthlySavings: total}
}

// WithTarget fills MonthsToTarget for the goal's remaining amount.
func (a Adjustments) WithTarget(remaining decimal.Decimal) Adjustments {
	if !a.TotalMonthlySavings.IsPositive() {
		return a
	}
	months := 0
	if remaining.IsPositive() {
		months = int(remaining.Div(a.TotalMonthlySavings).Ceil().IntPart())
	}
	a.MonthsToTarget = &months
	return a
}

// Scenario is one what-if pace for reaching a goal.
type Scenario struct {
	Name                string          `json:"name"`
	MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
	ProjectedCompletion *time.Time      `json:"projected_completion,omitempty"`
	WillAchieve         bool            `json:"will_achieve"`
}

// Achievement projects whether a goal is met by its target date.
type Achievement struct {
	GoalID              string          `json:"goal_id"`
	TargetDate          *time.Time      `json:"target_date,omitempty"`
	Remaining           decimal.Decimal `json:"remaining"`
	CurrentMonthlyPace  decimal.Decimal `json:"current_monthly_pace"`
	RequiredMonthly     decimal.Decimal `json:"required_monthly"`
	ProjectedCompletion *time.Time      `json:"projected_completion,omitempty"`
	WillAchieve         bool            `json:"will_achieve"`
	Scenarios           []Scenario      `json:"scenarios"`
}

var scenarioFactors = []struct {
	name   string
	factor float64
}{
	{"accelerate", 1.2},
	{"current", 1.0},
	{"decelerate", 0.8},
}

// ForecastAchievement extrapolates the historical daily contribution rate
// and three what-if paces (+20%, unchanged, -20%).
func ForecastAchievement(goal model.SavingsGoal, now time.Time, policy Policy) Achievement {
	progress := CalculateProgress(goal, now, policy)

	a := Achievement{
		GoalID:             goal.ID,
		TargetDate:         goal.TargetDate,
		Remaining:          progress.Remaining,
		CurrentMonthlyPace: decimal.Zero,
		RequiredMonthly:    progress.MonthlyRequired,
	}

	elapsed := daysElapsed(goal, now)
	if elapsed > 0 && goal.CurrentAmount.IsPositive() {
		a.CurrentMonthlyPace = goal.CurrentAmount.
			Mul(decimal.NewFromInt(30)).
			Div(decimal.NewFromInt(int64(elapsed))).
			Round(2)
	}

	for _, sf := range scenarioFactors {
		monthly := a.CurrentMonthlyPace.Mul(decimal.NewFromFloat(sf.factor)).Round(2)
		s := Scenario{Name: sf.name, MonthlyContribution: monthly}
		s.ProjectedCompletion = projectCompletion(progress.Remaining, monthly, now)
		s.WillAchieve = meetsTarget(s.ProjectedCompletion, goal.TargetDate)
		a.Scenarios = append(a.Scenarios, s)
		if sf.name == "current" {
			a.ProjectedCompletion = s.ProjectedCompletion
			a.WillAchieve = s.WillAchieve
		}
	}
	return a
}

func projectCompletion(remaining, monthly decimal.Decimal, now time.Time) *time.Time {
	if !remaining.IsPositive() {
		done := now
		return &done
	}
	if !monthly.IsPositive() {
		return nil
	}
	days := remaining.Mul(decimal.NewFromInt(30)).Div(monthly).Ceil().IntPart()
	t := now.AddDate(0, 0, int(days))
	return &t
}

func meetsTarget(completion, target *time.Time) bool {
	if completion == nil {
		return false
	}
	if target == nil {
		return true
	}
	return !completion.After(*target)
}
