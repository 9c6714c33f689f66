package savings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/insight"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/pipeline"
)

const (
	patternLookbackMonths = 6
	topCategories         = 5
)

// ExpenseLister reads a family's expenses.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, familyID string, limit int) ([]model.ExpenseRecord, error)
}

// GoalReader reads savings goals. The tracker never writes them.
type GoalReader interface {
	GetGoal(ctx context.Context, id string) (model.SavingsGoal, error)
	ListGoals(ctx context.Context, familyID string) ([]model.SavingsGoal, error)
}

// Tracker serves goal computations by goal id.
type Tracker struct {
	Expenses   ExpenseLister
	Goals      GoalReader
	Insights   insight.Generator
	Policy     Policy
	Thresholds analysis.Thresholds
	Timeout    time.Duration
	Now        func() time.Time
	Log        logrus.FieldLogger
}

// GoalProgress pairs a goal with its derived progress.
type GoalProgress struct {
	Goal     model.SavingsGoal `json:"goal"`
	Progress model.Progress    `json:"progress"`
	// Transitions lists the statuses the goal may move to next.
	Transitions []model.GoalStatus `json:"transitions,omitempty"`
}

// Analysis is the narrative goal review.
type Analysis struct {
	Goal            model.SavingsGoal     `json:"goal"`
	Progress        model.Progress        `json:"progress"`
	Pattern         model.SpendingPattern `json:"pattern"`
	TopCategories   []model.CategoryTotal `json:"top_categories"`
	Insights        string                `json:"insights"`
	FromAI          bool                  `json:"from_ai"`
	Recommendations []string              `json:"recommendations"`
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) log() logrus.FieldLogger {
	if t.Log != nil {
		return t.Log
	}
	return logrus.StandardLogger()
}

func (t *Tracker) goal(ctx context.Context, id string) (model.SavingsGoal, error) {
	if strings.TrimSpace(id) == "" {
		return model.SavingsGoal{}, fmt.Errorf("%w: goal id is required", model.ErrInvalidInput)
	}
	return t.Goals.GetGoal(ctx, id)
}

// Progress returns the goal and its progress.
func (t *Tracker) Progress(ctx context.Context, goalID string) (GoalProgress, error) {
	g, err := t.goal(ctx, goalID)
	if err != nil {
		return GoalProgress{}, err
	}
	return GoalProgress{
		Goal:        g,
		Progress:    CalculateProgress(g, t.now(), t.Policy),
		Transitions: allowedTransitions(g.Status),
	}, nil
}

// Compare ranks the goal among its family's active goals.
func (t *Tracker) Compare(ctx context.Context, goalID string) (Ranking, error) {
	g, err := t.goal(ctx, goalID)
	if err != nil {
		return Ranking{}, err
	}
	goals, err := t.Goals.ListGoals(ctx, g.FamilyID)
	if err != nil {
		return Ranking{}, fmt.Errorf("listing goals: %w", err)
	}
	return CompareGoals(g, goals), nil
}

// Suggest proposes category reductions from the last three months of spend.
func (t *Tracker) Suggest(ctx context.Context, goalID string) (Adjustments, error) {
	g, err := t.goal(ctx, goalID)
	if err != nil {
		return Adjustments{}, err
	}
	monthly, err := t.monthlyCategories(ctx, g.FamilyID)
	if err != nil {
		return Adjustments{}, err
	}
	return SuggestAdjustments(monthly, t.Policy).WithTarget(g.TargetAmount.Sub(g.CurrentAmount)), nil
}

// Forecast projects goal achievement.
func (t *Tracker) Forecast(ctx context.Context, goalID string) (Achievement, error) {
	g, err := t.goal(ctx, goalID)
	if err != nil {
		return Achievement{}, err
	}
	return ForecastAchievement(g, t.now(), t.Policy), nil
}

// Analyze asks the collaborator for a goal review. When it is unavailable
// the review is written from the computed figures; Recommendations is
// never empty.
func (t *Tracker) Analyze(ctx context.Context, goalID string) (Analysis, error) {
	g, err := t.goal(ctx, goalID)
	if err != nil {
		return Analysis{}, err
	}
	records, err := t.Expenses.ListExpenses(ctx, g.FamilyID, 0)
	if err != nil {
		return Analysis{}, fmt.Errorf("loading expenses: %w", err)
	}

	now := t.now()
	a := Analysis{
		Goal:     g,
		Progress: CalculateProgress(g, now, t.Policy),
		Pattern:  analysis.AnalyzePattern(records, now, patternLookbackMonths, t.Thresholds),
	}
	windowStart := now.AddDate(0, -patternLookbackMonths, 0)
	a.TopCategories = pipeline.CategoryBreakdown(pipeline.FilterByTime(records, windowStart, now))
	if len(a.TopCategories) > topCategories {
		a.TopCategories = a.TopCategories[:topCategories]
	}

	a.Recommendations = recommendations(a, t.Policy.WithDefaults())
	bundle := map[string]any{
		"goal":           g,
		"progress":       a.Progress,
		"pattern":        a.Pattern,
		"top_categories": a.TopCategories,
	}
	gen := t.Insights
	if gen == nil {
		gen = insight.Nop{}
	}
	res := insight.Narrate(ctx, "goal", t.Timeout,
		func(ctx context.Context) (string, error) { return gen.GenerateInsights(ctx, bundle) },
		func() string { return strings.Join(a.Recommendations, " ") },
	)
	if res.Err != nil {
		t.log().WithFields(logrus.Fields{"goal": g.ID, "error": res.Err}).
			Warn("goal insights unavailable, using template recommendations")
	}
	a.Insights = res.Text
	a.FromAI = res.FromAI
	return a, nil
}

func (t *Tracker) monthlyCategories(ctx context.Context, familyID string) ([]model.CategoryTotal, error) {
	records, err := t.Expenses.ListExpenses(ctx, familyID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading expenses: %w", err)
	}
	return MonthlyCategoryAverages(records, t.now(), SuggestLookbackMonths), nil
}

func allowedTransitions(from model.GoalStatus) []model.GoalStatus {
	var out []model.GoalStatus
	for _, to := range []model.GoalStatus{model.GoalActive, model.GoalCompleted, model.GoalPaused, model.GoalCancelled} {
		if model.CanTransition(from, to) {
			out = append(out, to)
		}
	}
	return out
}

// recommendations writes template sentences from the computed figures.
func recommendations(a Analysis, policy Policy) []string {
	p := a.Progress
	var out []string

	switch {
	case p.TargetReached:
		out = append(out, fmt.Sprintf("Goal %q has reached %.0f%% of its target; consider marking it completed.", a.Goal.Name, p.Percentage))
	case p.OnTrack:
		out = append(out, fmt.Sprintf("Goal %q is %.0f%% funded and on track.", a.Goal.Name, p.Percentage))
	default:
		out = append(out, fmt.Sprintf("Goal %q is %.0f%% funded, behind the %.0f%% expected by now.",
			a.Goal.Name, p.Percentage, p.ExpectedProgress))
	}

	if p.MonthlyRequired.IsPositive() {
		out = append(out, fmt.Sprintf("Set aside %s per month to finish on time.", p.MonthlyRequired.StringFixed(0)))
	}
	if p.DaysRemaining != nil && *p.DaysRemaining <= 0 && !p.TargetReached {
		out = append(out, "The target date has passed; pick a new date or lower the target.")
	}

	if len(a.TopCategories) > 0 {
		top := a.TopCategories[0]
		cut := policy.DefaultReduction
		if policy.IsEssential(top.Category) {
			cut = policy.EssentialReduction
		}
		out = append(out, fmt.Sprintf("%s is the largest spending category (%.0f%% of spend); trimming it by %.0f%% frees money for this goal.",
			top.Category, top.Share, cut*100))
	}
	if a.Pattern.Trend == model.TrendIncreasing {
		out = append(out, "Monthly spending is trending up; review recurring costs.")
	}
	return out
}
