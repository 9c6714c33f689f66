package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/forecast"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/pipeline"
	"github.com/famledger/famspend/internal/savings"
)

func money(d decimal.Decimal) string {
	return humanize.Comma(d.Round(0).IntPart())
}

func currentMonth(now time.Time) model.Range {
	start, end := pipeline.PeriodBounds(now, model.Month)
	return model.Range{Start: start, End: end}
}

func handleLargest(_ context.Context, _ Query, d Data) (Section, error) {
	s := Section{Title: "Largest expense"}
	r, ok := pipeline.Largest(d.Records)
	if !ok {
		s.Summary = "No expenses recorded yet."
		return s, nil
	}
	s.Summary = fmt.Sprintf("Largest expense ever: %s in %s", money(r.Amount), r.CategoryOrDefault())
	if r.HasTimestamp() {
		s.Summary += " on " + r.Timestamp.Format(time.DateOnly)
	}
	if r.Description != "" {
		s.Summary += fmt.Sprintf(" (%s)", r.Description)
	}
	s.Summary += "."
	s.Data = r
	return s, nil
}

func handleCategoryBreakdown(_ context.Context, q Query, d Data) (Section, error) {
	cats := pipeline.CategoryBreakdown(pipeline.FilterByRange(d.Records, q.Range))
	s := Section{Title: "Spending by category, " + q.RangeLabel, Data: cats}
	if len(cats) == 0 {
		s.Summary = "No spending recorded for " + q.RangeLabel + "."
		return s, nil
	}

	parts := make([]string, 0, 5)
	for i, c := range cats {
		if i == 5 {
			break
		}
		parts = append(parts, fmt.Sprintf("%s %s (%.1f%%)", c.Category, money(c.Amount), c.Share))
	}
	s.Summary = "By category (" + q.RangeLabel + "): " + strings.Join(parts, ", ") + "."
	return s, nil
}

func handleCategoryTotal(_ context.Context, q Query, d Data) (Section, error) {
	inRange := pipeline.FilterByRange(d.Records, q.Range)
	grand := pipeline.Total(inRange)

	totals := make([]model.CategoryTotal, 0, len(q.Categories))
	parts := make([]string, 0, len(q.Categories))
	for _, c := range q.Categories {
		matched := pipeline.FilterByCategory(inRange, c)
		ct := model.CategoryTotal{Category: c, Amount: pipeline.Total(matched), Count: len(matched)}
		if grand.IsPositive() {
			ct.Share = ct.Amount.Div(grand).InexactFloat64() * 100
		}
		totals = append(totals, ct)
		parts = append(parts, fmt.Sprintf("%s %s across %d expense(s)", c, money(ct.Amount), ct.Count))
	}
	return Section{
		Title:   "Category totals, " + q.RangeLabel,
		Summary: strings.Join(parts, "; ") + " (" + q.RangeLabel + ").",
		Data:    totals,
	}, nil
}

func handleMembers(_ context.Context, q Query, d Data) (Section, error) {
	members := pipeline.MemberBreakdown(pipeline.FilterByRange(d.Records, q.Range))
	s := Section{Title: "Spending by member, " + q.RangeLabel, Data: members}
	if len(members) == 0 {
		s.Summary = "No spending recorded for " + q.RangeLabel + "."
		return s, nil
	}
	parts := make([]string, 0, len(members))
	for _, m := range members {
		owner := m.OwnerID
		if owner == "" {
			owner = "unassigned"
		}
		parts = append(parts, fmt.Sprintf("%s %s (%.1f%%)", owner, money(m.Amount), m.Share))
	}
	s.Summary = "By member (" + q.RangeLabel + "): " + strings.Join(parts, ", ") + "."
	return s, nil
}

func handleMonthComparison(_ context.Context, q Query, d Data) (Section, error) {
	cur, label := currentMonth(q.Now), "this month"
	if q.HasRange {
		cur, label = q.Range, q.RangeLabel
	}
	cmp := pipeline.Compare(d.Records, cur, pipeline.PreviousMonth(cur), label+" vs previous")

	s := Section{Title: "Comparison, " + cmp.Label, Data: cmp}
	s.Summary = fmt.Sprintf("%s: %s vs %s before (%+.1f%%).",
		capitalize(label), money(cmp.Current.Total), money(cmp.Previous.Total), cmp.ChangePercentage)
	if len(cmp.Categories) > 0 {
		top := cmp.Categories[0]
		s.Summary += fmt.Sprintf(" Biggest change: %s (%s).", top.Category, signed(top.Change))
	}
	return s, nil
}

// SavingsPlan answers "how do I save X in N months".
type SavingsPlan struct {
	Target              decimal.Decimal     `json:"target"`
	Months              int                 `json:"months"`
	MonthlyRequired     decimal.Decimal     `json:"monthly_required"`
	AverageMonthlySpend decimal.Decimal     `json:"average_monthly_spend"`
	ShareOfSpend        float64             `json:"share_of_spend"`
	Adjustments         savings.Adjustments `json:"adjustments"`
	// Covered reports whether the suggested reductions alone reach the
	// monthly amount required.
	Covered bool `json:"covered"`
}

// GoalSummary is one active goal in the goals overview.
type GoalSummary struct {
	Goal     model.SavingsGoal `json:"goal"`
	Progress model.Progress    `json:"progress"`
}

func handleSavingsPlan(_ context.Context, q Query, d Data) (Section, error) {
	target, ok := ParseAmount(q.Text)
	if !ok {
		return goalsOverview(q, d), nil
	}

	months := ParseMonths(q.Text)
	pattern := analysis.AnalyzePattern(d.Records, q.Now, forecast.LinearLookbackMonths, d.Thresholds)
	monthly := savings.MonthlyCategoryAverages(d.Records, q.Now, savings.SuggestLookbackMonths)

	plan := SavingsPlan{
		Target:              target,
		Months:              months,
		MonthlyRequired:     target.Div(decimal.NewFromInt(int64(months))).Round(0),
		AverageMonthlySpend: pattern.AverageMonthly.Round(0),
		Adjustments:         savings.SuggestAdjustments(monthly, d.Policy).WithTarget(target),
	}
	if pattern.AverageMonthly.IsPositive() {
		plan.ShareOfSpend = plan.MonthlyRequired.Div(pattern.AverageMonthly).InexactFloat64() * 100
	}
	plan.Covered = plan.Adjustments.TotalMonthlySavings.GreaterThanOrEqual(plan.MonthlyRequired)

	summary := fmt.Sprintf("Saving %s in %d months needs %s per month", money(target), months, money(plan.MonthlyRequired))
	if plan.ShareOfSpend > 0 {
		summary += fmt.Sprintf(", %.0f%% of the usual %s monthly spend", plan.ShareOfSpend, money(plan.AverageMonthlySpend))
	}
	summary += "."
	if plan.Adjustments.TotalMonthlySavings.IsPositive() {
		summary += fmt.Sprintf(" Suggested cuts free %s per month", money(plan.Adjustments.TotalMonthlySavings))
		if plan.Covered {
			summary += ", enough to cover it."
		} else {
			summary += ", not enough on their own."
		}
	}
	return Section{Title: "Savings plan", Summary: summary, Data: plan}, nil
}

func goalsOverview(q Query, d Data) Section {
	var active []GoalSummary
	var parts []string
	for _, g := range d.Goals {
		if g.Status != model.GoalActive {
			continue
		}
		p := savings.CalculateProgress(g, q.Now, d.Policy)
		active = append(active, GoalSummary{Goal: g, Progress: p})
		state := "on track"
		if !p.OnTrack {
			state = "behind"
		}
		parts = append(parts, fmt.Sprintf("%s %.0f%% (%s)", g.Name, p.Percentage, state))
	}

	s := Section{Title: "Savings goals", Data: active}
	if len(active) == 0 {
		s.Summary = "No active savings goals. Ask e.g. \"save 10 million in 6 months\" for a plan."
		return s
	}
	s.Summary = "Active goals: " + strings.Join(parts, ", ") + "."
	return s
}

// ForecastSection is the data of the forecast intent.
type ForecastSection struct {
	Trend    model.Trend       `json:"trend"`
	Average  decimal.Decimal   `json:"average_monthly"`
	Estimate forecast.Estimate `json:"estimate"`
}

func handleForecast(_ context.Context, q Query, d Data) (Section, error) {
	pattern := analysis.AnalyzePattern(d.Records, q.Now, forecast.LinearLookbackMonths, d.Thresholds)
	est := forecast.LinearForecast(pattern, q.Now, d.Thresholds)
	return Section{
		Title: "Spending forecast",
		Summary: fmt.Sprintf("%s %d is forecast at %s (confidence %.0f%%). %s",
			est.Month, est.Year, money(est.Amount), est.Confidence*100, est.Reasoning),
		Data: ForecastSection{Trend: pattern.Trend, Average: pattern.AverageMonthly, Estimate: est},
	}, nil
}

func handleTotal(_ context.Context, q Query, d Data) (Section, error) {
	inRange := pipeline.FilterByRange(d.Records, q.Range)
	total := pipeline.Total(inRange)
	return Section{
		Title:   "Total spending, " + q.RangeLabel,
		Summary: fmt.Sprintf("Total spending (%s): %s across %d expense(s).", q.RangeLabel, money(total), len(inRange)),
		Data: model.PeriodTotal{
			Range: q.Range,
			Total: total,
			Count: len(inRange),
		},
	}, nil
}

func overview(q Query, d Data) Section {
	month := currentMonth(q.Now)
	cmp := pipeline.Compare(d.Records, month, pipeline.PreviousMonth(month), "this month vs last month")
	cats := pipeline.CategoryBreakdown(pipeline.FilterByRange(d.Records, month))
	if len(cats) > 3 {
		cats = cats[:3]
	}

	summary := fmt.Sprintf("This month: %s over %d expense(s), last month: %s (%+.1f%%).",
		money(cmp.Current.Total), cmp.Current.Count, money(cmp.Previous.Total), cmp.ChangePercentage)
	if len(cats) > 0 {
		names := make([]string, len(cats))
		for i, c := range cats {
			names[i] = fmt.Sprintf("%s %s", c.Category, money(c.Amount))
		}
		summary += " Top categories: " + strings.Join(names, ", ") + "."
	}
	return Section{
		Title:   "Overview",
		Summary: summary,
		Data: map[string]any{
			"comparison":     cmp,
			"top_categories": cats,
		},
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + money(d)
	}
	return money(d)
}
