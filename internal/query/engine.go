package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/insight"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/savings"
)

// ExpenseLister reads a family's expenses.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, familyID string, limit int) ([]model.ExpenseRecord, error)
}

// GoalLister reads a family's savings goals.
type GoalLister interface {
	ListGoals(ctx context.Context, familyID string) ([]model.SavingsGoal, error)
}

// Engine answers questions for one family at a time.
type Engine struct {
	Expenses   ExpenseLister
	Goals      GoalLister
	Insights   insight.Generator
	Thresholds analysis.Thresholds
	Policy     savings.Policy
	Intents    []Intent // nil uses DefaultIntents
	Timeout    time.Duration
	Now        func() time.Time
	Log        logrus.FieldLogger
}

// Answer is a bundle plus its narrative.
type Answer struct {
	Bundle Bundle `json:"bundle"`
	Text   string `json:"text"`
	FromAI bool   `json:"from_ai"`
}

// Bundle parses question and assembles the sections of every matching
// intent from the family's data.
func (e *Engine) Bundle(ctx context.Context, familyID, question string) (Bundle, error) {
	if strings.TrimSpace(familyID) == "" {
		return Bundle{}, fmt.Errorf("%w: family id is required", model.ErrInvalidInput)
	}
	if strings.TrimSpace(question) == "" {
		return Bundle{}, fmt.Errorf("%w: question is empty", model.ErrInvalidInput)
	}

	records, err := e.Expenses.ListExpenses(ctx, familyID, 0)
	if err != nil {
		return Bundle{}, fmt.Errorf("loading expenses: %w", err)
	}
	var goals []model.SavingsGoal
	if e.Goals != nil {
		if goals, err = e.Goals.ListGoals(ctx, familyID); err != nil {
			return Bundle{}, fmt.Errorf("loading goals: %w", err)
		}
	}

	now := time.Now()
	if e.Now != nil {
		now = e.Now()
	}
	q := Parse(question, now, knownCategories(records))
	intents := e.Intents
	if intents == nil {
		intents = DefaultIntents()
	}

	sections, err := Route(ctx, q, Data{
		FamilyID:   familyID,
		Records:    records,
		Goals:      goals,
		Thresholds: e.Thresholds,
		Policy:     e.Policy,
	}, intents)
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{
		Question:   question,
		Normalized: q.Text,
		Period:     q.RangeLabel,
		Sections:   sections,
	}, nil
}

// Answer builds the bundle and asks the collaborator to phrase a reply.
// Without the collaborator the section summaries are returned as the text.
func (e *Engine) Answer(ctx context.Context, familyID, question string) (Answer, error) {
	b, err := e.Bundle(ctx, familyID, question)
	if err != nil {
		return Answer{}, err
	}

	gen := e.Insights
	if gen == nil {
		gen = insight.Nop{}
	}
	res := insight.Narrate(ctx, "query", e.Timeout,
		func(ctx context.Context) (string, error) { return gen.GenerateInsights(ctx, b) },
		func() string { return Summarize(b) },
	)
	if res.Err != nil && e.Log != nil {
		e.Log.WithFields(logrus.Fields{"family": familyID, "error": res.Err}).
			Warn("query narrative unavailable, using section summaries")
	}
	return Answer{Bundle: b, Text: res.Text, FromAI: res.FromAI}, nil
}

// Summarize joins the section summaries, one per line.
func Summarize(b Bundle) string {
	lines := make([]string, 0, len(b.Sections))
	for _, s := range b.Sections {
		lines = append(lines, s.Summary)
	}
	return strings.Join(lines, "\n")
}

func knownCategories(records []model.ExpenseRecord) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range records {
		c := r.CategoryOrDefault()
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
