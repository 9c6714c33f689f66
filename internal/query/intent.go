// Package query answers free-text spending questions. A question is
// normalized, matched against an ordered list of intents, and every
// matching intent contributes its own data section to the answer bundle.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/savings"
)

// Query is a parsed question.
type Query struct {
	Raw        string
	Text       string // normalized
	Words      string // letters and digits only, space padded
	Now        time.Time
	Range      model.Range // zero means all time
	RangeLabel string
	HasRange   bool
	// Categories are the family's known category labels mentioned in the
	// question, directly or through an alias.
	Categories []string
}

// Has reports whether any phrase appears in the question as whole words.
func (q Query) Has(phrases ...string) bool {
	return containsAny(q.Words, phrases...)
}

// Data is the family snapshot handlers compute from.
type Data struct {
	FamilyID   string
	Records    []model.ExpenseRecord
	Goals      []model.SavingsGoal
	Thresholds analysis.Thresholds
	Policy     savings.Policy
}

// Section is one intent's contribution to a bundle.
type Section struct {
	Intent  string `json:"intent"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Data    any    `json:"data,omitempty"`
}

// Intent pairs a predicate on the question with the handler computing its
// section.
type Intent struct {
	Name   string
	Match  func(Query) bool
	Handle func(ctx context.Context, q Query, d Data) (Section, error)
}

// Bundle is the assembled context handed to the narration collaborator.
type Bundle struct {
	Question   string    `json:"question"`
	Normalized string    `json:"normalized"`
	Period     string    `json:"period"`
	Sections   []Section `json:"sections"`
}

// Parse normalizes question and resolves its time phrase and mentioned
// categories against known.
func Parse(question string, now time.Time, known []string) Query {
	text := Normalize(question)
	q := Query{
		Raw:   question,
		Text:  text,
		Words: words(text),
		Now:   now,
	}
	q.Range, q.RangeLabel, q.HasRange = ParseRange(q.Words, now)
	q.Categories = mentionedCategories(q.Words, known)
	return q
}

// Route runs every matching intent in order and collects their sections.
// When nothing matches, a single overview section is returned.
func Route(ctx context.Context, q Query, d Data, intents []Intent) ([]Section, error) {
	var sections []Section
	for _, in := range intents {
		if !in.Match(q) {
			continue
		}
		s, err := in.Handle(ctx, q, d)
		if err != nil {
			return sections, fmt.Errorf("intent %s: %w", in.Name, err)
		}
		s.Intent = in.Name
		sections = append(sections, s)
	}
	if len(sections) == 0 {
		s := overview(q, d)
		s.Intent = "overview"
		sections = append(sections, s)
	}
	return sections, nil
}

// DefaultIntents returns the built-in intents in evaluation order.
func DefaultIntents() []Intent {
	return []Intent{
		{
			Name: "largest_expense",
			Match: func(q Query) bool {
				return q.Has("largest", "biggest", "most expensive", "highest expense",
					"lon nhat", "dat nhat", "cao nhat")
			},
			Handle: handleLargest,
		},
		{
			Name: "category_breakdown",
			Match: func(q Query) bool {
				return q.Has("category", "categories", "breakdown", "by type",
					"danh muc", "phan loai", "theo loai", "hang muc")
			},
			Handle: handleCategoryBreakdown,
		},
		{
			Name:   "category_total",
			Match:  func(q Query) bool { return len(q.Categories) > 0 },
			Handle: handleCategoryTotal,
		},
		{
			Name: "member_breakdown",
			Match: func(q Query) bool {
				return q.Has("member", "members", "who spent", "who spends", "per person", "each person",
					"thanh vien", "ai chi", "moi nguoi", "tung nguoi")
			},
			Handle: handleMembers,
		},
		{
			Name: "month_comparison",
			Match: func(q Query) bool {
				return q.Has("compare", "comparison", "versus", "vs", "compared",
					"so sanh", "so voi", "chenh lech")
			},
			Handle: handleMonthComparison,
		},
		{
			Name: "savings_plan",
			Match: func(q Query) bool {
				return q.Has("save", "saving", "savings", "goal", "goals",
					"tiet kiem", "de danh", "muc tieu")
			},
			Handle: handleSavingsPlan,
		},
		{
			Name: "forecast",
			Match: func(q Query) bool {
				return q.Has("forecast", "predict", "prediction", "next month", "expect",
					"du bao", "du doan", "thang sau", "thang toi")
			},
			Handle: handleForecast,
		},
		{
			Name: "total_spending",
			Match: func(q Query) bool {
				return q.Has("total", "how much", "sum", "tong", "bao nhieu", "het bao nhieu")
			},
			Handle: handleTotal,
		},
	}
}

// categoryAliases maps normalized Vietnamese phrases to the English labels
// families commonly use.
var categoryAliases = []struct{ phrase, label string }{
	{"an uong", "food"},
	{"do an", "food"},
	{"xang", "fuel"},
	{"xang xe", "fuel"},
	{"di lai", "transport"},
	{"du lich", "travel"},
	{"giao duc", "education"},
	{"hoc phi", "education"},
	{"suc khoe", "health"},
	{"y te", "health"},
	{"mua sam", "shopping"},
	{"nha cua", "household"},
	{"giai tri", "entertainment"},
	{"dam cuoi", "wedding"},
	{"hoa don", "bills"},
	{"tien dien", "utilities"},
}

func mentionedCategories(padded string, known []string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(label string) {
		key := strings.ToLower(label)
		if !seen[key] {
			seen[key] = true
			out = append(out, label)
		}
	}

	for _, label := range known {
		norm := Normalize(label)
		if norm != "" && containsAny(padded, norm) {
			add(label)
		}
	}
	for _, a := range categoryAliases {
		if !containsAny(padded, a.phrase) {
			continue
		}
		for _, label := range known {
			if strings.EqualFold(label, a.label) {
				add(label)
			}
		}
	}
	return out
}
