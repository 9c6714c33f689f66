package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

// Compare computes current-vs-previous totals and a per-category delta table.
// The label is carried through for presentation only.
func Compare(records []model.ExpenseRecord, current, previous model.Range, label string) model.Comparison {
	curRecords := FilterByRange(records, current)
	prevRecords := FilterByRange(records, previous)

	cmp := model.Comparison{
		Label:    label,
		Current:  model.PeriodTotal{Range: current, Total: Total(curRecords), Count: len(curRecords)},
		Previous: model.PeriodTotal{Range: previous, Total: Total(prevRecords), Count: len(prevRecords)},
	}
	cmp.Change = cmp.Current.Total.Sub(cmp.Previous.Total)
	cmp.ChangePercentage = ChangePercent(cmp.Current.Total, cmp.Previous.Total)

	deltas := make(map[string]*model.CategoryDelta)
	get := func(name string) *model.CategoryDelta {
		d, ok := deltas[name]
		if !ok {
			d = &model.CategoryDelta{Category: name}
			deltas[name] = d
		}
		return d
	}
	for _, r := range curRecords {
		d := get(r.CategoryOrDefault())
		d.Current = d.Current.Add(r.Amount)
	}
	for _, r := range prevRecords {
		d := get(r.CategoryOrDefault())
		d.Previous = d.Previous.Add(r.Amount)
	}

	cmp.Categories = make([]model.CategoryDelta, 0, len(deltas))
	for _, d := range deltas {
		d.Change = d.Current.Sub(d.Previous)
		d.ChangePercentage = ChangePercent(d.Current, d.Previous)
		cmp.Categories = append(cmp.Categories, *d)
	}
	sort.Slice(cmp.Categories, func(i, j int) bool {
		a, b := cmp.Categories[i].Change.Abs(), cmp.Categories[j].Change.Abs()
		if c := a.Cmp(b); c != 0 {
			return c > 0
		}
		return cmp.Categories[i].Category < cmp.Categories[j].Category
	})

	return cmp
}

// ChangePercent returns (current-previous)/previous*100, floored to 0 when
// previous is zero.
func ChangePercent(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		return 0
	}
	return current.Sub(previous).Div(previous).InexactFloat64() * 100
}

// PreviousRange returns the equal-length range that ends where r starts.
func PreviousRange(r model.Range) model.Range {
	return model.Range{Start: r.Start.Add(-r.End.Sub(r.Start)), End: r.Start}
}

// PreviousMonth returns the calendar month before the one starting at r.Start
// when r spans exactly one calendar month, and PreviousRange otherwise.
func PreviousMonth(r model.Range) model.Range {
	start, end := PeriodBounds(r.Start, model.Month)
	if start.Equal(r.Start) && end.Equal(r.End) {
		return model.Range{Start: start.AddDate(0, -1, 0), End: start}
	}
	return PreviousRange(r)
}
