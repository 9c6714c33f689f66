package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

// CategoryBreakdown totals records per category. Every record lands in exactly
// one category, so amounts sum to Total(records). Sorted by amount descending.
func CategoryBreakdown(records []model.ExpenseRecord) []model.CategoryTotal {
	total := Total(records)
	catMap := make(map[string]*model.CategoryTotal)

	for _, r := range records {
		name := r.CategoryOrDefault()
		ct, ok := catMap[name]
		if !ok {
			ct = &model.CategoryTotal{Category: name}
			catMap[name] = ct
		}
		ct.Amount = ct.Amount.Add(r.Amount)
		ct.Count++
	}

	categories := make([]model.CategoryTotal, 0, len(catMap))
	for _, ct := range catMap {
		ct.Share = sharePercent(ct.Amount, total)
		categories = append(categories, *ct)
	}
	sort.Slice(categories, func(i, j int) bool {
		if c := categories[i].Amount.Cmp(categories[j].Amount); c != 0 {
			return c > 0
		}
		return categories[i].Category < categories[j].Category
	})

	return categories
}

// MemberBreakdown totals records per owning family member, sorted by amount descending.
func MemberBreakdown(records []model.ExpenseRecord) []model.MemberTotal {
	total := Total(records)
	memberMap := make(map[string]*model.MemberTotal)

	for _, r := range records {
		mt, ok := memberMap[r.OwnerID]
		if !ok {
			mt = &model.MemberTotal{OwnerID: r.OwnerID}
			memberMap[r.OwnerID] = mt
		}
		mt.Amount = mt.Amount.Add(r.Amount)
		mt.Count++
	}

	members := make([]model.MemberTotal, 0, len(memberMap))
	for _, mt := range memberMap {
		mt.Share = sharePercent(mt.Amount, total)
		members = append(members, *mt)
	}
	sort.Slice(members, func(i, j int) bool {
		if c := members[i].Amount.Cmp(members[j].Amount); c != 0 {
			return c > 0
		}
		return members[i].OwnerID < members[j].OwnerID
	})

	return members
}

// Largest returns the record with the highest amount; ties go to the most
// recent timestamp. ok is false for an empty input.
func Largest(records []model.ExpenseRecord) (model.ExpenseRecord, bool) {
	if len(records) == 0 {
		return model.ExpenseRecord{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		switch c := r.Amount.Cmp(best.Amount); {
		case c > 0:
			best = r
		case c == 0 && r.Timestamp.After(best.Timestamp):
			best = r
		}
	}
	return best, true
}

// Average returns total / n, or zero when n is 0.
func Average(total decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n)))
}

func sharePercent(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return part.Div(total).InexactFloat64() * 100
}
