package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/pipeline"
)

const defaultPlanMonths = 12

var (
	amountRe   = regexp.MustCompile(`(\d+(?:[.,]\d+)*)\s*(trieu|tr|ty|ti|million|mil|m|billion|bn|b|nghin|ngan|k)?\b`)
	groupedRe  = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)
	monthsRe   = regexp.MustCompile(`\b(?:in|within|over|trong|sau)\s+(\d+)\s*(?:months?|thang)\b`)
	lastDaysRe = regexp.MustCompile(`\b(?:last|past)\s+(\d+)\s+days?\b|\b(\d+)\s+ngay\s+(?:qua|gan day|vua qua)\b`)
)

var amountUnits = map[string]int64{
	"k":       1_000,
	"nghin":   1_000,
	"ngan":    1_000,
	"m":       1_000_000,
	"mil":     1_000_000,
	"million": 1_000_000,
	"tr":      1_000_000,
	"trieu":   1_000_000,
	"b":       1_000_000_000,
	"bn":      1_000_000_000,
	"billion": 1_000_000_000,
	"ty":      1_000_000_000,
	"ti":      1_000_000_000,
}

// ParseAmount finds a money amount in normalized text: "10 trieu", "10tr",
// "1.5m", "5k", "10,000,000". A number with a unit wins over a bare
// number; a bare number must be at least 1000 and not look like a year.
// An "in N months" phrase is never read as an amount.
func ParseAmount(text string) (decimal.Decimal, bool) {
	text = monthsRe.ReplaceAllString(text, " ")

	var bare decimal.Decimal
	var haveBare bool
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		n, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		if unit, ok := amountUnits[m[2]]; ok {
			return n.Mul(decimal.NewFromInt(unit)), true
		}
		if !haveBare && n.GreaterThanOrEqual(decimal.NewFromInt(1000)) && !looksLikeYear(m[1]) {
			bare, haveBare = n, true
		}
	}
	return bare, haveBare
}

// parseNumber treats "1,000,000" and "1.000.000" as digit grouping and a
// lone separator otherwise as the decimal point.
func parseNumber(s string) (decimal.Decimal, bool) {
	if groupedRe.MatchString(s) {
		s = strings.NewReplacer(",", "", ".", "").Replace(s)
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func looksLikeYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	y, err := strconv.Atoi(s)
	return err == nil && y >= 1900 && y <= 2100
}

// ParseMonths reads "in N months" / "trong N thang"; default 12.
func ParseMonths(text string) int {
	m := monthsRe.FindStringSubmatch(text)
	if m == nil {
		return defaultPlanMonths
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultPlanMonths
	}
	return n
}

// ParseRange reads a time phrase relative to now. ok is false when the
// question names no period, meaning all time.
func ParseRange(padded string, now time.Time) (r model.Range, label string, ok bool) {
	month := func(offset int) model.Range {
		start, _ := pipeline.PeriodBounds(now, model.Month)
		start = start.AddDate(0, offset, 0)
		return model.Range{Start: start, End: start.AddDate(0, 1, 0)}
	}
	year := func(offset int) model.Range {
		start, _ := pipeline.PeriodBounds(now, model.Year)
		start = start.AddDate(offset, 0, 0)
		return model.Range{Start: start, End: start.AddDate(1, 0, 0)}
	}
	week := func(offset int) model.Range {
		start, _ := pipeline.PeriodBounds(now, model.Week)
		start = start.AddDate(0, 0, 7*offset)
		return model.Range{Start: start, End: start.AddDate(0, 0, 7)}
	}

	if m := lastDaysRe.FindStringSubmatch(padded); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		if n, err := strconv.Atoi(digits); err == nil && n > 0 {
			today, _ := pipeline.PeriodBounds(now, model.Day)
			end := today.AddDate(0, 0, 1)
			return model.Range{Start: end.AddDate(0, 0, -n), End: end}, "last " + digits + " days", true
		}
	}

	switch {
	case containsAny(padded, "last month", "previous month", "thang truoc", "thang roi"):
		return month(-1), "last month", true
	case containsAny(padded, "this month", "thang nay"):
		return month(0), "this month", true
	case containsAny(padded, "last year", "previous year", "nam ngoai", "nam truoc", "nam roi"):
		return year(-1), "last year", true
	case containsAny(padded, "this year", "nam nay"):
		return year(0), "this year", true
	case containsAny(padded, "last week", "tuan truoc", "tuan roi"):
		return week(-1), "last week", true
	case containsAny(padded, "this week", "tuan nay"):
		return week(0), "this week", true
	}
	return model.Range{}, "all time", false
}
