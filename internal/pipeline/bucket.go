// Package pipeline buckets expense records into time series and computes
// breakdowns and period comparisons over them.
package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

// Bucket groups records into one bucket per distinct period present, sorted
// ascending by period start. Records without a timestamp are skipped; callers
// needing a grand total should use Total on the raw records.
func Bucket(records []model.ExpenseRecord, g model.Granularity) []model.TimeBucket {
	bucketMap := make(map[string]*model.TimeBucket)

	for _, r := range records {
		if !r.HasTimestamp() {
			continue
		}
		start, end := PeriodBounds(r.Timestamp, g)
		key := PeriodKey(start, g)
		b, ok := bucketMap[key]
		if !ok {
			b = &model.TimeBucket{Key: key, Start: start, End: end}
			bucketMap[key] = b
		}
		b.Total = b.Total.Add(r.Amount)
		b.Count++
	}

	buckets := make([]model.TimeBucket, 0, len(bucketMap))
	for _, b := range bucketMap {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Start.Equal(buckets[j].Start) {
			return buckets[i].Key < buckets[j].Key
		}
		return buckets[i].Start.Before(buckets[j].Start)
	})

	return buckets
}

// Total sums every record, including those that cannot be bucketed.
func Total(records []model.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// PeriodBounds returns the [start, end) period containing t, in t's location.
func PeriodBounds(t time.Time, g model.Granularity) (time.Time, time.Time) {
	loc := t.Location()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)

	switch g {
	case model.Week:
		// ISO weeks start on Monday
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	case model.Month:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	case model.Quarter:
		firstMonth := time.Month((int(t.Month())-1)/3*3 + 1)
		start := time.Date(t.Year(), firstMonth, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 3, 0)
	case model.Year:
		start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(1, 0, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// PeriodKey formats the bucket key for a period starting at start.
func PeriodKey(start time.Time, g model.Granularity) string {
	switch g {
	case model.Week:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case model.Month:
		return start.Format("2006-01")
	case model.Quarter:
		return fmt.Sprintf("%04d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
	case model.Year:
		return strconv.Itoa(start.Year())
	default:
		return start.Format(time.DateOnly)
	}
}

// BucketRange parses a bucket key back into its [start, end) range.
func BucketRange(key string, g model.Granularity, loc *time.Location) (model.Range, error) {
	if loc == nil {
		loc = time.Local
	}

	var start time.Time
	switch g {
	case model.Day:
		t, err := time.ParseInLocation(time.DateOnly, key, loc)
		if err != nil {
			return model.Range{}, badKey(key, g)
		}
		start = t
	case model.Week:
		var year, week int
		if _, err := fmt.Sscanf(key, "%d-W%d", &year, &week); err != nil || week < 1 || week > 53 {
			return model.Range{}, badKey(key, g)
		}
		// January 4th always falls in ISO week 1
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
		week1, _ := PeriodBounds(jan4, model.Week)
		start = week1.AddDate(0, 0, (week-1)*7)
	case model.Month:
		t, err := time.ParseInLocation("2006-01", key, loc)
		if err != nil {
			return model.Range{}, badKey(key, g)
		}
		start = t
	case model.Quarter:
		var year, q int
		if _, err := fmt.Sscanf(key, "%d-Q%d", &year, &q); err != nil || q < 1 || q > 4 {
			return model.Range{}, badKey(key, g)
		}
		start = time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, loc)
	case model.Year:
		year, err := strconv.Atoi(key)
		if err != nil || year < 1 {
			return model.Range{}, badKey(key, g)
		}
		start = time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return model.Range{}, fmt.Errorf("%w: unknown granularity %q", model.ErrInvalidInput, g)
	}

	// Round-trip rejects trailing garbage and week 53 in 52-week years.
	if PeriodKey(start, g) != key {
		return model.Range{}, badKey(key, g)
	}
	s, e := PeriodBounds(start, g)
	return model.Range{Start: s, End: e}, nil
}

func badKey(key string, g model.Granularity) error {
	return fmt.Errorf("%w: %q is not a valid %s key", model.ErrInvalidInput, key, g)
}

// FillMonths returns month buckets covering every month from the first to the
// last bucket given, inserting zero-valued buckets for quiet months.
func FillMonths(buckets []model.TimeBucket) []model.TimeBucket {
	if len(buckets) == 0 {
		return nil
	}

	byKey := make(map[string]model.TimeBucket, len(buckets))
	for _, b := range buckets {
		byKey[b.Key] = b
	}

	first := buckets[0].Start
	last := buckets[len(buckets)-1].Start
	var filled []model.TimeBucket
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		key := PeriodKey(m, model.Month)
		if b, ok := byKey[key]; ok {
			filled = append(filled, b)
			continue
		}
		filled = append(filled, model.TimeBucket{Key: key, Start: m, End: m.AddDate(0, 1, 0)})
	}
	return filled
}
