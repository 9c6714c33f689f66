package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/insight"
	"github.com/famledger/famspend/internal/model"
	"github.com/famledger/famspend/internal/pipeline"
)

// Analysis is the full report for one period.
type Analysis struct {
	FamilyID    string                `json:"family_id"`
	Range       model.Range           `json:"range"`
	Granularity model.Granularity     `json:"granularity"`
	Total       decimal.Decimal       `json:"total"`
	Count       int                   `json:"count"`
	Average     decimal.Decimal       `json:"average_per_bucket"`
	Buckets     []model.TimeBucket    `json:"buckets"`
	Categories  []model.CategoryTotal `json:"categories"`
	Members     []model.MemberTotal   `json:"members"`
	Largest     *model.ExpenseRecord  `json:"largest,omitempty"`
	Comparison  model.Comparison      `json:"comparison"`
	Pattern     model.SpendingPattern `json:"pattern"`
	Insights    string                `json:"insights"`
	FromAI      bool                  `json:"from_ai"`
}

// AnalyzePeriod buckets, breaks down and compares the expenses in r with
// the equal-length period before it, then asks for a narrative.
func (s *Service) AnalyzePeriod(ctx context.Context, familyID string, r model.Range, g model.Granularity) (Analysis, error) {
	if err := r.Validate(); err != nil {
		return Analysis{}, err
	}
	if _, err := model.ParseGranularity(string(g)); err != nil {
		return Analysis{}, err
	}
	records, err := s.expenses(ctx, familyID)
	if err != nil {
		return Analysis{}, err
	}

	inRange := pipeline.FilterByRange(records, r)
	a := Analysis{
		FamilyID:    familyID,
		Range:       r,
		Granularity: g,
		Total:       pipeline.Total(inRange),
		Count:       len(inRange),
		Buckets:     pipeline.Bucket(inRange, g),
		Categories:  pipeline.CategoryBreakdown(inRange),
		Members:     pipeline.MemberBreakdown(inRange),
		Comparison:  pipeline.Compare(records, r, pipeline.PreviousMonth(r), "current vs previous period"),
		Pattern:     analysis.AnalyzePattern(records, s.Now(), s.opts.LookbackMonths, s.opts.Thresholds),
	}
	a.Average = pipeline.Average(a.Total, len(a.Buckets)).Round(2)
	if largest, ok := pipeline.Largest(inRange); ok {
		a.Largest = &largest
	}

	bundle := map[string]any{
		"range":       map[string]string{"start": r.Start.Format("2006-01-02"), "end": r.End.Format("2006-01-02")},
		"total":       a.Total,
		"count":       a.Count,
		"buckets":     a.Buckets,
		"categories":  a.Categories,
		"members":     a.Members,
		"comparison":  a.Comparison,
		"pattern":     a.Pattern,
		"granularity": g,
	}
	res := insight.Narrate(ctx, "analysis", s.opts.Timeout,
		func(ctx context.Context) (string, error) { return s.insights.GenerateInsights(ctx, bundle) },
		func() string { return periodSummary(a) },
	)
	if res.Err != nil {
		s.opts.Log.WithFields(logrus.Fields{"family": familyID, "error": res.Err}).
			Warn("analysis insights unavailable, using local summary")
	}
	a.Insights = res.Text
	a.FromAI = res.FromAI
	return a, nil
}

// ComparePeriods compares two explicit ranges.
func (s *Service) ComparePeriods(ctx context.Context, familyID string, current, previous model.Range) (model.Comparison, error) {
	if err := current.Validate(); err != nil {
		return model.Comparison{}, fmt.Errorf("current: %w", err)
	}
	if err := previous.Validate(); err != nil {
		return model.Comparison{}, fmt.Errorf("previous: %w", err)
	}
	records, err := s.expenses(ctx, familyID)
	if err != nil {
		return model.Comparison{}, err
	}
	return pipeline.Compare(records, current, previous, "current vs previous"), nil
}

// DrillDown is the raw content of one bucket.
type DrillDown struct {
	Key         string                `json:"key"`
	Granularity model.Granularity     `json:"granularity"`
	Range       model.Range           `json:"range"`
	Total       decimal.Decimal       `json:"total"`
	Count       int                   `json:"count"`
	Average     decimal.Decimal       `json:"average"`
	Categories  []model.CategoryTotal `json:"categories"`
	Records     []model.ExpenseRecord `json:"records"`
}

// DrillDown returns the records behind a bucket key, newest first.
func (s *Service) DrillDown(ctx context.Context, familyID string, g model.Granularity, key string) (DrillDown, error) {
	r, err := pipeline.BucketRange(key, g, s.opts.Location)
	if err != nil {
		return DrillDown{}, err
	}
	records, err := s.expenses(ctx, familyID)
	if err != nil {
		return DrillDown{}, err
	}

	matched := pipeline.FilterByRange(records, r)
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	d := DrillDown{
		Key:         key,
		Granularity: g,
		Range:       r,
		Total:       pipeline.Total(matched),
		Count:       len(matched),
		Categories:  pipeline.CategoryBreakdown(matched),
		Records:     matched,
	}
	d.Average = pipeline.Average(d.Total, d.Count).Round(2)
	return d, nil
}

func periodSummary(a Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spent %s across %d expense(s) between %s and %s.",
		a.Total.StringFixed(0), a.Count, a.Range.Start.Format("2006-01-02"), a.Range.End.Format("2006-01-02"))

	if !a.Comparison.Previous.Total.IsZero() {
		fmt.Fprintf(&b, " That is %+.1f%% against the previous period.", a.Comparison.ChangePercentage)
	}
	if len(a.Categories) > 0 {
		top := a.Categories[0]
		fmt.Fprintf(&b, " %s is the largest category at %.1f%% of spend.", top.Category, top.Share)
	}
	fmt.Fprintf(&b, " Monthly spending is %s over the last %d months.", a.Pattern.Trend, a.Pattern.LookbackMonths)
	if n := len(a.Pattern.AnomalyMonths); n > 0 {
		fmt.Fprintf(&b, " %d month(s) stand out as unusually high.", n)
	}
	return b.String()
}
