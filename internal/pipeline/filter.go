package pipeline

import (
	"strings"
	"time"

	"github.com/famledger/famspend/internal/model"
)

// FilterByTime returns records whose timestamp falls within [since, until).
// A zero bound leaves that side open; with both bounds zero every record,
// timestamped or not, is returned.
func FilterByTime(records []model.ExpenseRecord, since, until time.Time) []model.ExpenseRecord {
	if since.IsZero() && until.IsZero() {
		return records
	}

	var result []model.ExpenseRecord
	for _, r := range records {
		if !r.HasTimestamp() {
			continue
		}
		if !since.IsZero() && r.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && !r.Timestamp.Before(until) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// FilterByRange is FilterByTime over a model.Range.
func FilterByRange(records []model.ExpenseRecord, r model.Range) []model.ExpenseRecord {
	return FilterByTime(records, r.Start, r.End)
}

// FilterByFamily keeps records of one family.
func FilterByFamily(records []model.ExpenseRecord, familyID string) []model.ExpenseRecord {
	var result []model.ExpenseRecord
	for _, r := range records {
		if r.FamilyID == familyID {
			result = append(result, r)
		}
	}
	return result
}

// FilterByCategory keeps records whose category matches, ignoring case.
// Records without a category match DefaultCategory.
func FilterByCategory(records []model.ExpenseRecord, category string) []model.ExpenseRecord {
	if category == "" {
		return records
	}
	var result []model.ExpenseRecord
	for _, r := range records {
		if strings.EqualFold(r.CategoryOrDefault(), category) {
			result = append(result, r)
		}
	}
	return result
}

// FilterByOwner keeps records attributed to one family member.
func FilterByOwner(records []model.ExpenseRecord, ownerID string) []model.ExpenseRecord {
	if ownerID == "" {
		return records
	}
	var result []model.ExpenseRecord
	for _, r := range records {
		if r.OwnerID == ownerID {
			result = append(result, r)
		}
	}
	return result
}
