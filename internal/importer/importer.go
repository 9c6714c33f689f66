package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/famledger/famspend/internal/model"
)

// Sink receives imported records.
type Sink interface {
	AddExpenses(ctx context.Context, records []model.ExpenseRecord) (int, error)
	SaveGoal(ctx context.Context, g model.SavingsGoal) (model.SavingsGoal, error)
}

// Summary reports what an import did.
type Summary struct {
	Files       int `json:"files"`
	Expenses    int `json:"expenses"`
	Inserted    int `json:"inserted"` // new expenses; re-imported ids are ignored
	Goals       int `json:"goals"`
	ParseErrors int `json:"parse_errors"`
	Skipped     int `json:"skipped"`
}

// ScanPaths expands directories to the .jsonl files they contain. Plain file
// arguments are kept as given.
func ScanPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // skip unreadable entries
			}
			if !d.IsDir() && filepath.Ext(path) == ".jsonl" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// Import parses each file and writes its records to sink. Goals are upserted;
// expenses already present by id are left untouched.
func Import(ctx context.Context, sink Sink, files []string, loc *time.Location, log logrus.FieldLogger) (Summary, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var sum Summary
	for _, path := range files {
		res := ParseFile(path, loc)
		if res.Err != nil {
			return sum, fmt.Errorf("parsing %s: %w", path, res.Err)
		}
		sum.Files++
		sum.ParseErrors += res.ParseErrors
		sum.Skipped += res.Skipped

		if res.ParseErrors > 0 {
			log.WithFields(logrus.Fields{"file": path, "errors": res.ParseErrors}).Warn("skipped malformed lines")
		}

		n, err := sink.AddExpenses(ctx, res.Expenses)
		if err != nil {
			return sum, fmt.Errorf("importing expenses from %s: %w", path, err)
		}
		sum.Expenses += len(res.Expenses)
		sum.Inserted += n

		for _, g := range res.Goals {
			if _, err := sink.SaveGoal(ctx, g); err != nil {
				return sum, fmt.Errorf("importing goal %s: %w", g.ID, err)
			}
			sum.Goals++
		}

		log.WithFields(logrus.Fields{
			"file":     path,
			"expenses": len(res.Expenses),
			"inserted": n,
			"goals":    len(res.Goals),
		}).Debug("imported file")
	}
	return sum, nil
}
