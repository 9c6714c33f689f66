package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/famledger/famspend/internal/model"
)

type memSink struct {
	expenses map[string]model.ExpenseRecord
	goals    map[string]model.SavingsGoal
	err      error
}

func newMemSink() *memSink {
	return &memSink{
		expenses: make(map[string]model.ExpenseRecord),
		goals:    make(map[string]model.SavingsGoal),
	}
}

func (m *memSink) AddExpenses(_ context.Context, records []model.ExpenseRecord) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := 0
	for _, r := range records {
		if _, ok := m.expenses[r.ID]; ok {
			continue
		}
		m.expenses[r.ID] = r
		n++
	}
	return n, nil
}

func (m *memSink) SaveGoal(_ context.Context, g model.SavingsGoal) (model.SavingsGoal, error) {
	m.goals[g.ID] = g
	return g, nil
}

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanPaths(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", `{}`)
	writeFile(t, dir, "notes.txt", `x`)
	writeFile(t, dir, "nested/b.jsonl", `{}`)
	single := writeFile(t, t.TempDir(), "c.json", `{}`)

	files, err := ScanPaths([]string{dir, single})
	if err != nil {
		t.Fatalf("ScanPaths: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("files = %v, want 3", files)
	}
	if files[0] != a {
		t.Errorf("files[0] = %s, want %s", files[0], a)
	}
	if files[2] != single {
		t.Errorf("explicit file should be kept: %v", files)
	}

	if _, err := ScanPaths([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fam.jsonl",
		`{"type":"expense","id":"e1","family_id":"fam","amount":"100","timestamp":"2024-01-05"}`,
		`{"type":"expense","id":"e2","family_id":"fam","amount":"200","timestamp":"2024-02-05"}`,
		`{"type":"goal","id":"g1","family_id":"fam","name":"Trip","target_amount":"1000"}`,
		`not json`,
	)
	sink := newMemSink()
	ctx := context.Background()

	sum, err := Import(ctx, sink, []string{path}, time.UTC, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	want := Summary{Files: 1, Expenses: 2, Inserted: 2, Goals: 1, ParseErrors: 0, Skipped: 1}
	if sum != want {
		t.Errorf("summary = %+v, want %+v", sum, want)
	}

	// Second run inserts nothing new.
	sum, err = Import(ctx, sink, []string{path}, time.UTC, nil)
	if err != nil {
		t.Fatalf("Import again: %v", err)
	}
	if sum.Inserted != 0 || sum.Expenses != 2 {
		t.Errorf("re-import summary = %+v, want 0 inserted", sum)
	}
	if len(sink.goals) != 1 {
		t.Errorf("goals = %d, want 1", len(sink.goals))
	}
}

func TestImport_SinkError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fam.jsonl", `{"type":"expense","id":"e1","family_id":"fam","amount":"1"}`)
	sink := newMemSink()
	sink.err = errors.New("disk full")

	if _, err := Import(context.Background(), sink, []string{path}, time.UTC, nil); err == nil {
		t.Fatal("expected error from sink")
	}
}
