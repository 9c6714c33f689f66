package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/famledger/famspend/internal/model"
)

// lineNamespace derives stable ids for lines that carry none, so re-importing
// the same file does not duplicate records.
var lineNamespace = uuid.MustParse("6f1c1f3e-8a52-4f5e-9b7a-3c1d2e4f5a60")

// ParseResult holds the output of parsing one JSONL source.
type ParseResult struct {
	Expenses    []model.ExpenseRecord
	Goals       []model.SavingsGoal
	ParseErrors int // malformed or invalid lines, skipped
	Skipped     int // lines with an unknown or missing type
	Err         error
}

// ParseFile reads a JSONL file. See Parse.
func ParseFile(path string, loc *time.Location) ParseResult {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{Err: err}
	}
	defer func() { _ = f.Close() }()
	return Parse(f, loc)
}

// Parse reads JSONL from r. Entries are routed by their top-level "type":
//
//   - "expense" -> ExpenseRecord
//   - "goal"    -> SavingsGoal
//   - anything else is counted as skipped
//
// Duplicate ids keep the last entry. Date-only timestamps are read in loc.
func Parse(r io.Reader, loc *time.Location) ParseResult {
	if loc == nil {
		loc = time.UTC
	}

	var (
		res       ParseResult
		expenses  = make(map[string]int)
		goals     = make(map[string]int)
		lineIndex int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		lineIndex++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		switch extractTopLevelType(line) {
		case TypeExpense:
			e, err := parseExpense(line, loc)
			if err != nil {
				res.ParseErrors++
				continue
			}
			if i, ok := expenses[e.ID]; ok {
				res.Expenses[i] = e
				continue
			}
			expenses[e.ID] = len(res.Expenses)
			res.Expenses = append(res.Expenses, e)

		case TypeGoal:
			g, err := parseGoal(line, loc)
			if err != nil {
				res.ParseErrors++
				continue
			}
			if i, ok := goals[g.ID]; ok {
				res.Goals[i] = g
				continue
			}
			goals[g.ID] = len(res.Goals)
			res.Goals = append(res.Goals, g)

		default:
			res.Skipped++
		}
	}

	if err := sc.Err(); err != nil {
		res.Err = fmt.Errorf("reading line %d: %w", lineIndex+1, err)
	}
	return res
}

func parseExpense(line []byte, loc *time.Location) (model.ExpenseRecord, error) {
	var raw rawExpense
	if err := json.Unmarshal(line, &raw); err != nil {
		return model.ExpenseRecord{}, err
	}
	if strings.TrimSpace(raw.FamilyID) == "" {
		return model.ExpenseRecord{}, fmt.Errorf("%w: family_id is required", model.ErrInvalidInput)
	}
	if raw.Amount.IsNegative() {
		return model.ExpenseRecord{}, fmt.Errorf("%w: negative amount", model.ErrInvalidInput)
	}

	ts, err := parseTime(raw.Timestamp, loc)
	if err != nil {
		return model.ExpenseRecord{}, err
	}

	id := raw.ID
	if id == "" {
		id = uuid.NewSHA1(lineNamespace, line).String()
	}
	return model.ExpenseRecord{
		ID:          id,
		Amount:      raw.Amount,
		Category:    strings.TrimSpace(raw.Category),
		Description: raw.Description,
		Timestamp:   ts,
		OwnerID:     raw.OwnerID,
		FamilyID:    raw.FamilyID,
	}, nil
}

func parseGoal(line []byte, loc *time.Location) (model.SavingsGoal, error) {
	var raw rawGoal
	if err := json.Unmarshal(line, &raw); err != nil {
		return model.SavingsGoal{}, err
	}
	if strings.TrimSpace(raw.FamilyID) == "" || strings.TrimSpace(raw.Name) == "" {
		return model.SavingsGoal{}, fmt.Errorf("%w: family_id and name are required", model.ErrInvalidInput)
	}

	g := model.SavingsGoal{
		ID:            raw.ID,
		FamilyID:      raw.FamilyID,
		Name:          raw.Name,
		TargetAmount:  raw.TargetAmount,
		CurrentAmount: raw.CurrentAmount,
		Category:      raw.Category,
		Status:        model.GoalStatus(strings.ToLower(raw.Status)),
	}
	if g.ID == "" {
		g.ID = uuid.NewSHA1(lineNamespace, line).String()
	}
	switch g.Status {
	case "":
		g.Status = model.GoalActive
	case model.GoalActive, model.GoalCompleted, model.GoalPaused, model.GoalCancelled:
	default:
		return model.SavingsGoal{}, fmt.Errorf("%w: unknown status %q", model.ErrInvalidInput, raw.Status)
	}

	if raw.TargetDate != "" {
		td, err := parseTime(raw.TargetDate, loc)
		if err != nil {
			return model.SavingsGoal{}, err
		}
		g.TargetDate = &td
	}
	created, err := parseTime(raw.CreatedAt, loc)
	if err != nil {
		return model.SavingsGoal{}, err
	}
	g.CreatedAt = created
	return g, nil
}

var errBadTime = errors.New("unrecognized time")

// parseTime accepts RFC 3339 or a bare date. Empty means missing.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{time.DateTime, time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errBadTime, s)
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// extractTopLevelType finds the top-level "type" field in a JSONL line.
// Tracks brace depth and string boundaries so nested "type" keys are ignored.
func extractTopLevelType(line []byte) string {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				if val, isKey := classifyType(line, i+len(typeKey)); isKey {
					return val
				}
			}
			i = skipJSONString(line, i)
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
		default:
			i++
		}
	}
	return ""
}

// classifyType checks whether pos follows a JSON key and returns its value.
// isKey=false means "type" appeared as a value and scanning should continue.
func classifyType(line []byte, pos int) (val string, isKey bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true
	}
	i++

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 20 {
		return "", true
	}
	switch v := string(line[i : i+end]); v {
	case TypeExpense, TypeGoal:
		return v, true
	}
	return "", true
}

// skipJSONString advances past a JSON string starting at the opening quote.
func skipJSONString(line []byte, i int) int {
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return i
}
