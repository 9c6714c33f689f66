package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

// AddExpenses inserts expenses in one transaction. Rows whose id already
// exists are left untouched, so re-importing a file is harmless. It returns
// the number of rows inserted.
func (s *Store) AddExpenses(ctx context.Context, records []model.ExpenseRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, r := range records {
		n, err := s.insertExpense(ctx, tx, r)
		if err != nil {
			return 0, err
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// AddExpense inserts one expense, assigning an id when empty.
func (s *Store) AddExpense(ctx context.Context, r model.ExpenseRecord) error {
	_, err := s.insertExpense(ctx, s.db, r)
	return err
}

func (s *Store) insertExpense(ctx context.Context, q querier, r model.ExpenseRecord) (int, error) {
	if r.FamilyID == "" {
		return 0, fmt.Errorf("%w: expense %q has no family", model.ErrInvalidInput, r.ID)
	}
	if r.Amount.IsNegative() {
		return 0, fmt.Errorf("%w: expense %q has negative amount", model.ErrInvalidInput, r.ID)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	res, err := q.ExecContext(ctx, s.rebind(`INSERT INTO expenses
		(id, family_id, owner_id, amount, category, description, spent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`),
		r.ID, r.FamilyID, r.OwnerID, r.Amount.String(), r.Category, r.Description,
		formatTime(r.Timestamp), time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting expense %s: %w", r.ID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListExpenses returns a family's expenses newest first; undated rows come
// last. limit <= 0 returns all rows.
func (s *Store) ListExpenses(ctx context.Context, familyID string, limit int) ([]model.ExpenseRecord, error) {
	query := `SELECT id, family_id, owner_id, amount, category, description, spent_at
		FROM expenses
		WHERE family_id = ?
		ORDER BY spent_at IS NULL, spent_at DESC, id`
	args := []any{familyID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []model.ExpenseRecord
	for rows.Next() {
		var r model.ExpenseRecord
		var amount string
		var category, description, spentAt sql.NullString
		if err := rows.Scan(&r.ID, &r.FamilyID, &r.OwnerID, &amount, &category, &description, &spentAt); err != nil {
			return nil, err
		}
		r.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("expense %s: bad amount %q: %w", r.ID, amount, err)
		}
		r.Category = category.String
		r.Description = description.String
		r.Timestamp = s.parseTime(spentAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Families returns the distinct family ids that have expenses.
func (s *Store) Families(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT family_id FROM expenses ORDER BY family_id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var families []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		families = append(families, id)
	}
	return families, rows.Err()
}

// ExpenseCount returns the number of stored expenses for a family.
func (s *Store) ExpenseCount(ctx context.Context, familyID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM expenses WHERE family_id = ?"), familyID).Scan(&count)
	return count, err
}
