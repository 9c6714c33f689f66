package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

const goalColumns = `id, family_id, name, target_amount, current_amount, target_date, category, status, created_at`

// SaveGoal inserts or replaces a savings goal. This is the host
// application's write path; the analytics engines never call it.
func (s *Store) SaveGoal(ctx context.Context, g model.SavingsGoal) (model.SavingsGoal, error) {
	if g.FamilyID == "" {
		return g, fmt.Errorf("%w: goal has no family", model.ErrInvalidInput)
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Status == "" {
		g.Status = model.GoalActive
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	var targetDate sql.NullString
	if g.TargetDate != nil {
		targetDate = formatTime(*g.TargetDate)
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO savings_goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			family_id = excluded.family_id,
			name = excluded.name,
			target_amount = excluded.target_amount,
			current_amount = excluded.current_amount,
			target_date = excluded.target_date,
			category = excluded.category,
			status = excluded.status`),
		g.ID, g.FamilyID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(),
		targetDate, g.Category, string(g.Status), formatTime(g.CreatedAt),
	)
	if err != nil {
		return g, fmt.Errorf("saving goal %s: %w", g.ID, err)
	}
	return g, nil
}

// UpdateGoalProgress sets the saved amount and status of a goal.
func (s *Store) UpdateGoalProgress(ctx context.Context, id string, current decimal.Decimal, status model.GoalStatus) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE savings_goals
		SET current_amount = ?, status = ? WHERE id = ?`),
		current.String(), string(status), id)
	if err != nil {
		return fmt.Errorf("updating goal %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: goal %s", model.ErrNotFound, id)
	}
	return nil
}

// GetGoal returns one goal or model.ErrNotFound.
func (s *Store) GetGoal(ctx context.Context, id string) (model.SavingsGoal, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+goalColumns+" FROM savings_goals WHERE id = ?"), id)
	g, err := s.scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return g, fmt.Errorf("%w: goal %s", model.ErrNotFound, id)
	}
	return g, err
}

// ListGoals returns every goal of a family, oldest first.
func (s *Store) ListGoals(ctx context.Context, familyID string) ([]model.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT "+goalColumns+" FROM savings_goals WHERE family_id = ? ORDER BY created_at, id"), familyID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var goals []model.SavingsGoal
	for rows.Next() {
		g, err := s.scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanGoal(sc scanner) (model.SavingsGoal, error) {
	var g model.SavingsGoal
	var target, current, status string
	var targetDate, category, createdAt sql.NullString

	if err := sc.Scan(&g.ID, &g.FamilyID, &g.Name, &target, &current, &targetDate, &category, &status, &createdAt); err != nil {
		return g, err
	}

	var err error
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return g, fmt.Errorf("goal %s: bad target amount: %w", g.ID, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return g, fmt.Errorf("goal %s: bad current amount: %w", g.ID, err)
	}
	if td := s.parseTime(targetDate); !td.IsZero() {
		g.TargetDate = &td
	}
	g.Category = category.String
	g.Status = model.GoalStatus(status)
	g.CreatedAt = s.parseTime(createdAt)
	return g, nil
}
