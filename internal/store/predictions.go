package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/famledger/famspend/internal/model"
)

// InsertPrediction appends a prediction. Existing rows are never updated, so
// repeated forecasts for the same month accumulate as history.
func (s *Store) InsertPrediction(ctx context.Context, p model.Prediction) (model.Prediction, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	var category sql.NullString
	if p.Category != nil {
		category = sql.NullString{String: *p.Category, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO predictions
		(id, family_id, predicted_amount, predicted_month, predicted_year,
		 category, confidence, algorithm, reasoning, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.FamilyID, p.PredictedAmount.String(), int(p.PredictedMonth), p.PredictedYear,
		category, p.Confidence, string(p.Algorithm), p.Reasoning, formatTime(p.CreatedAt),
	)
	if err != nil {
		return p, fmt.Errorf("inserting prediction: %w", err)
	}
	return p, nil
}

// ListPredictions returns a family's predictions, newest first. A zero month
// or year matches any.
func (s *Store) ListPredictions(ctx context.Context, familyID string, month time.Month, year int) ([]model.Prediction, error) {
	where := []string{"family_id = ?"}
	args := []any{familyID}
	if month != 0 {
		where = append(where, "predicted_month = ?")
		args = append(args, int(month))
	}
	if year != 0 {
		where = append(where, "predicted_year = ?")
		args = append(args, year)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		id, family_id, predicted_amount, predicted_month, predicted_year,
		category, confidence, algorithm, reasoning, created_at
		FROM predictions
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY created_at DESC, predicted_year, predicted_month, id`), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var predictions []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var amount, algorithm string
		var month int
		var category, reasoning, createdAt sql.NullString

		if err := rows.Scan(&p.ID, &p.FamilyID, &amount, &month, &p.PredictedYear,
			&category, &p.Confidence, &algorithm, &reasoning, &createdAt); err != nil {
			return nil, err
		}
		if p.PredictedAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("prediction %s: bad amount: %w", p.ID, err)
		}
		p.PredictedMonth = time.Month(month)
		p.Algorithm = model.Algorithm(algorithm)
		if category.Valid {
			c := category.String
			p.Category = &c
		}
		p.Reasoning = reasoning.String
		p.CreatedAt = s.parseTime(createdAt)
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
