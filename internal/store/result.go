package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/neurocalm/internal/dass"
	"github.com/dukerupert/neurocalm/internal/database"
	"github.com/dukerupert/neurocalm/internal/model"
)

type ResultStore struct {
	db *database.DB
}

func NewResultStore(db *database.DB) *ResultStore {
	return &ResultStore{db: db}
}

func scanResult(scanner interface{ Scan(...any) error }) (*model.Result, error) {
	var (
		r             model.Result
		dep, anx, str int
	)
	err := scanner.Scan(&r.ID, &r.UserID, &r.TestType, &dep, &anx, &str, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Depression = dass.FromStored(dep)
	r.Anxiety = dass.FromStored(anx)
	r.Stress = dass.FromStored(str)
	return &r, nil
}

const resultCols = `id, user_id, testtype, dep_score, anx_score, str_score, created_at`

// Create starts a run with its depression score. Anxiety and stress stay unset.
func (s *ResultStore) Create(ctx context.Context, userID int64, testType string, depression int) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO results (user_id, testtype, dep_score, dep_interpretation, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		userID, testType, depression, string(dass.Classify(dass.Depression, depression)), now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	return id, nil
}

// UpdateScale records the score and label for one scale of a run owned by userID.
func (s *ResultStore) UpdateScale(ctx context.Context, id, userID int64, scale dass.Scale, score int) error {
	var query string
	switch scale {
	case dass.Depression:
		query = `UPDATE results SET dep_score = ?, dep_interpretation = ? WHERE id = ? AND user_id = ?`
	case dass.Anxiety:
		query = `UPDATE results SET anx_score = ?, anx_interpretation = ? WHERE id = ? AND user_id = ?`
	case dass.Stress:
		query = `UPDATE results SET str_score = ?, str_interpretation = ? WHERE id = ? AND user_id = ?`
	default:
		return fmt.Errorf("update result: unknown scale %q", scale)
	}

	res, err := s.db.ExecContext(ctx, query, score, string(dass.Classify(scale, score)), id, userID)
	if err != nil {
		return fmt.Errorf("update result %s: %w", scale, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Latest returns the user's most recent run, or nil when there is none.
func (s *ResultStore) Latest(ctx context.Context, userID int64) (*model.Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+resultCols+` FROM results WHERE user_id = ? ORDER BY id DESC LIMIT 1`, userID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest result: %w", err)
	}
	return r, nil
}

func (s *ResultStore) ListByUser(ctx context.Context, userID int64) ([]model.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+resultCols+` FROM results WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}
