package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/neurocalm/internal/database"
	"github.com/dukerupert/neurocalm/internal/model"
)

type UserStore struct {
	db *database.DB
}

func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u   model.User
		dob sql.NullTime
	)
	err := scanner.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &dob, &u.Region, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		d := dob.Time.UTC()
		u.DOB = &d
	}
	return &u, nil
}

const userCols = `id, firstname, lastname, email, dob, region, password, created_at`

// Create inserts a user. A duplicate email yields ErrEmailTaken.
func (s *UserStore) Create(ctx context.Context, nu model.NewUser) (*model.User, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (firstname, lastname, email, dob, region, password, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		nu.FirstName, nu.LastName, nu.Email, dateArg(nu.DOB), nu.Region, nu.PasswordHash, now(),
	).Scan(&id)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// UpdateProfile overwrites the editable fields and returns the updated row,
// or nil when no user has that id.
func (s *UserStore) UpdateProfile(ctx context.Context, id int64, p model.Profile) (*model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET firstname = ?, lastname = ?, email = ?, dob = ?, region = ? WHERE id = ?`,
		p.FirstName, p.LastName, p.Email, dateArg(p.DOB), p.Region, id,
	)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) UpdatePassword(ctx context.Context, email, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE email = ?`, hash, email)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
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

func dateArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
