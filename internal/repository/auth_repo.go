package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"neohub_monitor/internal/models"
)

// OperatorRepository stores the dashboard's operator accounts. In practice
// there is one, seeded from config on every start.
type OperatorRepository struct {
	db *sql.DB
}

func NewOperatorRepository(db *sql.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

var _ Authorization = (*OperatorRepository)(nil)

const (
	upsertOperatorSQL = `INSERT INTO users (username, password_hash) VALUES (?, ?)
ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash
RETURNING id`
	selectOperatorSQL = `SELECT id, username, password_hash FROM users WHERE username = ?`
)

// SaveOperator creates the account or replaces its password hash, keeping
// the id stable so issued tokens still name the same row.
func (r *OperatorRepository) SaveOperator(username, passwordHash string) (int, error) {
	var id int
	if err := r.db.QueryRow(upsertOperatorSQL, username, passwordHash).Scan(&id); err != nil {
		return 0, fmt.Errorf("save operator %q: %w", username, err)
	}
	return id, nil
}

// Operator returns nil without error when no such account exists.
func (r *OperatorRepository) Operator(username string) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRow(selectOperatorSQL, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load operator %q: %w", username, err)
	}
	return u, nil
}
