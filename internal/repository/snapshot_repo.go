package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"neohub_monitor/internal/models"
)

// SnapshotSQLite keeps the last good snapshot in a single row.
type SnapshotSQLite struct {
	db *sql.DB
}

func NewSnapshotSQLite(db *sql.DB) *SnapshotSQLite {
	return &SnapshotSQLite{db: db}
}

var _ SnapshotRepo = (*SnapshotSQLite)(nil)

const (
	snapshotRowID = 1

	upsertSnapshotSQL = `
		INSERT INTO snapshots (id, taken_at, status, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			taken_at=excluded.taken_at,
			status=excluded.status,
			payload=excluded.payload
	`

	selectSnapshotSQL = `SELECT payload FROM snapshots WHERE id=?`
)

// Save replaces the stored snapshot.
func (r *SnapshotSQLite) Save(ctx context.Context, s models.Snapshot) error {
	if s.TakenAt.IsZero() {
		s.TakenAt = time.Now().UTC()
	} else {
		s.TakenAt = s.TakenAt.UTC()
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, upsertSnapshotSQL, snapshotRowID, s.TakenAt, string(s.Status), string(payload)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or the zero snapshot if none was saved.
func (r *SnapshotSQLite) Load(ctx context.Context) (models.Snapshot, error) {
	var payload string
	if err := r.db.QueryRowContext(ctx, selectSnapshotSQL, snapshotRowID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Snapshot{}, nil
		}
		return models.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var s models.Snapshot
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	s.TakenAt = s.TakenAt.UTC()
	return s, nil
}
