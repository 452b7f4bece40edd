package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"neohub_monitor/internal/models"
)

type AlertSQLite struct {
	db *sql.DB
}

func NewAlertSQLite(db *sql.DB) *AlertSQLite { return &AlertSQLite{db: db} }

var _ AlertRepo = (*AlertSQLite)(nil)

const (
	upsertAlertSQL = `
		INSERT INTO alerts (id, device_id, zone, indicator, state, first_seen, last_seen, cleared_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state=excluded.state,
			last_seen=excluded.last_seen,
			cleared_at=excluded.cleared_at
	`

	selectAlertsSQL = `SELECT id, device_id, zone, indicator, state, first_seen, last_seen, cleared_at FROM alerts`
)

// Upsert writes all alert transitions of one cycle atomically.
func (r *AlertSQLite) Upsert(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alert transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, a := range alerts {
		var cleared *time.Time
		if a.ClearedAt != nil {
			t := a.ClearedAt.UTC()
			cleared = &t
		}
		if _, err := tx.ExecContext(ctx, upsertAlertSQL,
			a.ID,
			a.DeviceID,
			a.Zone,
			string(a.Indicator),
			string(a.State),
			a.FirstSeen.UTC(),
			a.LastSeen.UTC(),
			cleared,
		); err != nil {
			return fmt.Errorf("upsert alert %s: %w", a.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit alert transaction: %w", err)
	}
	return nil
}

// ListOpen returns every open alert ordered by first appearance.
func (r *AlertSQLite) ListOpen(ctx context.Context) ([]models.Alert, error) {
	return r.List(ctx, AlertFilter{State: models.AlertOpen})
}

// List returns alerts matching f, ordered by first_seen ASC.
// From/To bound first_seen inclusively.
func (r *AlertSQLite) List(ctx context.Context, f AlertFilter) ([]models.Alert, error) {
	var (
		conds []string
		args  []any
	)
	if f.State != "" {
		conds = append(conds, "state = ?")
		args = append(args, string(f.State))
	}
	if f.Indicator != "" {
		conds = append(conds, "indicator = ?")
		args = append(args, string(f.Indicator))
	}
	if f.DeviceID != "" {
		conds = append(conds, "device_id = ?")
		args = append(args, f.DeviceID)
	}
	if !f.From.IsZero() {
		conds = append(conds, "first_seen >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "first_seen <= ?")
		args = append(args, f.To.UTC())
	}

	q := selectAlertsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY first_seen ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var (
			a         models.Alert
			indicator string
			state     string
			cleared   sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.DeviceID, &a.Zone, &indicator, &state, &a.FirstSeen, &a.LastSeen, &cleared); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Indicator = models.StatusIndicator(indicator)
		a.State = models.AlertState(state)
		a.FirstSeen = a.FirstSeen.UTC()
		a.LastSeen = a.LastSeen.UTC()
		if cleared.Valid {
			t := cleared.Time.UTC()
			a.ClearedAt = &t
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
