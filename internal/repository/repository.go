package repository

import (
	"context"
	"database/sql"
	"time"

	"neohub_monitor/internal/models"
)

type Authorization interface {
	Operator(username string) (*models.User, error)
	SaveOperator(username, hash string) (int, error)
}

type SnapshotRepo interface {
	Save(ctx context.Context, s models.Snapshot) error
	Load(ctx context.Context) (models.Snapshot, error)
}

type AlertRepo interface {
	Upsert(ctx context.Context, alerts []models.Alert) error
	ListOpen(ctx context.Context) ([]models.Alert, error)
	List(ctx context.Context, f AlertFilter) ([]models.Alert, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.Event, error)
}

// AlertFilter narrows alert history queries. Zero fields match everything.
type AlertFilter struct {
	State     models.AlertState
	Indicator models.StatusIndicator
	DeviceID  string
	From      time.Time
	To        time.Time
}

type Repository struct {
	SnapshotRepo SnapshotRepo
	AlertRepo    AlertRepo
	EventRepo    EventRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SnapshotRepo: NewSnapshotSQLite(db),
		AlertRepo:    NewAlertSQLite(db),
		EventRepo:    NewEventSQLite(db),
		Auth:         NewOperatorRepository(db),
	}
}
