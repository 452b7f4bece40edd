package service

import (
	"time"

	"neohub_monitor/internal/models"
	"neohub_monitor/internal/view"
)

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "CYCLE", "CYCLE_FAILED", "COMMAND", "ALERT_OPENED", "ALERT_CLEARED", "RECORD_SKIPPED"
}

// Alert query scopes.
const (
	AlertScopeOpen    = "open"
	AlertScopeCleared = "cleared"
	AlertScopeAll     = "all"
)

// AlertQuery selects alerts. Scope "open" (the default) reads the live state;
// the other scopes read the persisted history.
type AlertQuery struct {
	Scope     string
	Indicator models.StatusIndicator
	DeviceID  string
	From      time.Time
	To        time.Time
}

// MatrixQuery orders and filters the zone matrix.
type MatrixQuery struct {
	Order  view.Order
	Filter view.Filter
}

// ExportRequest selects what to export. Rows follow the matrix order and filter.
type ExportRequest struct {
	Format string
	Fields string
	Matrix MatrixQuery
}

type ExportResult struct {
	FileName    string
	ContentType string
	Body        []byte
}
