package models

import "time"

// Event types written to the audit log.
const (
	EventCycle        = "CYCLE"
	EventCycleFailed  = "CYCLE_FAILED"
	EventCommand      = "COMMAND"
	EventAlertOpened  = "ALERT_OPENED"
	EventAlertCleared = "ALERT_CLEARED"
	EventSkipped      = "RECORD_SKIPPED"
)

// Event is a single log entry.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CYCLE | CYCLE_FAILED | COMMAND | ALERT_OPENED | ALERT_CLEARED | RECORD_SKIPPED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
