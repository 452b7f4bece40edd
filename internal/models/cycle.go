package models

import "time"

// CycleReport summarizes one poll cycle.
type CycleReport struct {
	StartedAt     time.Time      `json:"started_at"`
	Duration      time.Duration  `json:"duration_ns"`
	Status        SnapshotStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	Attempts      int            `json:"attempts"`
	Devices       int            `json:"devices"`
	Zones         int            `json:"zones"`
	Skipped       int            `json:"skipped"`
	Gaps          int            `json:"gaps"`
	AlertsOpened  int            `json:"alerts_opened"`
	AlertsCleared int            `json:"alerts_cleared"`
}

// Aborted reports whether the cycle failed to replace the snapshot.
func (r CycleReport) Aborted() bool { return r.Error != "" }
