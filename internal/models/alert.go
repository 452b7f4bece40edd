package models

import "time"

type AlertState string

const (
	AlertOpen    AlertState = "Open"
	AlertCleared AlertState = "Cleared"
)

// AlertKey identifies the alert lifecycle of one indicator on one zone.
type AlertKey struct {
	Zone      ZoneKey
	Indicator StatusIndicator
}

func (k AlertKey) String() string { return k.Zone.String() + "#" + string(k.Indicator) }

// Alert is a persisted notification that an indicator appeared on a zone.
// A cleared alert is history and is never mutated again.
type Alert struct {
	ID        string          `json:"id"`
	DeviceID  string          `json:"device_id"`
	Zone      string          `json:"zone"`
	Indicator StatusIndicator `json:"indicator"`
	State     AlertState      `json:"state"`
	FirstSeen time.Time       `json:"first_seen"`
	LastSeen  time.Time       `json:"last_seen"`
	ClearedAt *time.Time      `json:"cleared_at,omitempty"`
}

func (a Alert) Key() AlertKey {
	return AlertKey{Zone: ZoneKey{DeviceID: a.DeviceID, Zone: a.Zone}, Indicator: a.Indicator}
}
