package hub

import (
	"time"

	"neohub_monitor/internal/models"
)

// Credentials identify the account used against the hub API.
type Credentials struct {
	Username string
	Password string
}

// RawRecord is one loosely typed object as decoded from the hub. Numbers are
// kept as json.Number; fields may be missing or carry unexpected types.
type RawRecord map[string]any

// Session is an authenticated hub session. Roster is the device list returned
// at login.
type Session struct {
	Token    string
	Roster   []RawRecord
	IssuedAt time.Time
}

// Expired reports whether the session is older than ttl. A zero ttl never expires.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	if s == nil {
		return true
	}
	return ttl > 0 && now.Sub(s.IssuedAt) >= ttl
}

// RawDevice is a roster entry plus the zone records fetched for it.
type RawDevice struct {
	Fields RawRecord
	Zones  []RawRecord
}

// RawDeviceSet is the unvalidated result of one fetch.
type RawDeviceSet struct {
	FetchedAt time.Time
	Devices   []RawDevice
	// Missing holds roster device ids the hub refused to report this time.
	Missing []string
}

type CommandKind string

const (
	CmdSetTemperature CommandKind = "set_temperature"
	CmdSetMode        CommandKind = "set_mode"
	CmdSetAway        CommandKind = "set_away"
)

// Command is a single control request for a device or zone.
type Command struct {
	Kind        CommandKind
	DeviceID    string
	Zone        string
	Temperature float64
	Mode        models.HeatMode
	Away        bool
}

// Ack is the hub's acceptance of a command.
type Ack struct {
	Command    Command   `json:"-"`
	AcceptedAt time.Time `json:"accepted_at"`
	Message    string    `json:"message,omitempty"`
}

// Range bounds a history query. Zero values are open ends.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// HistoryPoint is one sample of a zone's temperature history.
type HistoryPoint struct {
	Time       time.Time                `json:"time"`
	ActualTemp models.Optional[float64] `json:"actual_temp"`
	SetTemp    models.Optional[float64] `json:"set_temp"`
}
