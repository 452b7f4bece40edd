package models

import "time"

type SnapshotStatus string

const (
	SnapshotOK      SnapshotStatus = "OK"
	SnapshotPartial SnapshotStatus = "Partial"
)

// SkippedRecord describes a raw record the normalizer refused.
type SkippedRecord struct {
	Index    int    `json:"index"`
	DeviceID string `json:"device_id,omitempty"`
	Zone     string `json:"zone,omitempty"`
	Reason   string `json:"reason"`
}

// Anomaly is a value the normalizer accepted with a substitution.
type Anomaly struct {
	DeviceID string `json:"device_id"`
	Zone     string `json:"zone,omitempty"`
	Field    string `json:"field"`
	Value    string `json:"value"`
	Message  string `json:"message"`
}

// Snapshot is the complete, immutable fleet state produced by one poll cycle.
type Snapshot struct {
	TakenAt   time.Time       `json:"taken_at"`
	Status    SnapshotStatus  `json:"status"`
	Devices   []Device        `json:"devices"`
	Skipped   []SkippedRecord `json:"skipped,omitempty"`
	Anomalies []Anomaly       `json:"anomalies,omitempty"`
	// Gaps are zones that could not be classified this cycle.
	Gaps []ZoneKey `json:"gaps,omitempty"`
}

// Zones flattens all zones in device order.
func (s Snapshot) Zones() []Zone {
	var out []Zone
	for _, d := range s.Devices {
		out = append(out, d.Zones...)
	}
	return out
}

// Device looks up a device by id.
func (s Snapshot) Device(id string) (Device, bool) {
	for _, d := range s.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// Zone looks up a zone by key.
func (s Snapshot) Zone(key ZoneKey) (Zone, bool) {
	d, ok := s.Device(key.DeviceID)
	if !ok {
		return Zone{}, false
	}
	for _, z := range d.Zones {
		if z.Name == key.Zone {
			return z, true
		}
	}
	return Zone{}, false
}

func (s Snapshot) IsEmpty() bool { return s.TakenAt.IsZero() && len(s.Devices) == 0 }
