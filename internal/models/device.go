package models

import "time"

// DeviceType is the closed set of device kinds the fleet contains.
// It is also used as the kind of a single zone.
type DeviceType string

const (
	DeviceThermostat DeviceType = "Thermostat"
	DeviceSocket     DeviceType = "Socket"
)

// Valid reports whether t is one of the known kinds.
func (t DeviceType) Valid() bool {
	return t == DeviceThermostat || t == DeviceSocket
}

// Device is a physical unit reported by the hub. Zones are kept in hub order.
type Device struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Online      bool       `json:"online"`
	Type        DeviceType `json:"type"`
	Firmware    string     `json:"firmware,omitempty"`
	Zones       []Zone     `json:"zones"`
	MissedPolls int        `json:"missed_polls,omitempty"`
	LastSeen    time.Time  `json:"last_seen"`
}

// ZoneIDs returns the zone names of the device in hub order.
func (d Device) ZoneIDs() []string {
	ids := make([]string, 0, len(d.Zones))
	for _, z := range d.Zones {
		ids = append(ids, z.Name)
	}
	return ids
}
