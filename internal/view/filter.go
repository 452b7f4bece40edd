package view

import (
	"strings"

	"neohub_monitor/internal/models"
)

// Filter is the declarative form of a row predicate. Empty fields match everything.
type Filter struct {
	DeviceIDs  []string
	Types      []models.DeviceType
	Indicators []models.StatusIndicator
	OnlineOnly bool
	// Query matches device name, device id or zone name, case-insensitively.
	Query string
}

// Predicate compiles f. Within a field any value matches; across fields all must.
func (f Filter) Predicate() Predicate {
	ids := make(map[string]bool, len(f.DeviceIDs))
	for _, id := range f.DeviceIDs {
		ids[id] = true
	}
	types := make(map[models.DeviceType]bool, len(f.Types))
	for _, t := range f.Types {
		types[t] = true
	}
	wanted := models.NewIndicatorSet(f.Indicators...)
	q := strings.ToLower(strings.TrimSpace(f.Query))

	return func(r Row) bool {
		if len(ids) > 0 && !ids[r.DeviceID] {
			return false
		}
		if len(types) > 0 && !types[r.ZoneKind] {
			return false
		}
		if !wanted.IsEmpty() && r.Indicators&wanted == 0 {
			return false
		}
		if f.OnlineOnly && !r.Online {
			return false
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.DeviceName), q) &&
			!strings.Contains(strings.ToLower(r.DeviceID), q) &&
			!strings.Contains(strings.ToLower(r.Zone), q) {
			return false
		}
		return true
	}
}
