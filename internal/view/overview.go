package view

import (
	"math"
	"time"

	"neohub_monitor/internal/models"
)

// ProblemDevice is a device with at least one open alert.
type ProblemDevice struct {
	DeviceID   string                   `json:"device_id"`
	Name       string                   `json:"name"`
	Online     bool                     `json:"online"`
	Indicators []models.StatusIndicator `json:"indicators"`
	Zones      []string                 `json:"zones"`
}

// Performance summarizes how well heating zones track their setpoint.
type Performance struct {
	MeanDeviation    models.Optional[float64] `json:"mean_deviation"`
	MeanAbsDeviation models.Optional[float64] `json:"mean_abs_deviation"`
	Samples          int                      `json:"samples"`
}

// Overview is the fleet-level rollup of one snapshot.
type Overview struct {
	SnapshotAt      time.Time                      `json:"snapshot_at"`
	SnapshotStatus  models.SnapshotStatus          `json:"snapshot_status"`
	TotalDevices    int                            `json:"total_devices"`
	OnlineDevices   int                            `json:"online_devices"`
	OfflineDevices  int                            `json:"offline_devices"`
	OfflineIDs      []string                       `json:"offline_device_ids,omitempty"`
	TotalZones      int                            `json:"total_zones"`
	SocketZones     int                            `json:"socket_zones"`
	IndicatorCounts map[models.StatusIndicator]int `json:"indicator_counts"`
	OpenAlerts      int                            `json:"open_alerts"`
	ProblemDevices  []ProblemDevice                `json:"problem_devices"`
	Performance     Performance                    `json:"performance"`
	SkippedRecords  int                            `json:"skipped_records"`
	LastCycle       *models.CycleReport            `json:"last_cycle,omitempty"`
}

// BuildOverview rolls up s. open must be the currently open alerts; last may be nil.
func BuildOverview(s models.Snapshot, open []models.Alert, last *models.CycleReport) Overview {
	ov := Overview{
		SnapshotAt:      s.TakenAt,
		SnapshotStatus:  s.Status,
		TotalDevices:    len(s.Devices),
		IndicatorCounts: make(map[models.StatusIndicator]int, len(models.AllIndicators)),
		OpenAlerts:      len(open),
		ProblemDevices:  []ProblemDevice{},
		SkippedRecords:  len(s.Skipped),
		LastCycle:       last,
	}
	for _, ind := range models.AllIndicators {
		ov.IndicatorCounts[ind] = 0
	}

	var sum, sumAbs float64
	for _, d := range s.Devices {
		if d.Online {
			ov.OnlineDevices++
		} else {
			ov.OfflineDevices++
			ov.OfflineIDs = append(ov.OfflineIDs, d.ID)
		}
		for _, z := range d.Zones {
			ov.TotalZones++
			if z.Kind == models.DeviceSocket {
				ov.SocketZones++
			}
			for _, ind := range z.Indicators.List() {
				ov.IndicatorCounts[ind]++
			}
			if !z.Indicators.Has(models.IndicatorHeating) || z.Indicators.Has(models.IndicatorInvalidReading) {
				continue
			}
			if dev, ok := z.Deviation(); ok {
				sum += dev
				sumAbs += math.Abs(dev)
				ov.Performance.Samples++
			}
		}
	}
	if n := ov.Performance.Samples; n > 0 {
		ov.Performance.MeanDeviation = models.Some(sum / float64(n))
		ov.Performance.MeanAbsDeviation = models.Some(sumAbs / float64(n))
	}

	ov.ProblemDevices = problemDevices(s, open)
	return ov
}

// problemDevices groups open alerts by device in snapshot order. Devices that
// have alerts but are no longer in the snapshot follow in alert order.
func problemDevices(s models.Snapshot, open []models.Alert) []ProblemDevice {
	byDevice := make(map[string]*ProblemDevice)
	var order []string
	for _, a := range open {
		p, ok := byDevice[a.DeviceID]
		if !ok {
			p = &ProblemDevice{DeviceID: a.DeviceID, Name: a.DeviceID}
			byDevice[a.DeviceID] = p
			order = append(order, a.DeviceID)
		}
		p.Indicators = appendUnique(p.Indicators, a.Indicator)
		p.Zones = appendUnique(p.Zones, a.Zone)
	}

	out := make([]ProblemDevice, 0, len(byDevice))
	done := make(map[string]bool, len(byDevice))
	for _, d := range s.Devices {
		if p, ok := byDevice[d.ID]; ok {
			p.Name = d.Name
			p.Online = d.Online
			p.Indicators = models.NewIndicatorSet(p.Indicators...).List()
			out = append(out, *p)
			done[d.ID] = true
		}
	}
	for _, id := range order {
		if !done[id] {
			p := byDevice[id]
			p.Indicators = models.NewIndicatorSet(p.Indicators...).List()
			out = append(out, *p)
		}
	}
	return out
}

func appendUnique[T comparable](xs []T, v T) []T {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}

// DeviceSummary is the per-device zone rollup.
type DeviceSummary struct {
	DeviceID    string            `json:"device_id"`
	Name        string            `json:"name"`
	Type        models.DeviceType `json:"type"`
	Online      bool              `json:"online"`
	Firmware    string            `json:"firmware,omitempty"`
	MissedPolls int               `json:"missed_polls"`
	Zones       int               `json:"zones"`
	Heating     int               `json:"heating_zones"`
	Sockets     int               `json:"socket_zones"`
	Problems    int               `json:"problem_zones"`
}

// DeviceSummaries returns one summary per device in snapshot order.
func DeviceSummaries(s models.Snapshot) []DeviceSummary {
	out := make([]DeviceSummary, 0, len(s.Devices))
	for _, d := range s.Devices {
		sum := DeviceSummary{
			DeviceID:    d.ID,
			Name:        d.Name,
			Type:        d.Type,
			Online:      d.Online,
			Firmware:    d.Firmware,
			MissedPolls: d.MissedPolls,
			Zones:       len(d.Zones),
		}
		for _, z := range d.Zones {
			if z.Kind == models.DeviceSocket {
				sum.Sockets++
			}
			if z.Indicators.Has(models.IndicatorHeating) {
				sum.Heating++
			}
			if z.Indicators.Has(models.IndicatorWindowOpen) || z.Indicators.Has(models.IndicatorLowBattery) ||
				z.Indicators.Has(models.IndicatorInvalidReading) {
				sum.Problems++
			}
		}
		out = append(out, sum)
	}
	return out
}
