package view

import (
	"fmt"
	"sort"
	"strings"

	"neohub_monitor/internal/models"
)

type SortKey string

const (
	SortDevice     SortKey = "device"
	SortDeviceName SortKey = "device_name"
	SortZone       SortKey = "zone"
	SortType       SortKey = "type"
	SortActualTemp SortKey = "actual_temp"
	SortSetTemp    SortKey = "set_temp"
	SortMode       SortKey = "mode"
	SortStatus     SortKey = "status"
	SortHumidity   SortKey = "humidity"
)

var sortKeys = []SortKey{SortDevice, SortDeviceName, SortZone, SortType, SortActualTemp, SortSetTemp, SortMode, SortStatus, SortHumidity}

// ParseSortKey resolves a sort key name. Empty means SortDevice.
func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortDevice, nil
	}
	for _, k := range sortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Order is a sort key plus direction.
type Order struct {
	Key  SortKey
	Desc bool
}

// Row is one zone of the matrix view, flattened with its device attributes.
type Row struct {
	DeviceID     string                   `json:"device_id"`
	DeviceName   string                   `json:"device_name"`
	DeviceType   models.DeviceType        `json:"device_type"`
	Online       bool                     `json:"online"`
	Firmware     string                   `json:"firmware,omitempty"`
	Zone         string                   `json:"zone"`
	ZoneKind     models.DeviceType        `json:"zone_kind"`
	ActualTemp   models.Optional[float64] `json:"actual_temp"`
	SetTemp      models.Optional[float64] `json:"set_temp"`
	HeatOn       bool                     `json:"heat_on"`
	HeatMode     models.HeatMode          `json:"heat_mode"`
	Humidity     models.Optional[float64] `json:"humidity"`
	WindowOpen   models.Optional[bool]    `json:"window_open"`
	LowBattery   models.Optional[bool]    `json:"low_battery"`
	BatteryLevel models.Optional[float64] `json:"battery_level"`
	TimerOn      bool                     `json:"timer_on"`
	Modulation   models.Optional[float64] `json:"modulation"`
	Indicators   models.IndicatorSet      `json:"indicators"`
	Status       string                   `json:"status"`
}

// Predicate selects rows. It must not retain or modify the row.
type Predicate func(Row) bool

// Rows flattens the snapshot into rows in snapshot order.
func Rows(s models.Snapshot) []Row {
	var rows []Row
	for _, d := range s.Devices {
		for _, z := range d.Zones {
			rows = append(rows, Row{
				DeviceID:     d.ID,
				DeviceName:   d.Name,
				DeviceType:   d.Type,
				Online:       d.Online,
				Firmware:     d.Firmware,
				Zone:         z.Name,
				ZoneKind:     z.Kind,
				ActualTemp:   z.ActualTemp,
				SetTemp:      z.SetTemp,
				HeatOn:       z.HeatOn,
				HeatMode:     z.HeatMode,
				Humidity:     z.Humidity,
				WindowOpen:   z.WindowOpen,
				LowBattery:   z.LowBattery,
				BatteryLevel: z.BatteryLevel,
				TimerOn:      z.TimerOn,
				Modulation:   z.ModulationLevel,
				Indicators:   z.Indicators,
				Status:       z.Indicators.String(),
			})
		}
	}
	return rows
}

// BuildMatrix returns the filtered rows in a total order: the requested key,
// then device id, then zone name. Absent values sort last in either direction.
// A nil predicate keeps every row.
func BuildMatrix(s models.Snapshot, order Order, pred Predicate) []Row {
	all := Rows(s)
	rows := make([]Row, 0, len(all))
	for _, r := range all {
		if pred == nil || pred(r) {
			rows = append(rows, r)
		}
	}
	cmp := comparator(order.Key)
	sort.SliceStable(rows, func(i, j int) bool {
		if c := cmp(rows[i], rows[j], order.Desc); c != 0 {
			return c < 0
		}
		if rows[i].DeviceID != rows[j].DeviceID {
			return rows[i].DeviceID < rows[j].DeviceID
		}
		return rows[i].Zone < rows[j].Zone
	})
	return rows
}

type rowCmp func(a, b Row, desc bool) int

func comparator(key SortKey) rowCmp {
	switch key {
	case SortDeviceName:
		return byString(func(r Row) string { return strings.ToLower(r.DeviceName) })
	case SortZone:
		return byString(func(r Row) string { return strings.ToLower(r.Zone) })
	case SortType:
		return byString(func(r Row) string { return string(r.ZoneKind) })
	case SortActualTemp:
		return byOptional(func(r Row) models.Optional[float64] { return r.ActualTemp })
	case SortSetTemp:
		return byOptional(func(r Row) models.Optional[float64] { return r.SetTemp })
	case SortHumidity:
		return byOptional(func(r Row) models.Optional[float64] { return r.Humidity })
	case SortMode:
		return byString(func(r Row) string { return string(r.HeatMode) })
	case SortStatus:
		return byString(func(r Row) string { return r.Status })
	default:
		return byString(func(r Row) string { return r.DeviceID })
	}
}

func byString(get func(Row) string) rowCmp {
	return func(a, b Row, desc bool) int {
		c := strings.Compare(get(a), get(b))
		if desc {
			return -c
		}
		return c
	}
}

func byOptional(get func(Row) models.Optional[float64]) rowCmp {
	return func(a, b Row, desc bool) int {
		av, aok := get(a).Get()
		bv, bok := get(b).Get()
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c := 0
		if av < bv {
			c = -1
		} else if av > bv {
			c = 1
		}
		if desc {
			return -c
		}
		return c
	}
}
