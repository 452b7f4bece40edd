package normalize

import (
	"fmt"
	"strings"

	"neohub_monitor/internal/hub"
	"neohub_monitor/internal/models"
)

// RecordValidationError explains why a raw record was refused.
type RecordValidationError struct {
	Index    int
	DeviceID string
	Zone     string
	Reason   string
}

func (e *RecordValidationError) Error() string {
	msg := fmt.Sprintf("record %d", e.Index)
	if e.DeviceID != "" {
		msg += " (device " + e.DeviceID
		if e.Zone != "" {
			msg += ", zone " + e.Zone
		}
		msg += ")"
	}
	return msg + ": " + e.Reason
}

func (e *RecordValidationError) skipped() models.SkippedRecord {
	return models.SkippedRecord{Index: e.Index, DeviceID: e.DeviceID, Zone: e.Zone, Reason: e.Reason}
}

// Field keys as the hub and older exports spell them.
var (
	keysDeviceID   = []string{"deviceid", "device_id", "id", "DEVICE_ID"}
	keysDeviceType = []string{"type", "TYPE", "deviceType", "device_type"}
	keysDeviceName = []string{"devicename", "device_name", "name", "NAME"}
	keysOnline     = []string{"online", "ONLINE"}
	keysFirmware   = []string{"version", "firmware", "FIRMWARE"}

	keysZoneName   = []string{"ZONE_NAME", "zone", "zoneName", "zone_name"}
	keysActualTemp = []string{"ACTUAL_TEMP", "actualTemp", "actual_temp"}
	keysSetTemp    = []string{"SET_TEMP", "setTemp", "set_temp"}
	keysHeatOn     = []string{"HEAT_ON", "heatOn", "heat_on"}
	keysHCMode     = []string{"HC_MODE", "heatMode", "heat_mode", "mode"}
	keysHeatMode   = []string{"HEAT_MODE"}
	keysHumidity   = []string{"RELATIVE_HUMIDITY", "humidity"}
	keysWindow     = []string{"WINDOW_OPEN", "windowOpen", "window_open"}
	keysLowBattery = []string{"LOW_BATTERY", "lowBattery", "low_battery"}
	keysBattery    = []string{"BATTERY_LEVEL", "battery", "batteryLevel", "battery_level"}
	keysTimer      = []string{"TIMER_ON", "timerOn"}
	keysProfile    = []string{"ACTIVE_PROFILE", "activeProfile"}
	keysModulation = []string{"MODULATION_LEVEL", "modulation"}
	keysStandby    = []string{"STANDBY", "standby"}
	keysOffline    = []string{"OFFLINE", "offline"}
)

// zoneKeys are the keys whose presence on a device record marks it as a
// single-zone device reported inline.
var zoneKeys = [][]string{keysActualTemp, keysSetTemp, keysHeatOn, keysHCMode, keysHeatMode, keysWindow, keysBattery, keysLowBattery}

// Normalize validates raw hub records into a snapshot. Records without a device
// id or type, and zones duplicating a name within their device, are skipped and
// reported; they never abort the call. Devices the hub declined to report
// make the snapshot Partial.
func Normalize(set hub.RawDeviceSet, opts Options) (models.Snapshot, []models.SkippedRecord) {
	snap := models.Snapshot{
		TakenAt: set.FetchedAt.UTC(),
		Status:  models.SnapshotOK,
		Devices: make([]models.Device, 0, len(set.Devices)),
	}
	seen := make(map[string]bool, len(set.Devices))

	for i, raw := range set.Devices {
		dev, anomalies, skipped, err := normalizeDevice(i, raw, opts)
		if err != nil {
			snap.Skipped = append(snap.Skipped, err.skipped())
			continue
		}
		if seen[dev.ID] {
			snap.Skipped = append(snap.Skipped, models.SkippedRecord{Index: i, DeviceID: dev.ID, Reason: "duplicate device id"})
			continue
		}
		seen[dev.ID] = true
		dev.LastSeen = snap.TakenAt
		snap.Devices = append(snap.Devices, dev)
		snap.Anomalies = append(snap.Anomalies, anomalies...)
		snap.Skipped = append(snap.Skipped, skipped...)
	}

	if len(snap.Skipped) > 0 || len(set.Missing) > 0 {
		snap.Status = models.SnapshotPartial
	}
	return snap, snap.Skipped
}

func normalizeDevice(idx int, raw hub.RawDevice, opts Options) (models.Device, []models.Anomaly, []models.SkippedRecord, *RecordValidationError) {
	rec := raw.Fields
	id := text(rec, keysDeviceID...)
	if id == "" {
		return models.Device{}, nil, nil, &RecordValidationError{Index: idx, Reason: "missing device id"}
	}
	rawType := text(rec, keysDeviceType...)
	if rawType == "" {
		return models.Device{}, nil, nil, &RecordValidationError{Index: idx, DeviceID: id, Reason: "missing device type"}
	}

	var anomalies []models.Anomaly
	devType, ok := resolveType(rawType, opts.TypeAliases)
	if !ok {
		devType = models.DeviceSocket
		anomalies = append(anomalies, models.Anomaly{
			DeviceID: id, Field: "type", Value: rawType,
			Message: "unknown device type, treated as Socket",
		})
	}

	dev := models.Device{
		ID:       id,
		Name:     text(rec, keysDeviceName...),
		Online:   true,
		Type:     devType,
		Firmware: text(rec, keysFirmware...),
	}
	if dev.Name == "" {
		dev.Name = id
	}
	if v, ok := rec.Lookup(keysOnline...); ok {
		if b, ok := hub.Bool(v); ok {
			dev.Online = b
		}
	}

	zoneRecs := raw.Zones
	if len(zoneRecs) == 0 && hasAny(rec, zoneKeys) {
		inline := make(hub.RawRecord, len(rec)+1)
		for k, v := range rec {
			inline[k] = v
		}
		if _, ok := inline.Lookup(keysZoneName...); !ok {
			inline["zone"] = dev.Name
		}
		zoneRecs = []hub.RawRecord{inline}
	}

	var skipped []models.SkippedRecord
	names := make(map[string]bool, len(zoneRecs))
	for n, zr := range zoneRecs {
		z, zoneAnomalies := normalizeZone(id, devType, n, zr, opts)
		if names[z.Name] {
			skipped = append(skipped, models.SkippedRecord{Index: idx, DeviceID: id, Zone: z.Name, Reason: "duplicate zone name"})
			continue
		}
		names[z.Name] = true
		dev.Zones = append(dev.Zones, z)
		anomalies = append(anomalies, zoneAnomalies...)
	}
	return dev, anomalies, skipped, nil
}

func normalizeZone(deviceID string, devType models.DeviceType, n int, rec hub.RawRecord, opts Options) (models.Zone, []models.Anomaly) {
	z := models.Zone{
		DeviceID: deviceID,
		Name:     text(rec, keysZoneName...),
		Kind:     devType,
		HeatOn:   flag(rec, keysHeatOn...),
		TimerOn:  flag(rec, keysTimer...),
		Standby:  flag(rec, keysStandby...),
		Offline:  flag(rec, keysOffline...),
	}
	if z.Name == "" {
		z.Name = fmt.Sprintf("zone-%d", n+1)
	}

	var anomalies []models.Anomaly
	note := func(field string, v any, msg string) {
		s, _ := hub.Text(v)
		anomalies = append(anomalies, models.Anomaly{DeviceID: deviceID, Zone: z.Name, Field: field, Value: s, Message: msg})
	}

	actualRaw, _ := rec.Lookup(keysActualTemp...)
	if devType == models.DeviceThermostat && isSocketZone(z.Name, actualRaw) {
		z.Kind = models.DeviceSocket
	}

	z.HeatMode = heatMode(rec, note)
	if v, ok := rec.Lookup(keysLowBattery...); ok {
		if b, ok := hub.Bool(v); ok {
			z.LowBattery = models.Some(b)
		}
	}
	if v, ok := rec.Lookup(keysBattery...); ok {
		if level, ok := batteryLevel(v); ok {
			z.BatteryLevel = models.Some(level)
		} else {
			note("battery", v, "battery level out of range, dropped")
		}
	}
	if v, ok := rec.Lookup(keysProfile...); ok {
		if f, ok := hub.Float(v); ok && f >= 0 {
			z.ActiveProfile = models.Some(int(f))
		}
	}

	// Sockets carry no climate readings.
	if z.Kind == models.DeviceSocket {
		return z, anomalies
	}

	if actualRaw != nil {
		if f, ok := bounded(actualRaw, opts.TempMin, opts.TempMax); ok {
			z.ActualTemp = models.Some(f)
		} else {
			note("actual_temp", actualRaw, "temperature not numeric or out of range, dropped")
		}
	}
	if v, ok := rec.Lookup(keysSetTemp...); ok {
		if f, ok := bounded(v, opts.TempMin, opts.TempMax); ok {
			z.SetTemp = models.Some(f)
		} else {
			note("set_temp", v, "setpoint not numeric or out of range, dropped")
		}
	}
	if v, ok := rec.Lookup(keysHumidity...); ok {
		if f, ok := bounded(v, 0, 100); ok {
			z.Humidity = models.Some(f)
		} else {
			note("humidity", v, "humidity out of range, dropped")
		}
	}
	if v, ok := rec.Lookup(keysWindow...); ok {
		if b, ok := hub.Bool(v); ok {
			z.WindowOpen = models.Some(b)
		}
	}
	if v, ok := rec.Lookup(keysModulation...); ok {
		if f, ok := bounded(v, 0, 100); ok {
			z.ModulationLevel = models.Some(f)
		}
	}
	return z, anomalies
}

func isSocketZone(name string, actual any) bool {
	if s, ok := actual.(string); ok && strings.TrimSpace(s) == SocketSentinel {
		return true
	}
	return strings.Contains(strings.ToLower(name), "socket")
}

func heatMode(rec hub.RawRecord, note func(string, any, string)) models.HeatMode {
	if v, ok := rec.Lookup(keysHCMode...); ok {
		s, _ := hub.Text(v)
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "HEAT", "HEATING":
			return models.ModeHeat
		case "COOL", "COOLING":
			return models.ModeCool
		case "VENT", "VENTING", "FAN":
			return models.ModeVent
		case "OFF", "STANDBY", "NONE":
			return models.ModeOff
		default:
			note("heat_mode", v, "unknown heat mode, treated as Off")
			return models.ModeOff
		}
	}
	if flag(rec, keysHeatMode...) {
		return models.ModeHeat
	}
	return models.ModeOff
}

// batteryLevel accepts a 0..1 fraction or a 0..100 percentage.
func batteryLevel(v any) (float64, bool) {
	f, ok := hub.Float(v)
	switch {
	case !ok || f < 0 || f > 100:
		return 0, false
	case f > 1:
		return f / 100, true
	default:
		return f, true
	}
}

func bounded(v any, lo, hi float64) (float64, bool) {
	f, ok := hub.Float(v)
	if !ok || f < lo || f > hi {
		return 0, false
	}
	return f, true
}

func text(rec hub.RawRecord, keys ...string) string {
	v, ok := rec.Lookup(keys...)
	if !ok {
		return ""
	}
	s, _ := hub.Text(v)
	return strings.TrimSpace(s)
}

func flag(rec hub.RawRecord, keys ...string) bool {
	v, ok := rec.Lookup(keys...)
	if !ok {
		return false
	}
	b, _ := hub.Bool(v)
	return b
}

func hasAny(rec hub.RawRecord, groups [][]string) bool {
	for _, keys := range groups {
		if _, ok := rec.Lookup(keys...); ok {
			return true
		}
	}
	return false
}

// Reconcile carries devices missing from next over from prev until they have
// been absent for more than tolerance consecutive cycles. Carried devices keep
// their last known zones and are appended after the reported ones.
func Reconcile(prev, next models.Snapshot, tolerance int) models.Snapshot {
	if len(prev.Devices) == 0 {
		return next
	}
	present := make(map[string]bool, len(next.Devices))
	for _, d := range next.Devices {
		present[d.ID] = true
	}

	devices := make([]models.Device, 0, len(next.Devices)+len(prev.Devices))
	devices = append(devices, next.Devices...)
	for _, d := range prev.Devices {
		if present[d.ID] {
			continue
		}
		missed := d.MissedPolls + 1
		if missed > tolerance {
			continue
		}
		carried := d
		carried.MissedPolls = missed
		carried.Zones = append([]models.Zone(nil), d.Zones...)
		devices = append(devices, carried)
	}
	next.Devices = devices
	return next
}
