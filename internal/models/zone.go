package models

// HeatMode is the operating mode reported for a zone.
type HeatMode string

const (
	ModeHeat HeatMode = "Heat"
	ModeCool HeatMode = "Cool"
	ModeVent HeatMode = "Vent"
	ModeOff  HeatMode = "Off"
)

// ZoneKey identifies a zone across cycles.
type ZoneKey struct {
	DeviceID string `json:"device_id"`
	Zone     string `json:"zone"`
}

func (k ZoneKey) String() string { return k.DeviceID + "/" + k.Zone }

// Zone is a controllable or monitored sub-unit of a device.
// Socket-kind zones never carry temperature, humidity, window or modulation values.
type Zone struct {
	DeviceID        string            `json:"device_id"`
	Name            string            `json:"name"`
	Kind            DeviceType        `json:"kind"`
	ActualTemp      Optional[float64] `json:"actual_temp"`
	SetTemp         Optional[float64] `json:"set_temp"`
	HeatOn          bool              `json:"heat_on"`
	HeatMode        HeatMode          `json:"heat_mode"`
	Humidity        Optional[float64] `json:"humidity"`
	WindowOpen      Optional[bool]    `json:"window_open"`
	LowBattery      Optional[bool]    `json:"low_battery"`
	BatteryLevel    Optional[float64] `json:"battery_level"`
	TimerOn         bool              `json:"timer_on"`
	ActiveProfile   Optional[int]     `json:"active_profile"`
	ModulationLevel Optional[float64] `json:"modulation_level"`
	Standby         bool              `json:"standby"`
	Offline         bool              `json:"offline"`
	Indicators      IndicatorSet      `json:"indicators"`
}

func (z Zone) Key() ZoneKey { return ZoneKey{DeviceID: z.DeviceID, Zone: z.Name} }

// Deviation returns actual minus setpoint when both are present.
func (z Zone) Deviation() (float64, bool) {
	actual, ok := z.ActualTemp.Get()
	if !ok {
		return 0, false
	}
	set, ok := z.SetTemp.Get()
	if !ok {
		return 0, false
	}
	return actual - set, true
}
