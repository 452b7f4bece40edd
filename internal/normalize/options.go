package normalize

import (
	"strings"

	"neohub_monitor/internal/models"
)

// SocketSentinel is the ACTUAL_TEMP value the hub reports for zones that are
// power sockets rather than thermostats.
const SocketSentinel = "255.255"

// Options tunes validation. The zero value is not usable; start from DefaultOptions.
type Options struct {
	// TempMin and TempMax bound accepted temperatures in °C. Values outside
	// become absent.
	TempMin float64
	TempMax float64
	// TypeAliases maps lower-case raw type names to device types.
	TypeAliases map[string]models.DeviceType
}

var defaultTypeAliases = map[string]models.DeviceType{
	"thermostat": models.DeviceThermostat,
	"neostat":    models.DeviceThermostat,
	"neostat-e":  models.DeviceThermostat,
	"neohub":     models.DeviceThermostat,
	"socket":     models.DeviceSocket,
	"neoplug":    models.DeviceSocket,
	"plug":       models.DeviceSocket,
	"timeclock":  models.DeviceSocket,
}

func DefaultOptions() Options {
	aliases := make(map[string]models.DeviceType, len(defaultTypeAliases))
	for k, v := range defaultTypeAliases {
		aliases[k] = v
	}
	return Options{TempMin: -40, TempMax: 100, TypeAliases: aliases}
}

// WithAliases returns a copy of o with extra aliases added. Values that are not
// a known device type are ignored.
func (o Options) WithAliases(extra map[string]string) Options {
	aliases := make(map[string]models.DeviceType, len(o.TypeAliases)+len(extra))
	for k, v := range o.TypeAliases {
		aliases[k] = v
	}
	for k, v := range extra {
		if t, ok := resolveType(v, defaultTypeAliases); ok {
			aliases[strings.ToLower(strings.TrimSpace(k))] = t
		}
	}
	o.TypeAliases = aliases
	return o
}

func resolveType(raw string, aliases map[string]models.DeviceType) (models.DeviceType, bool) {
	t, ok := aliases[strings.ToLower(strings.TrimSpace(raw))]
	return t, ok
}
