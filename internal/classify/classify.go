package classify

import (
	"errors"
	"fmt"

	"neohub_monitor/internal/models"
)

// ErrClassificationGap marks a zone no rule can be applied to. The zone is
// excluded from alert evaluation for the cycle.
var ErrClassificationGap = errors.New("classification gap")

// Thresholds are the tunable bounds of the rules.
type Thresholds struct {
	// ReadingMin and ReadingMax bound a plausible room temperature in °C.
	ReadingMin float64
	ReadingMax float64
	// LowBattery is the battery fraction below which a zone reports LowBattery.
	LowBattery float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{ReadingMin: 0, ReadingMax: 50, LowBattery: 0.2}
}

// Classifier derives status indicators for zones.
type Classifier struct {
	th Thresholds
}

func New(th Thresholds) *Classifier {
	return &Classifier{th: th}
}

// Classify returns the indicator set of z: exactly {Normal} or at least one of
// Heating, WindowOpen, LowBattery and InvalidReading.
func (c *Classifier) Classify(z models.Zone) (models.IndicatorSet, error) {
	if err := checkShape(z); err != nil {
		return 0, err
	}

	var set models.IndicatorSet
	thermostat := z.Kind == models.DeviceThermostat

	if thermostat {
		actual, ok := z.ActualTemp.Get()
		if !ok || actual < c.th.ReadingMin || actual > c.th.ReadingMax {
			set = set.With(models.IndicatorInvalidReading)
		}
		if open, ok := z.WindowOpen.Get(); ok && open {
			set = set.With(models.IndicatorWindowOpen)
		}
		if z.HeatOn && z.HeatMode == models.ModeHeat {
			set = set.With(models.IndicatorHeating)
		}
	}

	if low, ok := z.LowBattery.Get(); ok && low {
		set = set.With(models.IndicatorLowBattery)
	} else if level, ok := z.BatteryLevel.Get(); ok && level < c.th.LowBattery {
		set = set.With(models.IndicatorLowBattery)
	}

	if set.IsEmpty() {
		set = set.With(models.IndicatorNormal)
	}
	return set, nil
}

func checkShape(z models.Zone) error {
	gap := func(reason string) error {
		return fmt.Errorf("zone %s: %s: %w", z.Key(), reason, ErrClassificationGap)
	}
	switch {
	case !z.Kind.Valid():
		return gap(fmt.Sprintf("unknown kind %q", z.Kind))
	case z.Kind == models.DeviceSocket && (z.ActualTemp.Valid || z.WindowOpen.Valid):
		return gap("socket zone carries climate readings")
	}
	switch z.HeatMode {
	case models.ModeHeat, models.ModeCool, models.ModeVent, models.ModeOff:
		return nil
	default:
		return gap(fmt.Sprintf("unknown heat mode %q", z.HeatMode))
	}
}

// Snapshot classifies every zone of s and returns a copy with indicators
// attached. Zones that cannot be classified keep an empty set and are listed
// in the returned gaps, which are also recorded on the copy. s is not modified.
func (c *Classifier) Snapshot(s models.Snapshot) (models.Snapshot, []error) {
	out := s
	out.Devices = make([]models.Device, len(s.Devices))
	out.Gaps = nil

	var gaps []error
	for i, d := range s.Devices {
		dev := d
		dev.Zones = make([]models.Zone, len(d.Zones))
		for j, z := range d.Zones {
			set, err := c.Classify(z)
			if err != nil {
				gaps = append(gaps, err)
				out.Gaps = append(out.Gaps, z.Key())
				set = 0
			}
			z.Indicators = set
			dev.Zones[j] = z
		}
		out.Devices[i] = dev
	}
	if len(out.Gaps) > 0 {
		out.Status = models.SnapshotPartial
	}
	return out, gaps
}
