package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusIndicator is a derived classification of a zone's condition.
type StatusIndicator string

const (
	IndicatorHeating        StatusIndicator = "Heating"
	IndicatorWindowOpen     StatusIndicator = "WindowOpen"
	IndicatorLowBattery     StatusIndicator = "LowBattery"
	IndicatorInvalidReading StatusIndicator = "InvalidReading"
	IndicatorNormal         StatusIndicator = "Normal"
)

// AllIndicators lists every indicator in canonical order. Normal is last.
var AllIndicators = []StatusIndicator{
	IndicatorHeating,
	IndicatorWindowOpen,
	IndicatorLowBattery,
	IndicatorInvalidReading,
	IndicatorNormal,
}

// AlertableIndicators are the indicators that drive alerts.
var AlertableIndicators = AllIndicators[:4]

// ParseIndicator resolves a case-insensitive indicator name.
func ParseIndicator(s string) (StatusIndicator, error) {
	s = strings.TrimSpace(s)
	for _, ind := range AllIndicators {
		if strings.EqualFold(string(ind), s) {
			return ind, nil
		}
	}
	return "", fmt.Errorf("unknown status indicator %q", s)
}

func (ind StatusIndicator) bit() IndicatorSet {
	for i, v := range AllIndicators {
		if v == ind {
			return 1 << uint(i)
		}
	}
	return 0
}

// IndicatorSet is a set of indicators. The zero value is the empty set, which means
// the zone has not been classified. A classified zone holds exactly {Normal} or at
// least one of the other four.
type IndicatorSet uint8

// NewIndicatorSet builds a set from the given indicators.
func NewIndicatorSet(inds ...StatusIndicator) IndicatorSet {
	var s IndicatorSet
	for _, ind := range inds {
		s = s.With(ind)
	}
	return s
}

// With returns s with ind added.
func (s IndicatorSet) With(ind StatusIndicator) IndicatorSet { return s | ind.bit() }

// Has reports whether ind is in the set.
func (s IndicatorSet) Has(ind StatusIndicator) bool {
	b := ind.bit()
	return b != 0 && s&b != 0
}

func (s IndicatorSet) IsEmpty() bool { return s == 0 }

// List returns the members in canonical order.
func (s IndicatorSet) List() []StatusIndicator {
	out := make([]StatusIndicator, 0, len(AllIndicators))
	for _, ind := range AllIndicators {
		if s.Has(ind) {
			out = append(out, ind)
		}
	}
	return out
}

// String renders the set as a comma separated list, e.g. "Heating,LowBattery".
func (s IndicatorSet) String() string {
	names := make([]string, 0, len(AllIndicators))
	for _, ind := range s.List() {
		names = append(names, string(ind))
	}
	return strings.Join(names, ",")
}

// ParseIndicatorSet is the inverse of String.
func ParseIndicatorSet(s string) (IndicatorSet, error) {
	var set IndicatorSet
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, part := range strings.Split(s, ",") {
		ind, err := ParseIndicator(part)
		if err != nil {
			return 0, err
		}
		set = set.With(ind)
	}
	return set, nil
}

func (s IndicatorSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

func (s *IndicatorSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	var set IndicatorSet
	for _, n := range names {
		ind, err := ParseIndicator(n)
		if err != nil {
			return err
		}
		set = set.With(ind)
	}
	*s = set
	return nil
}
