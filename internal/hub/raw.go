package hub

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Lookup returns the first non-null value stored under any of keys.
func (r RawRecord) Lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Float coerces JSON numbers and numeric strings. NaN and infinities are rejected.
func Float(v any) (float64, bool) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		f, err = x.Float64()
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Bool coerces booleans, 0/1 numbers and common textual flags.
func Bool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "on":
			return true, true
		case "false", "0", "no", "off":
			return false, true
		}
		return false, false
	default:
		f, ok := Float(v)
		if !ok || (f != 0 && f != 1) {
			return false, false
		}
		return f == 1, true
	}
}

// Text renders scalars as strings.
func Text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

func asRecord(v any) (RawRecord, bool) {
	switch m := v.(type) {
	case RawRecord:
		return m, true
	case map[string]any:
		return RawRecord(m), true
	default:
		return nil, false
	}
}

// recordList keeps only the object elements of a JSON array.
func recordList(v any) []RawRecord {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]RawRecord, 0, len(items))
	for _, it := range items {
		if rec, ok := asRecord(it); ok {
			out = append(out, rec)
		}
	}
	return out
}
