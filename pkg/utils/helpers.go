package utils

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ParseValue turns a raw CSV cell into an int, float64 or trimmed string.
func ParseValue(s string) interface{} {
	// Trim whitespace first
	s = strings.TrimSpace(s)

	// try int
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	// try float
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// ToFloat converts supported values to a finite float64.
// ok is false for nil, non-numeric strings, NaN, infinities and composite values.
func ToFloat(v interface{}) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if val {
			f = 1
		}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() < reflect.Int || rv.Kind() > reflect.Float64 {
			return 0, false
		}
		f = rv.Convert(reflect.TypeOf(float64(0))).Float()
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
