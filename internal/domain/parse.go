package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// levelPrefixRe matches the leading signed decimal of a level string,
// e.g. "42.5cm" -> "42.5", "-3 (bad)" -> "-3".
var levelPrefixRe = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)`)

// ParseLevel converts a raw level value into a Level. Numbers pass through,
// strings contribute their leading decimal prefix, anything else (including
// null, empty strings and text without a numeric prefix) is unparsable.
func ParseLevel(raw any) Level {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Unparsable
		}
		return Number(v)
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case json.Number:
		return ParseLevel(string(v))
	case string:
		m := levelPrefixRe.FindString(v)
		if m == "" {
			return Unparsable
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return Unparsable
		}
		return Number(f)
	default:
		return Unparsable
	}
}

// NormalizeStatus maps a raw status onto GREEN, YELLOW or RED. Matching is
// case-insensitive; missing or unknown values become GREEN.
func NormalizeStatus(raw any) Status {
	s, ok := raw.(string)
	if !ok {
		return StatusGreen
	}
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusYellow:
		return StatusYellow
	case StatusRed:
		return StatusRed
	default:
		return StatusGreen
	}
}

// ParseStatus is NormalizeStatus for callers holding a plain string, such as
// query parameters. ok is false when the input is not one of the three values.
func ParseStatus(s string) (status Status, ok bool) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusGreen, StatusYellow, StatusRed:
		return st, true
	default:
		return "", false
	}
}

// DecodeSnapshot parses a snapshot body: a JSON object mapping device id to
// reading, plus the "weather" entry. Only a body that is not a JSON object is
// an error; malformed device entries are normalized to empty readings.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if entries == nil {
		return Snapshot{}, fmt.Errorf("%w: body is null", ErrParse)
	}

	snap := Snapshot{Readings: make(map[string]RawReading, len(entries))}
	for id, raw := range entries {
		fields := decodeObject(raw)
		if id == WeatherKey {
			snap.Weather = Weather{Rain: numberOrZero(fields["rain"])}
			continue
		}
		snap.Readings[id] = RawReading{
			Level:     fields["level"],
			Status:    fields["status"],
			Latitude:  firstNumber(fields, "latitude", "lat"),
			Longitude: firstNumber(fields, "longitude", "lng", "lon"),
		}
	}
	return snap, nil
}

// decodeObject returns the fields of a JSON object, or nil for anything else.
func decodeObject(raw json.RawMessage) map[string]any {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func firstNumber(fields map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		if v, ok := fields[k].(float64); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return &v
		}
	}
	return nil
}

func numberOrZero(raw any) float64 {
	l := ParseLevel(raw)
	if !l.Valid {
		return 0
	}
	return l.Value
}
