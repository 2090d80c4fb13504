package domain

import (
	"encoding/json"
	"time"
)

// WeatherKey is the snapshot entry carrying ambient readings instead of a device.
const WeatherKey = "weather"

// Status is the normalized traffic-light classification reported by a tank.
type Status string

const (
	StatusGreen  Status = "GREEN"
	StatusYellow Status = "YELLOW"
	StatusRed    Status = "RED"
)

// Level is the parsed air-gap reading of a tank. Valid is false when the raw
// value could not be parsed; a zero Value with Valid set is a real reading.
type Level struct {
	Value float64
	Valid bool
}

// Number returns a parsed level.
func Number(v float64) Level { return Level{Value: v, Valid: true} }

// Unparsable is the level of a reading with no usable numeric prefix.
var Unparsable = Level{}

// Equal reports value equality. Two unparsable levels are equal.
func (l Level) Equal(o Level) bool {
	if l.Valid != o.Valid {
		return false
	}
	return !l.Valid || l.Value == o.Value
}

// IsZeroOrMissing reports whether the level is unusable for predictions and
// aggregates: either unparsable or exactly zero.
func (l Level) IsZeroOrMissing() bool {
	return !l.Valid || l.Value == 0
}

// MarshalJSON renders unparsable levels as null.
func (l Level) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(l.Value)
}

// UnmarshalJSON accepts the same loose forms as ParseLevel.
func (l *Level) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = ParseLevel(raw)
	return nil
}

// RawReading is one device entry of a snapshot before normalization.
type RawReading struct {
	Level     any      `json:"level"`
	Status    any      `json:"status"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Weather carries the ambient fields of a snapshot.
type Weather struct {
	Rain float64 `json:"rain"` // mm/h
}

// Snapshot is one full poll response: every device reading plus weather.
type Snapshot struct {
	Readings map[string]RawReading
	Weather  Weather
}

// HistoryRecord is a timestamped (status, level) pair appended on change.
type HistoryRecord struct {
	Timestamp time.Time `json:"ts"`
	Status    Status    `json:"status"`
	Level     Level     `json:"level"`
}

// DeviceState is the reconciled view of one tank.
type DeviceState struct {
	ID        string          `json:"id"`
	Level     Level           `json:"level"`
	Status    Status          `json:"status"`
	Latitude  *float64        `json:"latitude,omitempty"`
	Longitude *float64        `json:"longitude,omitempty"`
	History   []HistoryRecord `json:"history"`
	LastSeen  time.Time       `json:"last_seen"`

	// Missed counts consecutive snapshots that omitted this device.
	Missed int `json:"-"`
}

// HasCoordinates reports whether the device can take part in spatial queries.
func (d DeviceState) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}

// Devices maps device id to reconciled state. A Devices value handed out by
// the engine is never mutated afterwards.
type Devices map[string]DeviceState
