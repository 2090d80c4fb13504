package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a tank event published to downstream consumers.
type EventType string

const (
	EventStatusChange EventType = "status_change"
	EventAlertRaised  EventType = "alert_raised"
)

// TankEvent is the wire record for state transitions and new alerts.
type TankEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	DeviceID       string    `json:"device_id"`
	Status         Status    `json:"status"`
	Level          Level     `json:"level"`
	PreviousStatus Status    `json:"previous_status,omitempty"`
	PreviousLevel  *Level    `json:"previous_level,omitempty"`
	AlertID        string    `json:"alert_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewStatusChangeEvent describes one appended history record.
func NewStatusChangeEvent(t Transition) TankEvent {
	prev := t.Previous.Level
	return TankEvent{
		ID:             uuid.NewString(),
		Type:           EventStatusChange,
		DeviceID:       t.DeviceID,
		Status:         t.Current.Status,
		Level:          t.Current.Level,
		PreviousStatus: t.Previous.Status,
		PreviousLevel:  &prev,
		OccurredAt:     t.Current.Timestamp,
	}
}

// NewAlertRaisedEvent describes an alert that was not active before.
func NewAlertRaisedEvent(a Alert) TankEvent {
	return TankEvent{
		ID:         uuid.NewString(),
		Type:       EventAlertRaised,
		DeviceID:   a.Name,
		Status:     a.Status,
		Level:      a.Level,
		AlertID:    a.ID,
		OccurredAt: a.LastSeen,
	}
}
