package domain

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Alert is a deduplicated notification for one (device, status) pair.
type Alert struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   Status    `json:"status"`
	Level    Level     `json:"level"`
	LastSeen time.Time `json:"last_seen"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
}

// AlertID is the dedup key of an alert.
func AlertID(deviceID string, status Status) string {
	return deviceID + "|" + string(status)
}

// Alerts maps alert id to alert.
type Alerts map[string]Alert

// NewAlert builds the candidate alert for a device observed at now.
func NewAlert(d DeviceState, now time.Time) Alert {
	return Alert{
		ID:       AlertID(d.ID, d.Status),
		Name:     d.ID,
		Status:   d.Status,
		Level:    d.Level,
		LastSeen: now,
		Title:    fmt.Sprintf("%s — %s", d.ID, d.Status),
		Message:  "Level: " + levelText(d.Level),
	}
}

func levelText(l Level) string {
	if !l.Valid {
		return "N/A"
	}
	return strconv.FormatFloat(l.Value, 'f', -1, 64)
}

// DeriveAlerts merges the alerts implied by the reconciled state into prior.
// Every non-GREEN device yields a candidate that replaces any prior alert with
// the same id, refreshing its LastSeen. Prior alerts without a candidate are
// carried over unchanged; expiring them is the caller's job. prior is not
// modified.
func DeriveAlerts(prior Alerts, devices Devices, now time.Time) Alerts {
	merged := make(Alerts, len(prior)+len(devices))
	for id, a := range prior {
		merged[id] = a
	}
	for _, d := range devices {
		if d.Status == StatusGreen {
			continue
		}
		a := NewAlert(d, now)
		merged[a.ID] = a
	}
	return merged
}

// SortAlerts returns the alerts ordered by LastSeen, most recent first. Ties
// are broken by id so the order is stable between calls.
func SortAlerts(alerts Alerts) []Alert {
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
