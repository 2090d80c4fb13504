package domain

import "time"

// ReconcileOptions bounds otherwise unbounded reconciled state. The zero value
// keeps every record and every device forever.
type ReconcileOptions struct {
	// HistoryLimit caps the history of each device, dropping the oldest
	// records first. Zero means unbounded.
	HistoryLimit int

	// EvictAfter removes a device once it has been absent from this many
	// consecutive snapshots. Zero means devices are never evicted.
	EvictAfter int
}

// Transition describes one history record appended during reconciliation.
type Transition struct {
	DeviceID string
	Previous HistoryRecord
	Current  HistoryRecord
}

// ReconcileAt merges a full snapshot into the previous reconciled state and
// returns a new map; prev and the states it holds are left untouched.
//
// A device seen for the first time starts with an empty history and its first
// reading as baseline. After that a history record is appended only when the
// normalized status or the parsed level differs from the prior state. All
// other fields are refreshed on every call.
func ReconcileAt(prev Devices, snap Snapshot, now time.Time, opts ReconcileOptions) (Devices, []Transition) {
	next := make(Devices, len(prev)+len(snap.Readings))
	var transitions []Transition

	for id, reading := range snap.Readings {
		if id == WeatherKey {
			continue
		}
		level := ParseLevel(reading.Level)
		status := NormalizeStatus(reading.Status)

		old, seen := prev[id]
		state := DeviceState{
			ID:        id,
			Level:     level,
			Status:    status,
			Latitude:  reading.Latitude,
			Longitude: reading.Longitude,
			History:   old.History,
			LastSeen:  now,
		}
		if state.History == nil {
			state.History = []HistoryRecord{}
		}

		if seen && (old.Status != status || !old.Level.Equal(level)) {
			rec := HistoryRecord{Timestamp: now, Status: status, Level: level}
			state.History = appendRecord(old.History, rec, opts.HistoryLimit)
			transitions = append(transitions, Transition{
				DeviceID: id,
				Previous: HistoryRecord{Timestamp: old.LastSeen, Status: old.Status, Level: old.Level},
				Current:  rec,
			})
		}
		next[id] = state
	}

	for id, old := range prev {
		if _, ok := next[id]; ok {
			continue
		}
		old.Missed++
		if opts.EvictAfter > 0 && old.Missed >= opts.EvictAfter {
			continue
		}
		next[id] = old
	}

	return next, transitions
}

// appendRecord copies history before appending so slices shared with the
// previous state are never written to.
func appendRecord(history []HistoryRecord, rec HistoryRecord, limit int) []HistoryRecord {
	start := 0
	if limit > 0 && len(history)+1 > limit {
		start = len(history) + 1 - limit
	}
	out := make([]HistoryRecord, 0, len(history)-start+1)
	out = append(out, history[start:]...)
	return append(out, rec)
}
