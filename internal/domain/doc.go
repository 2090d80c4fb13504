// Package domain models a fleet of drainage tanks polled as full snapshots.
//
// # Data Source
//
// The tank gateway answers GET /get_tanks with one JSON object per poll:
//
//	{
//	  "TankA":   {"level": 12.5, "status": "yellow", "latitude": 22.57, "longitude": 88.36},
//	  "TankB":   {"level": "8cm", "status": "RED"},
//	  "weather": {"rain": 4.2}
//	}
//
// Every key except "weather" is a device. "weather" carries the ambient rain
// intensity in mm/h.
//
// # Normalization
//
// Level is the air gap between sensor and water surface. Numbers are used as
// is; strings contribute their leading signed decimal ("42.5cm" is 42.5);
// anything else, including "", null and "n/a", is unparsable. Unparsable is
// kept distinct from zero.
//
// Status is matched case-insensitively against GREEN, YELLOW and RED. Missing
// and unknown values become GREEN.
//
// # Derived Products
//
//   - History: [ReconcileAt] appends a record only when status or level
//     changed against the previous reconciled value.
//   - Alerts: [DeriveAlerts] keeps one alert per (device, status) for every
//     non-GREEN device. Expiry lives in package alerting.
//   - Overflow: [Predict] applies a linear rise-rate model over the air gap.
//   - Proximity: [FilterWithinRadius] uses the haversine distance.
//   - Aggregates: [Summarize] substitutes [EstimateLevel] for broken readings.
//
// Everything here is pure and safe for concurrent use on values that are
// not being mutated.
package domain
