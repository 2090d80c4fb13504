package domain

import (
	"math"
	"sort"
)

// OverflowRiskLevel is the effective level above which a tank counts toward
// the fleet overflow risk.
const OverflowRiskLevel = 70.0

// Summary aggregates the fleet for overview panels.
type Summary struct {
	Total        int            `json:"total"`
	StatusCounts map[Status]int `json:"status_counts"`
	ActiveAlerts int            `json:"active_alerts"`
	AverageLevel int            `json:"average_level"`
	OverflowRisk int            `json:"overflow_risk_percent"`
}

// Summarize computes status counts and level aggregates. Zero or unparsable
// levels are replaced by EstimateLevel before averaging.
func Summarize(devices Devices) Summary {
	s := Summary{
		Total:        len(devices),
		StatusCounts: map[Status]int{StatusGreen: 0, StatusYellow: 0, StatusRed: 0},
	}
	if len(devices) == 0 {
		return s
	}

	var sum float64
	risky := 0
	for _, d := range devices {
		s.StatusCounts[d.Status]++
		if d.Status != StatusGreen {
			s.ActiveAlerts++
		}
		level := EffectiveLevel(d)
		sum += level
		if level > OverflowRiskLevel {
			risky++
		}
	}
	n := float64(len(devices))
	s.AverageLevel = roundHalfUp(sum / n)
	s.OverflowRisk = roundHalfUp(float64(risky) / n * 100)
	return s
}

// roundHalfUp rounds .5 toward positive infinity like the dashboard did.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// SortedDevices returns the devices ordered by id, optionally keeping only one
// status.
func SortedDevices(devices Devices, only *Status) []DeviceState {
	out := make([]DeviceState, 0, len(devices))
	for _, d := range devices {
		if only != nil && d.Status != *only {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
