package domain

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Overflow model constants. The model is a first-order linear approximation:
// a constant rise rate scaled by rain and status, applied to the remaining
// air gap. It is not a calibrated hydraulic model.
const (
	TankDepth        = 30.0 // same unit as Level
	BaseRiseRate     = 0.2  // units per second
	RainScaleDivisor = 10.0 // rate multiplier is 1 + rain/10
	RedRateFactor    = 1.5
	GreenRateFactor  = 0.8
)

// PredictionKind tags a Prediction.
type PredictionKind string

const (
	PredictionNoData      PredictionKind = "no_data"
	PredictionOverflowing PredictionKind = "overflowing"
	PredictionMinutes     PredictionKind = "minutes"
	PredictionHours       PredictionKind = "hours"
)

// Prediction is the time-to-overflow estimate for one device. Value is set
// for the minutes and hours kinds, rounded to one decimal.
type Prediction struct {
	Kind  PredictionKind
	Value float64

	// WaterHeight and RiseRate describe the inputs of the estimate; both are
	// zero for NoData.
	WaterHeight float64
	RiseRate    float64
}

// String renders the prediction the way the dashboard displays it.
func (p Prediction) String() string {
	switch p.Kind {
	case PredictionOverflowing:
		return "Overflowing!"
	case PredictionMinutes:
		return fmt.Sprintf("~%.1f min", p.Value)
	case PredictionHours:
		return fmt.Sprintf("~%.1f hr", p.Value)
	default:
		return "No data received"
	}
}

// MarshalJSON emits the kind, value and display text.
func (p Prediction) MarshalJSON() ([]byte, error) {
	out := struct {
		Kind        PredictionKind `json:"kind"`
		Value       *float64       `json:"value,omitempty"`
		Display     string         `json:"display"`
		WaterHeight float64        `json:"water_height"`
		RiseRate    float64        `json:"rise_rate"`
	}{
		Kind:        p.Kind,
		Display:     p.String(),
		WaterHeight: p.WaterHeight,
		RiseRate:    p.RiseRate,
	}
	if p.Kind == PredictionMinutes || p.Kind == PredictionHours {
		v := p.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// RiseRate is the modeled water rise in units per second for a status under
// the given rain intensity (mm/h). Negative rain is treated as none.
func RiseRate(status Status, rainMmPerHour float64) float64 {
	rate := BaseRiseRate * (1 + math.Max(rainMmPerHour, 0)/RainScaleDivisor)
	switch status {
	case StatusRed:
		rate *= RedRateFactor
	case StatusGreen:
		rate *= GreenRateFactor
	}
	return rate
}

// Predict estimates the time until the device overflows.
func Predict(d DeviceState, rainMmPerHour float64) Prediction {
	if d.Level.IsZeroOrMissing() {
		return Prediction{Kind: PredictionNoData}
	}

	gap := math.Min(math.Max(d.Level.Value, 0), TankDepth)
	rate := RiseRate(d.Status, rainMmPerHour)
	p := Prediction{WaterHeight: TankDepth - gap, RiseRate: rate}

	minutes := gap / rate / 60
	switch {
	case minutes <= 0:
		p.Kind = PredictionOverflowing
	case minutes < 60:
		p.Kind = PredictionMinutes
		p.Value = roundTenth(minutes)
	default:
		p.Kind = PredictionHours
		p.Value = roundTenth(minutes / 60)
	}
	return p
}

func roundTenth(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
