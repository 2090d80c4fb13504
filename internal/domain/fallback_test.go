package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStableDigit(t *testing.T) {
	tests := map[string]int64{
		"TankA":          3,
		"TankB":          4,
		"Tank-1":         4,
		"drain_north_07": 0,
		"a":              7,
		"":               0,
		"Nile🌊Tank":      0,
	}
	for id, want := range tests {
		assert.Equal(t, want, stableDigit(id), "id=%q", id)
	}
}

func TestEstimateLevel(t *testing.T) {
	assert.Equal(t, 93.0, EstimateLevel("TankA", StatusRed))
	assert.Equal(t, 78.0, EstimateLevel("TankA", StatusYellow))
	assert.Equal(t, 28.0, EstimateLevel("TankA", StatusGreen))
	assert.Equal(t, 34.0, EstimateLevel("TankB", StatusGreen))
	assert.Equal(t, 10.0, EstimateLevel("drain_north_07", StatusGreen))
}

func TestEstimateLevel_Ranges(t *testing.T) {
	for _, id := range []string{"x", "TankA", "Tank-1", "Tank-22", "sensor/ö", "long-device-name-0001"} {
		red := EstimateLevel(id, StatusRed)
		assert.GreaterOrEqual(t, red, 90.0)
		assert.LessOrEqual(t, red, 99.0)

		yellow := EstimateLevel(id, StatusYellow)
		assert.GreaterOrEqual(t, yellow, 75.0)
		assert.LessOrEqual(t, yellow, 84.0)

		green := EstimateLevel(id, StatusGreen)
		assert.GreaterOrEqual(t, green, 10.0)
		assert.LessOrEqual(t, green, 64.0)

		assert.Equal(t, red, EstimateLevel(id, StatusRed), "must be deterministic")
	}
}

func TestEffectiveLevel(t *testing.T) {
	assert.Equal(t, 93.0, EffectiveLevel(DeviceState{ID: "TankA", Status: StatusRed, Level: Number(0)}))
	assert.Equal(t, 93.0, EffectiveLevel(DeviceState{ID: "TankA", Status: StatusRed, Level: Unparsable}))
	assert.Equal(t, 12.5, EffectiveLevel(DeviceState{ID: "TankA", Status: StatusRed, Level: Number(12.5)}))
}
