package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlert(t *testing.T) {
	a := NewAlert(DeviceState{ID: "TankA", Status: StatusRed, Level: Number(12.5)}, testEpoch)
	assert.Equal(t, "TankA|RED", a.ID)
	assert.Equal(t, "TankA", a.Name)
	assert.Equal(t, "TankA — RED", a.Title)
	assert.Equal(t, "Level: 12.5", a.Message)
	assert.Equal(t, testEpoch, a.LastSeen)

	a = NewAlert(DeviceState{ID: "TankB", Status: StatusYellow, Level: Unparsable}, testEpoch)
	assert.Equal(t, "Level: N/A", a.Message)
}

func TestDeriveAlerts(t *testing.T) {
	devices := Devices{
		"TankA": {ID: "TankA", Status: StatusRed, Level: Number(5)},
		"TankB": {ID: "TankB", Status: StatusGreen, Level: Number(25)},
		"TankC": {ID: "TankC", Status: StatusYellow, Level: Number(15)},
	}

	alerts := DeriveAlerts(nil, devices, testEpoch)
	require.Len(t, alerts, 2)
	assert.Contains(t, alerts, "TankA|RED")
	assert.Contains(t, alerts, "TankC|YELLOW")
	for _, a := range alerts {
		assert.NotEqual(t, StatusGreen, a.Status)
	}
}

func TestDeriveAlerts_RefreshesWithoutDuplicating(t *testing.T) {
	devices := Devices{"TankA": {ID: "TankA", Status: StatusRed, Level: Number(5)}}

	first := DeriveAlerts(nil, devices, testEpoch)
	later := testEpoch.Add(7 * time.Second)
	second := DeriveAlerts(first, devices, later)

	require.Len(t, second, 1)
	assert.Equal(t, later, second["TankA|RED"].LastSeen)
	assert.Equal(t, testEpoch, first["TankA|RED"].LastSeen, "prior must not be modified")
}

func TestDeriveAlerts_KeepsPriorStatusAlerts(t *testing.T) {
	prior := DeriveAlerts(nil, Devices{"TankA": {ID: "TankA", Status: StatusYellow}}, testEpoch)
	next := DeriveAlerts(prior, Devices{"TankA": {ID: "TankA", Status: StatusRed}}, testEpoch.Add(time.Second))

	assert.Len(t, next, 2)
	assert.Equal(t, testEpoch, next["TankA|YELLOW"].LastSeen)

	next = DeriveAlerts(next, Devices{"TankA": {ID: "TankA", Status: StatusGreen}}, testEpoch.Add(2*time.Second))
	assert.Len(t, next, 2, "recovery to GREEN does not clear alerts, expiry does")
}

func TestSortAlerts(t *testing.T) {
	alerts := Alerts{
		"b|RED":    {ID: "b|RED", LastSeen: testEpoch},
		"a|RED":    {ID: "a|RED", LastSeen: testEpoch},
		"c|YELLOW": {ID: "c|YELLOW", LastSeen: testEpoch.Add(time.Second)},
	}

	sorted := SortAlerts(alerts)
	ids := make([]string, 0, len(sorted))
	for _, a := range sorted {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"c|YELLOW", "a|RED", "b|RED"}, ids)
}
