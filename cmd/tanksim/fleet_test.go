package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tankwatch/internal/domain"
)

func TestFleet_Deterministic(t *testing.T) {
	a, b := newFleet(6, 42), newFleet(6, 42)
	for range 10 {
		a.step()
		b.step()
	}
	assert.Equal(t, a.snapshot(), b.snapshot())
}

func TestFleet_StaysInBounds(t *testing.T) {
	f := newFleet(8, 1)
	for range 500 {
		f.step()
	}
	for _, tk := range f.tanks {
		assert.GreaterOrEqual(t, tk.level, 0.0)
		assert.LessOrEqual(t, tk.level, domain.TankDepth)
	}
	assert.GreaterOrEqual(t, f.rain, 0.0)
	assert.LessOrEqual(t, f.rain, maxRain)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, domain.StatusRed, statusFor(3))
	assert.Equal(t, domain.StatusYellow, statusFor(10))
	assert.Equal(t, domain.StatusGreen, statusFor(25))
}

// The served body must round-trip through the same decoder the service uses.
func TestGetTanks_DecodesAsSnapshot(t *testing.T) {
	router := newRouter(newFleet(4, 7))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/get_tanks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	snap, err := domain.DecodeSnapshot(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, snap.Readings, 4)

	for id, r := range snap.Readings {
		lvl := domain.ParseLevel(r.Level)
		assert.True(t, lvl.Valid, "level of %s should parse", id)
		raw, _ := r.Status.(string)
		_, ok := domain.ParseStatus(raw)
		assert.True(t, ok, "status of %s should be a known value", id)
		assert.NotNil(t, r.Latitude)
		assert.NotNil(t, r.Longitude)
	}
	// Tank-4 reports with a unit suffix.
	_, isString := snap.Readings["Tank-4"].Level.(string)
	assert.True(t, isString)
}
