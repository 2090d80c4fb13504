package nominatim

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/tankwatch/internal/domain"
	"github.com/couchcryptid/tankwatch/internal/observability"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	places []domain.Place
	err    error
}

func (m *countingGeocoder) Search(_ context.Context, _ string) ([]domain.Place, error) {
	m.calls++
	return m.places, m.err
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{places: []domain.Place{{Lat: 22.57, Lon: 88.36, DisplayName: "Kolkata"}}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.Search(context.Background(), "Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "Kolkata", r1[0].DisplayName)

	r2, err := cached.Search(context.Background(), "  kolkata ")
	require.NoError(t, err)
	assert.Equal(t, "Kolkata", r2[0].DisplayName)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_DoesNotCacheEmpty(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	for range 2 {
		places, err := cached.Search(context.Background(), "Atlantis")
		require.NoError(t, err)
		assert.Empty(t, places)
	}
	assert.Equal(t, 2, inner.calls, "empty results must be retried")
}

func TestCachedGeocoder_DoesNotCacheErrors(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("timeout")}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Search(context.Background(), "Kolkata")
	require.Error(t, err)
	_, err = cached.Search(context.Background(), "Kolkata")
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_ResultsAreCopies(t *testing.T) {
	inner := &countingGeocoder{places: []domain.Place{{DisplayName: "Kolkata"}}}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	first, err := cached.Search(context.Background(), "Kolkata")
	require.NoError(t, err)
	first[0].DisplayName = "tampered"

	second, err := cached.Search(context.Background(), "Kolkata")
	require.NoError(t, err)
	assert.Equal(t, "Kolkata", second[0].DisplayName)
}

// --- LRU cache tests ---

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", []domain.Place{{DisplayName: "A"}})
	c.put("b", []domain.Place{{DisplayName: "B"}})

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", []domain.Place{{DisplayName: "C"}})
	assert.Equal(t, 2, c.size())

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
}

func TestLRUCache_Update(t *testing.T) {
	c := newLRUCache(2)
	c.put("a", []domain.Place{{DisplayName: "old"}})
	c.put("a", []domain.Place{{DisplayName: "new"}})

	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "new", v[0].DisplayName)
	assert.Equal(t, 1, c.size())
}

func TestLRUCache_ManyEntries(t *testing.T) {
	c := newLRUCache(100)
	for i := range 250 {
		c.put(fmt.Sprintf("q%d", i), []domain.Place{{Lat: float64(i)}})
	}
	assert.Equal(t, 100, c.size())

	_, ok := c.get("q149")
	assert.False(t, ok)
	v, ok := c.get("q249")
	require.True(t, ok)
	assert.Equal(t, 249.0, v[0].Lat)
}
