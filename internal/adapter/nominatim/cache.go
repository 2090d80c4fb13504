package nominatim

import (
	"container/list"
	"context"
	"strings"
	"sync"

	"github.com/couchcryptid/tankwatch/internal/domain"
	"github.com/couchcryptid/tankwatch/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Search answers repeated queries from the cache. Queries differing only in
// case or surrounding whitespace share an entry.
func (c *CachedGeocoder) Search(ctx context.Context, query string) ([]domain.Place, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if places, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return places, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	places, err := c.inner.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if len(places) > 0 {
		c.cache.put(key, places)
	}
	return places, nil
}

// lruCache holds search results in recency order; the front of order is the
// most recently used key.
type lruCache struct {
	mu    sync.Mutex
	limit int
	order *list.List
	byKey map[string]*list.Element
}

type cached struct {
	key    string
	places []domain.Place
}

func newLRUCache(limit int) *lruCache {
	return &lruCache{
		limit: limit,
		order: list.New(),
		byKey: make(map[string]*list.Element, limit),
	}
}

// get returns a copy so callers cannot reorder or overwrite cached places.
func (c *lruCache) get(key string) ([]domain.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return append([]domain.Place(nil), el.Value.(*cached).places...), true
}

func (c *lruCache) put(key string, places []domain.Place) {
	c.mu.Lock()
	defer c.mu.Unlock()

	places = append([]domain.Place(nil), places...)
	if el, ok := c.byKey[key]; ok {
		el.Value.(*cached).places = places
		c.order.MoveToFront(el)
		return
	}
	c.byKey[key] = c.order.PushFront(&cached{key: key, places: places})

	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cached).key)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
