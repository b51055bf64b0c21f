// Package geocode provides decorators around a domain.Geocoder.
package geocode

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with in-memory LRU caches for search and
// resolve lookups.
type CachedGeocoder struct {
	inner    domain.Geocoder
	searches *lru[[]domain.LocationCandidate]
	resolved *lru[domain.LocationCandidate]
	metrics  *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. Each cache
// holds at most maxEntries lookups.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:    inner,
		searches: newLRU[[]domain.LocationCandidate](maxEntries),
		resolved: newLRU[domain.LocationCandidate](maxEntries),
		metrics:  metrics,
	}
}

func (c *CachedGeocoder) Search(ctx context.Context, text string, limit int) ([]domain.LocationCandidate, error) {
	key := fmt.Sprintf("%d|%s", limit, normalize(text))
	if results, ok := c.searches.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("search", "hit").Inc()
		return clone(results), nil
	}
	c.metrics.GeocodeCache.WithLabelValues("search", "miss").Inc()

	results, err := c.inner.Search(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	// Empty answers are not cached so a later retry can still find the place.
	if len(results) > 0 {
		c.searches.put(key, clone(results))
	}
	return results, nil
}

func (c *CachedGeocoder) ResolveOne(ctx context.Context, text string) (domain.LocationCandidate, bool, error) {
	key := normalize(text)
	if result, ok := c.resolved.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("resolve", "hit").Inc()
		return result, true, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("resolve", "miss").Inc()

	result, ok, err := c.inner.ResolveOne(ctx, text)
	if err != nil || !ok {
		return result, ok, err
	}
	c.resolved.put(key, result)
	return result, true, nil
}

func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func clone(in []domain.LocationCandidate) []domain.LocationCandidate {
	return append([]domain.LocationCandidate(nil), in...)
}

// lru is a thread-safe least-recently-used cache.
type lru[V any] struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type lruEntry[V any] struct {
	key   string
	value V
}

func newLRU[V any](maxEntries int) *lru[V] {
	return &lru[V]{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lru[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[V]).value, true
}

func (c *lru[V]) put(key string, value V) {
	if c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry[V]).key)
	}
}

func (c *lru[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
