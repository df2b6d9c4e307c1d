// Package cache implements the bounded LRU+TTL cache described in spec
// §4.2: per-kind caches for words and phrases plus a generic typed cache,
// all backed by github.com/hashicorp/golang-lru/v2/expirable so eviction
// order, TTL expiry, and concurrency safety come from a maintained library
// rather than a hand-rolled structure.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// MaxWordsCache bounds the dictionary word cache (spec §4.2).
	MaxWordsCache = 10000
	// MaxPhrasesCache bounds the phrase cache (spec §4.2).
	MaxPhrasesCache = 5000
	// TTL is the entry lifetime for every cache kind (spec §4.2).
	TTL = 30 * time.Minute
)

// Kind names a logical cache bucket for Clear/Metrics purposes.
type Kind string

const (
	KindWords   Kind = "words"
	KindPhrases Kind = "phrases"
	KindGeneric Kind = "generic"
)

// Metrics is the counter snapshot spec §4.2 requires: {hits, misses,
// hit_rate, total_count, estimated_memory_bytes, …}.
type Metrics struct {
	Hits                 int64
	Misses               int64
	TotalCount           int
	EstimatedMemoryBytes int64
}

// HitRate returns hits / (hits + misses), or 0 when there have been no
// lookups at all.
func (m Metrics) HitRate() float64 {
	total := m.Hits + m.Misses
	if total == 0 {
		return 0
	}
	return float64(m.Hits) / float64(total)
}

// Cache is a bounded, TTL-expiring, concurrency-safe key/value cache whose
// iteration order equals access order with most-recently-used at the tail
// (the guarantee expirable.LRU provides), with hit/miss counters layered on
// top per spec §4.2.
type Cache[V any] struct {
	mu     sync.Mutex
	lru    *lru.LRU[string, V]
	hits   atomic.Int64
	misses atomic.Int64
	sizeOf func(V) int64
}

// New creates a Cache bounded to maxEntries with the given TTL. sizeOf may be
// nil, in which case EstimatedMemoryBytes is always reported as 0.
func New[V any](maxEntries int, ttl time.Duration, sizeOf func(V) int64) *Cache[V] {
	return &Cache[V]{
		lru:    lru.NewLRU[string, V](maxEntries, nil, ttl),
		sizeOf: sizeOf,
	}
}

// Get returns the cached value for key if present and unexpired, touching
// its LRU position and updating hit/miss counters.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put inserts or replaces the entry for key, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, value)
}

// Remove evicts the entry for key, if present, without affecting hit/miss
// counters. Used to invalidate a single slot after a write makes it stale.
func (c *Cache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Clear flushes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// CleanupExpired sweeps the cache and returns the number of entries removed
// because their TTL had elapsed.
func (c *Cache[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.lru.Len()
	for _, k := range c.lru.Keys() {
		// Get lazily evicts an expired entry as a side effect.
		c.lru.Get(k)
	}
	after := c.lru.Len()
	return before - after
}

// Metrics returns a counter snapshot.
func (c *Cache[V]) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	var mem int64
	if c.sizeOf != nil {
		for _, k := range c.lru.Keys() {
			if v, ok := c.lru.Peek(k); ok {
				mem += c.sizeOf(v)
			}
		}
	}

	return Metrics{
		Hits:                 c.hits.Load(),
		Misses:               c.misses.Load(),
		TotalCount:           c.lru.Len(),
		EstimatedMemoryBytes: mem,
	}
}

// Len reports the current number of live entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
