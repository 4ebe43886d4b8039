// Package lookup provides time-boxed memoization for expensive point
// lookups. A value is cached for a bounded time after a successful fetch;
// negative results are never cached, so every miss is retried on the next
// access.
package lookup

import (
	"context"
	"sync"
	"time"
)

// Supplier fetches the value for a key. found=false means the key has no
// value upstream; that outcome is returned but never cached.
type Supplier[K comparable, V any] func(ctx context.Context, key K) (V, bool, error)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// keyLock serializes refreshes of one key. refs counts the callers holding
// or waiting on it so the owning cache can drop the map entry once the last
// caller releases.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Cache memoizes point lookups with a fixed TTL. Entries are refreshed
// lazily on the first access after expiry and are never proactively evicted.
//
// Refreshes are serialized per key: when several callers hit the same
// expired key concurrently, one runs the supplier and the rest get its
// stored value instead of issuing redundant upstream calls. The per-key
// locks live only while a refresh is in flight, so the cache's footprint
// is bounded by the stored entries, not by the number of distinct keys
// ever requested.
type Cache[K comparable, V any] struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[K]entry[V]
	locks   map[K]*keyLock
}

// New creates a cache with the given time-to-live per entry.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		locks:   make(map[K]*keyLock),
	}
}

// Get returns the cached value for key, invoking supplier on a miss or
// after expiry. Expiry is evaluated against the wall clock.
func (c *Cache[K, V]) Get(ctx context.Context, key K, supplier Supplier[K, V]) (V, bool, error) {
	return c.GetAt(ctx, key, supplier, time.Now())
}

// GetAt is Get with an explicit evaluation time. An entry is live only while
// now is strictly before its expiry: an entry expiring exactly at now is
// already stale.
//
// If supplier reports no value, nothing is stored and the next access
// retries. If supplier fails, the error propagates and the cache is left
// unchanged.
func (c *Cache[K, V]) GetAt(ctx context.Context, key K, supplier Supplier[K, V], now time.Time) (V, bool, error) {
	var zero V

	if v, ok := c.lookup(key, now); ok {
		lookupHits.WithLabelValues("memory").Inc()
		return v, true, nil
	}

	lock := c.acquireKeyLock(key)
	defer c.releaseKeyLock(key, lock)

	// A concurrent caller may have refreshed the key while we waited.
	if v, ok := c.lookup(key, now); ok {
		lookupHits.WithLabelValues("memory").Inc()
		return v, true, nil
	}

	lookupMisses.WithLabelValues("memory").Inc()
	v, found, err := supplier(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if !found {
		return zero, false, nil
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: v, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()

	return v, true, nil
}

// Len returns the number of stored entries, live or stale.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[K, V]) lookup(key K, now time.Time) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// acquireKeyLock registers interest in key's refresh lock and then takes
// it, possibly blocking behind a concurrent refresh of the same key.
func (c *Cache[K, V]) acquireKeyLock(key K) *keyLock {
	c.mu.Lock()
	lock, ok := c.locks[key]
	if !ok {
		lock = &keyLock{}
		c.locks[key] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// releaseKeyLock undoes acquireKeyLock and prunes the map entry once no
// caller holds or waits on it anymore.
func (c *Cache[K, V]) releaseKeyLock(key K, lock *keyLock) {
	lock.mu.Unlock()

	c.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(c.locks, key)
	}
	c.mu.Unlock()
}
