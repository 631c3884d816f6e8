package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ProductionError wraps a failure from the produce callback. It is returned
// to every caller that was waiting on the same fingerprint; nothing is
// cached for the fingerprint, so the next call produces again.
type ProductionError struct {
	Fingerprint string
	Err         error
}

func (e *ProductionError) Error() string {
	return fmt.Sprintf("producing content for %s: %v", e.Fingerprint, e.Err)
}

func (e *ProductionError) Unwrap() error {
	return e.Err
}

type entry[V any] struct {
	value      V
	createdAt  time.Time
	lastAccess time.Time
}

// Cache is an in-memory content cache keyed by request fingerprint. Entries
// are immutable once stored. Concurrent misses on the same fingerprint are
// collapsed into a single produce call; everyone waiting shares its result.
type Cache[V any] struct {
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry[V]
	hits    uint64
	misses  uint64

	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
}

// New creates a cache evicting least-recently-used entries above maxEntries
// and entries older than maxAge. Zero values disable the respective limit.
func New[V any](maxEntries int, maxAge time.Duration) *Cache[V] {
	return &Cache[V]{
		entries:    make(map[string]*entry[V]),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// GetOrCreate returns the cached value for the fingerprint, producing and
// caching it on a miss. The boolean reports whether this was a cache hit.
// A produce error is wrapped in ProductionError and delivered to every
// collapsed caller; failed productions are never cached.
//
// A caller whose context ends stops waiting and gets ctx.Err(), but the
// flight itself runs on a context detached from any single caller: one
// waiter abandoning the request never aborts a production other waiters
// are still attached to.
func (c *Cache[V]) GetOrCreate(ctx context.Context, fingerprint string, produce func(context.Context) (V, error)) (V, bool, error) {
	var zero V
	if v, ok := c.lookup(fingerprint, true); ok {
		return v, true, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fingerprint, func() (any, error) {
		// A concurrent producer may have finished between our miss and
		// acquiring the flight.
		if v, ok := c.lookup(fingerprint, false); ok {
			return v, nil
		}
		value, err := produce(flightCtx)
		if err != nil {
			return nil, &ProductionError{Fingerprint: fingerprint, Err: err}
		}
		c.store(fingerprint, value)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		// Callers collapsed onto another flight count as hits: the value
		// was produced once and shared.
		return res.Val.(V), res.Shared, nil
	}
}

// Get returns the cached value without producing on a miss.
func (c *Cache[V]) Get(fingerprint string) (V, bool) {
	return c.lookup(fingerprint, true)
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *Cache[V]) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache[V]) lookup(fingerprint string, countStats bool) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fingerprint]
	if ok && c.maxAge > 0 && c.now().Sub(e.createdAt) > c.maxAge {
		delete(c.entries, fingerprint)
		ok = false
	}
	if !ok {
		if countStats {
			c.misses++
		}
		var zero V
		return zero, false
	}

	if countStats {
		c.hits++
	}
	e.lastAccess = c.now()
	return e.value, true
}

func (c *Cache[V]) store(fingerprint string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[fingerprint] = &entry[V]{value: value, createdAt: now, lastAccess: now}

	if c.maxEntries <= 0 {
		return
	}
	for len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if k == fingerprint {
				continue
			}
			if oldestKey == "" || e.lastAccess.Before(oldest) {
				oldestKey = k
				oldest = e.lastAccess
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
	}
}
