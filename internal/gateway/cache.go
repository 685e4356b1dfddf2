package gateway

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes fingerprint → AuthzContext for a short TTL. It is a pure
// latency optimization over identity resolution: a hit skips the validator
// and resolver, never the isolation, risk, rate-limit, or audit stages.
// Keys are content hashes; raw token values never enter the cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	group   singleflight.Group
	done    chan struct{}
}

type cacheEntry struct {
	authz      *AuthzContext
	validUntil time.Time
}

// NewCache creates a context cache with the given TTL and starts its
// background sweeper.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Get returns the cached context for a fingerprint if still within TTL.
func (c *Cache) Get(fingerprint string) (*AuthzContext, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.validUntil) {
		return nil, false
	}
	return entry.authz, true
}

// Put stores a context under its fingerprint.
func (c *Cache) Put(fingerprint string, authz *AuthzContext) {
	c.mu.Lock()
	c.entries[fingerprint] = cacheEntry{authz: authz, validUntil: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops a fingerprint's entry. Called on revocation and
// replacement so the stale context dies before its TTL.
func (c *Cache) Invalidate(fingerprint string) {
	c.mu.Lock()
	delete(c.entries, fingerprint)
	c.mu.Unlock()
}

// ResolveThrough returns the cached context or resolves it via fn,
// deduplicating concurrent misses for the same fingerprint. The lock is
// never held across fn: resolution I/O happens outside it.
func (c *Cache) ResolveThrough(fingerprint string, fn func() (*AuthzContext, error)) (*AuthzContext, bool, error) {
	if authz, ok := c.Get(fingerprint); ok {
		return authz, true, nil
	}

	v, err, _ := c.group.Do(fingerprint, func() (any, error) {
		// Recheck: another request may have populated the entry while
		// this one waited on the flight group.
		if authz, ok := c.Get(fingerprint); ok {
			return authz, nil
		}
		authz, err := fn()
		if err != nil {
			return nil, err
		}
		c.Put(fingerprint, authz)
		return authz, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*AuthzContext), false, nil
}

// Len reports the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	close(c.done)
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.entries {
				if now.After(e.validUntil) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
