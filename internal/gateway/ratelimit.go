package gateway

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a rolling per-credential request budget using token
// buckets keyed by credential fingerprint. Idle buckets are swept after a
// few minutes.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	done    chan struct{}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

const bucketTTL = 5 * time.Minute

// NewRateLimiter creates a rate limiter and starts its sweeper.
func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow consumes one token from the credential's bucket, creating it on
// first sight sized to the record's per-minute budget. The lock covers
// only the map access, never the token math's clock reads downstream.
func (rl *RateLimiter) Allow(fingerprint string, perMin int) bool {
	if perMin <= 0 {
		perMin = 1
	}

	rl.mu.Lock()
	b, ok := rl.buckets[fingerprint]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin)}
		rl.buckets[fingerprint] = b
	}
	b.lastSeen = time.Now()
	rl.mu.Unlock()

	return b.lim.Allow()
}

// Close stops the background sweeper.
func (rl *RateLimiter) Close() {
	close(rl.done)
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for k, b := range rl.buckets {
				if now.Sub(b.lastSeen) > bucketTTL {
					delete(rl.buckets, k)
				}
			}
			rl.mu.Unlock()
		}
	}
}
