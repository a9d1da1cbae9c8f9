// Package ratelimit keeps one token bucket per client key, shared by the
// HTTP and RESP front-ends.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long a bucket may go unused before Allow may drop it.
const idleAfter = 10 * time.Minute

// Limiter hands out one token bucket per key (normally a client IP).
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int

	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// New creates a Limiter allowing limit events per second with the given
// burst. A burst below 1 is raised to ceil(limit). A non-positive limit
// yields a limiter that allows everything.
func New(limit float64, burst int) *Limiter {
	if burst < 1 {
		burst = max(int(math.Ceil(limit)), 1)
	}
	return &Limiter{
		buckets:   make(map[string]*bucket),
		limit:     rate.Limit(limit),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Enabled reports whether the limiter restricts anything.
func (l *Limiter) Enabled() bool {
	return l != nil && l.limit > 0
}

// Allow reports whether one more event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}

	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	if now.Sub(l.lastSweep) > idleAfter {
		l.sweepLocked(now)
	}
	l.mu.Unlock()

	return b.lim.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweepLocked(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > idleAfter {
			delete(l.buckets, k)
		}
	}
	l.lastSweep = now
}
