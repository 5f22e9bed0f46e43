// Package ratelimit throttles chat turns per user with token buckets. Buckets
// are keyed by the user id in the request, not the client address.
package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration
type Config struct {
	Enabled bool
	Limit   int           // turns per window
	Window  time.Duration // refill period for Limit turns
	Burst   int           // bucket capacity; defaults to Limit
}

// Info describes the outcome of one Allow call
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter keeps one token bucket per user
type Limiter struct {
	cfg     Config
	every   rate.Limit
	mu      sync.Mutex
	buckets *cache.Cache
	now     func() time.Time
}

// NewLimiter creates a limiter. A disabled config, or one with no limit or
// window, allows every turn.
func NewLimiter(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Limit
	}
	l := &Limiter{cfg: cfg, now: time.Now}
	if l.enabled() {
		l.every = rate.Every(cfg.Window / time.Duration(cfg.Limit))
		// A bucket idle for a whole window is full again, so it can go.
		l.buckets = cache.New(cfg.Window, cfg.Window)
	}
	return l
}

func (l *Limiter) enabled() bool {
	return l.cfg.Enabled && l.cfg.Limit > 0 && l.cfg.Window > 0
}

// Allow consumes one token from the user's bucket when one is available
func (l *Limiter) Allow(userID int64) Info {
	if l == nil || !l.enabled() {
		return Info{Allowed: true}
	}

	now := l.now()
	b := l.bucket(userID)
	r := b.ReserveN(now, 1)
	if !r.OK() {
		return Info{Limit: l.cfg.Limit, RetryAfter: l.cfg.Window}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Info{Limit: l.cfg.Limit, RetryAfter: delay}
	}

	remaining := int(b.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Info{Allowed: true, Limit: l.cfg.Limit, Remaining: remaining}
}

func (l *Limiter) bucket(userID int64) *rate.Limiter {
	key := strconv.FormatInt(userID, 10)

	l.mu.Lock()
	defer l.mu.Unlock()

	var b *rate.Limiter
	if v, ok := l.buckets.Get(key); ok {
		b = v.(*rate.Limiter)
	} else {
		b = rate.NewLimiter(l.every, l.cfg.Burst)
	}
	// refresh the idle expiry on every access
	l.buckets.Set(key, b, cache.DefaultExpiration)
	return b
}
