package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(cfg Config, clock *time.Time) *Limiter {
	l := NewLimiter(cfg)
	l.now = func() time.Time { return *clock }
	return l
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(Config{Enabled: true, Limit: 60, Window: time.Minute, Burst: 3}, &clock)

	for i := 0; i < 3; i++ {
		info := l.Allow(1)
		require.True(t, info.Allowed, "turn %d", i+1)
		assert.Equal(t, 60, info.Limit)
		assert.Equal(t, 2-i, info.Remaining)
	}

	info := l.Allow(1)
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, info.RetryAfter, time.Second)
}

func TestLimiter_Refill(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(Config{Enabled: true, Limit: 60, Window: time.Minute, Burst: 1}, &clock)

	require.True(t, l.Allow(1).Allowed)
	require.False(t, l.Allow(1).Allowed)

	clock = clock.Add(1100 * time.Millisecond)
	assert.True(t, l.Allow(1).Allowed)
	assert.False(t, l.Allow(1).Allowed)
}

func TestLimiter_DeniedTurnDoesNotConsume(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(Config{Enabled: true, Limit: 60, Window: time.Minute, Burst: 1}, &clock)

	require.True(t, l.Allow(1).Allowed)
	for i := 0; i < 5; i++ {
		require.False(t, l.Allow(1).Allowed)
	}

	clock = clock.Add(time.Second)
	assert.True(t, l.Allow(1).Allowed)
}

func TestLimiter_UsersAreIndependent(t *testing.T) {
	clock := time.Now()
	l := newTestLimiter(Config{Enabled: true, Limit: 10, Window: time.Minute, Burst: 1}, &clock)

	assert.True(t, l.Allow(1).Allowed)
	assert.False(t, l.Allow(1).Allowed)
	assert.True(t, l.Allow(2).Allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{Enabled: false, Limit: 1, Window: time.Minute}},
		{"zero limit", Config{Enabled: true, Limit: 0, Window: time.Minute}},
		{"zero window", Config{Enabled: true, Limit: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLimiter(tt.cfg)
			for i := 0; i < 10; i++ {
				assert.True(t, l.Allow(1).Allowed)
			}
		})
	}

	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow(1).Allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(Config{Enabled: true, Limit: 1, Window: time.Hour, Burst: 20})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow(7).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, allowed)
}
