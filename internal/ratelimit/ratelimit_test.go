package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name     string
		rps      float64
		burst    int
		calls    int
		wantPass int
	}{
		{name: "burst allows initial requests", rps: 1, burst: 3, calls: 3, wantPass: 3},
		{name: "exceeding burst blocks", rps: 1, burst: 2, calls: 5, wantPass: 2},
		{name: "single token", rps: 1, burst: 1, calls: 1, wantPass: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := New(tt.rps, tt.burst)
			defer rl.Stop()

			passed := 0
			for range tt.calls {
				if rl.Allow("203.0.113.7") {
					passed++
				}
			}
			assert.Equal(t, tt.wantPass, passed)
		})
	}
}

func TestKeyedRateLimiter_WaitContextCancelled(t *testing.T) {
	rl := New(0.1, 1) // 1 request per 10 seconds
	defer rl.Stop()

	rl.Allow("test")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx, "test"))
}

func TestKeyedRateLimiter_IndependentKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	rl.Allow("key1")
	assert.False(t, rl.Allow("key1"), "key1 should be exhausted")
	assert.True(t, rl.Allow("key2"), "key2 should be independent")
}

func TestNewPerInterval(t *testing.T) {
	rl := NewPerInterval(20, time.Minute, 5)
	defer rl.Stop()

	assert.InDelta(t, 20.0/60.0, float64(rl.limit), 1e-9)
	assert.Equal(t, 5, rl.burst)
}

func TestKeyedRateLimiter_EvictsIdleKeys(t *testing.T) {
	rl := New(1, 1)
	defer rl.Stop()

	now := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("idle")
	now = now.Add(defaultIdleTTL / 2)
	rl.Allow("active")
	assert.Equal(t, 2, rl.Len())

	now = now.Add(defaultIdleTTL/2 + time.Second)
	assert.Equal(t, 1, rl.evictIdle())
	assert.Equal(t, 1, rl.Len())

	// An evicted key starts over with a full bucket.
	assert.True(t, rl.Allow("idle"))
}
