package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerConnectionIsolation(t *testing.T) {
	set := NewPerConnection(Config{RequestsPerSecond: 1, Burst: 1})

	a := set.Get("conn-a")
	b := set.Get("conn-b")

	assert.NotSame(t, a, b, "connections must not share a token bucket")
	assert.Same(t, a, set.Get("conn-a"), "repeated lookups return the same limiter")

	// Draining one connection's bucket must not affect the other.
	require.True(t, a.Allow())
	assert.False(t, a.Allow())
	assert.True(t, b.Allow())
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	cfg := Config{InitialBackoffMs: 100, MaxBackoffMs: 1000}

	first := Backoff(0, cfg)
	assert.GreaterOrEqual(t, first, 100*time.Millisecond)
	assert.Less(t, first, 200*time.Millisecond, "initial backoff plus at most 25% jitter")

	capped := Backoff(10, cfg)
	assert.LessOrEqual(t, capped, 1250*time.Millisecond, "cap plus at most 25% jitter")
}

func TestRateLimitBackoffHonorsRetryAfter(t *testing.T) {
	cfg := DefaultConfig()
	retryAfter := "7"

	d := RateLimitBackoff(0, cfg, &retryAfter)
	assert.GreaterOrEqual(t, d, 7*time.Second)
	assert.Less(t, d, 9*time.Second)

	garbage := "soon"
	d = RateLimitBackoff(0, cfg, &garbage)
	assert.Less(t, d, time.Second, "unparseable Retry-After falls back to computed backoff")
}
