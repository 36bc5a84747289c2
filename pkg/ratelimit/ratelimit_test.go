package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_AllowsWithinLimit(t *testing.T) {
	cfg := Config{
		Window:           time.Minute,
		MaxRequests:      3,
		EscalationBlocks: []time.Duration{time.Minute},
	}
	lim := NewMemoryLimiter(cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := lim.Allow(ctx, "key-a")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should be allowed", i)
	}
}

// Exactly one request past the limit trips the block; every request
// thereafter within the block window is rejected without touching the
// underlying token bucket again.
func TestMemoryLimiter_BlocksAfterLimitExceeded(t *testing.T) {
	cfg := Config{
		Window:           time.Minute,
		MaxRequests:      1,
		EscalationBlocks: []time.Duration{time.Hour},
	}
	lim := NewMemoryLimiter(cfg)
	ctx := context.Background()

	first, err := lim.Allow(ctx, "key-b")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	second, err := lim.Allow(ctx, "key-b")
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.True(t, second.RetryAfter > 0)

	third, err := lim.Allow(ctx, "key-b")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
}

func TestMemoryLimiter_DistinctKeysIndependent(t *testing.T) {
	cfg := Config{Window: time.Minute, MaxRequests: 1, EscalationBlocks: []time.Duration{time.Minute}}
	lim := NewMemoryLimiter(cfg)
	ctx := context.Background()

	resA, err := lim.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, resA.Allowed)

	resB, err := lim.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, resB.Allowed, "a separate key must not share a's bucket")
}

func TestMemoryLimiter_BlockExpiresAfterWindow(t *testing.T) {
	cfg := Config{
		Window:           50 * time.Millisecond,
		MaxRequests:      1,
		EscalationBlocks: []time.Duration{10 * time.Millisecond},
	}
	lim := NewMemoryLimiter(cfg)
	ctx := context.Background()

	_, err := lim.Allow(ctx, "key-c")
	require.NoError(t, err)
	blocked, err := lim.Allow(ctx, "key-c")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	time.Sleep(20 * time.Millisecond)
	afterBlock, err := lim.Allow(ctx, "key-c")
	require.NoError(t, err)
	assert.False(t, afterBlock.Allowed, "token bucket is still empty even though the block expired")
}

func TestDefaultConfig_HasEscalationBlocks(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, int64(60), cfg.MaxRequests)
	assert.Len(t, cfg.EscalationBlocks, 3)
	assert.True(t, cfg.FailOpen)
}
