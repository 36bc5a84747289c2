// Package ratelimit implements the sliding-window, escalating-block
// rate limiter used by the security middleware chain (spec §4.1 step
// 2). It is grounded on the teacher's pkg/ratelimit: the Redis
// INCR+EXPIRE counter idiom of adaptive_rate_limiter.go, re-scoped from
// risk-scored fintech tiers to spec §4.1's plain per-IP/per-key window,
// and the in-memory golang.org/x/time/rate limiter from
// internal/api/middleware/auth_rate_limiter.go, used when no usable
// Redis URL is configured. When a configured Redis errs, RedisLimiter
// fails open or returns the error according to Config.FailOpen
// (matching the teacher's DistributedRateLimiter.failOpen field); it
// does not switch to the in-memory limiter.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Result is what a limiter check returns to the middleware.
type Result struct {
	Allowed     bool
	Remaining   int64
	Limit       int64
	RetryAfter  time.Duration
	BlockedTier int // 0 = not blocked, >0 = escalation tier that tripped
}

// Config describes one window+escalation policy (spec §4.1: "sliding
// window counter; repeated violations extend the block duration").
type Config struct {
	// Window is the sliding window duration (e.g. 1 minute).
	Window time.Duration
	// MaxRequests is the number of requests allowed per Window.
	MaxRequests int64
	// EscalationBlocks lists the block duration RedisLimiter applies
	// for the 1st, 2nd, 3rd... consecutive window violation by the same
	// key. The last entry repeats for further violations. MemoryLimiter
	// uses only the first entry.
	EscalationBlocks []time.Duration
	// FailOpen allows traffic through when the backing store errs,
	// matching the teacher's DistributedRateLimiter.failOpen.
	FailOpen bool
}

// DefaultConfig is the spec §4.1 default: 60 requests/minute, blocks
// escalating 1m -> 5m -> 15m.
func DefaultConfig() Config {
	return Config{
		Window:      time.Minute,
		MaxRequests: 60,
		EscalationBlocks: []time.Duration{
			time.Minute, 5 * time.Minute, 15 * time.Minute,
		},
		FailOpen: true,
	}
}

// Limiter is the seam the security middleware depends on, satisfied by
// both RedisLimiter and MemoryLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter implements the sliding window counter against Redis:
// one INCR+EXPIRE counter key per (key, window-bucket), plus a
// separate violation-count key that drives escalating block duration
// once the window is exceeded.
type RedisLimiter struct {
	rdb *redis.Client
	cfg Config
}

// NewRedisLimiter builds a RedisLimiter against an already-connected
// client.
func NewRedisLimiter(rdb *redis.Client, cfg Config) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, cfg: cfg}
}

// Allow increments key's window counter and reports whether the
// request is allowed. On a violation it bumps a separate block key
// with an escalating TTL so the offender stays blocked across window
// boundaries, not just within one.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	blockKey := "ratelimit:block:" + key
	ttl, err := l.rdb.TTL(ctx, blockKey).Result()
	if err != nil {
		if l.cfg.FailOpen {
			return Result{Allowed: true, Limit: l.cfg.MaxRequests}, nil
		}
		return Result{}, fmt.Errorf("ratelimit: check block: %w", err)
	}
	if ttl > 0 {
		return Result{Allowed: false, RetryAfter: ttl, Limit: l.cfg.MaxRequests}, nil
	}

	bucket := time.Now().UnixNano() / l.cfg.Window.Nanoseconds()
	countKey := fmt.Sprintf("ratelimit:count:%s:%d", key, bucket)

	count, err := l.rdb.Incr(ctx, countKey).Result()
	if err != nil {
		if l.cfg.FailOpen {
			return Result{Allowed: true, Limit: l.cfg.MaxRequests}, nil
		}
		return Result{}, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if count == 1 {
		l.rdb.Expire(ctx, countKey, l.cfg.Window)
	}

	if count <= l.cfg.MaxRequests {
		return Result{
			Allowed:   true,
			Remaining: l.cfg.MaxRequests - count,
			Limit:     l.cfg.MaxRequests,
		}, nil
	}

	violations, _ := l.rdb.Incr(ctx, "ratelimit:violations:"+key).Result()
	l.rdb.Expire(ctx, "ratelimit:violations:"+key, 24*time.Hour)
	block := l.escalation(violations)
	l.rdb.Set(ctx, blockKey, 1, block)

	return Result{
		Allowed:     false,
		Limit:       l.cfg.MaxRequests,
		RetryAfter:  block,
		BlockedTier: int(violations),
	}, nil
}

func (l *RedisLimiter) escalation(violations int64) time.Duration {
	idx := int(violations) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(l.cfg.EscalationBlocks) {
		idx = len(l.cfg.EscalationBlocks) - 1
	}
	if idx < 0 {
		return l.cfg.Window
	}
	return l.cfg.EscalationBlocks[idx]
}

// MemoryLimiter is the in-process fallback for single-instance
// deployments (e.g. one Location Service with no Redis), grounded on
// the teacher's AuthRateLimiter: a token bucket per key guarded by a
// RWMutex with double-checked locking on creation.
type MemoryLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	blocked  map[string]time.Time
	cfg      Config
}

// NewMemoryLimiter builds a MemoryLimiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		blocked:  make(map[string]time.Time),
		cfg:      cfg,
	}
}

func (l *MemoryLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limiters[key]; ok {
		return lim
	}
	lim = rate.NewLimiter(rate.Every(l.cfg.Window/time.Duration(l.cfg.MaxRequests)), int(l.cfg.MaxRequests))
	l.limiters[key] = lim
	return lim
}

// Allow checks key's token bucket and, on a violation, blocks key for
// EscalationBlocks[0] (Window when the list is empty). MemoryLimiter
// keeps no violation count, so every block it opens has that first
// duration; repeat violations do not lengthen it.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.RLock()
	until, blocked := l.blocked[key]
	l.mu.RUnlock()
	if blocked {
		if remaining := time.Until(until); remaining > 0 {
			return Result{Allowed: false, RetryAfter: remaining, Limit: l.cfg.MaxRequests}, nil
		}
		l.mu.Lock()
		delete(l.blocked, key)
		l.mu.Unlock()
	}

	if l.getLimiter(key).Allow() {
		return Result{Allowed: true, Limit: l.cfg.MaxRequests}, nil
	}

	block := l.cfg.Window
	if len(l.cfg.EscalationBlocks) > 0 {
		block = l.cfg.EscalationBlocks[0]
	}
	l.mu.Lock()
	l.blocked[key] = time.Now().Add(block)
	l.mu.Unlock()

	return Result{Allowed: false, RetryAfter: block, Limit: l.cfg.MaxRequests}, nil
}
