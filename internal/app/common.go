package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/biometricfleet/attendance/internal/infrastructure/config"
	"github.com/biometricfleet/attendance/pkg/logger"
	"github.com/biometricfleet/attendance/pkg/ratelimit"
)

// AuthConfigError marks a startup failure in JWT issuer setup, the
// one failure class spec §6 assigns its own exit code (3).
type AuthConfigError struct{ cause error }

func (e *AuthConfigError) Error() string { return fmt.Sprintf("auth misconfigured: %v", e.cause) }
func (e *AuthConfigError) Unwrap() error { return e.cause }

func authMisconfigured(cause error) error { return &AuthConfigError{cause: cause} }

// IsAuthMisconfigured reports whether err (or a wrapped cause) is an
// AuthConfigError, the signal cmd/*/main.go uses to pick exit code 3
// over the exit code 1 it returns for other startup failures.
func IsAuthMisconfigured(err error) bool {
	var ace *AuthConfigError
	return errors.As(err, &ace)
}

// buildLimiter picks a Redis-backed limiter when RedisURL is
// configured, otherwise the in-process fallback (spec §4.1: rate
// limiting must function correctly for a single-instance deployment
// with no Redis).
func buildLimiter(cfg config.SecurityConfig, log *logger.Logger) ratelimit.Limiter {
	rlCfg := ratelimit.Config{
		Window:           cfg.RateLimitWindow,
		MaxRequests:      cfg.RateLimitPerMin,
		EscalationBlocks: cfg.EscalationBlocks,
		FailOpen:         true,
	}
	if rlCfg.Window <= 0 {
		rlCfg.Window = ratelimit.DefaultConfig().Window
	}
	if rlCfg.MaxRequests <= 0 {
		rlCfg.MaxRequests = ratelimit.DefaultConfig().MaxRequests
	}
	if len(rlCfg.EscalationBlocks) == 0 {
		rlCfg.EscalationBlocks = ratelimit.DefaultConfig().EscalationBlocks
	}

	if cfg.RedisURL == "" {
		log.Info("rate limiter: using in-memory backend (no redis_url configured)")
		return ratelimit.NewMemoryLimiter(rlCfg)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn("rate limiter: invalid redis_url, falling back to in-memory", "error", err)
		return ratelimit.NewMemoryLimiter(rlCfg)
	}
	rdb := redis.NewClient(opts)
	log.Info("rate limiter: using redis backend", "addr", opts.Addr)
	return ratelimit.NewRedisLimiter(rdb, rlCfg)
}

func prometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return gin.WrapH(h)
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// sampleRateFor mirrors the teacher's per-environment OTel sampling
// rate (application.go's getSampleRate).
func sampleRateFor(env string) float64 {
	switch env {
	case "production":
		return 0.1
	case "staging":
		return 0.5
	default:
		return 1.0
	}
}
