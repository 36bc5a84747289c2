// Package config implements the configuration seam named in spec §4.4
// and §9: a viper+godotenv loader producing an immutable snapshot,
// swapped under atomic.Pointer so handlers never observe a torn read
// (spec §5, "configuration snapshot swapped by pointer assignment").
// Grounded on the stack's viper idiom (overmindtech-cli's cmd/root.go
// binds env vars and a config file through viper) and the teacher's
// go.mod, which already declares viper and godotenv without a
// surviving config.go of its own in the retrieved pack — this package
// is this repo's implementation of that declared dependency.
package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/internal/domain/policy"
	"github.com/biometricfleet/attendance/pkg/logger"
)

// ServerConfig is the HTTP server's own listen/runtime settings,
// common to both services.
type ServerConfig struct {
	Host     string
	Port     int
	Env      string // "development" or "production"
	LogLevel string
}

// SecurityConfig is the shared security-middleware-chain policy (spec
// §4.1) each service's config embeds.
type SecurityConfig struct {
	AllowedCIDRs     []string
	RateLimitPerMin  int64
	RateLimitWindow  time.Duration
	EscalationBlocks []time.Duration
	MaxBodyBytes     int64
	RedisURL         string // empty disables the distributed limiter, falling back to in-memory
	// BlockedPatterns overrides pkg/security.DefaultBlockedPatterns
	// when non-empty (spec §4.1: "the exact pattern set is part of
	// operator configuration").
	BlockedPatterns []string
}

// DeviceEntry describes one fingerprint device the Location Service
// owns (spec §3, §4.4).
type DeviceEntry struct {
	Name     string
	Host     string
	Port     int
	Password int
	Model    string
	Capacity int
}

// LocationSnapshot is the Location Service's full immutable config
// snapshot.
type LocationSnapshot struct {
	Server       ServerConfig
	Security     SecurityConfig
	JWTSecret    []byte
	JWTIssuer    string
	APIKey       string // the key place_backend callers exchange for a token
	Devices      []DeviceEntry
	Policy       policy.WorkPolicy
	IdleTimeout  time.Duration
	DeviceDialTO time.Duration
}

// GatewaySnapshot is the Gateway's full immutable config snapshot.
type GatewaySnapshot struct {
	Server          ServerConfig
	Security        SecurityConfig
	FrontendSecret  []byte
	FrontendIssuer  string
	PlaceSecret     []byte
	PlaceIssuer     string
	Locations       []entities.Location
	Policy          policy.WorkPolicy
	FanoutDeadline  time.Duration
	HealthSweepCron string
}

// Store is a generic viper-backed config seam implementing
// interfaces.Store[T]: Snapshot returns the current immutable value,
// Reload re-parses and atomically swaps it.
type Store[T any] struct {
	v       *viper.Viper
	parse   func(v *viper.Viper) (T, error)
	current atomic.Pointer[T]
	log     *logger.Logger
}

// NewStore builds a Store, performing the first load synchronously so
// Snapshot is always valid immediately after construction.
func NewStore[T any](path string, parse func(v *viper.Viper) (T, error), log *logger.Logger) (*Store[T], error) {
	_ = godotenv.Load() // best-effort local .env overlay, matches teacher's convention

	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	s := &Store[T]{v: v, parse: parse, log: log}
	snap, err := parse(v)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	s.current.Store(&snap)

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.Reload(context.Background()); err != nil {
			s.log.Error("config auto-reload failed", "file", e.Name, "error", err)
			return
		}
		s.log.Info("config reloaded from file watch", "file", e.Name)
	})
	v.WatchConfig()

	return s, nil
}

// Snapshot returns the current immutable config.
func (s *Store[T]) Snapshot() T {
	return *s.current.Load()
}

// Reload re-reads the backing file and atomically swaps the snapshot,
// the explicit reload action spec §4.4 names as an admin operation
// (also triggered by `reload-config` on the CLI, spec §6).
func (s *Store[T]) Reload(_ context.Context) error {
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reload: %w", err)
	}
	snap, err := s.parse(s.v)
	if err != nil {
		return fmt.Errorf("config: reload parse: %w", err)
	}
	s.current.Store(&snap)
	return nil
}

// ValidURL reports whether raw is an http(s) URL, the check spec §4.4
// requires for every Location URL at load time.
func ValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// parseDurations parses a "security.escalation_blocks"-shaped string
// slice (e.g. ["1m","5m","15m"]) into durations, skipping entries that
// don't parse (spec §4.1: "repeated violations extend the block
// duration" — an empty result falls back to ratelimit.DefaultConfig).
func parseDurations(raw []string) []time.Duration {
	out := make([]time.Duration, 0, len(raw))
	for _, s := range raw {
		d, err := time.ParseDuration(s)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}
