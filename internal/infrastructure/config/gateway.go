package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/internal/domain/policy"
	"github.com/biometricfleet/attendance/pkg/logger"
)

// LoadGateway builds a Store[GatewaySnapshot] (spec §4.1): the Unified
// Gateway's own server/security settings plus the registry of
// Locations it fans out to.
func LoadGateway(path string, log *logger.Logger) (*Store[GatewaySnapshot], error) {
	return NewStore(path, parseGateway, log)
}

func parseGateway(v *viper.Viper) (GatewaySnapshot, error) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "production")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("security.rate_limit_per_min", 120)
	v.SetDefault("security.rate_limit_window", "1m")
	v.SetDefault("security.max_body_bytes", 1<<20)
	v.SetDefault("fanout_deadline", "8s")
	v.SetDefault("health_sweep_cron", "@every 30s")

	snap := GatewaySnapshot{
		Server: ServerConfig{
			Host:     v.GetString("server.host"),
			Port:     v.GetInt("server.port"),
			Env:      v.GetString("server.env"),
			LogLevel: v.GetString("server.log_level"),
		},
		Security: SecurityConfig{
			AllowedCIDRs:    v.GetStringSlice("security.allowed_cidrs"),
			RateLimitPerMin: v.GetInt64("security.rate_limit_per_min"),
			RateLimitWindow: v.GetDuration("security.rate_limit_window"),
			MaxBodyBytes:    v.GetInt64("security.max_body_bytes"),
			RedisURL:         v.GetString("security.redis_url"),
			BlockedPatterns:  v.GetStringSlice("security.blocked_patterns"),
			EscalationBlocks: parseDurations(v.GetStringSlice("security.escalation_blocks")),
		},
		FrontendIssuer:  v.GetString("jwt.frontend_issuer"),
		PlaceIssuer:     v.GetString("jwt.place_issuer"),
		FanoutDeadline:  v.GetDuration("fanout_deadline"),
		HealthSweepCron: v.GetString("health_sweep_cron"),
		Policy:          policy.DefaultWorkPolicy(),
	}

	frontendSecret := v.GetString("jwt.frontend_secret")
	if len(frontendSecret) < 32 {
		return snap, fmt.Errorf("jwt.frontend_secret must be at least 32 bytes")
	}
	snap.FrontendSecret = []byte(frontendSecret)

	placeSecret := v.GetString("jwt.place_secret")
	if len(placeSecret) < 32 {
		return snap, fmt.Errorf("jwt.place_secret must be at least 32 bytes")
	}
	snap.PlaceSecret = []byte(placeSecret)

	rawLocations := v.Get("locations")
	locations, err := parseLocations(rawLocations)
	if err != nil {
		return snap, err
	}
	snap.Locations = locations

	if snap.Server.Port < 1 || snap.Server.Port > 65535 {
		return snap, fmt.Errorf("server.port out of range: %d", snap.Server.Port)
	}

	return snap, nil
}

func parseLocations(raw interface{}) ([]entities.Location, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("locations must be a list")
	}

	seen := make(map[string]struct{}, len(list))
	var out []entities.Location
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		loc := entities.Location{
			ID:          asString(m["id"]),
			DisplayName: asString(m["display_name"]),
			Address:     asString(m["address"]),
			URL:         asString(m["url"]),
			APIKey:      asString(m["api_key"]),
			Enabled:     asBool(m["enabled"], true),
			TimeoutMS:   toInt(m["timeout_ms"]),
			Priority:    toInt(m["priority"]),
		}
		if loc.ID == "" || loc.URL == "" {
			return nil, fmt.Errorf("location entry missing id or url")
		}
		if !ValidURL(loc.URL) {
			return nil, fmt.Errorf("location %s: url must be http(s): %q", loc.ID, loc.URL)
		}
		if len(loc.APIKey) < 32 {
			return nil, fmt.Errorf("location %s: api_key must be at least 32 bytes", loc.ID)
		}
		if loc.TimeoutMS != 0 && (loc.TimeoutMS < 1000 || loc.TimeoutMS > 120000) {
			return nil, fmt.Errorf("location %s: timeout_ms must be between 1000 and 120000", loc.ID)
		}
		if _, dup := seen[loc.ID]; dup {
			return nil, fmt.Errorf("duplicate location id: %s", loc.ID)
		}
		seen[loc.ID] = struct{}{}
		out = append(out, loc)
	}
	return out, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}, defaultVal bool) bool {
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}
