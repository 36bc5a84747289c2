package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/biometricfleet/attendance/internal/domain/policy"
	"github.com/biometricfleet/attendance/pkg/logger"
)

// LoadLocation builds a Store[LocationSnapshot] from a YAML/JSON/env
// config file at path (spec §4.4: one Location Service instance per
// physical site, each with its own device registry and policy).
func LoadLocation(path string, log *logger.Logger) (*Store[LocationSnapshot], error) {
	return NewStore(path, parseLocation, log)
}

func parseLocation(v *viper.Viper) (LocationSnapshot, error) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.env", "production")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("security.rate_limit_per_min", 60)
	v.SetDefault("security.rate_limit_window", "1m")
	v.SetDefault("security.max_body_bytes", 1<<20)
	v.SetDefault("idle_timeout", "5m")
	v.SetDefault("device_dial_timeout", "5s")

	snap := LocationSnapshot{
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
		JWTIssuer:    v.GetString("jwt.issuer"),
		APIKey:       v.GetString("api_key"),
		IdleTimeout:  v.GetDuration("idle_timeout"),
		DeviceDialTO: v.GetDuration("device_dial_timeout"),
		Policy:       policy.DefaultWorkPolicy(),
	}

	secret := v.GetString("jwt.secret")
	if len(secret) < 32 {
		return snap, fmt.Errorf("jwt.secret must be at least 32 bytes, got %d", len(secret))
	}
	snap.JWTSecret = []byte(secret)

	if snap.APIKey == "" || len(snap.APIKey) < 32 {
		return snap, fmt.Errorf("api_key must be configured and at least 32 bytes")
	}

	rawDevices := v.Get("devices")
	devices, err := parseDevices(rawDevices)
	if err != nil {
		return snap, err
	}
	snap.Devices = devices

	if snap.Server.Port < 1 || snap.Server.Port > 65535 {
		return snap, fmt.Errorf("server.port out of range: %d", snap.Server.Port)
	}

	return snap, nil
}

func parseDevices(raw interface{}) ([]DeviceEntry, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(list))
	var out []DeviceEntry
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		host, _ := m["host"].(string)
		port := toInt(m["port"])
		password := toInt(m["password"])
		model, _ := m["model"].(string)
		capacity := toInt(m["capacity"])

		if name == "" || host == "" {
			return nil, fmt.Errorf("device entry missing name or host")
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("device %s: port out of range: %d", name, port)
		}
		if _, dup := seen[name]; dup {
			// duplicate device names are not a config error (spec
			// §4.4): first entry wins, later ones are skipped without
			// being logged.
			continue
		}
		seen[name] = struct{}{}
		out = append(out, DeviceEntry{Name: name, Host: host, Port: port, Password: password, Model: model, Capacity: capacity})
	}
	return out, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
