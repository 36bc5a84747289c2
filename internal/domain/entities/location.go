package entities

import "time"

// Location is a physical site owning a set of fingerprint devices,
// reachable through its own Location Service instance. Owned by the
// Gateway's configuration; mutated only by an explicit reload.
type Location struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Address     string   `json:"address,omitempty"`
	URL         string   `json:"url"`
	APIKey      string   `json:"-"`
	DeviceNames []string `json:"device_names,omitempty"`
	Enabled     bool     `json:"enabled"`
	TimeoutMS   int      `json:"timeout_ms"`
	Priority    int      `json:"priority"`
}

// PublicLocation is the representation returned to callers, with
// secrets stripped.
type PublicLocation struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Address     string   `json:"address,omitempty"`
	URL         string   `json:"url"`
	DeviceNames []string `json:"device_names,omitempty"`
	Enabled     bool     `json:"enabled"`
	Priority    int      `json:"priority"`
}

// Public strips secrets from a Location for API responses.
func (l Location) Public() PublicLocation {
	return PublicLocation{
		ID:          l.ID,
		DisplayName: l.DisplayName,
		Address:     l.Address,
		URL:         l.URL,
		DeviceNames: l.DeviceNames,
		Enabled:     l.Enabled,
		Priority:    l.Priority,
	}
}

// Timeout returns the configured per-request timeout as a duration.
func (l Location) Timeout() time.Duration {
	if l.TimeoutMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(l.TimeoutMS) * time.Millisecond
}
