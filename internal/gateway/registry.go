// Package gateway implements the Unified Gateway (spec §4.1): fan-out
// across registered Locations, cross-site merge, and the single REST
// API the Dashboard and place backends talk to.
package gateway

import (
	"sort"
	"sync"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/pkg/circuitbreaker"
	"github.com/biometricfleet/attendance/pkg/interfaces"
	"github.com/biometricfleet/attendance/pkg/logger"
	"github.com/biometricfleet/attendance/pkg/wrappers"
)

// Registry holds one wrappers.LocationClient per configured, enabled
// Location, rebuilt whenever the Gateway's config is reloaded (spec
// §4.4's explicit-reload action also refreshes this registry).
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]*wrappers.LocationClient
	breakers *circuitbreaker.Registry
	httpc    interfaces.HttpClient
	log      *logger.Logger
}

// NewRegistry builds an empty Registry; call Reload to populate it.
func NewRegistry(httpc interfaces.HttpClient, breakerCfg circuitbreaker.Config, log *logger.Logger) *Registry {
	return &Registry{
		clients:  make(map[string]*wrappers.LocationClient),
		breakers: circuitbreaker.NewRegistry(breakerCfg),
		httpc:    httpc,
		log:      log,
	}
}

// Reload replaces the registry's client set from a fresh Location
// list, matching spec §5's "configuration snapshot swapped" rule one
// level down: the derived client set is rebuilt wholesale rather than
// patched in place, so a client never observes a half-updated
// registry.
func (r *Registry) Reload(locations []entities.Location) {
	next := make(map[string]*wrappers.LocationClient, len(locations))
	for _, loc := range locations {
		if !loc.Enabled {
			continue
		}
		next[loc.ID] = wrappers.NewLocationClient(loc, r.httpc, r.breakers, r.log)
	}

	r.mu.Lock()
	r.clients = next
	r.mu.Unlock()
}

// All returns every enabled Location's client, sorted by Location ID
// for deterministic fan-out ordering.
func (r *Registry) All() []*wrappers.LocationClient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*wrappers.LocationClient, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Location().ID < out[j].Location().ID
	})
	return out
}

// Get returns the client for one Location ID.
func (r *Registry) Get(id string) (*wrappers.LocationClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// BreakerStates snapshots every known Location's circuit breaker
// state, for the health endpoint and CircuitBreakerStateGauge.
func (r *Registry) BreakerStates() map[string]circuitbreaker.State {
	return r.breakers.States()
}
