package circuitbreaker

import "sync"

// Registry hands out one CircuitBreaker per key, lazily created on
// first use. The Gateway keeps one keyed by Location ID (spec §4,
// "fan-out wraps each Location call in its own circuit breaker") so a
// failing Location cannot trip the breaker for a healthy one.
type Registry struct {
	mu       sync.Mutex
	cfg      Config
	breakers map[string]*CircuitBreaker
}

// NewRegistry builds a Registry that creates new breakers with cfg.
// cfg.OnStateChange, if set, is invoked for every keyed breaker with
// the same callback; the callback is not told which key changed.
func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for key, creating it on first access.
func (r *Registry) Get(key string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[key]; ok {
		return cb
	}
	cfg := r.cfg
	if r.cfg.OnStateChange != nil {
		onChange := r.cfg.OnStateChange
		cfg.OnStateChange = func(from, to State) { onChange(from, to) }
	}
	cb := New(cfg)
	r.breakers[key] = cb
	return cb
}

// States returns a snapshot of every known key's current state, used
// by the Gateway health endpoint (spec §4.1) and by the Gateway's
// health-sweep cron job, which exports it as CircuitBreakerStateGauge
// per Location.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]State, len(r.breakers))
	for k, cb := range r.breakers {
		out[k] = cb.State()
	}
	return out
}
