package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/pkg/metrics"
	"github.com/biometricfleet/attendance/pkg/wrappers"
)

// result is one Location's fan-out outcome.
type result[T any] struct {
	locationID string
	value      T
	err        error
}

// FanOut calls fn concurrently against every client, each bounded by
// its own per-request deadline (spec §5: "fan-out issues one goroutine
// per Location, each with its own context.WithTimeout derived from
// that Location's configured timeout"), and returns successes plus a
// Failure per Location that errored, in deterministic Location-ID
// order.
func FanOut[T any](ctx context.Context, clients []*wrappers.LocationClient, fn func(ctx context.Context, c *wrappers.LocationClient) (T, error)) ([]T, []entities.Failure) {
	start := time.Now()
	results := make([]result[T], len(clients))

	var wg sync.WaitGroup
	wg.Add(len(clients))
	for i, c := range clients {
		go func(i int, c *wrappers.LocationClient) {
			defer wg.Done()
			loc := c.Location()
			callCtx, cancel := context.WithTimeout(ctx, loc.Timeout())
			defer cancel()

			val, err := fn(callCtx, c)
			results[i] = result[T]{locationID: loc.ID, value: val, err: err}
		}(i, c)
	}
	wg.Wait()

	var values []T
	var failures []entities.Failure
	for _, r := range results {
		if r.err != nil {
			failures = append(failures, entities.Failure{LocationID: r.locationID, Reason: r.err.Error()})
			continue
		}
		values = append(values, r.value)
	}

	outcome := "success"
	switch {
	case len(failures) > 0 && len(values) > 0:
		outcome = "partial"
	case len(failures) > 0 && len(values) == 0:
		outcome = "failure"
	}
	metrics.FanoutLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return values, failures
}
