package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/pkg/circuitbreaker"
	"github.com/biometricfleet/attendance/pkg/logger"
	"github.com/biometricfleet/attendance/pkg/wrappers"
)

func testClients(n int) []*wrappers.LocationClient {
	log := logger.New("error", "production")
	breakers := circuitbreaker.NewRegistry(circuitbreaker.Config{FailureThreshold: 5, Timeout: time.Minute, Interval: time.Minute})
	clients := make([]*wrappers.LocationClient, n)
	for i := 0; i < n; i++ {
		loc := entities.Location{ID: fmt.Sprintf("loc-%d", i), URL: "http://example.invalid", TimeoutMS: 5000}
		clients[i] = wrappers.NewLocationClient(loc, nil, breakers, log)
	}
	return clients
}

func TestFanOut_AllSucceed(t *testing.T) {
	clients := testClients(3)
	values, failures := FanOut(context.Background(), clients, func(ctx context.Context, c *wrappers.LocationClient) (string, error) {
		return c.Location().ID, nil
	})
	assert.Len(t, values, 3)
	assert.Empty(t, failures)
}

// Determinism: the merged failure/value sets must not depend on which
// goroutine happens to finish first, only on Location ID order.
func TestFanOut_PartialResultIndependentOfCompletionOrder(t *testing.T) {
	clients := testClients(4)
	run := func() ([]string, []entities.Failure) {
		return FanOut(context.Background(), clients, func(ctx context.Context, c *wrappers.LocationClient) (string, error) {
			id := c.Location().ID
			if id == "loc-1" || id == "loc-3" {
				// Delay the failing Locations so they complete after
				// the successful ones.
				time.Sleep(time.Duration(len(id)) * time.Millisecond)
				return "", fmt.Errorf("%s unreachable", id)
			}
			return id, nil
		})
	}

	for i := 0; i < 5; i++ {
		values, failures := run()
		require.Len(t, values, 2)
		require.Len(t, failures, 2)
		assert.ElementsMatch(t, []string{"loc-0", "loc-2"}, values)
		failureIDs := []string{failures[0].LocationID, failures[1].LocationID}
		assert.ElementsMatch(t, []string{"loc-1", "loc-3"}, failureIDs)
	}
}

func TestFanOut_AllFailYieldsNoSuccesses(t *testing.T) {
	clients := testClients(2)
	values, failures := FanOut(context.Background(), clients, func(ctx context.Context, c *wrappers.LocationClient) (string, error) {
		return "", fmt.Errorf("down")
	})
	assert.Empty(t, values)
	assert.Len(t, failures, 2)
}

func TestFanOut_EmptyClientListReturnsEmpty(t *testing.T) {
	values, failures := FanOut(context.Background(), nil, func(ctx context.Context, c *wrappers.LocationClient) (string, error) {
		return "unused", nil
	})
	assert.Empty(t, values)
	assert.Empty(t, failures)
}
