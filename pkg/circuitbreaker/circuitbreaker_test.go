package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, Timeout: time.Minute, Interval: time.Minute})
	for i := 0; i < 5; i++ {
		err := cb.Call(func() error { return nil })
		require.NoError(t, err)
	}
	assert.Equal(t, StateClosed, cb.State())
}

// Once ConsecutiveFailures reaches FailureThreshold the breaker opens
// and every subsequent call is rejected before fn ever runs, the
// zero-I/O-when-open behavior the fan-out registry depends on to avoid
// hammering a Location Service that is already down.
func TestCircuitBreaker_OpensAfterThresholdAndShortCircuits(t *testing.T) {
	cb := New(Config{FailureThreshold: 2, Timeout: time.Hour, Interval: time.Hour})
	boom := errors.New("boom")

	_ = cb.Call(func() error { return boom })
	_ = cb.Call(func() error { return boom })
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called, "fn must not run while the breaker is open")
}

func TestCircuitBreaker_ExecuteRespectsContextCancellation(t *testing.T) {
	cb := New(Config{FailureThreshold: 5, Timeout: time.Minute, Interval: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := cb.Execute(ctx, func() error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestCircuitBreaker_OnStateChangeFires(t *testing.T) {
	var transitions []State
	cb := New(Config{
		FailureThreshold: 1,
		Timeout:          time.Hour,
		Interval:         time.Hour,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, to)
		},
	})
	_ = cb.Call(func() error { return errors.New("fail") })
	require.NotEmpty(t, transitions)
	assert.Equal(t, StateOpen, transitions[len(transitions)-1])
}
