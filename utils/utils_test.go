package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateClaimCode(t *testing.T) {
	code, err := GenerateClaimCode()
	require.NoError(t, err)
	assert.Len(t, code, 16)
	assert.Regexp(t, "^[0-9A-F]+$", code)

	other, err := GenerateClaimCode()
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestGenerateCode(t *testing.T) {
	for _, n := range []int{1, 4, 32} {
		code, err := GenerateCode(n)
		require.NoError(t, err)
		assert.Len(t, code, n*2)
	}
}

func TestCircuitBreaker_TripsOpenAfterFailures(t *testing.T) {
	cb := NewCircuitBreakerWithSettings("test", Settings{
		MaxRequests:  2,
		FailureRatio: 0.5,
		Timeout:      50 * time.Millisecond,
	})
	ctx := context.Background()

	failing := func() (any, error) { return nil, errors.New("boom") }

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(ctx, failing)
		assert.EqualError(t, err, "boom")
	}
	assert.Equal(t, StateOpen, cb.State())

	// The open breaker rejects without invoking the call.
	invoked := false
	_, err := cb.Execute(ctx, func() (any, error) {
		invoked = true
		return nil, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.False(t, invoked)
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreakerWithSettings("test", Settings{
		MaxRequests:  2,
		FailureRatio: 0.5,
		Timeout:      20 * time.Millisecond,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		cb.Execute(ctx, func() (any, error) { return nil, errors.New("boom") })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	// A successful probe closes the breaker again.
	result, err := cb.Execute(ctx, func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ClosedPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker("test")

	result, err := cb.Execute(context.Background(), func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_CancelledContext(t *testing.T) {
	cb := NewCircuitBreaker("test")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (any, error) { return nil, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
}
