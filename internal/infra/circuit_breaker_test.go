package infra

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreaker_OpensAfterThresholdAndProbes(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "test", FailureThreshold: 2, OpenTimeout: time.Minute})
	cb.now = func() time.Time { return now }

	boom := errors.New("boom")
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return boom }), boom)
	assert.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errors.New("down") })
	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errors.New("still down") })
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreaker_CancelledCallsDoNotCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	err := cb.Execute(func() error { return fmt.Errorf("gateway: %w", context.Canceled) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CBClosed, cb.State())

	_ = cb.Execute(func() error { return context.DeadlineExceeded })
	assert.Equal(t, CBOpen, cb.State())
}

func TestBreakerSet_ReportsStates(t *testing.T) {
	set := NewBreakerSet()
	a := set.New(CircuitBreakerConfig{Name: "gemini", FailureThreshold: 1, OpenTimeout: time.Hour})
	set.New(CircuitBreakerConfig{Name: "fx-rates"})
	_ = a.Execute(func() error { return errors.New("down") })

	assert.Equal(t, map[string]string{"gemini": "open", "fx-rates": "closed"}, set.States())

	var none *BreakerSet
	assert.NotNil(t, none.New(CircuitBreakerConfig{Name: "x"}))
	assert.Empty(t, none.States())
}
