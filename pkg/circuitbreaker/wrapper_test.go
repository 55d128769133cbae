package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapper_TripsAfterFailures(t *testing.T) {
	var transitions []gobreaker.State
	w := NewWrapper(Config{
		Name:         "test-sink",
		MaxRequests:  1,
		Timeout:      time.Hour,
		FailureRatio: 0.5,
		MinRequests:  2,
		OnStateChange: func(_ string, _, to gobreaker.State) {
			transitions = append(transitions, to)
		},
	})

	failing := func(context.Context) error { return errors.New("connection refused") }
	for i := 0; i < 2; i++ {
		require.Error(t, w.Execute(context.Background(), failing))
	}

	assert.Equal(t, gobreaker.StateOpen, w.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	err := w.Execute(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called)
}

func TestWrapper_IsSuccessfulIgnoresClientErrors(t *testing.T) {
	clientErr := errors.New("unsupported")
	w := NewWrapper(Config{
		Name:         "ignore",
		MinRequests:  1,
		FailureRatio: 0.1,
		Timeout:      time.Hour,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, clientErr) },
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, w.Execute(context.Background(), func(context.Context) error { return clientErr }), clientErr)
	}
	assert.Equal(t, gobreaker.StateClosed, w.State())
}

func TestWrapper_CancelledContext(t *testing.T) {
	w := NewWrapper(DefaultConfig("ctx"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Execute(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "ctx", w.Name())
}
