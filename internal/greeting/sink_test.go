package greeting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greeter/internal/config"
)

func mustGreeting(t *testing.T, to string) *Greeting {
	t.Helper()
	g, err := NewGreeting("", to, "from", "heading", "message", time.Now())
	require.NoError(t, err)
	return g
}

func TestMemorySink_InsertionOrder(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	first := mustGreeting(t, "first")
	second := mustGreeting(t, "second")
	require.NoError(t, sink.Store(ctx, first))
	require.NoError(t, sink.Store(ctx, second))

	all, err := sink.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, second.ID, all[1].ID)
}

func TestMemorySink_EqualContentStoredTwice(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	a := mustGreeting(t, "same")
	b := mustGreeting(t, "same")
	require.NoError(t, sink.Store(ctx, a))
	require.NoError(t, sink.Store(ctx, b))

	all, err := sink.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NotEqual(t, all[0].ID, all[1].ID)
}

func TestMemorySink_StoresCopy(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	g := mustGreeting(t, "x")
	require.NoError(t, sink.Store(ctx, g))
	g.RecordEvent("later", time.Now())

	all, err := sink.All(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all[0].Events(), "later")
}

func TestMemorySink_Concurrent(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		g := mustGreeting(t, "c")
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, sink.Store(ctx, g))
		}()
		go func() {
			defer wg.Done()
			_, err := sink.All(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, sink.Len())
}

func TestWithTimeout_SurfacesTimeoutKind(t *testing.T) {
	stub := newStubSink()
	stub.block = true
	sink := WithTimeout(stub, 20*time.Millisecond)

	err := sink.Store(context.Background(), mustGreeting(t, "slow"))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout))

	_, err = sink.All(context.Background())
	assert.True(t, IsKind(err, KindTimeout))
}

func TestWithTimeout_PassesThroughOtherErrors(t *testing.T) {
	stub := newStubSink()
	stub.storeErr = NewSinkError("stub", OpStore, KindPersistence, errors.New("unique violation"))
	sink := WithTimeout(stub, time.Second)

	err := sink.Store(context.Background(), mustGreeting(t, "x"))
	assert.True(t, IsKind(err, KindPersistence))
}

func TestWithTimeout_ZeroDisables(t *testing.T) {
	stub := newStubSink()
	assert.Same(t, Sink(stub), WithTimeout(stub, 0))
}

func TestWithMetrics_PassesThrough(t *testing.T) {
	stub := newStubSink()
	sink := WithMetrics(stub)

	require.NoError(t, sink.Store(context.Background(), mustGreeting(t, "x")))
	all, err := sink.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	stub.pingErr = errors.New("down")
	assert.Error(t, sink.CheckLiveness(context.Background()))
	assert.Equal(t, "stub", sink.Name())
}

func TestCircuitBreakerSink_OpensAfterFailures(t *testing.T) {
	stub := newStubSink()
	stub.storeErr = NewSinkError("stub", OpStore, KindPersistence, errors.New("connection refused"))

	sink := NewCircuitBreakerSink(stub, config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	})
	cb, ok := sink.(*CircuitBreakerSink)
	require.True(t, ok)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		err := sink.Store(ctx, mustGreeting(t, "x"))
		assert.True(t, IsKind(err, KindPersistence))
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	err := sink.Store(ctx, mustGreeting(t, "x"))
	assert.True(t, IsKind(err, KindUnavailable))
	assert.Equal(t, 3, stub.callCount())

	stub.pingErr = errors.New("still down")
	assert.EqualError(t, sink.CheckLiveness(ctx), "still down")
}

func TestCircuitBreakerSink_UnsupportedDoesNotTrip(t *testing.T) {
	stub := newStubSink()
	stub.allErr = NewSinkError("stub", OpAll, KindUnsupported, errWriteOnly)

	sink := NewCircuitBreakerSink(stub, config.CircuitBreakerConfig{Enabled: true, MinRequests: 1, FailureRatio: 0.1})
	for i := 0; i < 5; i++ {
		_, err := sink.All(context.Background())
		assert.True(t, IsKind(err, KindUnsupported))
	}
	assert.Equal(t, gobreaker.StateClosed, sink.(*CircuitBreakerSink).State())
}

func TestCircuitBreakerSink_DisabledReturnsSink(t *testing.T) {
	stub := newStubSink()
	assert.Same(t, Sink(stub), NewCircuitBreakerSink(stub, config.CircuitBreakerConfig{}))
}
