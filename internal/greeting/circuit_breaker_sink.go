package greeting

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"greeter/internal/config"
	"greeter/pkg/circuitbreaker"
)

type CircuitBreakerSink struct {
	next Sink
	cb   *circuitbreaker.Wrapper
}

// NewCircuitBreakerSink fails calls fast with KindUnavailable while the
// backend keeps failing. Unsupported operations do not count as failures.
func NewCircuitBreakerSink(next Sink, cfg config.CircuitBreakerConfig) Sink {
	if !cfg.Enabled {
		return next
	}

	cbConfig := circuitbreaker.DefaultConfig("sink-" + next.Name())
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 {
		cbConfig.FailureRatio = cfg.FailureRatio
	}
	if cfg.MinRequests > 0 {
		cbConfig.MinRequests = cfg.MinRequests
	}
	cbConfig.IsSuccessful = func(err error) bool {
		return err == nil || IsKind(err, KindUnsupported)
	}

	return &CircuitBreakerSink{
		next: next,
		cb:   circuitbreaker.NewWrapper(cbConfig),
	}
}

func (s *CircuitBreakerSink) Name() string {
	return s.next.Name()
}

func (s *CircuitBreakerSink) Store(ctx context.Context, g *Greeting) error {
	return s.execute(ctx, OpStore, func(ctx context.Context) error {
		return s.next.Store(ctx, g)
	})
}

func (s *CircuitBreakerSink) All(ctx context.Context) ([]Greeting, error) {
	var greetings []Greeting
	err := s.execute(ctx, OpAll, func(ctx context.Context) error {
		var err error
		greetings, err = s.next.All(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return greetings, nil
}

// CheckLiveness bypasses the breaker so health always reflects the backend.
func (s *CircuitBreakerSink) CheckLiveness(ctx context.Context) error {
	return s.next.CheckLiveness(ctx)
}

func (s *CircuitBreakerSink) State() gobreaker.State {
	return s.cb.State()
}

func (s *CircuitBreakerSink) Close() error {
	if c, ok := s.next.(Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *CircuitBreakerSink) execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := s.cb.Execute(ctx, fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return NewSinkError(s.Name(), op, KindUnavailable, err)
	}
	return err
}
