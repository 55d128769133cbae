package greeting

import (
	"context"
	"errors"
	"time"

	"greeter/pkg/metrics"
)

const (
	OpStore = "store"
	OpAll   = "all"
	OpPing  = "check_liveness"
)

// Sink stores greetings in one backend. Implementations must be safe for
// concurrent use and return *SinkError on failure.
type Sink interface {
	Name() string
	Store(ctx context.Context, g *Greeting) error
	All(ctx context.Context) ([]Greeting, error)
	CheckLiveness(ctx context.Context) error
}

// Closer is implemented by sinks that own a connection.
type Closer interface {
	Close() error
}

type timeoutSink struct {
	next    Sink
	timeout time.Duration
}

// WithTimeout bounds every call on next. A deadline hit inside the call is
// reported as KindTimeout whatever the backend returned.
func WithTimeout(next Sink, timeout time.Duration) Sink {
	if timeout <= 0 {
		return next
	}
	return &timeoutSink{next: next, timeout: timeout}
}

func (s *timeoutSink) Name() string {
	return s.next.Name()
}

func (s *timeoutSink) Store(ctx context.Context, g *Greeting) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.classify(ctx, OpStore, s.next.Store(ctx, g))
}

func (s *timeoutSink) All(ctx context.Context) ([]Greeting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	greetings, err := s.next.All(ctx)
	if err != nil {
		return nil, s.classify(ctx, OpAll, err)
	}
	return greetings, nil
}

func (s *timeoutSink) CheckLiveness(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.classify(ctx, OpPing, s.next.CheckLiveness(ctx))
}

func (s *timeoutSink) Close() error {
	if c, ok := s.next.(Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *timeoutSink) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return NewSinkError(s.next.Name(), op, KindTimeout, err)
	}
	return err
}

type instrumentedSink struct {
	next Sink
}

// WithMetrics records the duration and outcome of every call.
func WithMetrics(next Sink) Sink {
	return &instrumentedSink{next: next}
}

func (s *instrumentedSink) Name() string {
	return s.next.Name()
}

func (s *instrumentedSink) Store(ctx context.Context, g *Greeting) error {
	start := time.Now()
	err := s.next.Store(ctx, g)
	s.observe(OpStore, start, err)
	return err
}

func (s *instrumentedSink) All(ctx context.Context) ([]Greeting, error) {
	start := time.Now()
	greetings, err := s.next.All(ctx)
	s.observe(OpAll, start, err)
	return greetings, err
}

func (s *instrumentedSink) CheckLiveness(ctx context.Context) error {
	start := time.Now()
	err := s.next.CheckLiveness(ctx)
	s.observe(OpPing, start, err)
	return err
}

func (s *instrumentedSink) Close() error {
	if c, ok := s.next.(Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *instrumentedSink) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		var sinkErr *SinkError
		if errors.As(err, &sinkErr) {
			status = sinkErr.Kind.String()
		}
	}
	metrics.ObserveSinkOperation(s.next.Name(), op, status, time.Since(start))
}
