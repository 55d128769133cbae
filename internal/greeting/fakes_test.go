package greeting

import (
	"context"
	"sync"

	"greeter/internal/broker"
)

// stubSink is a programmable Sink for decorator, service and handler tests.
type stubSink struct {
	name     string
	storeErr error
	allErr   error
	pingErr  error
	block    bool

	mu     sync.Mutex
	stored []*Greeting
	calls  int
}

func newStubSink() *stubSink {
	return &stubSink{name: "stub"}
}

func (s *stubSink) Name() string {
	return s.name
}

func (s *stubSink) Store(ctx context.Context, g *Greeting) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.storeErr != nil {
		return s.storeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, g)
	return nil
}

func (s *stubSink) All(ctx context.Context) ([]Greeting, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.allErr != nil {
		return nil, s.allErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Greeting, 0, len(s.stored))
	for _, g := range s.stored {
		out = append(out, g.Clone())
	}
	return out, nil
}

func (s *stubSink) CheckLiveness(ctx context.Context) error {
	return s.pingErr
}

func (s *stubSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakePublisher struct {
	mu         sync.Mutex
	published  []broker.OutboundMessage
	publishErr error
	pingErr    error
	closed     bool
}

func (p *fakePublisher) Publish(ctx context.Context, msg broker.OutboundMessage) (broker.PublishResult, error) {
	if p.publishErr != nil {
		return broker.PublishResult{}, p.publishErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msg)
	return broker.PublishResult{Topic: "greetings", Offset: int64(len(p.published) - 1)}, nil
}

func (p *fakePublisher) Ping(ctx context.Context) error {
	return p.pingErr
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}
