package greeting

import (
	"context"
	"sync"

	"greeter/internal/constants"
)

// MemorySink keeps greetings for the lifetime of the process.
type MemorySink struct {
	mu        sync.RWMutex
	greetings []Greeting
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Name() string {
	return constants.SinkTypeMemory
}

func (s *MemorySink) Store(ctx context.Context, g *Greeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.greetings = append(s.greetings, g.Clone())
	return nil
}

// All returns copies in insertion order.
func (s *MemorySink) All(ctx context.Context) ([]Greeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Greeting, 0, len(s.greetings))
	for i := range s.greetings {
		out = append(out, s.greetings[i].Clone())
	}
	return out, nil
}

func (s *MemorySink) CheckLiveness(ctx context.Context) error {
	return nil
}

func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.greetings)
}
