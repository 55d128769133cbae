package greeting

import (
	"context"
	"time"

	"greeter/internal/constants"
	"greeter/internal/logger"
	"greeter/pkg/logging"
)

// Service mediates between the HTTP layer and the sink. It holds no state,
// and performs no retries or deduplication.
type Service struct {
	sink   Sink
	logger logger.Logger
}

func NewService(sink Sink, log logger.Logger) *Service {
	return &Service{
		sink:   sink,
		logger: log,
	}
}

func (s *Service) ReceiveGreeting(ctx context.Context, g *Greeting) error {
	ctx = logging.WithGreetingID(ctx, g.ID)

	if err := s.sink.Store(ctx, g); err != nil {
		return &ServiceError{Op: "receive", Err: err}
	}

	g.RecordEvent(constants.EventStored, time.Now())
	s.logger.DebugwCtx(ctx, "Greeting stored",
		"sink", s.sink.Name(),
		"events", g.Events(),
	)
	return nil
}

func (s *Service) AllGreetings(ctx context.Context) ([]Greeting, error) {
	greetings, err := s.sink.All(ctx)
	if err != nil {
		return nil, &ServiceError{Op: "list", Err: err}
	}
	return greetings, nil
}

func (s *Service) CheckLiveness(ctx context.Context) error {
	return s.sink.CheckLiveness(ctx)
}

// Name lets the service stand in for its sink in the health registry.
func (s *Service) Name() string {
	return s.sink.Name()
}
