package greeting

import (
	"context"
	"errors"
	"fmt"

	"greeter/internal/broker"
	"greeter/internal/constants"
)

var errWriteOnly = errors.New("the message bus is write-only; greetings cannot be listed")

// KafkaSink publishes each greeting to the greetings topic, keyed by id so
// downstream consumers can deduplicate.
type KafkaSink struct {
	publisher broker.Publisher
}

func NewKafkaSink(publisher broker.Publisher) *KafkaSink {
	return &KafkaSink{publisher: publisher}
}

func (s *KafkaSink) Name() string {
	return constants.SinkTypeKafka
}

func (s *KafkaSink) Store(ctx context.Context, g *Greeting) error {
	value, err := g.ToEvent().Encode()
	if err != nil {
		return NewSinkError(s.Name(), OpStore, KindTransport, fmt.Errorf("failed to encode greeting event: %w", err))
	}

	_, err = s.publisher.Publish(ctx, broker.OutboundMessage{
		Key:   g.ID,
		Value: value,
		Headers: map[string]string{
			constants.HeaderGreetingID: g.ID,
		},
	})
	if err != nil {
		return NewSinkError(s.Name(), OpStore, KindTransport, err)
	}
	return nil
}

func (s *KafkaSink) All(ctx context.Context) ([]Greeting, error) {
	return nil, NewSinkError(s.Name(), OpAll, KindUnsupported, errWriteOnly)
}

func (s *KafkaSink) CheckLiveness(ctx context.Context) error {
	if err := s.publisher.Ping(ctx); err != nil {
		return NewSinkError(s.Name(), OpPing, KindTransport, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.publisher.Close()
}
