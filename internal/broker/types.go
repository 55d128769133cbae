package broker

import (
	"context"

	"greeter/pkg/models"
)

// OutboundMessage is one record handed to a Publisher. Headers are applied in
// addition to the trace context headers the publisher injects itself.
type OutboundMessage struct {
	Key     string
	Value   []byte
	Headers map[string]string
}

type PublishResult struct {
	Topic     string
	Partition int32
	Offset    int64
}

type Publisher interface {
	Publish(ctx context.Context, msg OutboundMessage) (PublishResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// Delivery is a decoded greeting event as read from the bus.
type Delivery struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Headers   map[string]string
	Event     *models.GreetingEvent
}

type Consumer interface {
	Consume(ctx context.Context, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

type HandlerFunc func(ctx context.Context, delivery Delivery) error
