package greeting

import (
	"context"

	"greeter/internal/broker"
	"greeter/internal/logger"
)

// Listener is the consumer-side handler. It only logs what the producer
// wrote; nothing is stored.
type Listener struct {
	logger logger.Logger
}

func NewListener(log logger.Logger) *Listener {
	return &Listener{logger: log}
}

func (l *Listener) Handle(ctx context.Context, d broker.Delivery) error {
	record := d.Event.After

	if d.Key != "" && d.Key != record.ID {
		l.logger.WarnwCtx(ctx, "Message key does not match greeting id",
			"key", d.Key,
			"id", record.ID,
		)
	}

	l.logger.InfowCtx(ctx, "Greeting consumed",
		"key", d.Key,
		"id", record.ID,
		"greeting_id", record.GreetingID,
		"created", record.Created,
		"topic", d.Topic,
		"partition", d.Partition,
		"offset", d.Offset,
	)
	return nil
}

// HandlerFunc adapts the listener to broker.Consumer.
func (l *Listener) HandlerFunc() broker.HandlerFunc {
	return l.Handle
}
