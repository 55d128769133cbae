package bootstrap

import (
	"context"
	"fmt"
	"time"

	"greeter/internal/broker"
	"greeter/internal/config"
	"greeter/internal/logger"
	"greeter/pkg/retry"
	"greeter/pkg/tracing"
)

// Base holds the process-wide resources shared by both binaries.
type Base struct {
	Config         *config.Config
	Logger         logger.Logger
	Publisher      broker.Publisher
	Consumer       broker.Consumer
	TracerProvider *tracing.TracerProvider
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

func (b *Base) InitTracing(ctx context.Context, serviceName string) error {
	tp, err := tracing.Init(ctx, b.Config.Tracing, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	b.TracerProvider = tp
	return nil
}

// InitPublisher connects the Kafka producer, retrying while the brokers come up.
func (b *Base) InitPublisher(ctx context.Context) error {
	var publisher broker.Publisher
	err := retry.RetryWithCallback(ctx, startupPolicy(), func() error {
		p, err := broker.NewPublisher(b.Config.Broker.Kafka, b.Logger)
		if err != nil {
			return err
		}
		publisher = p
		return nil
	}, func(attempt int, err error, next time.Duration) {
		b.Logger.WarnwCtx(ctx, "Kafka producer not ready, retrying", "attempt", attempt, "next_delay", next, "error", err)
	})
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}
	b.Publisher = publisher
	return nil
}

func (b *Base) InitConsumer(serviceName string) error {
	consumer, err := broker.NewConsumer(b.Config.Broker.Kafka, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	if serviceName != "" {
		consumer.SetServiceName(serviceName)
	}
	b.Consumer = consumer
	return nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	if b.Publisher != nil {
		if err := b.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
	}

	if b.Consumer != nil {
		if err := b.Consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer close error: %w", err))
		}
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.InfowCtx(ctx, "Shutting down application...")

	var errs []error

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	errs = append(errs, b.ShutdownBroker()...)

	if b.TracerProvider != nil {
		if err := b.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.InfowCtx(ctx, "Application exited successfully")
	return nil
}
