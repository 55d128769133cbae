package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"greeter/internal/config"
	"greeter/internal/constants"
	"greeter/internal/logger"
	apperrors "greeter/pkg/errors"
	"greeter/pkg/logging"
	"greeter/pkg/metrics"
	"greeter/pkg/models"
	"greeter/pkg/retry"
	"greeter/pkg/tracing"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads greeting events from one topic inside a consumer group.
// Every fetched message is committed exactly once it has been handled or
// dead-lettered, so a single bad record never stalls the partition.
type KafkaConsumer struct {
	cfg          config.KafkaConfig
	reader       messageReader
	dlq          messageWriter
	logger       logger.Logger
	serviceName  string
	retryPolicy  retry.Policy
	fetchBackoff time.Duration
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	log.Infow("Creating Kafka reader",
		"topic", cfg.Topic,
		"brokers", cfg.Brokers,
		"group_id", cfg.GroupID,
		"dlq_topic", cfg.DLQTopic,
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: cfg.CommitInterval(),
		StartOffset:    kafka.FirstOffset,
	})

	var dlq messageWriter
	if cfg.DLQTopic != "" {
		dlq = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.DLQTopic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           constants.KafkaBatchTimeout,
			WriteTimeout:           constants.KafkaWriteTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		}
	}

	return newKafkaConsumer(cfg, reader, dlq, log)
}

func newKafkaConsumer(cfg config.KafkaConfig, reader messageReader, dlq messageWriter, log logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		cfg:          cfg,
		reader:       reader,
		dlq:          dlq,
		logger:       log,
		serviceName:  constants.ServiceNameConsumer,
		retryPolicy:  retryPolicyFromConfig(cfg.Retry),
		fetchBackoff: constants.KafkaFetchErrorBackoff,
	}
}

func retryPolicyFromConfig(cfg config.RetryConfig) retry.Policy {
	policy := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialInterval > 0 {
		policy.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		policy.MaxInterval = cfg.MaxInterval
	}
	if cfg.Multiplier > 0 {
		policy.Multiplier = cfg.Multiplier
	}
	if cfg.MaxElapsedTime > 0 {
		policy.MaxElapsedTime = cfg.MaxElapsedTime
	}
	return policy
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

// Consume blocks until ctx is cancelled or the reader is closed. Neither
// malformed payloads nor handler failures end the loop.
func (c *KafkaConsumer) Consume(ctx context.Context, handler HandlerFunc) error {
	consumeCtx := logging.WithServiceName(ctx, c.serviceName)
	c.logger.InfowCtx(consumeCtx, "Started consuming", "topic", c.cfg.Topic)

	for {
		start := time.Now()
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				c.logger.InfowCtx(consumeCtx, "Stopped consuming",
					"topic", c.cfg.Topic,
					"reason", stopReason(ctx, err),
				)
				return nil
			}
			c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
				"error", err,
				"topic", c.cfg.Topic,
			)
			select {
			case <-ctx.Done():
			case <-time.After(c.fetchBackoff):
			}
			continue
		}
		metrics.ObserveKafkaReadDuration(c.serviceName, m.Topic, time.Since(start))

		c.handleMessage(consumeCtx, m, handler)
	}
}

func stopReason(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return "context canceled"
	}
	return err.Error()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, m kafka.Message, handler HandlerFunc) {
	metrics.IncKafkaMessagesRead(c.serviceName, m.Topic)
	metrics.ObserveKafkaMessageSize(c.serviceName, m.Topic, "in", len(m.Value))
	if m.HighWaterMark > 0 {
		metrics.SetKafkaConsumerLag(c.serviceName, m.Topic, m.Partition, m.HighWaterMark-m.Offset-1)
	}

	msgCtx, span := tracing.StartSpanFromKafkaMessage(ctx, "greeting.consume", m.Headers)
	defer span.End()
	if traceID := tracing.TraceID(msgCtx); traceID != "" {
		msgCtx = logging.WithTraceID(msgCtx, traceID)
	}

	event, err := models.DecodeGreetingEvent(m.Value)
	if err != nil {
		span.RecordError(err)
		c.logger.WarnwCtx(msgCtx, "Malformed greeting event",
			"error", err,
			"topic", m.Topic,
			"partition", m.Partition,
			"offset", m.Offset,
		)
		c.deadLetter(msgCtx, m, constants.DLQReasonMalformed, apperrors.ErrMalformedMessage.WithCause(err))
		c.commit(msgCtx, m)
		return
	}

	msgCtx = logging.WithGreetingID(msgCtx, event.After.ID)
	delivery := Delivery{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       string(m.Key),
		Headers:   headerMap(m.Headers),
		Event:     event,
	}

	if err := c.processWithRetry(msgCtx, delivery, handler); err != nil {
		if ctx.Err() != nil {
			// Left uncommitted; the group redelivers it after restart.
			return
		}
		span.RecordError(err)
		c.logger.ErrorwCtx(msgCtx, "Failed to process message after retries",
			"error", err,
			"topic", m.Topic,
			"offset", m.Offset,
		)
		c.deadLetter(msgCtx, m, constants.DLQReasonHandlerFailed, err)
		c.commit(msgCtx, m)
		return
	}

	metrics.IncGreetingsConsumed("processed")
	c.commit(msgCtx, m)
}

func (c *KafkaConsumer) processWithRetry(ctx context.Context, delivery Delivery, handler HandlerFunc) error {
	return retry.RetryWithCallback(ctx, c.retryPolicy, func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = apperrors.RecoverPanic(r)
				c.logger.ErrorwCtx(ctx, "Panic recovered during message processing",
					"error", err,
					"topic", delivery.Topic,
				)
			}
		}()
		return handler(ctx, delivery)
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues(c.serviceName, delivery.Topic).Inc()
		c.logger.WarnwCtx(ctx, "Retrying message processing",
			"attempt", attempt,
			"max_attempts", c.retryPolicy.MaxAttempts,
			"next_delay", nextDelay,
			"error", err,
			"topic", delivery.Topic,
		)
	})
}

// deadLetter copies the original record to the DLQ topic with the failure
// annotated in headers. With no DLQ configured the record is only counted.
func (c *KafkaConsumer) deadLetter(ctx context.Context, m kafka.Message, reason string, cause error) {
	if c.dlq == nil {
		metrics.IncGreetingsConsumed("dropped")
		c.logger.WarnwCtx(ctx, "No DLQ configured, committing message to avoid blocking",
			"topic", m.Topic,
			"offset", m.Offset,
			"reason", reason,
		)
		return
	}

	headers := make([]kafka.Header, 0, len(m.Headers)+5)
	for _, h := range m.Headers {
		switch h.Key {
		case constants.HeaderDLQReason, constants.HeaderDLQSourceTopic, constants.HeaderDLQOffset, constants.HeaderDLQPartition:
			continue
		}
		headers = append(headers, h)
	}
	headers = append(headers,
		kafka.Header{Key: constants.HeaderDLQReason, Value: []byte(reason + ": " + cause.Error())},
		kafka.Header{Key: constants.HeaderDLQSourceTopic, Value: []byte(m.Topic)},
		kafka.Header{Key: constants.HeaderDLQOffset, Value: []byte(strconv.FormatInt(m.Offset, 10))},
		kafka.Header{Key: constants.HeaderDLQPartition, Value: []byte(strconv.Itoa(m.Partition))},
	)
	headers = tracing.InjectTraceContext(ctx, headers)

	dlqMsg := kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
		Time:    time.Now(),
	}

	err := retry.Retry(ctx, c.retryPolicy, func() error {
		return c.dlq.WriteMessages(ctx, dlqMsg)
	})
	if err != nil {
		metrics.IncGreetingsConsumed("dlq_failed")
		c.logger.ErrorwCtx(ctx, "Failed to send message to DLQ",
			"error", err,
			"topic", m.Topic,
			"offset", m.Offset,
			"dlq_topic", c.cfg.DLQTopic,
		)
		return
	}

	metrics.DLQMessagesTotal.WithLabelValues(c.serviceName, m.Topic, reason).Inc()
	metrics.IncGreetingsConsumed("dead_lettered")
	c.logger.InfowCtx(ctx, "Message sent to DLQ",
		"source_topic", m.Topic,
		"dlq_topic", c.cfg.DLQTopic,
		"reason", reason,
		"offset", m.Offset,
	)
}

func (c *KafkaConsumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.ErrorwCtx(ctx, "Failed to commit message",
			"error", err,
			"topic", m.Topic,
			"offset", m.Offset,
		)
	}
}

func (c *KafkaConsumer) Close() error {
	var errs []error
	if err := c.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("reader close error: %w", err))
	}
	if c.dlq != nil {
		if err := c.dlq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("dlq writer close error: %w", err))
		}
	}
	return errors.Join(errs...)
}

func headerMap(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
