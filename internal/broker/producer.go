package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"greeter/internal/config"
	"greeter/internal/constants"
	"greeter/internal/logger"
	"greeter/pkg/metrics"
	"greeter/pkg/tracing"
)

// syncProducer is the subset of sarama.SyncProducer the publisher drives.
type syncProducer interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	BeginTxn() error
	CommitTxn() error
	AbortTxn() error
	Close() error
}

type metadataClient interface {
	RefreshMetadata(topics ...string) error
	Close() error
}

// TransactionalProducer publishes each greeting in its own Kafka transaction
// (begin, send, commit; abort on any failure). Without a transactional id it
// degrades to plain, optionally idempotent, sends.
//
// A transactional producer can only have one open transaction, so sends are
// serialised on mu.
type TransactionalProducer struct {
	producer      syncProducer
	client        metadataClient
	topic         string
	transactional bool
	logger        logger.Logger
	serviceName   string

	mu sync.Mutex
}

// NewSaramaConfig maps the Kafka section onto a validated sarama config.
func NewSaramaConfig(cfg config.KafkaConfig) (*sarama.Config, error) {
	sc := sarama.NewConfig()

	versionStr := cfg.Version
	if versionStr == "" {
		versionStr = constants.DefaultKafkaVersion
	}
	version, err := sarama.ParseKafkaVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Kafka version %q: %w", versionStr, err)
	}
	sc.Version = version

	sc.ClientID = cfg.ClientID
	if sc.ClientID == "" {
		sc.ClientID = constants.DefaultKafkaClientID
	}

	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Producer.Retry.Max = constants.DefaultProducerMaxRetries
	sc.Producer.Partitioner = sarama.NewHashPartitioner
	if timeout := cfg.MessageTimeout(); timeout > 0 {
		sc.Producer.Timeout = timeout
	}

	if cfg.EnableIdempotence || cfg.TransactionalID != "" {
		sc.Producer.Idempotent = true
		sc.Net.MaxOpenRequests = 1
	}

	if cfg.TransactionalID != "" {
		sc.Producer.Transaction.ID = cfg.TransactionalID
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sarama config: %w", err)
	}
	return sc, nil
}

func NewTransactionalProducer(cfg config.KafkaConfig, log logger.Logger) (*TransactionalProducer, error) {
	sc, err := NewSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}

	client, err := sarama.NewClient(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kafka brokers %v: %w", cfg.Brokers, err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	log.Infow("Kafka producer created",
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"transactional", cfg.TransactionalID != "",
		"idempotent", sc.Producer.Idempotent,
	)

	return newTransactionalProducer(producer, client, cfg.Topic, cfg.TransactionalID != "", log), nil
}

func newTransactionalProducer(producer syncProducer, client metadataClient, topic string, transactional bool, log logger.Logger) *TransactionalProducer {
	return &TransactionalProducer{
		producer:      producer,
		client:        client,
		topic:         topic,
		transactional: transactional,
		logger:        log,
		serviceName:   constants.ServiceNameGreeting,
	}
}

type publishOutcome struct {
	result PublishResult
	err    error
}

// Publish sends msg to the configured topic. The blocking sarama call runs on
// its own goroutine so ctx cancellation returns promptly; a send that is
// already in flight still completes and is counted, so a timed-out caller may
// observe an error for a record that was in fact committed.
func (p *TransactionalProducer) Publish(ctx context.Context, msg OutboundMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}

	ctx, span := tracing.StartProducerSpan(ctx, "greeting.publish")
	defer span.End()

	headers := make([]sarama.RecordHeader, 0, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	headers = tracing.InjectSaramaTraceContext(ctx, headers)

	pm := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(msg.Key),
		Value:     sarama.ByteEncoder(msg.Value),
		Headers:   headers,
		Timestamp: time.Now(),
	}

	done := make(chan publishOutcome, 1)
	go func() {
		done <- p.send(ctx, pm)
	}()

	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		return PublishResult{}, ctx.Err()
	case out := <-done:
		if out.err != nil {
			span.RecordError(out.err)
		}
		return out.result, out.err
	}
}

func (p *TransactionalProducer) send(ctx context.Context, pm *sarama.ProducerMessage) publishOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The caller may have given up while we waited for the lock.
	if err := ctx.Err(); err != nil {
		return publishOutcome{err: err}
	}

	start := time.Now()
	defer func() {
		metrics.ObserveKafkaWriteDuration(p.serviceName, p.topic, time.Since(start))
	}()

	if !p.transactional {
		partition, offset, err := p.producer.SendMessage(pm)
		if err != nil {
			return publishOutcome{err: fmt.Errorf("failed to send message: %w", err)}
		}
		p.recordWritten(pm)
		return publishOutcome{result: PublishResult{Topic: p.topic, Partition: partition, Offset: offset}}
	}

	if err := p.producer.BeginTxn(); err != nil {
		metrics.IncKafkaTransaction(p.topic, "begin_failed")
		return publishOutcome{err: fmt.Errorf("failed to begin transaction: %w", err)}
	}

	partition, offset, err := p.producer.SendMessage(pm)
	if err != nil {
		p.abort(ctx, err)
		return publishOutcome{err: fmt.Errorf("failed to send message in transaction: %w", err)}
	}

	if err := p.producer.CommitTxn(); err != nil {
		p.abort(ctx, err)
		return publishOutcome{err: fmt.Errorf("failed to commit transaction: %w", err)}
	}

	metrics.IncKafkaTransaction(p.topic, "committed")
	p.recordWritten(pm)
	return publishOutcome{result: PublishResult{Topic: p.topic, Partition: partition, Offset: offset}}
}

func (p *TransactionalProducer) abort(ctx context.Context, cause error) {
	metrics.IncKafkaTransaction(p.topic, "aborted")
	if err := p.producer.AbortTxn(); err != nil {
		p.logger.ErrorwCtx(ctx, "Failed to abort kafka transaction",
			"error", err,
			"cause", cause,
			"topic", p.topic,
		)
		return
	}
	p.logger.WarnwCtx(ctx, "Kafka transaction aborted",
		"cause", cause,
		"topic", p.topic,
	)
}

func (p *TransactionalProducer) recordWritten(pm *sarama.ProducerMessage) {
	metrics.IncKafkaMessagesWritten(p.serviceName, p.topic)
	metrics.ObserveKafkaMessageSize(p.serviceName, p.topic, "out", pm.Value.Length())
}

// Ping refreshes metadata for the topic, which needs a live broker.
func (p *TransactionalProducer) Ping(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- p.client.RefreshMetadata(p.topic)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to refresh metadata for %s: %w", p.topic, err)
		}
		return nil
	}
}

func (p *TransactionalProducer) Topic() string {
	return p.topic
}

func (p *TransactionalProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if err := p.producer.Close(); err != nil {
		firstErr = fmt.Errorf("producer close error: %w", err)
	}
	if err := p.client.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("client close error: %w", err)
	}
	return firstErr
}
