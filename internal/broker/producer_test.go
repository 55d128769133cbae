package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greeter/internal/config"
	"greeter/internal/logger"
)

type fakeSyncProducer struct {
	mu        sync.Mutex
	calls     []string
	sent      []*sarama.ProducerMessage
	sendErr   error
	commitErr error
	block     chan struct{}
}

func (f *fakeSyncProducer) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSyncProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if f.block != nil {
		<-f.block
	}
	f.record("send")
	if f.sendErr != nil {
		return 0, 0, f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	offset := int64(len(f.sent) - 1)
	f.mu.Unlock()
	return 0, offset, nil
}

func (f *fakeSyncProducer) BeginTxn() error { f.record("begin"); return nil }

func (f *fakeSyncProducer) CommitTxn() error {
	f.record("commit")
	return f.commitErr
}

func (f *fakeSyncProducer) AbortTxn() error { f.record("abort"); return nil }
func (f *fakeSyncProducer) Close() error    { f.record("close"); return nil }

func (f *fakeSyncProducer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeMetadataClient struct {
	err error
}

func (f *fakeMetadataClient) RefreshMetadata(...string) error { return f.err }
func (f *fakeMetadataClient) Close() error                    { return nil }

func TestTransactionalProducer_Publish(t *testing.T) {
	fp := &fakeSyncProducer{}
	p := newTransactionalProducer(fp, &fakeMetadataClient{}, "greetings", true, logger.NopLogger())

	res, err := p.Publish(context.Background(), OutboundMessage{
		Key:     "g-1",
		Value:   []byte(`{"after":{"id":"g-1"}}`),
		Headers: map[string]string{"id": "g-1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "greetings", res.Topic)
	assert.Equal(t, []string{"begin", "send", "commit"}, fp.Calls())

	require.Len(t, fp.sent, 1)
	msg := fp.sent[0]
	key, _ := msg.Key.Encode()
	assert.Equal(t, "g-1", string(key))
	assert.Equal(t, "greetings", msg.Topic)

	headerKeys := make([]string, 0, len(msg.Headers))
	for _, h := range msg.Headers {
		headerKeys = append(headerKeys, string(h.Key))
	}
	assert.Contains(t, headerKeys, "id")
}

func TestTransactionalProducer_AbortsOnFailure(t *testing.T) {
	tests := []struct {
		name      string
		producer  *fakeSyncProducer
		wantCalls []string
	}{
		{
			name:      "send fails",
			producer:  &fakeSyncProducer{sendErr: errors.New("not leader for partition")},
			wantCalls: []string{"begin", "send", "abort"},
		},
		{
			name:      "commit fails",
			producer:  &fakeSyncProducer{commitErr: errors.New("producer fenced")},
			wantCalls: []string{"begin", "send", "commit", "abort"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTransactionalProducer(tt.producer, &fakeMetadataClient{}, "greetings", true, logger.NopLogger())

			_, err := p.Publish(context.Background(), OutboundMessage{Key: "g", Value: []byte("{}")})

			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, tt.producer.Calls())
		})
	}
}

func TestTransactionalProducer_NonTransactional(t *testing.T) {
	fp := &fakeSyncProducer{}
	p := newTransactionalProducer(fp, &fakeMetadataClient{}, "greetings", false, logger.NopLogger())

	_, err := p.Publish(context.Background(), OutboundMessage{Key: "g", Value: []byte("{}")})

	require.NoError(t, err)
	assert.Equal(t, []string{"send"}, fp.Calls())
}

func TestTransactionalProducer_ContextTimeout(t *testing.T) {
	fp := &fakeSyncProducer{block: make(chan struct{})}
	defer close(fp.block)
	p := newTransactionalProducer(fp, &fakeMetadataClient{}, "greetings", true, logger.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Publish(ctx, OutboundMessage{Key: "g", Value: []byte("{}")})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestTransactionalProducer_Ping(t *testing.T) {
	ok := newTransactionalProducer(&fakeSyncProducer{}, &fakeMetadataClient{}, "greetings", true, logger.NopLogger())
	assert.NoError(t, ok.Ping(context.Background()))

	down := newTransactionalProducer(&fakeSyncProducer{}, &fakeMetadataClient{err: sarama.ErrOutOfBrokers}, "greetings", true, logger.NopLogger())
	err := down.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func TestNewSaramaConfig(t *testing.T) {
	t.Run("transactional", func(t *testing.T) {
		sc, err := NewSaramaConfig(config.KafkaConfig{
			Brokers:           []string{"localhost:9092"},
			TransactionalID:   "greeter-tx",
			EnableIdempotence: true,
			MessageTimeoutMs:  5000,
		})
		require.NoError(t, err)

		assert.True(t, sc.Producer.Idempotent)
		assert.Equal(t, "greeter-tx", sc.Producer.Transaction.ID)
		assert.Equal(t, sarama.WaitForAll, sc.Producer.RequiredAcks)
		assert.Equal(t, 1, sc.Net.MaxOpenRequests)
		assert.Equal(t, 10, sc.Producer.Retry.Max)
		assert.Equal(t, 5*time.Second, sc.Producer.Timeout)
		assert.Equal(t, sarama.V2_8_0_0, sc.Version)
	})

	t.Run("plain", func(t *testing.T) {
		sc, err := NewSaramaConfig(config.KafkaConfig{Version: "3.6.0"})
		require.NoError(t, err)
		assert.False(t, sc.Producer.Idempotent)
		assert.Empty(t, sc.Producer.Transaction.ID)
	})

	t.Run("bad version", func(t *testing.T) {
		_, err := NewSaramaConfig(config.KafkaConfig{Version: "banana"})
		assert.Error(t, err)
	})
}
