package greeting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greeter/internal/config"
	"greeter/internal/constants"
)

func TestNewSink(t *testing.T) {
	tests := []struct {
		name     string
		sinkType string
		backends Backends
		wantName string
		wantErr  string
	}{
		{name: "memory", sinkType: constants.SinkTypeMemory, wantName: "memory"},
		{name: "default is memory", sinkType: "", wantName: "memory"},
		{name: "kafka", sinkType: constants.SinkTypeKafka, backends: Backends{Publisher: &fakePublisher{}}, wantName: "kafka"},
		{name: "kafka without publisher", sinkType: constants.SinkTypeKafka, wantErr: "requires a publisher"},
		{name: "postgres without db", sinkType: constants.SinkTypePostgres, wantErr: "requires a database connection"},
		{name: "redis without client", sinkType: constants.SinkTypeRedis, wantErr: "requires a redis client"},
		{name: "mongodb without handle", sinkType: constants.SinkTypeMongoDB, wantErr: "requires a database handle"},
		{name: "unknown", sinkType: "cassandra", wantErr: "unknown sink type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Sink: config.SinkConfig{Type: tt.sinkType}}
			sink, err := NewSink(cfg, tt.backends)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, sink.Name())
			assert.NoError(t, sink.CheckLiveness(context.Background()))
		})
	}
}

func TestNewSink_ClosesThroughDecorators(t *testing.T) {
	pub := &fakePublisher{}
	cfg := &config.Config{
		Sink:           config.SinkConfig{Type: constants.SinkTypeKafka, TimeoutMs: 100},
		CircuitBreaker: config.CircuitBreakerConfig{Enabled: true},
	}

	sink, err := NewSink(cfg, Backends{Publisher: pub})
	require.NoError(t, err)

	closer, ok := sink.(Closer)
	require.True(t, ok)
	require.NoError(t, closer.Close())
	assert.True(t, pub.closed)
}
