package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ReadTimeoutSeconds: 10, WriteTimeoutSeconds: 10},
		Sink:   SinkConfig{Type: "memory", TimeoutMs: 5000},
		Broker: BrokerConfig{Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "greetings",
			GroupID: "greeting-consumer",
			Retry:   RetryConfig{Multiplier: 2},
		}},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9090\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Sink.Type)
	assert.Equal(t, 5*time.Second, cfg.Sink.Timeout())
	assert.Equal(t, "greetings", cfg.Broker.Kafka.Topic)
	assert.Equal(t, "2.8.0", cfg.Broker.Kafka.Version)
	assert.Equal(t, 5*time.Second, cfg.Broker.Kafka.MessageTimeout())
	assert.Equal(t, time.Second, cfg.Broker.Kafka.CommitInterval())
	assert.Equal(t, 100*time.Millisecond, cfg.Broker.Kafka.Retry.InitialInterval)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "sink:\n  type: memory\n")
	t.Setenv("SINK_TYPE", "Kafka")
	t.Setenv("BROKER_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("BROKER_KAFKA_TOPIC", "hello")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "kafka", cfg.Sink.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, "hello", cfg.Broker.Kafka.Topic)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid memory sink",
			mutate: func(*Config) {},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "unknown sink",
			mutate:  func(c *Config) { c.Sink.Type = "cassandra" },
			wantErr: "unknown sink type",
		},
		{
			name:    "postgres sink without connection",
			mutate:  func(c *Config) { c.Sink.Type = "postgres" },
			wantErr: "database.postgres",
		},
		{
			name: "postgres sink with url",
			mutate: func(c *Config) {
				c.Sink.Type = "postgres"
				c.Database.Postgres.URL = "postgres://u:p@localhost/db"
			},
		},
		{
			name: "kafka sink without brokers",
			mutate: func(c *Config) {
				c.Sink.Type = "kafka"
				c.Broker.Kafka.Brokers = nil
			},
			wantErr: "broker.kafka.brokers",
		},
		{
			name: "transactional id requires idempotence",
			mutate: func(c *Config) {
				c.Sink.Type = "kafka"
				c.Broker.Kafka.TransactionalID = "greeter-tx"
			},
			wantErr: "enable_idempotence",
		},
		{
			name: "dlq topic equals source",
			mutate: func(c *Config) {
				c.Consumer.Enabled = true
				c.Broker.Kafka.DLQTopic = "greetings"
			},
			wantErr: "dlq_topic",
		},
		{
			name:    "bad mongo uri",
			mutate:  func(c *Config) { c.Database.MongoDB.URI = "http://mongo" },
			wantErr: "mongodb://",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := ValidateStatic(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	assert.Equal(t, "postgres://x", PostgresConfig{URL: "postgres://x"}.PostgresDSN())
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=greeter sslmode=disable",
		PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "greeter"}.PostgresDSN(),
	)
}

func TestValidateConsumer(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, ValidateConsumer(cfg))

	cfg.Broker.Kafka.GroupID = ""
	err := ValidateConsumer(cfg)
	require.Error(t, err)

	var fieldErr *ValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "broker.kafka.group_id", fieldErr.Field)
}
