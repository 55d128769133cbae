package greeting

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"greeter/internal/broker"
	"greeter/internal/config"
	"greeter/internal/constants"
)

// Backends carries the connections opened at startup. Only the one matching
// sink.type needs to be set.
type Backends struct {
	DB        *sql.DB
	Redis     redis.UniversalClient
	Mongo     *mongo.Database
	Publisher broker.Publisher
}

// NewSink builds the configured sink and wraps it with the timeout, circuit
// breaker and metrics decorators, innermost first.
func NewSink(cfg *config.Config, backends Backends) (Sink, error) {
	base, err := newBaseSink(cfg.Sink.Type, backends)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Sink.Timeout()
	if timeout == 0 {
		timeout = constants.DefaultSinkTimeout
	}

	var sink Sink = WithTimeout(base, timeout)
	sink = NewCircuitBreakerSink(sink, cfg.CircuitBreaker)
	return WithMetrics(sink), nil
}

func newBaseSink(sinkType string, backends Backends) (Sink, error) {
	switch sinkType {
	case constants.SinkTypeMemory, "":
		return NewMemorySink(), nil
	case constants.SinkTypePostgres:
		if backends.DB == nil {
			return nil, fmt.Errorf("postgres sink requires a database connection")
		}
		return NewPostgresSink(backends.DB), nil
	case constants.SinkTypeRedis:
		if backends.Redis == nil {
			return nil, fmt.Errorf("redis sink requires a redis client")
		}
		return NewRedisSink(backends.Redis), nil
	case constants.SinkTypeMongoDB:
		if backends.Mongo == nil {
			return nil, fmt.Errorf("mongodb sink requires a database handle")
		}
		return NewMongoSink(backends.Mongo), nil
	case constants.SinkTypeKafka:
		if backends.Publisher == nil {
			return nil, fmt.Errorf("kafka sink requires a publisher")
		}
		return NewKafkaSink(backends.Publisher), nil
	default:
		return nil, fmt.Errorf("unknown sink type: %s", sinkType)
	}
}
