package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultKafkaVersion       = "2.8.0"
	DefaultKafkaClientID      = "greeter"
	DefaultMessageTimeout     = 5 * time.Second
	DefaultCommitInterval     = time.Second
	DefaultProducerMaxRetries = 10
	KafkaFetchErrorBackoff    = time.Second
)

const (
	DefaultTopic   = "greetings"
	DefaultGroupID = "greeting-consumer"
)

const (
	DefaultMongoDBName         = "greeter"
	MongoGreetingsCollection   = "greetings"
	RedisGreetingKeyPrefix     = "greeting:"
	RedisGreetingIndexKey      = "greetings"
	PostgresMaxOpenConnections = 100
)

const (
	DefaultSinkTimeout = 5 * time.Second
	ShutdownTimeout    = 5 * time.Second
	StartupTimeout     = 30 * time.Second
)

const (
	SinkTypeMemory   = "memory"
	SinkTypePostgres = "postgres"
	SinkTypeRedis    = "redis"
	SinkTypeMongoDB  = "mongodb"
	SinkTypeKafka    = "kafka"
)

const (
	EventReceived = "received"
	EventStored   = "stored"
)

const (
	HeaderGreetingID     = "id"
	HeaderDLQReason      = "dlq_reason"
	HeaderDLQSourceTopic = "dlq_source_topic"
	HeaderDLQOffset      = "dlq_offset"
	HeaderDLQPartition   = "dlq_partition"
)

const (
	ServiceNameGreeting = "greeting-service"
	ServiceNameConsumer = "greeting-consumer"
)

const (
	DLQReasonMalformed     = "malformed_payload"
	DLQReasonHandlerFailed = "handler_failed"
)
