package broker

import (
	"fmt"

	"greeter/internal/config"
	"greeter/internal/logger"
)

func NewPublisher(cfg config.KafkaConfig, log logger.Logger) (Publisher, error) {
	producer, err := NewTransactionalProducer(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

func NewConsumer(cfg config.KafkaConfig, log logger.Logger) (Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	return NewKafkaConsumer(cfg, log), nil
}
