package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestKafkaChecker(t *testing.T) {
	t.Run("no brokers", func(t *testing.T) {
		assert.Error(t, NewKafkaChecker(nil).Check(context.Background()))
	})

	t.Run("all unreachable", func(t *testing.T) {
		c := NewKafkaChecker([]string{"k1:9092", "k2:9092"})
		c.dial = func(context.Context, string, string) (*kafka.Conn, error) {
			return nil, errors.New("connection refused")
		}

		err := c.Check(context.Background())
		assert.ErrorContains(t, err, "k1:9092")
		assert.ErrorContains(t, err, "k2:9092")
		assert.Equal(t, "kafka", c.Name())
	})
}
