package greeting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"greeter/internal/constants"
	"greeter/pkg/models"
)

const redisMGetBatch = 500

// RedisSink stores each greeting as JSON under greeting:<id> and appends the
// id to a list that preserves insertion order.
type RedisSink struct {
	client    redis.UniversalClient
	keyPrefix string
	indexKey  string
}

func NewRedisSink(client redis.UniversalClient) *RedisSink {
	return &RedisSink{
		client:    client,
		keyPrefix: constants.RedisGreetingKeyPrefix,
		indexKey:  constants.RedisGreetingIndexKey,
	}
}

func (s *RedisSink) Name() string {
	return constants.SinkTypeRedis
}

func (s *RedisSink) Store(ctx context.Context, g *Greeting) error {
	data, err := json.Marshal(g.ToRecord())
	if err != nil {
		return NewSinkError(s.Name(), OpStore, KindPersistence, fmt.Errorf("failed to encode greeting: %w", err))
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.keyPrefix+g.ID, data, 0)
		pipe.RPush(ctx, s.indexKey, g.ID)
		return nil
	})
	if err != nil {
		return NewSinkError(s.Name(), OpStore, KindPersistence, fmt.Errorf("failed to store greeting: %w", err))
	}
	return nil
}

func (s *RedisSink) All(ctx context.Context) ([]Greeting, error) {
	ids, err := s.client.LRange(ctx, s.indexKey, 0, -1).Result()
	if err != nil {
		return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("failed to read index: %w", err))
	}

	greetings := make([]Greeting, 0, len(ids))
	for start := 0; start < len(ids); start += redisMGetBatch {
		end := start + redisMGetBatch
		if end > len(ids) {
			end = len(ids)
		}

		keys := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			keys = append(keys, s.keyPrefix+id)
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("failed to read greetings: %w", err))
		}

		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				// Index entry without a value; skip rather than fail the listing.
				continue
			}
			var record models.GreetingRecord
			if err := json.Unmarshal([]byte(raw), &record); err != nil {
				return nil, NewSinkError(s.Name(), OpAll, KindPersistence, fmt.Errorf("failed to decode %s: %w", keys[i], err))
			}
			greetings = append(greetings, FromRecord(record))
		}
	}

	return greetings, nil
}

func (s *RedisSink) CheckLiveness(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return NewSinkError(s.Name(), OpPing, KindPersistence, err)
	}
	return nil
}
