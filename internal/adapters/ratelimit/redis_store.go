package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/carefinder/pkg/ratelimit"
)

const redisKeyPrefix = "ratelimit:professional-search:"

// RedisStore shares limiter entries between instances. Entries expire once
// neither gate could still deny based on them.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a store whose keys live for the longer of the window
// and the minimum interval.
func NewRedisStore(client redis.UniversalClient, cfg ratelimit.Config) *RedisStore {
	return &RedisStore{client: client, ttl: max(cfg.Window, cfg.MinInterval)}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*ratelimit.Entry, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit entry: %w", err)
	}

	var entry ratelimit.Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode rate limit entry: %w", err)
	}
	return &entry, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, entry ratelimit.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode rate limit entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store rate limit entry: %w", err)
	}
	return nil
}
