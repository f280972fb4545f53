package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourorg/paper-trade/internal/domain"
)

// RedisStore is the shared cache backend, used when several instances should
// see the same quotes. Last writer wins; quotes are refreshed, not
// accumulated.
type RedisStore struct {
	client *redis.Client
}

func ConnectRedis(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, symbol string) (*domain.Quote, error) {
	val, err := s.client.Get(ctx, "quote:"+symbol).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get quote: %w", err)
	}
	var q domain.Quote
	if err := json.Unmarshal([]byte(val), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *RedisStore) Set(ctx context.Context, symbol string, q domain.Quote, ttl time.Duration) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "quote:"+symbol, data, ttl).Err()
}
