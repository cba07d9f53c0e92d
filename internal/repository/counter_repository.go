package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/swiaape-api/pkg/cache"
)

// CounterRepository keeps fixed-window counters in Redis.
type CounterRepository struct {
	client    redis.Cmdable
	namespace string
}

// NewCounterRepository constructs a counter store under namespace.
func NewCounterRepository(client redis.Cmdable, namespace string) *CounterRepository {
	return &CounterRepository{client: client, namespace: namespace}
}

// Count returns the current value of the counter, zero when absent.
func (r *CounterRepository) Count(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Get(ctx, cache.Key(r.namespace, key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get counter: %w", err)
	}
	return n, nil
}

// Increment adds one to the counter. The window starts with the first
// increment and is not extended by later ones. Creating the key and its TTL
// happens in the same transaction as the increment, so a counter never
// outlives its window.
func (r *CounterRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := cache.Key(r.namespace, key)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, fullKey, 0, window)
		incr = pipe.Incr(ctx, fullKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis increment counter: %w", err)
	}
	return incr.Val(), nil
}
