// Package sequence holds sequence allocator backends that live outside the
// record store.
package sequence

import (
	"context"

	"github.com/redis/go-redis/v9"

	dErrors "census/pkg/domain-errors"
)

const redisSequenceKey = "census:household_seq"

// RedisAllocator issues household numbers with a Redis INCR, which is an
// atomic increment-and-fetch on the server. Useful when several instances
// share one Redis and the record store cannot host the counter.
type RedisAllocator struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed sequence allocator.
func NewRedis(client *redis.Client) *RedisAllocator {
	return &RedisAllocator{client: client}
}

func (a *RedisAllocator) Next(ctx context.Context) (int64, error) {
	next, err := a.client.Incr(ctx, redisSequenceKey).Result()
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeConflict, "could not commit sequence increment", err)
	}
	return next, nil
}
