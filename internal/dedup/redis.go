package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisChecker shares duplicate detection across processes.
// Key format: dedup:<session>:<form>:<answers hash>
type RedisChecker struct {
	client *redis.Client
}

func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

func (r *RedisChecker) Seen(ctx context.Context, key string, window time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, redisKey(key), "1", window).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return !ok, nil
}

func (r *RedisChecker) Forget(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("dedup forget: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return "dedup:" + key
}
