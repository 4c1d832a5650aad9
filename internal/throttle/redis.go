package throttle

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"docverify/pkg/requestcontext"
)

const keyPrefix = "throttle:"

// RedisLimiter shares windows across instances. Each window gets its own key
// so a failed EXPIRE can never extend a window past its end.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	start := windowStart(requestcontext.Now(ctx), l.window)
	redisKey := keyPrefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("count submission: %w", err)
	}
	return result(incr.Val(), l.limit, start.Add(l.window)), nil
}
