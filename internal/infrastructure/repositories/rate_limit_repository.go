package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kugather/signup-verification/internal/core/ports"
)

// RateLimitRedisRepository implements fixed-window counters with Redis.
type RateLimitRedisRepository struct {
	r      redis.Cmdable
	prefix string
	now    func() time.Time
}

func NewRateLimitRedisRepository(r redis.Cmdable, prefix string) *RateLimitRedisRepository {
	return &RateLimitRedisRepository{r: r, prefix: prefix, now: time.Now}
}

var _ ports.RateLimitRepository = (*RateLimitRedisRepository)(nil)

// IncrementWindow increments the counter for key in the window containing now.
func (repo *RateLimitRedisRepository) IncrementWindow(ctx context.Context, key string, window time.Duration, ttl time.Duration) (int, time.Time, error) {
	windowStart := repo.now().Truncate(window)
	redisKey := fmt.Sprintf("%s:%s:%d", repo.prefix, key, windowStart.Unix())
	pipe := repo.r.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, windowStart, err
	}
	return int(incr.Val()), windowStart, nil
}
