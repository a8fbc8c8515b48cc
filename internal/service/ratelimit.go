package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOTPLimiter counts code requests per email in a rolling one-hour
// window backed by a redis counter with TTL.
type RedisOTPLimiter struct {
	rdb *redis.Client
	max int
}

func NewRedisOTPLimiter(rdb *redis.Client, maxPerHour int) *RedisOTPLimiter {
	return &RedisOTPLimiter{rdb: rdb, max: maxPerHour}
}

func (l *RedisOTPLimiter) Allow(ctx context.Context, email string) (bool, error) {
	key := "otp:req:" + email
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, time.Hour).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(l.max), nil
}

var _ OTPLimiter = (*RedisOTPLimiter)(nil)
