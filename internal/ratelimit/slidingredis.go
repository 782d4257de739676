package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a single Take call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// SlidingWindow counts events per key in a rolling window backed by a Redis
// sorted set. Scores are event timestamps, so old events fall out of the
// window continuously instead of resetting in fixed buckets.
type SlidingWindow struct {
	Client *redis.Client
	Prefix string
}

// Take records one event for key and reports whether it fits the limit. A nil
// client or non-positive limit disables enforcement.
func (s SlidingWindow) Take(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	resetAt := time.Now().Add(window)
	if s.Client == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, ResetAt: resetAt}, nil
	}

	now := time.Now()
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	entry := redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()}
	bucket := s.Prefix + key

	pipe := s.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, bucket, "-inf", cutoff)
	pipe.ZAdd(ctx, bucket, entry)
	count := pipe.ZCard(ctx, bucket)
	pipe.Expire(ctx, bucket, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: resetAt}, err
	}

	taken := int(count.Val())
	remaining := max - taken
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: taken <= max, Remaining: remaining, ResetAt: resetAt}, nil
}
