package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when this holder still owns it, so a
// slow callback whose lock already expired cannot free somebody else's hold.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

const defaultTTL = 30 * time.Second

// Locker serialises work across instances through a Redis key. The sweep of
// expired reservations runs on every worker; the lock makes sure only one
// instance reclaims stock per interval.
type Locker struct {
	Client       *redis.Client
	RetryBackoff time.Duration
}

// WithLock runs fn while holding key. Acquisition is retried with a fixed
// backoff until the context is cancelled; the lock is released when fn
// returns, regardless of its error.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.Client == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	backoff := l.RetryBackoff
	if backoff <= 0 {
		backoff = 50 * time.Millisecond
	}

	token := uuid.NewString()
	for {
		acquired, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if acquired {
			defer func() {
				_ = l.Client.Eval(context.Background(), releaseScript, []string{key}, token).Err()
			}()
			return fn(ctx)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
