package app

import (
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewLimiterStore wires a rate limiter store backed by Redis.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{})
}

// NewGlobalLimiter builds the coarse per-client limiter applied to the whole
// API surface. Endpoint-specific limits are layered on top of it.
func NewGlobalLimiter(store limiter.Store, max int64, period time.Duration) *limiter.Limiter {
	return limiter.New(store, limiter.Rate{Period: period, Limit: max})
}

// RunMigrations exposes migrate for startup routines.
func RunMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
