package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
)

// Cached wraps a Resolver with a Redis read-through cache. Published prices
// change rarely (regulator cadence), so a short TTL keeps lookups cheap
// without risking a stale quote straddling a price revision for long.
type Cached struct {
	Next   Resolver
	Client *redis.Client
	TTL    time.Duration
}

func cacheKey(fuelType fuel.Type, locationID string) string {
	return fmt.Sprintf("prices:%s:%s", fuelType, locationID)
}

// Resolve implements Resolver. Cache failures fall through to the wrapped
// resolver; a quote must never fail because the cache is down.
func (c Cached) Resolve(ctx context.Context, fuelType fuel.Type, locationID string) (BasePrice, error) {
	if c.Client == nil || c.TTL <= 0 {
		return c.Next.Resolve(ctx, fuelType, locationID)
	}
	key := cacheKey(fuelType, locationID)
	if data, err := c.Client.Get(ctx, key).Bytes(); err == nil {
		var cached BasePrice
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}
	price, err := c.Next.Resolve(ctx, fuelType, locationID)
	if err != nil {
		return BasePrice{}, err
	}
	if data, err := json.Marshal(price); err == nil {
		_ = c.Client.Set(ctx, key, data, c.TTL).Err()
	}
	return price, nil
}
