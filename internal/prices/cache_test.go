package prices_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/prices"
	"github.com/nyota-labs/backend-fuel/internal/pricing"
)

type countingResolver struct {
	inner *prices.Static
	calls int
}

func (c *countingResolver) Resolve(ctx context.Context, fuelType fuel.Type, locationID string) (prices.BasePrice, error) {
	c.calls++
	return c.inner.Resolve(ctx, fuelType, locationID)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedResolveReadThrough(t *testing.T) {
	mr, client := newRedis(t)

	static := prices.NewStatic()
	want := prices.BasePrice{Price: 18_452, EffectiveDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
	static.Set(fuel.PMS, "depot-a", want)
	counting := &countingResolver{inner: static}
	cached := prices.Cached{Next: counting, Client: client, TTL: 5 * time.Minute}

	ctx := context.Background()
	got, err := cached.Resolve(ctx, fuel.PMS, "depot-a")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, 1, counting.calls)

	// Second lookup is served from Redis.
	got, err = cached.Resolve(ctx, fuel.PMS, "depot-a")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, 1, counting.calls)

	// After the TTL lapses the resolver is consulted again.
	mr.FastForward(6 * time.Minute)
	_, err = cached.Resolve(ctx, fuel.PMS, "depot-a")
	require.NoError(t, err)
	require.Equal(t, 2, counting.calls)
}

func TestCachedResolveMissPassesThrough(t *testing.T) {
	_, client := newRedis(t)

	counting := &countingResolver{inner: prices.NewStatic()}
	cached := prices.Cached{Next: counting, Client: client, TTL: time.Minute}

	_, err := cached.Resolve(context.Background(), fuel.AGO, "depot-b")
	require.ErrorIs(t, err, prices.ErrPriceNotFound)
	require.Equal(t, 1, counting.calls)
}

func TestCachedResolveWithoutClient(t *testing.T) {
	static := prices.NewStatic()
	static.Set(fuel.IK, "depot-c", prices.BasePrice{Price: 14_990, EffectiveDate: time.Now()})
	cached := prices.Cached{Next: static}

	got, err := cached.Resolve(context.Background(), fuel.IK, "depot-c")
	require.NoError(t, err)
	require.Equal(t, pricing.Money(14_990), got.Price)
}
