package prices

import (
	"context"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/resilience"
)

// Guarded wraps a resolver with a circuit breaker so a struggling price store
// fails fast instead of piling up slow lookups.
type Guarded struct {
	Next    Resolver
	Breaker *resilience.Breaker
}

// Resolve consults the breaker before delegating. ErrPriceNotFound counts as a
// successful round trip since the store answered.
func (g Guarded) Resolve(ctx context.Context, fuelType fuel.Type, locationID string) (BasePrice, error) {
	if g.Breaker == nil {
		return g.Next.Resolve(ctx, fuelType, locationID)
	}
	if !g.Breaker.Allow(ctx) {
		return BasePrice{}, resilience.ErrOpenCircuit
	}
	price, err := g.Next.Resolve(ctx, fuelType, locationID)
	g.Breaker.Report(ctx, err == nil || err == ErrPriceNotFound)
	return price, err
}
