package prices

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/pricing"
)

// ErrPriceNotFound is returned when no base price is published for the
// fuel type and location pair.
var ErrPriceNotFound = errors.New("prices: no base price for fuel type at location")

// BasePrice is a published per-litre price with its effective date.
// Prices are set administratively (EPRA-style) and refreshed out-of-band.
type BasePrice struct {
	Price         pricing.Money `json:"price"`
	EffectiveDate time.Time     `json:"effectiveDate"`
}

// Resolver looks up the current base price for a fuel type at a depot.
// A single quote performs exactly one Resolve call, so the quote can never
// straddle two different price snapshots.
type Resolver interface {
	Resolve(ctx context.Context, fuelType fuel.Type, locationID string) (BasePrice, error)
}

type priceKey struct {
	fuelType   fuel.Type
	locationID string
}

// Static is an in-memory price table used by tests and the seeder.
type Static struct {
	mu     sync.RWMutex
	prices map[priceKey]BasePrice
}

// NewStatic constructs an empty static price table.
func NewStatic() *Static {
	return &Static{prices: make(map[priceKey]BasePrice)}
}

// Set publishes a base price for the fuel type and location.
func (s *Static) Set(fuelType fuel.Type, locationID string, price BasePrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[priceKey{fuelType: fuelType, locationID: locationID}] = price
}

// Resolve implements Resolver.
func (s *Static) Resolve(_ context.Context, fuelType fuel.Type, locationID string) (BasePrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[priceKey{fuelType: fuelType, locationID: locationID}]
	if !ok {
		return BasePrice{}, ErrPriceNotFound
	}
	return price, nil
}
