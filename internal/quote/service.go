package quote

import (
	"context"
	"errors"
	"time"

	"github.com/nyota-labs/backend-fuel/internal/delivery"
	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/prices"
	"github.com/nyota-labs/backend-fuel/internal/pricing"
)

// Input carries the order metadata needed to price a quote.
type Input struct {
	FuelType   fuel.Type
	Volume     int64
	LocationID string
	ZoneID     string
	Urgency    delivery.Urgency
}

// Breakdown is the composed pricing result for one quote. It is produced once
// and never mutated; re-quoting with changed inputs yields a fresh Breakdown.
type Breakdown struct {
	FuelType        fuel.Type          `json:"fuelType"`
	Volume          int64              `json:"volume"`
	LocationID      string             `json:"locationId"`
	BasePrice       pricing.Money      `json:"basePrice"`
	EffectiveDate   time.Time          `json:"effectiveDate"`
	Subtotal        pricing.Money      `json:"subtotal"`
	DiscountTier    string             `json:"discountTier"`
	DiscountRateBps int32              `json:"discountRateBps"`
	DiscountAmount  pricing.Money      `json:"discountAmount"`
	Delivery        delivery.Breakdown `json:"delivery"`
	Total           pricing.Money      `json:"total"`
}

// Service is the order pricing pipeline: price snapshot, bulk discount and
// delivery fee composed into one deterministic quote. It never touches the
// stock ledger, so quoting is safe at arbitrary concurrency.
type Service struct {
	Resolver  prices.Resolver
	Discounts *pricing.DiscountEngine
	Delivery  *delivery.Calculator
}

// Quote prices the order described by in. The bulk discount reduces the fuel
// subtotal and the volume step discount reduces the delivery fee; the two are
// independent, composable calculations.
func (s *Service) Quote(ctx context.Context, in Input) (Breakdown, error) {
	if s == nil || s.Resolver == nil || s.Discounts == nil || s.Delivery == nil {
		return Breakdown{}, errors.New("quote: service not configured")
	}
	if !in.FuelType.Valid() {
		return Breakdown{}, fuel.ErrUnknownFuelType
	}
	if in.Volume <= 0 {
		return Breakdown{}, pricing.ErrInvalidVolume
	}

	base, err := s.Resolver.Resolve(ctx, in.FuelType, in.LocationID)
	if err != nil {
		return Breakdown{}, err
	}
	tier, err := s.Discounts.TierFor(in.Volume)
	if err != nil {
		return Breakdown{}, err
	}
	fee, err := s.Delivery.Estimate(in.ZoneID, in.Volume, in.Urgency)
	if err != nil {
		return Breakdown{}, err
	}

	subtotal := base.Price * pricing.Money(in.Volume)
	discount := pricing.DiscountAmount(subtotal, tier.RateBps)
	return Breakdown{
		FuelType:        in.FuelType,
		Volume:          in.Volume,
		LocationID:      in.LocationID,
		BasePrice:       base.Price,
		EffectiveDate:   base.EffectiveDate,
		Subtotal:        subtotal,
		DiscountTier:    tier.Name,
		DiscountRateBps: tier.RateBps,
		DiscountAmount:  discount,
		Delivery:        fee,
		Total:           subtotal - discount + fee.FinalCost,
	}, nil
}

// NextTier exposes the incentive hint for upsell messaging.
func (s *Service) NextTier(volume int64) (*pricing.NextTierHint, error) {
	if s == nil || s.Discounts == nil {
		return nil, errors.New("quote: service not configured")
	}
	return s.Discounts.NextTier(volume)
}
