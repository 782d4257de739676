package pricing

import (
	"errors"
	"fmt"
)

// Money represents a monetary value stored in minor units.
type Money = int64

var (
	// ErrInvalidVolume is returned when a caller asks to price a non-positive volume.
	ErrInvalidVolume = errors.New("pricing: volume must be greater than zero")
	// ErrInvalidTierConfig indicates the discount tier table is malformed.
	ErrInvalidTierConfig = errors.New("pricing: invalid discount tier configuration")
)

// Tier is a closed volume bracket granting a bulk discount off the fuel subtotal.
// MaxVolume < 0 marks the bracket as unbounded.
type Tier struct {
	Name      string `json:"name"`
	MinVolume int64  `json:"minVolume"`
	MaxVolume int64  `json:"maxVolume"`
	RateBps   int32  `json:"rateBps"`
}

// Unbounded reports whether the tier has no upper volume bound.
func (t Tier) Unbounded() bool { return t.MaxVolume < 0 }

// Contains reports whether volume falls inside the tier bracket. Both bounds are inclusive.
func (t Tier) Contains(volume int64) bool {
	if volume < t.MinVolume {
		return false
	}
	return t.Unbounded() || volume <= t.MaxVolume
}

// DiscountEngine resolves order volumes to bulk discount tiers.
// The tier table is validated once at construction and immutable afterwards.
type DiscountEngine struct {
	tiers []Tier
}

// NewDiscountEngine validates the tier table and constructs an engine.
// Tiers must partition [0, inf): sorted, contiguous, first bracket starting at
// zero, only the last bracket unbounded.
func NewDiscountEngine(tiers []Tier) (*DiscountEngine, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers configured", ErrInvalidTierConfig)
	}
	if tiers[0].MinVolume != 0 {
		return nil, fmt.Errorf("%w: first tier must start at volume 0", ErrInvalidTierConfig)
	}
	for i, tier := range tiers {
		if tier.RateBps < 0 {
			return nil, fmt.Errorf("%w: tier %q has negative rate", ErrInvalidTierConfig, tier.Name)
		}
		last := i == len(tiers)-1
		if last {
			if !tier.Unbounded() {
				return nil, fmt.Errorf("%w: last tier %q must be unbounded", ErrInvalidTierConfig, tier.Name)
			}
			continue
		}
		if tier.Unbounded() {
			return nil, fmt.Errorf("%w: tier %q is unbounded but not last", ErrInvalidTierConfig, tier.Name)
		}
		if tier.MaxVolume < tier.MinVolume {
			return nil, fmt.Errorf("%w: tier %q has max below min", ErrInvalidTierConfig, tier.Name)
		}
		if next := tiers[i+1]; next.MinVolume != tier.MaxVolume+1 {
			return nil, fmt.Errorf("%w: gap or overlap between %q and %q", ErrInvalidTierConfig, tier.Name, next.Name)
		}
	}
	owned := make([]Tier, len(tiers))
	copy(owned, tiers)
	return &DiscountEngine{tiers: owned}, nil
}

// DefaultTiers returns the standard bulk discount table.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "Retail", MinVolume: 0, MaxVolume: 999, RateBps: 0},
		{Name: "Small Bulk", MinVolume: 1_000, MaxVolume: 4_999, RateBps: 250},
		{Name: "Medium Bulk", MinVolume: 5_000, MaxVolume: 9_999, RateBps: 500},
		{Name: "Large Bulk", MinVolume: 10_000, MaxVolume: 24_999, RateBps: 750},
		{Name: "Commercial", MinVolume: 25_000, MaxVolume: -1, RateBps: 1_000},
	}
}

// TierFor selects the unique tier bracketing the given volume in litres.
func (e *DiscountEngine) TierFor(volume int64) (Tier, error) {
	if volume <= 0 {
		return Tier{}, ErrInvalidVolume
	}
	for _, tier := range e.tiers {
		if tier.Contains(volume) {
			return tier, nil
		}
	}
	// Unreachable for a validated table; last tier is unbounded.
	return Tier{}, fmt.Errorf("%w: no tier for volume %d", ErrInvalidTierConfig, volume)
}

// NextTierHint describes how far an order is from the next discount bracket.
type NextTierHint struct {
	Tier             Tier
	AdditionalVolume int64
}

// NextTier returns the next-higher tier and the additional litres required to
// reach it. It returns nil when volume already sits in the top tier.
func (e *DiscountEngine) NextTier(volume int64) (*NextTierHint, error) {
	if volume <= 0 {
		return nil, ErrInvalidVolume
	}
	for i, tier := range e.tiers {
		if !tier.Contains(volume) {
			continue
		}
		if i == len(e.tiers)-1 {
			return nil, nil
		}
		next := e.tiers[i+1]
		return &NextTierHint{Tier: next, AdditionalVolume: next.MinVolume - volume}, nil
	}
	return nil, fmt.Errorf("%w: no tier for volume %d", ErrInvalidTierConfig, volume)
}

// Tiers returns a copy of the validated tier table.
func (e *DiscountEngine) Tiers() []Tier {
	out := make([]Tier, len(e.tiers))
	copy(out, e.tiers)
	return out
}

// DiscountAmount applies the tier rate to the fuel subtotal.
func DiscountAmount(subtotal Money, rateBps int32) Money {
	if subtotal <= 0 || rateBps <= 0 {
		return 0
	}
	return subtotal * Money(rateBps) / 10_000
}
