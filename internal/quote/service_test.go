package quote_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nyota-labs/backend-fuel/internal/delivery"
	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/prices"
	"github.com/nyota-labs/backend-fuel/internal/pricing"
	"github.com/nyota-labs/backend-fuel/internal/quote"
)

func newService(t *testing.T) (*quote.Service, *prices.Static) {
	t.Helper()
	discounts, err := pricing.NewDiscountEngine(pricing.DefaultTiers())
	require.NoError(t, err)
	calc, err := delivery.NewCalculator(delivery.DefaultZones())
	require.NoError(t, err)
	resolver := prices.NewStatic()
	return &quote.Service{Resolver: resolver, Discounts: discounts, Delivery: calc}, resolver
}

func TestQuoteGoldenBreakdown(t *testing.T) {
	svc, resolver := newService(t)
	effective := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	resolver.Set(fuel.PMS, "depot-industrial-a", prices.BasePrice{Price: 18_452, EffectiveDate: effective})

	got, err := svc.Quote(context.Background(), quote.Input{
		FuelType:   fuel.PMS,
		Volume:     5_000,
		LocationID: "depot-industrial-a",
		ZoneID:     "cbd",
		Urgency:    delivery.UrgencyStandard,
	})
	require.NoError(t, err)

	require.Equal(t, pricing.Money(92_260_000), got.Subtotal)
	require.Equal(t, "Medium Bulk", got.DiscountTier)
	require.Equal(t, int32(500), got.DiscountRateBps)
	require.Equal(t, pricing.Money(4_613_000), got.DiscountAmount)
	require.Equal(t, pricing.Money(0), got.Delivery.FinalCost)
	require.Equal(t, pricing.Money(87_647_000), got.Total)
	require.Equal(t, effective, got.EffectiveDate)
}

func TestQuoteIsDeterministic(t *testing.T) {
	svc, resolver := newService(t)
	resolver.Set(fuel.AGO, "depot-westlands", prices.BasePrice{Price: 17_128, EffectiveDate: time.Now()})

	in := quote.Input{
		FuelType:   fuel.AGO,
		Volume:     12_500,
		LocationID: "depot-westlands",
		ZoneID:     "westlands",
		Urgency:    delivery.UrgencyExpress,
	}
	first, err := svc.Quote(context.Background(), in)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := svc.Quote(context.Background(), in)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestQuoteComposesDeliveryFee(t *testing.T) {
	svc, resolver := newService(t)
	resolver.Set(fuel.IK, "depot-thika-road", prices.BasePrice{Price: 14_990, EffectiveDate: time.Now()})

	got, err := svc.Quote(context.Background(), quote.Input{
		FuelType:   fuel.IK,
		Volume:     500,
		LocationID: "depot-thika-road",
		ZoneID:     "karen",
		Urgency:    delivery.UrgencyEmergency,
	})
	require.NoError(t, err)

	subtotal := pricing.Money(14_990 * 500)
	require.Equal(t, subtotal, got.Subtotal)
	require.Equal(t, "Retail", got.DiscountTier)
	require.Equal(t, pricing.Money(0), got.DiscountAmount)
	require.Equal(t, pricing.Money(160_000), got.Delivery.FinalCost)
	require.Equal(t, subtotal+160_000, got.Total)
}

func TestQuoteErrors(t *testing.T) {
	svc, resolver := newService(t)
	resolver.Set(fuel.PMS, "depot-industrial-a", prices.BasePrice{Price: 18_452, EffectiveDate: time.Now()})

	base := quote.Input{
		FuelType:   fuel.PMS,
		Volume:     1_000,
		LocationID: "depot-industrial-a",
		ZoneID:     "cbd",
		Urgency:    delivery.UrgencyStandard,
	}

	bad := base
	bad.FuelType = fuel.Type("LPG")
	_, err := svc.Quote(context.Background(), bad)
	require.ErrorIs(t, err, fuel.ErrUnknownFuelType)

	bad = base
	bad.Volume = 0
	_, err = svc.Quote(context.Background(), bad)
	require.ErrorIs(t, err, pricing.ErrInvalidVolume)

	bad = base
	bad.ZoneID = "atlantis"
	_, err = svc.Quote(context.Background(), bad)
	require.ErrorIs(t, err, delivery.ErrUnknownZone)

	bad = base
	bad.Urgency = delivery.Urgency("same-day")
	_, err = svc.Quote(context.Background(), bad)
	require.ErrorIs(t, err, delivery.ErrUnknownUrgency)

	bad = base
	bad.LocationID = "depot-nowhere"
	_, err = svc.Quote(context.Background(), bad)
	require.True(t, errors.Is(err, prices.ErrPriceNotFound))
}

func TestNextTierHint(t *testing.T) {
	svc, _ := newService(t)
	hint, err := svc.NextTier(4_000)
	require.NoError(t, err)
	require.NotNil(t, hint)
	require.Equal(t, "Medium Bulk", hint.Tier.Name)
	require.Equal(t, int64(1_000), hint.AdditionalVolume)

	hint, err = svc.NextTier(25_000)
	require.NoError(t, err)
	require.Nil(t, hint)
}
