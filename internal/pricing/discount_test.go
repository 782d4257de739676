package pricing

import (
	"errors"
	"testing"
)

func mustEngine(t *testing.T) *DiscountEngine {
	t.Helper()
	engine, err := NewDiscountEngine(DefaultTiers())
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return engine
}

func TestTierBoundaries(t *testing.T) {
	engine := mustEngine(t)
	cases := []struct {
		volume   int64
		wantName string
		wantBps  int32
	}{
		{1, "Retail", 0},
		{999, "Retail", 0},
		{1_000, "Small Bulk", 250},
		{4_999, "Small Bulk", 250},
		{5_000, "Medium Bulk", 500},
		{9_999, "Medium Bulk", 500},
		{10_000, "Large Bulk", 750},
		{24_999, "Large Bulk", 750},
		{25_000, "Commercial", 1_000},
		{1_000_000, "Commercial", 1_000},
	}
	for _, tc := range cases {
		tier, err := engine.TierFor(tc.volume)
		if err != nil {
			t.Fatalf("TierFor(%d): %v", tc.volume, err)
		}
		if tier.Name != tc.wantName || tier.RateBps != tc.wantBps {
			t.Fatalf("TierFor(%d) = %s/%d, want %s/%d", tc.volume, tier.Name, tier.RateBps, tc.wantName, tc.wantBps)
		}
	}
}

func TestTierForRejectsNonPositive(t *testing.T) {
	engine := mustEngine(t)
	for _, volume := range []int64{0, -1, -500} {
		if _, err := engine.TierFor(volume); !errors.Is(err, ErrInvalidVolume) {
			t.Fatalf("TierFor(%d): expected ErrInvalidVolume, got %v", volume, err)
		}
	}
}

func TestNextTierHint(t *testing.T) {
	engine := mustEngine(t)

	hint, err := engine.NextTier(800)
	if err != nil {
		t.Fatalf("NextTier(800): %v", err)
	}
	if hint == nil || hint.Tier.Name != "Small Bulk" || hint.AdditionalVolume != 200 {
		t.Fatalf("NextTier(800) = %+v, want Small Bulk +200", hint)
	}

	hint, err = engine.NextTier(24_999)
	if err != nil {
		t.Fatalf("NextTier(24999): %v", err)
	}
	if hint == nil || hint.Tier.Name != "Commercial" || hint.AdditionalVolume != 1 {
		t.Fatalf("NextTier(24999) = %+v, want Commercial +1", hint)
	}

	hint, err = engine.NextTier(30_000)
	if err != nil {
		t.Fatalf("NextTier(30000): %v", err)
	}
	if hint != nil {
		t.Fatalf("NextTier(30000) = %+v, want nil in top tier", hint)
	}
}

func TestNewDiscountEngineRejectsBadTables(t *testing.T) {
	cases := map[string][]Tier{
		"empty": nil,
		"first tier not at zero": {
			{Name: "A", MinVolume: 100, MaxVolume: -1, RateBps: 0},
		},
		"gap between tiers": {
			{Name: "A", MinVolume: 0, MaxVolume: 999, RateBps: 0},
			{Name: "B", MinVolume: 2_000, MaxVolume: -1, RateBps: 100},
		},
		"overlap between tiers": {
			{Name: "A", MinVolume: 0, MaxVolume: 999, RateBps: 0},
			{Name: "B", MinVolume: 500, MaxVolume: -1, RateBps: 100},
		},
		"bounded last tier": {
			{Name: "A", MinVolume: 0, MaxVolume: 999, RateBps: 0},
			{Name: "B", MinVolume: 1_000, MaxVolume: 2_000, RateBps: 100},
		},
		"unbounded middle tier": {
			{Name: "A", MinVolume: 0, MaxVolume: -1, RateBps: 0},
			{Name: "B", MinVolume: 1_000, MaxVolume: -1, RateBps: 100},
		},
		"negative rate": {
			{Name: "A", MinVolume: 0, MaxVolume: -1, RateBps: -10},
		},
	}
	for name, tiers := range cases {
		if _, err := NewDiscountEngine(tiers); !errors.Is(err, ErrInvalidTierConfig) {
			t.Fatalf("%s: expected ErrInvalidTierConfig, got %v", name, err)
		}
	}
}

func TestDiscountAmountTruncates(t *testing.T) {
	// 5% of 92,260,000 minor units.
	if got := DiscountAmount(92_260_000, 500); got != 4_613_000 {
		t.Fatalf("DiscountAmount = %d, want 4613000", got)
	}
	// Integer division truncates toward zero.
	if got := DiscountAmount(999, 250); got != 24 {
		t.Fatalf("DiscountAmount(999, 250) = %d, want 24", got)
	}
	if got := DiscountAmount(0, 500); got != 0 {
		t.Fatalf("DiscountAmount(0, 500) = %d, want 0", got)
	}
	if got := DiscountAmount(10_000, 0); got != 0 {
		t.Fatalf("DiscountAmount(10000, 0) = %d, want 0", got)
	}
}
