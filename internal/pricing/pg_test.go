package pricing

import "testing"

func TestTiersOrDefault(t *testing.T) {
	got := TiersOrDefault(nil)
	want := DefaultTiers()
	if len(got) != len(want) {
		t.Fatalf("empty load produced %d tiers, want compiled-in %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tier %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	// The substituted table must satisfy the engine's validation.
	if _, err := NewDiscountEngine(got); err != nil {
		t.Fatalf("compiled-in fallback rejected: %v", err)
	}

	seeded := []Tier{
		{Name: "Flat", MinVolume: 0, MaxVolume: -1, RateBps: 100},
	}
	kept := TiersOrDefault(seeded)
	if len(kept) != 1 || kept[0] != seeded[0] {
		t.Fatalf("seeded table replaced by defaults: %+v", kept)
	}
}

func TestSeededTiersStillValidated(t *testing.T) {
	// A database table with a gap must abort startup, not silently fall back.
	broken := []Tier{
		{Name: "Retail", MinVolume: 0, MaxVolume: 999, RateBps: 0},
		{Name: "Bulk", MinVolume: 2_000, MaxVolume: -1, RateBps: 500},
	}
	if _, err := NewDiscountEngine(TiersOrDefault(broken)); err == nil {
		t.Fatal("expected validation error for a gapped tier table")
	}
}
