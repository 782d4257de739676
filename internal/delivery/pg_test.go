package delivery

import "testing"

func TestZonesOrDefault(t *testing.T) {
	got := ZonesOrDefault(nil)
	want := DefaultZones()
	if len(got) != len(want) {
		t.Fatalf("empty load produced %d zones, want compiled-in %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("zone %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if _, err := NewCalculator(got); err != nil {
		t.Fatalf("compiled-in fallback rejected: %v", err)
	}

	seeded := []Zone{{ID: "pilot", Name: "Pilot Zone", BaseCost: 1_000}}
	kept := ZonesOrDefault(seeded)
	if len(kept) != 1 || kept[0] != seeded[0] {
		t.Fatalf("seeded table replaced by defaults: %+v", kept)
	}
}

func TestSeededZonesStillValidated(t *testing.T) {
	// A duplicate id in the database table must abort startup.
	broken := []Zone{
		{ID: "cbd", Name: "CBD", BaseCost: 0},
		{ID: "cbd", Name: "CBD again", BaseCost: 100},
	}
	if _, err := NewCalculator(ZonesOrDefault(broken)); err == nil {
		t.Fatal("expected validation error for duplicate zone ids")
	}
}
