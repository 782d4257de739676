package fuel

import (
	"errors"
	"testing"
)

func TestParseNormalises(t *testing.T) {
	cases := map[string]Type{
		"PMS":  PMS,
		"pms":  PMS,
		" Ago": AGO,
		"IK":   IK,
		"ik ":  IK,
	}
	for input, want := range cases {
		got, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, input := range []string{"", "LPG", "petrol", "diesel"} {
		if _, err := Parse(input); !errors.Is(err, ErrUnknownFuelType) {
			t.Fatalf("Parse(%q): expected ErrUnknownFuelType, got %v", input, err)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := AGO.DisplayName(); got != "Automotive Gas Oil" {
		t.Fatalf("unexpected display name %q", got)
	}
	for _, ft := range All() {
		if !ft.Valid() {
			t.Fatalf("All() returned invalid type %q", ft)
		}
	}
}
