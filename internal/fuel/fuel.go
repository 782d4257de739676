package fuel

import (
	"errors"
	"strings"
)

// ErrUnknownFuelType is returned when a request names a fuel type outside the catalogue.
var ErrUnknownFuelType = errors.New("fuel: unknown fuel type")

// Type identifies one of the fuel products sold by the platform.
type Type string

const (
	// PMS is Premium Motor Spirit (petrol).
	PMS Type = "PMS"
	// AGO is Automotive Gas Oil (diesel).
	AGO Type = "AGO"
	// IK is Illuminating Kerosene.
	IK Type = "IK"
)

// All returns the closed set of supported fuel types.
func All() []Type {
	return []Type{PMS, AGO, IK}
}

// Parse normalises and validates a fuel type identifier.
func Parse(value string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(value))) {
	case PMS:
		return PMS, nil
	case AGO:
		return AGO, nil
	case IK:
		return IK, nil
	default:
		return "", ErrUnknownFuelType
	}
}

// Valid reports whether t is a member of the closed fuel type set.
func (t Type) Valid() bool {
	switch t {
	case PMS, AGO, IK:
		return true
	default:
		return false
	}
}

// DisplayName returns the long-form product name used on receipts and dashboards.
func (t Type) DisplayName() string {
	switch t {
	case PMS:
		return "Premium Motor Spirit"
	case AGO:
		return "Automotive Gas Oil"
	case IK:
		return "Illuminating Kerosene"
	default:
		return string(t)
	}
}
