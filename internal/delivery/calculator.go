package delivery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyota-labs/backend-fuel/internal/pricing"
)

var (
	// ErrInvalidVolume is returned when an estimate is requested for a non-positive volume.
	ErrInvalidVolume = errors.New("delivery: volume must be greater than zero")
	// ErrUnknownZone is returned when the destination zone is not configured.
	ErrUnknownZone = errors.New("delivery: unknown delivery zone")
	// ErrUnknownUrgency is returned for urgency levels outside the closed set.
	ErrUnknownUrgency = errors.New("delivery: unknown urgency level")
	// ErrInvalidZoneConfig indicates the zone table is malformed.
	ErrInvalidZoneConfig = errors.New("delivery: invalid zone configuration")
)

// Urgency is the closed set of delivery urgency levels.
type Urgency string

const (
	UrgencyStandard  Urgency = "standard"
	UrgencyExpress   Urgency = "express"
	UrgencyEmergency Urgency = "emergency"
)

// ParseUrgency normalises and validates an urgency level. An empty value
// defaults to standard delivery.
func ParseUrgency(value string) (Urgency, error) {
	switch Urgency(strings.ToLower(strings.TrimSpace(value))) {
	case UrgencyStandard, "":
		return UrgencyStandard, nil
	case UrgencyExpress:
		return UrgencyExpress, nil
	case UrgencyEmergency:
		return UrgencyEmergency, nil
	default:
		return "", ErrUnknownUrgency
	}
}

// MultiplierBps returns the urgency cost multiplier in basis points.
// Every level multiplies the base cost by at least 1x.
func (u Urgency) MultiplierBps() int64 {
	switch u {
	case UrgencyExpress:
		return 15_000
	case UrgencyEmergency:
		return 20_000
	default:
		return 10_000
	}
}

// Zone is a geographic delivery bucket with its own base fee.
// FreeDeliveryThreshold of zero disables the free delivery override.
type Zone struct {
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	BaseCost              pricing.Money `json:"baseCost"`
	EstimatedTime         string        `json:"estimatedTime"`
	FreeDeliveryThreshold int64         `json:"freeDeliveryThreshold"`
}

// volumeStep maps a minimum order volume to a discount on the urgency cost.
type volumeStep struct {
	minVolume   int64
	discountBps int64
}

// Steps are checked highest first; the first match wins.
var defaultVolumeSteps = []volumeStep{
	{minVolume: 25_000, discountBps: 3_000},
	{minVolume: 10_000, discountBps: 2_000},
	{minVolume: 5_000, discountBps: 1_000},
}

// Breakdown reports every component of a delivery fee so the quote stays
// transparent even when the free delivery override zeroes the final cost.
type Breakdown struct {
	ZoneID            string        `json:"zoneId"`
	ZoneName          string        `json:"zoneName"`
	Urgency           Urgency       `json:"urgency"`
	BaseCost          pricing.Money `json:"baseCost"`
	UrgencyCost       pricing.Money `json:"urgencyCost"`
	VolumeDiscountBps int64         `json:"volumeDiscountBps"`
	VolumeDiscount    pricing.Money `json:"volumeDiscount"`
	FinalCost         pricing.Money `json:"finalCost"`
	IsFreeDelivery    bool          `json:"isFreeDelivery"`
	EstimatedTime     string        `json:"estimatedTime"`
}

// Calculator estimates delivery fees from an immutable zone table.
type Calculator struct {
	zones map[string]Zone
}

// NewCalculator validates the zone table and constructs a calculator.
func NewCalculator(zones []Zone) (*Calculator, error) {
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: no zones configured", ErrInvalidZoneConfig)
	}
	index := make(map[string]Zone, len(zones))
	for _, zone := range zones {
		id := strings.TrimSpace(zone.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: zone with empty id", ErrInvalidZoneConfig)
		}
		if _, exists := index[id]; exists {
			return nil, fmt.Errorf("%w: duplicate zone %q", ErrInvalidZoneConfig, id)
		}
		if zone.BaseCost < 0 {
			return nil, fmt.Errorf("%w: zone %q has negative base cost", ErrInvalidZoneConfig, id)
		}
		if zone.FreeDeliveryThreshold < 0 {
			return nil, fmt.Errorf("%w: zone %q has negative free delivery threshold", ErrInvalidZoneConfig, id)
		}
		index[id] = zone
	}
	return &Calculator{zones: index}, nil
}

// DefaultZones returns the standard Nairobi delivery zone table.
func DefaultZones() []Zone {
	return []Zone{
		{ID: "cbd", Name: "CBD", BaseCost: 0, EstimatedTime: "2-4 hours"},
		{ID: "westlands", Name: "Westlands", BaseCost: 50_000, EstimatedTime: "3-5 hours", FreeDeliveryThreshold: 10_000},
		{ID: "industrial-area", Name: "Industrial Area", BaseCost: 30_000, EstimatedTime: "2-4 hours", FreeDeliveryThreshold: 5_000},
		{ID: "karen", Name: "Karen", BaseCost: 80_000, EstimatedTime: "4-6 hours", FreeDeliveryThreshold: 15_000},
		{ID: "thika-road", Name: "Thika Road", BaseCost: 60_000, EstimatedTime: "4-6 hours", FreeDeliveryThreshold: 10_000},
	}
}

// Zone looks up a configured zone by identifier.
func (c *Calculator) Zone(id string) (Zone, error) {
	zone, ok := c.zones[strings.TrimSpace(id)]
	if !ok {
		return Zone{}, ErrUnknownZone
	}
	return zone, nil
}

// Zones returns the configured zone table.
func (c *Calculator) Zones() []Zone {
	out := make([]Zone, 0, len(c.zones))
	for _, zone := range c.zones {
		out = append(out, zone)
	}
	return out
}

// Estimate computes the delivery fee for a volume (litres) into a zone at the
// given urgency. The volume step discount applies to the urgency-adjusted cost;
// the zone free delivery threshold overrides the final cost only.
func (c *Calculator) Estimate(zoneID string, volume int64, urgency Urgency) (Breakdown, error) {
	if volume <= 0 {
		return Breakdown{}, ErrInvalidVolume
	}
	zone, err := c.Zone(zoneID)
	if err != nil {
		return Breakdown{}, err
	}
	switch urgency {
	case UrgencyStandard, UrgencyExpress, UrgencyEmergency:
	default:
		return Breakdown{}, ErrUnknownUrgency
	}

	urgencyCost := zone.BaseCost * urgency.MultiplierBps() / 10_000
	var stepBps int64
	for _, step := range defaultVolumeSteps {
		if volume >= step.minVolume {
			stepBps = step.discountBps
			break
		}
	}
	volumeDiscount := urgencyCost * stepBps / 10_000
	finalCost := urgencyCost - volumeDiscount
	if finalCost < 0 {
		finalCost = 0
	}

	out := Breakdown{
		ZoneID:            zone.ID,
		ZoneName:          zone.Name,
		Urgency:           urgency,
		BaseCost:          zone.BaseCost,
		UrgencyCost:       urgencyCost,
		VolumeDiscountBps: stepBps,
		VolumeDiscount:    volumeDiscount,
		FinalCost:         finalCost,
		EstimatedTime:     zone.EstimatedTime,
	}
	if zone.FreeDeliveryThreshold > 0 && volume >= zone.FreeDeliveryThreshold {
		out.FinalCost = 0
		out.IsFreeDelivery = true
	}
	return out, nil
}
