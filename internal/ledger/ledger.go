package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
)

var (
	// ErrInvalidVolume is returned for non-positive volumes on any mutating operation.
	ErrInvalidVolume = errors.New("ledger: volume must be greater than zero")
	// ErrUnknownStockRecord is returned when no stock record exists for the location and fuel type.
	ErrUnknownStockRecord = errors.New("ledger: unknown stock record")
	// ErrInsufficientStock is a normal business outcome: the depot cannot cover the requested volume.
	ErrInsufficientStock = errors.New("ledger: insufficient available stock")
	// ErrCapacityExceeded is returned when a restock would push stock above tank capacity.
	ErrCapacityExceeded = errors.New("ledger: restock exceeds capacity")
	// ErrUnknownReservation indicates a stale or fabricated reservation handle.
	ErrUnknownReservation = errors.New("ledger: unknown reservation")
	// ErrReservationFinalized indicates a double commit or release on the same reservation.
	ErrReservationFinalized = errors.New("ledger: reservation already finalized")
	// ErrConcurrentUpdate surfaces after the bounded optimistic retry budget is exhausted.
	ErrConcurrentUpdate = errors.New("ledger: concurrent update, retry the request")
	// ErrInvalidThresholds indicates the stock status threshold table is malformed.
	ErrInvalidThresholds = errors.New("ledger: thresholds must be strictly ascending")
)

// StockRecord is the per-location, per-fuel-type reservation ledger unit.
// It is only ever mutated through the Store operations; Version increments on
// every successful write and backs the optimistic concurrency check.
type StockRecord struct {
	LocationID   string    `json:"locationId"`
	FuelType     fuel.Type `json:"fuelType"`
	Capacity     int64     `json:"capacity"`
	CurrentStock int64     `json:"currentStock"`
	Reserved     int64     `json:"reserved"`
	Version      int64     `json:"-"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Available is the volume open to new reservations.
func (r StockRecord) Available() int64 {
	return r.CurrentStock - r.Reserved
}

// checkInvariants asserts 0 <= reserved <= currentStock <= capacity. Every
// mutation recomputes and verifies this before any write is attempted.
func (r StockRecord) checkInvariants() error {
	if r.Reserved < 0 || r.CurrentStock < r.Reserved || r.Capacity < r.CurrentStock {
		return fmt.Errorf("ledger: invariant violation for %s/%s: capacity=%d stock=%d reserved=%d",
			r.LocationID, r.FuelType, r.Capacity, r.CurrentStock, r.Reserved)
	}
	return nil
}

// ReservationStatus is the reservation lifecycle state.
// Pending is the only non-terminal state.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusCommitted ReservationStatus = "committed"
	StatusReleased  ReservationStatus = "released"
	// StatusExpired marks a pending reservation reclaimed by the TTL sweeper.
	// It behaves exactly like a release for stock accounting.
	StatusExpired ReservationStatus = "expired"
)

// Terminal reports whether the status ends the reservation lifecycle.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCommitted || s == StatusReleased || s == StatusExpired
}

// Reservation binds an order to a pending hold on depot stock.
type Reservation struct {
	ID         uuid.UUID         `json:"id"`
	LocationID string            `json:"locationId"`
	FuelType   fuel.Type         `json:"fuelType"`
	Volume     int64             `json:"volume"`
	Status     ReservationStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	// ExpiresAt is zero when reservation TTL is disabled.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// StockStatus classifies current stock for alerting and dashboards.
type StockStatus string

const (
	StockCritical StockStatus = "critical"
	StockLow      StockStatus = "low"
	StockModerate StockStatus = "moderate"
	StockHigh     StockStatus = "high"
)

// Thresholds are the ascending stock level boundaries used by ClassifyStock.
type Thresholds struct {
	Critical int64
	Low      int64
	Medium   int64
}

// DefaultThresholds returns the standard alerting boundaries in litres.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 5_000, Low: 20_000, Medium: 50_000}
}

// Validate fails unless 0 < critical < low < medium.
func (t Thresholds) Validate() error {
	if t.Critical <= 0 || t.Low <= t.Critical || t.Medium <= t.Low {
		return ErrInvalidThresholds
	}
	return nil
}

// ClassifyStock maps current stock to a status band. Pure, no mutation.
func (t Thresholds) ClassifyStock(currentStock int64) StockStatus {
	switch {
	case currentStock < t.Critical:
		return StockCritical
	case currentStock < t.Low:
		return StockLow
	case currentStock < t.Medium:
		return StockModerate
	default:
		return StockHigh
	}
}
