package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
)

// Store is the persistence contract for the stock ledger. Every mutating
// operation is a single atomic unit against the one StockRecord it touches:
// it either fully succeeds with invariants intact or fails without side
// effects. Operations never span two stock records.
type Store interface {
	// Reserve places a pending hold of volume litres. It fails with
	// ErrInsufficientStock when available stock cannot cover the volume and
	// with ErrConcurrentUpdate when the bounded retry budget is exhausted.
	// A non-zero ttl stamps the reservation with an expiry deadline.
	Reserve(ctx context.Context, locationID string, fuelType fuel.Type, volume int64, ttl time.Duration) (Reservation, error)

	// Commit converts a pending hold into a physical stock decrement.
	Commit(ctx context.Context, id uuid.UUID) (Reservation, error)

	// Release returns a pending hold to general availability.
	Release(ctx context.Context, id uuid.UUID) (Reservation, error)

	// Restock adds delivered fuel to the depot, bounded by tank capacity.
	Restock(ctx context.Context, locationID string, fuelType fuel.Type, volume int64) (StockRecord, error)

	// Get returns the current stock record snapshot.
	Get(ctx context.Context, locationID string, fuelType fuel.Type) (StockRecord, error)

	// GetReservation returns a reservation by handle.
	GetReservation(ctx context.Context, id uuid.UUID) (Reservation, error)

	// ExpirePending releases every pending reservation whose deadline passed
	// before now and reports the reclaimed reservations.
	ExpirePending(ctx context.Context, now time.Time) ([]Reservation, error)
}
