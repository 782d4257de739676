package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
)

type stockKey struct {
	locationID string
	fuelType   fuel.Type
}

// MemStore is a mutex-guarded in-memory Store. It backs tests and the
// ephemeral no-database mode; the single lock gives the same serializable
// per-record semantics the Postgres store provides through versioned writes.
type MemStore struct {
	mu           sync.Mutex
	records      map[stockKey]*StockRecord
	reservations map[uuid.UUID]*Reservation
	clock        func() time.Time
}

// NewMemStore constructs an empty in-memory ledger store.
func NewMemStore() *MemStore {
	return &MemStore{
		records:      make(map[stockKey]*StockRecord),
		reservations: make(map[uuid.UUID]*Reservation),
		clock:        time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (m *MemStore) SetClock(clock func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

// Seed installs a stock record, replacing any previous one. The record must
// satisfy the ledger invariants.
func (m *MemStore) Seed(record StockRecord) error {
	if err := record.checkInvariants(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record.UpdatedAt = m.clock()
	m.records[stockKey{locationID: record.LocationID, fuelType: record.FuelType}] = &record
	return nil
}

// Reserve implements Store.
func (m *MemStore) Reserve(_ context.Context, locationID string, fuelType fuel.Type, volume int64, ttl time.Duration) (Reservation, error) {
	if volume <= 0 {
		return Reservation{}, ErrInvalidVolume
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[stockKey{locationID: locationID, fuelType: fuelType}]
	if !ok {
		return Reservation{}, ErrUnknownStockRecord
	}
	if record.Available() < volume {
		return Reservation{}, ErrInsufficientStock
	}

	next := *record
	next.Reserved += volume
	if err := next.checkInvariants(); err != nil {
		return Reservation{}, err
	}
	now := m.clock()
	next.Version++
	next.UpdatedAt = now
	*record = next

	res := Reservation{
		ID:         uuid.New(),
		LocationID: locationID,
		FuelType:   fuelType,
		Volume:     volume,
		Status:     StatusPending,
		CreatedAt:  now,
	}
	if ttl > 0 {
		res.ExpiresAt = now.Add(ttl)
	}
	m.reservations[res.ID] = &res
	return res, nil
}

// Commit implements Store.
func (m *MemStore) Commit(_ context.Context, id uuid.UUID) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalizeLocked(id, StatusCommitted)
}

// Release implements Store.
func (m *MemStore) Release(_ context.Context, id uuid.UUID) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalizeLocked(id, StatusReleased)
}

func (m *MemStore) finalizeLocked(id uuid.UUID, target ReservationStatus) (Reservation, error) {
	res, ok := m.reservations[id]
	if !ok {
		return Reservation{}, ErrUnknownReservation
	}
	if res.Status != StatusPending {
		return Reservation{}, ErrReservationFinalized
	}
	record, ok := m.records[stockKey{locationID: res.LocationID, fuelType: res.FuelType}]
	if !ok {
		return Reservation{}, ErrUnknownStockRecord
	}

	next := *record
	next.Reserved -= res.Volume
	if target == StatusCommitted {
		next.CurrentStock -= res.Volume
	}
	if err := next.checkInvariants(); err != nil {
		return Reservation{}, err
	}
	next.Version++
	next.UpdatedAt = m.clock()
	*record = next

	res.Status = target
	return *res, nil
}

// Restock implements Store.
func (m *MemStore) Restock(_ context.Context, locationID string, fuelType fuel.Type, volume int64) (StockRecord, error) {
	if volume <= 0 {
		return StockRecord{}, ErrInvalidVolume
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[stockKey{locationID: locationID, fuelType: fuelType}]
	if !ok {
		return StockRecord{}, ErrUnknownStockRecord
	}
	next := *record
	next.CurrentStock += volume
	if next.CurrentStock > next.Capacity {
		return StockRecord{}, ErrCapacityExceeded
	}
	if err := next.checkInvariants(); err != nil {
		return StockRecord{}, err
	}
	next.Version++
	next.UpdatedAt = m.clock()
	*record = next
	return next, nil
}

// Get implements Store.
func (m *MemStore) Get(_ context.Context, locationID string, fuelType fuel.Type) (StockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[stockKey{locationID: locationID, fuelType: fuelType}]
	if !ok {
		return StockRecord{}, ErrUnknownStockRecord
	}
	return *record, nil
}

// GetReservation implements Store.
func (m *MemStore) GetReservation(_ context.Context, id uuid.UUID) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res, ok := m.reservations[id]
	if !ok {
		return Reservation{}, ErrUnknownReservation
	}
	return *res, nil
}

// ExpirePending implements Store.
func (m *MemStore) ExpirePending(_ context.Context, now time.Time) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []Reservation
	for _, res := range m.reservations {
		if res.Status != StatusPending || res.ExpiresAt.IsZero() || res.ExpiresAt.After(now) {
			continue
		}
		record, ok := m.records[stockKey{locationID: res.LocationID, fuelType: res.FuelType}]
		if !ok {
			// No stock record left to release against, but the hold must
			// still terminate rather than stay pending forever.
			res.Status = StatusExpired
			expired = append(expired, *res)
			continue
		}
		next := *record
		next.Reserved -= res.Volume
		if err := next.checkInvariants(); err != nil {
			return expired, err
		}
		next.Version++
		next.UpdatedAt = m.clock()
		*record = next
		res.Status = StatusExpired
		expired = append(expired, *res)
	}
	return expired, nil
}
