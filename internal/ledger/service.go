package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nyota-labs/backend-fuel/internal/events"
	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/obs"
)

// Snapshot is the external view of a stock record.
type Snapshot struct {
	LocationID   string      `json:"locationId"`
	FuelType     fuel.Type   `json:"fuelType"`
	Capacity     int64       `json:"capacity"`
	CurrentStock int64       `json:"currentStock"`
	Reserved     int64       `json:"reserved"`
	Available    int64       `json:"available"`
	Status       StockStatus `json:"status"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Service fronts the ledger store with domain metrics, structured logging and
// event emission. All stock accounting rules live in the store; the service
// never mutates records itself.
type Service struct {
	Store          Store
	Thresholds     Thresholds
	ReservationTTL time.Duration
	Events         *events.Bus
	Logger         zerolog.Logger
}

func (s *Service) snapshot(record StockRecord) Snapshot {
	return Snapshot{
		LocationID:   record.LocationID,
		FuelType:     record.FuelType,
		Capacity:     record.Capacity,
		CurrentStock: record.CurrentStock,
		Reserved:     record.Reserved,
		Available:    record.Available(),
		Status:       s.Thresholds.ClassifyStock(record.CurrentStock),
		UpdatedAt:    record.UpdatedAt,
	}
}

func (s *Service) observeStock(record StockRecord) {
	if obs.StockLevelLitres != nil {
		obs.StockLevelLitres.WithLabelValues(record.LocationID, string(record.FuelType)).Set(float64(record.CurrentStock))
	}
	if obs.StockAvailableLitres != nil {
		obs.StockAvailableLitres.WithLabelValues(record.LocationID, string(record.FuelType)).Set(float64(record.Available()))
	}
}

func countOp(op, result string) {
	if obs.ReservationsTotal != nil {
		obs.ReservationsTotal.WithLabelValues(op, result).Inc()
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, ErrConcurrentUpdate):
		return "conflict"
	case errors.Is(err, ErrUnknownReservation), errors.Is(err, ErrReservationFinalized):
		return "protocol_error"
	case errors.Is(err, ErrInvalidVolume), errors.Is(err, ErrUnknownStockRecord):
		return "invalid_input"
	default:
		return "error"
	}
}

// Reserve places a pending hold on depot stock and hands back the handle the
// caller must later commit or release.
func (s *Service) Reserve(ctx context.Context, locationID string, fuelType fuel.Type, volume int64) (Reservation, error) {
	res, err := s.Store.Reserve(ctx, locationID, fuelType, volume, s.ReservationTTL)
	countOp("reserve", resultLabel(err))
	if errors.Is(err, ErrConcurrentUpdate) && obs.LedgerConflictsTotal != nil {
		obs.LedgerConflictsTotal.Inc()
	}
	if err != nil {
		return Reservation{}, err
	}
	if obs.ReservationVolumeLitres != nil {
		obs.ReservationVolumeLitres.WithLabelValues(string(fuelType)).Observe(float64(volume))
	}
	s.Logger.Info().
		Str("reservation_id", res.ID.String()).
		Str("location_id", locationID).
		Str("fuel_type", string(fuelType)).
		Int64("volume", volume).
		Msg("stock reserved")
	s.afterMutation(ctx, res.LocationID, res.FuelType)
	s.emit(ctx, events.TopicReservationCreated, res)
	return res, nil
}

// Commit converts a pending hold into a physical stock decrement.
func (s *Service) Commit(ctx context.Context, id uuid.UUID) (Reservation, error) {
	res, err := s.Store.Commit(ctx, id)
	countOp("commit", resultLabel(err))
	if errors.Is(err, ErrConcurrentUpdate) && obs.LedgerConflictsTotal != nil {
		obs.LedgerConflictsTotal.Inc()
	}
	if err != nil {
		return Reservation{}, err
	}
	s.Logger.Info().
		Str("reservation_id", res.ID.String()).
		Str("location_id", res.LocationID).
		Str("fuel_type", string(res.FuelType)).
		Int64("volume", res.Volume).
		Msg("reservation committed")
	s.afterMutation(ctx, res.LocationID, res.FuelType)
	s.emit(ctx, events.TopicReservationCommitted, res)
	return res, nil
}

// Release returns a pending hold to general availability.
func (s *Service) Release(ctx context.Context, id uuid.UUID) (Reservation, error) {
	res, err := s.Store.Release(ctx, id)
	countOp("release", resultLabel(err))
	if err != nil {
		return Reservation{}, err
	}
	s.Logger.Info().
		Str("reservation_id", res.ID.String()).
		Str("location_id", res.LocationID).
		Str("fuel_type", string(res.FuelType)).
		Int64("volume", res.Volume).
		Msg("reservation released")
	s.afterMutation(ctx, res.LocationID, res.FuelType)
	s.emit(ctx, events.TopicReservationReleased, res)
	return res, nil
}

// Restock adds delivered fuel to the depot.
func (s *Service) Restock(ctx context.Context, locationID string, fuelType fuel.Type, volume int64) (Snapshot, error) {
	record, err := s.Store.Restock(ctx, locationID, fuelType, volume)
	countOp("restock", resultLabel(err))
	if err != nil {
		return Snapshot{}, err
	}
	s.Logger.Info().
		Str("location_id", locationID).
		Str("fuel_type", string(fuelType)).
		Int64("volume", volume).
		Int64("current_stock", record.CurrentStock).
		Msg("depot restocked")
	s.observeStock(record)
	s.emit(ctx, events.TopicStockRestocked, map[string]any{
		"locationId":   locationID,
		"fuelType":     fuelType,
		"volume":       volume,
		"currentStock": record.CurrentStock,
	})
	return s.snapshot(record), nil
}

// Status returns the classified stock record snapshot. Read-only.
func (s *Service) Status(ctx context.Context, locationID string, fuelType fuel.Type) (Snapshot, error) {
	record, err := s.Store.Get(ctx, locationID, fuelType)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(record), nil
}

// ReleaseExpired reclaims pending reservations past their deadline. It is
// called by the sweeper and reports how many holds were returned to the pool.
func (s *Service) ReleaseExpired(ctx context.Context) (int, error) {
	expired, err := s.Store.ExpirePending(ctx, time.Now())
	if err != nil {
		return len(expired), err
	}
	for _, res := range expired {
		if obs.ReservationsExpiredTotal != nil {
			obs.ReservationsExpiredTotal.Inc()
		}
		s.Logger.Warn().
			Str("reservation_id", res.ID.String()).
			Str("location_id", res.LocationID).
			Str("fuel_type", string(res.FuelType)).
			Int64("volume", res.Volume).
			Msg("reservation expired")
		s.afterMutation(ctx, res.LocationID, res.FuelType)
		s.emit(ctx, events.TopicReservationExpired, res)
	}
	return len(expired), nil
}

// afterMutation refreshes gauges and raises the low stock alert when the
// depot dropped into a critical or low band.
func (s *Service) afterMutation(ctx context.Context, locationID string, fuelType fuel.Type) {
	record, err := s.Store.Get(ctx, locationID, fuelType)
	if err != nil {
		return
	}
	s.observeStock(record)
	status := s.Thresholds.ClassifyStock(record.CurrentStock)
	if status == StockCritical || status == StockLow {
		s.emit(ctx, events.TopicStockLow, map[string]any{
			"locationId":   record.LocationID,
			"fuelType":     record.FuelType,
			"currentStock": record.CurrentStock,
			"status":       status,
		})
	}
}

func (s *Service) emit(ctx context.Context, topic string, payload any) {
	if s.Events == nil {
		return
	}
	aggregate := ""
	switch v := payload.(type) {
	case Reservation:
		aggregate = v.ID.String()
	case map[string]any:
		if id, ok := v["locationId"].(string); ok {
			aggregate = id
		}
	}
	if aggregate == "" {
		return
	}
	if _, err := s.Events.Emit(ctx, topic, aggregate, payload); err != nil {
		s.Logger.Error().Err(err).Str("topic", topic).Msg("emit domain event")
	}
}
