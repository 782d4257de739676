package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
)

const defaultMaxRetries = 5

// querier is satisfied by *pgxpool.Pool and pgx.Tx alike.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DB is the subset of *pgxpool.Pool the store needs. Tests substitute a fake
// to drive the retry loop without a database.
type DB interface {
	querier
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// PGStore persists the ledger in Postgres. Stock writes use optimistic
// concurrency: the row is read together with its version, the new values are
// computed in memory, and the write is conditioned on the version being
// unchanged. A lost race retries the whole read-compute-write cycle up to
// MaxRetries before surfacing ErrConcurrentUpdate.
type PGStore struct {
	DB         DB
	MaxRetries int
}

func (s *PGStore) retries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return defaultMaxRetries
}

func readRecord(ctx context.Context, q querier, locationID string, fuelType fuel.Type) (StockRecord, error) {
	const query = `
		SELECT location_id, fuel_type, capacity, current_stock, reserved, version, updated_at
		FROM stock_records
		WHERE location_id = $1 AND fuel_type = $2`
	var record StockRecord
	var ft string
	err := q.QueryRow(ctx, query, locationID, string(fuelType)).Scan(
		&record.LocationID, &ft, &record.Capacity, &record.CurrentStock,
		&record.Reserved, &record.Version, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockRecord{}, ErrUnknownStockRecord
		}
		return StockRecord{}, err
	}
	record.FuelType = fuel.Type(ft)
	return record, nil
}

// writeRecord performs the version-conditioned stock update. A winning write
// reports the row's new updated_at stamp; a lost race reports won = false.
func writeRecord(ctx context.Context, q querier, prev, next StockRecord) (time.Time, bool, error) {
	const query = `
		UPDATE stock_records
		SET current_stock = $1, reserved = $2, version = version + 1, updated_at = now()
		WHERE location_id = $3 AND fuel_type = $4 AND version = $5
		RETURNING updated_at`
	var updatedAt time.Time
	err := q.QueryRow(ctx, query,
		next.CurrentStock, next.Reserved, prev.LocationID, string(prev.FuelType), prev.Version,
	).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return updatedAt, true, nil
}

func readReservation(ctx context.Context, q querier, id uuid.UUID) (Reservation, error) {
	const query = `
		SELECT id, location_id, fuel_type, volume, status, created_at, COALESCE(expires_at, 'epoch'::timestamptz)
		FROM reservations
		WHERE id = $1`
	var res Reservation
	var ft, status string
	var expires time.Time
	err := q.QueryRow(ctx, query, id).Scan(
		&res.ID, &res.LocationID, &ft, &res.Volume, &status, &res.CreatedAt, &expires,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reservation{}, ErrUnknownReservation
		}
		return Reservation{}, err
	}
	res.FuelType = fuel.Type(ft)
	res.Status = ReservationStatus(status)
	if expires.Unix() > 0 {
		res.ExpiresAt = expires
	}
	return res, nil
}

// Reserve implements Store.
func (s *PGStore) Reserve(ctx context.Context, locationID string, fuelType fuel.Type, volume int64, ttl time.Duration) (Reservation, error) {
	if volume <= 0 {
		return Reservation{}, ErrInvalidVolume
	}
	for attempt := 0; attempt < s.retries(); attempt++ {
		record, err := readRecord(ctx, s.DB, locationID, fuelType)
		if err != nil {
			return Reservation{}, err
		}
		if record.Available() < volume {
			return Reservation{}, ErrInsufficientStock
		}
		next := record
		next.Reserved += volume
		if err := next.checkInvariants(); err != nil {
			return Reservation{}, err
		}

		res := Reservation{
			ID:         uuid.New(),
			LocationID: locationID,
			FuelType:   fuelType,
			Volume:     volume,
			Status:     StatusPending,
		}

		won, err := s.inTx(ctx, func(tx pgx.Tx) (bool, error) {
			_, ok, err := writeRecord(ctx, tx, record, next)
			if err != nil || !ok {
				return ok, err
			}
			const insert = `
				INSERT INTO reservations (id, location_id, fuel_type, volume, status, expires_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING created_at`
			var expires *time.Time
			if ttl > 0 {
				deadline := time.Now().Add(ttl)
				expires = &deadline
				res.ExpiresAt = deadline
			}
			err = tx.QueryRow(ctx, insert,
				res.ID, res.LocationID, string(res.FuelType), res.Volume, string(res.Status), expires,
			).Scan(&res.CreatedAt)
			return err == nil, err
		})
		if err != nil {
			return Reservation{}, err
		}
		if won {
			return res, nil
		}
	}
	return Reservation{}, ErrConcurrentUpdate
}

// Commit implements Store.
func (s *PGStore) Commit(ctx context.Context, id uuid.UUID) (Reservation, error) {
	return s.finalize(ctx, id, StatusCommitted)
}

// Release implements Store.
func (s *PGStore) Release(ctx context.Context, id uuid.UUID) (Reservation, error) {
	return s.finalize(ctx, id, StatusReleased)
}

func (s *PGStore) finalize(ctx context.Context, id uuid.UUID, target ReservationStatus) (Reservation, error) {
	for attempt := 0; attempt < s.retries(); attempt++ {
		res, err := readReservation(ctx, s.DB, id)
		if err != nil {
			return Reservation{}, err
		}
		if res.Status != StatusPending {
			return Reservation{}, ErrReservationFinalized
		}
		record, err := readRecord(ctx, s.DB, res.LocationID, res.FuelType)
		if err != nil {
			return Reservation{}, err
		}
		next := record
		next.Reserved -= res.Volume
		if target == StatusCommitted {
			next.CurrentStock -= res.Volume
		}
		if err := next.checkInvariants(); err != nil {
			return Reservation{}, err
		}

		won, err := s.inTx(ctx, func(tx pgx.Tx) (bool, error) {
			// The status guard makes a concurrent finalize lose here and
			// resurface as ErrReservationFinalized on the next read.
			tag, err := tx.Exec(ctx,
				`UPDATE reservations SET status = $1 WHERE id = $2 AND status = $3`,
				string(target), id, string(StatusPending))
			if err != nil {
				return false, err
			}
			if tag.RowsAffected() != 1 {
				return false, nil
			}
			_, ok, err := writeRecord(ctx, tx, record, next)
			return ok, err
		})
		if err != nil {
			return Reservation{}, err
		}
		if won {
			res.Status = target
			return res, nil
		}
	}
	return Reservation{}, ErrConcurrentUpdate
}

// Restock implements Store.
func (s *PGStore) Restock(ctx context.Context, locationID string, fuelType fuel.Type, volume int64) (StockRecord, error) {
	if volume <= 0 {
		return StockRecord{}, ErrInvalidVolume
	}
	for attempt := 0; attempt < s.retries(); attempt++ {
		record, err := readRecord(ctx, s.DB, locationID, fuelType)
		if err != nil {
			return StockRecord{}, err
		}
		next := record
		next.CurrentStock += volume
		if next.CurrentStock > next.Capacity {
			return StockRecord{}, ErrCapacityExceeded
		}
		if err := next.checkInvariants(); err != nil {
			return StockRecord{}, err
		}
		updatedAt, won, err := writeRecord(ctx, s.DB, record, next)
		if err != nil {
			return StockRecord{}, err
		}
		if won {
			next.Version++
			next.UpdatedAt = updatedAt
			return next, nil
		}
	}
	return StockRecord{}, ErrConcurrentUpdate
}

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, locationID string, fuelType fuel.Type) (StockRecord, error) {
	return readRecord(ctx, s.DB, locationID, fuelType)
}

// GetReservation implements Store.
func (s *PGStore) GetReservation(ctx context.Context, id uuid.UUID) (Reservation, error) {
	return readReservation(ctx, s.DB, id)
}

// ExpirePending implements Store.
func (s *PGStore) ExpirePending(ctx context.Context, now time.Time) ([]Reservation, error) {
	const query = `
		SELECT id FROM reservations
		WHERE status = $1 AND expires_at IS NOT NULL AND expires_at <= $2
		ORDER BY expires_at
		LIMIT 200`
	rows, err := s.DB.Query(ctx, query, string(StatusPending), now)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	expired := make([]Reservation, 0, len(ids))
	for _, id := range ids {
		res, err := s.finalize(ctx, id, StatusExpired)
		if err != nil {
			// Another instance may have finalized it between the scan and now.
			if errors.Is(err, ErrReservationFinalized) || errors.Is(err, ErrUnknownReservation) {
				continue
			}
			return expired, err
		}
		expired = append(expired, res)
	}
	return expired, nil
}

func (s *PGStore) inTx(ctx context.Context, fn func(tx pgx.Tx) (bool, error)) (bool, error) {
	if s.DB == nil {
		return false, errors.New("ledger: database not configured")
	}
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	ok, err := fn(tx)
	if err != nil || !ok {
		return ok, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
