package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nyota-labs/backend-fuel/internal/fuel"
)

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

// contendedDB serves a fixed stock record and decides stock writes by fiat:
// with winStamp zero every conditional UPDATE loses, as if another writer
// bumped the version between the read and the write.
type contendedDB struct {
	record   StockRecord
	winStamp time.Time

	reads   int
	updates int
	inserts int
}

func (db *contendedDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	switch {
	case strings.Contains(sql, "FROM stock_records"):
		db.reads++
		rec := db.record
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*string)) = rec.LocationID
			*(dest[1].(*string)) = string(rec.FuelType)
			*(dest[2].(*int64)) = rec.Capacity
			*(dest[3].(*int64)) = rec.CurrentStock
			*(dest[4].(*int64)) = rec.Reserved
			*(dest[5].(*int64)) = rec.Version
			*(dest[6].(*time.Time)) = rec.UpdatedAt
			return nil
		}}
	case strings.Contains(sql, "UPDATE stock_records"):
		db.updates++
		if db.winStamp.IsZero() {
			return fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}
		}
		stamp := db.winStamp
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*time.Time)) = stamp
			return nil
		}}
	case strings.Contains(sql, "INSERT INTO reservations"):
		db.inserts++
		return fakeRow{scan: func(dest ...any) error {
			*(dest[0].(*time.Time)) = time.Now()
			return nil
		}}
	default:
		return fakeRow{scan: func(...any) error { return fmt.Errorf("unexpected query: %s", sql) }}
	}
}

func (db *contendedDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (db *contendedDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (db *contendedDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return fakeTx{db: db}, nil
}

type fakeTx struct {
	pgx.Tx
	db *contendedDB
}

func (t fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.db.QueryRow(ctx, sql, args...)
}

func (t fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t fakeTx) Commit(context.Context) error   { return nil }
func (t fakeTx) Rollback(context.Context) error { return nil }

func TestReserveSurfacesContentionAfterRetries(t *testing.T) {
	db := &contendedDB{
		record: StockRecord{
			LocationID:   "depot-a",
			FuelType:     fuel.PMS,
			Capacity:     100_000,
			CurrentStock: 60_000,
			Version:      3,
			UpdatedAt:    time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
		},
	}
	store := &PGStore{DB: db, MaxRetries: 3}

	_, err := store.Reserve(context.Background(), "depot-a", fuel.PMS, 10_000, 0)
	if !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("expected ErrConcurrentUpdate, got %v", err)
	}
	if db.reads != 3 || db.updates != 3 {
		t.Fatalf("reads=%d updates=%d, want one read and one write per attempt", db.reads, db.updates)
	}
	// Every stock write lost, so no reservation row may exist.
	if db.inserts != 0 {
		t.Fatalf("inserts = %d, want 0 after losing every stock write", db.inserts)
	}
}

func TestRestockSnapshotCarriesRowTimestamp(t *testing.T) {
	stale := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	written := stale.Add(45 * time.Minute)
	db := &contendedDB{
		record: StockRecord{
			LocationID:   "depot-a",
			FuelType:     fuel.PMS,
			Capacity:     100_000,
			CurrentStock: 60_000,
			Version:      3,
			UpdatedAt:    stale,
		},
		winStamp: written,
	}
	store := &PGStore{DB: db}

	got, err := store.Restock(context.Background(), "depot-a", fuel.PMS, 10_000)
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if got.CurrentStock != 70_000 || got.Version != 4 {
		t.Fatalf("snapshot stock=%d version=%d, want 70000/4", got.CurrentStock, got.Version)
	}
	if !got.UpdatedAt.Equal(written) {
		t.Fatalf("snapshot updatedAt = %v, want the row's write stamp %v", got.UpdatedAt, written)
	}
	if db.updates != 1 {
		t.Fatalf("updates = %d, want 1", db.updates)
	}
}
