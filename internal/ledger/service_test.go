package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nyota-labs/backend-fuel/internal/events"
	"github.com/nyota-labs/backend-fuel/internal/fuel"
	"github.com/nyota-labs/backend-fuel/internal/ledger"
)

func newLedgerService(t *testing.T, stock int64) (*ledger.Service, *ledger.MemStore, *events.MemStore) {
	t.Helper()
	store := ledger.NewMemStore()
	require.NoError(t, store.Seed(ledger.StockRecord{
		LocationID:   "depot-a",
		FuelType:     fuel.AGO,
		Capacity:     200_000,
		CurrentStock: stock,
		Version:      1,
	}))
	eventStore := &events.MemStore{}
	svc := &ledger.Service{
		Store:          store,
		Thresholds:     ledger.DefaultThresholds(),
		ReservationTTL: 30 * time.Minute,
		Events:         &events.Bus{Store: eventStore},
		Logger:         zerolog.Nop(),
	}
	return svc, store, eventStore
}

func topics(store *events.MemStore) []string {
	var out []string
	for _, evt := range store.Events() {
		out = append(out, evt.Topic)
	}
	return out
}

func TestReserveAppliesConfiguredTTL(t *testing.T) {
	svc, _, eventStore := newLedgerService(t, 100_000)

	res, err := svc.Reserve(context.Background(), "depot-a", fuel.AGO, 10_000)
	require.NoError(t, err)
	require.Equal(t, ledger.StatusPending, res.Status)
	require.False(t, res.ExpiresAt.IsZero())
	require.WithinDuration(t, res.CreatedAt.Add(30*time.Minute), res.ExpiresAt, time.Second)
	require.Contains(t, topics(eventStore), events.TopicReservationCreated)
}

func TestCommitEmitsLowStockWhenBandDrops(t *testing.T) {
	svc, _, eventStore := newLedgerService(t, 25_000)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, "depot-a", fuel.AGO, 20_000)
	require.NoError(t, err)
	_, err = svc.Commit(ctx, res.ID)
	require.NoError(t, err)

	got := topics(eventStore)
	require.Contains(t, got, events.TopicReservationCommitted)
	// 5,000 litres left sits in the low band and must raise the alert.
	require.Contains(t, got, events.TopicStockLow)
}

func TestStatusSnapshot(t *testing.T) {
	svc, _, _ := newLedgerService(t, 60_000)
	ctx := context.Background()

	res, err := svc.Reserve(ctx, "depot-a", fuel.AGO, 15_000)
	require.NoError(t, err)

	snap, err := svc.Status(ctx, "depot-a", fuel.AGO)
	require.NoError(t, err)
	require.Equal(t, int64(60_000), snap.CurrentStock)
	require.Equal(t, int64(15_000), snap.Reserved)
	require.Equal(t, int64(45_000), snap.Available)
	require.Equal(t, ledger.StockHigh, snap.Status)

	_, err = svc.Release(ctx, res.ID)
	require.NoError(t, err)
	snap, err = svc.Status(ctx, "depot-a", fuel.AGO)
	require.NoError(t, err)
	require.Equal(t, int64(0), snap.Reserved)
}

func TestRestockUpdatesSnapshotAndEmits(t *testing.T) {
	svc, _, eventStore := newLedgerService(t, 60_000)

	snap, err := svc.Restock(context.Background(), "depot-a", fuel.AGO, 40_000)
	require.NoError(t, err)
	require.Equal(t, int64(100_000), snap.CurrentStock)
	require.Contains(t, topics(eventStore), events.TopicStockRestocked)
}

func TestReleaseExpiredSweepsAndEmits(t *testing.T) {
	svc, store, eventStore := newLedgerService(t, 100_000)
	ctx := context.Background()

	past := time.Now().Add(-2 * time.Hour)
	store.SetClock(func() time.Time { return past })
	_, err := svc.Reserve(ctx, "depot-a", fuel.AGO, 10_000)
	require.NoError(t, err)
	store.SetClock(time.Now)

	count, err := svc.ReleaseExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Contains(t, topics(eventStore), events.TopicReservationExpired)

	snap, err := svc.Status(ctx, "depot-a", fuel.AGO)
	require.NoError(t, err)
	require.Equal(t, int64(0), snap.Reserved)
}
