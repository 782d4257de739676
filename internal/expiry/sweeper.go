package expiry

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/nyota-labs/backend-fuel/internal/ledger"
	"github.com/nyota-labs/backend-fuel/internal/lock"
)

// TaskReservationExpire is the asynq task kind for a sweep run.
const TaskReservationExpire = "reservation:expire"

// lockKey serialises sweeps across worker instances.
const lockKey = "expiry:sweep"

// NewTask builds the periodic sweep task enqueued by the scheduler.
func NewTask() *asynq.Task {
	return asynq.NewTask(TaskReservationExpire, nil)
}

// Sweeper reclaims pending reservations whose TTL elapsed. Abandoned holds
// would otherwise lock volume out of the available pool forever.
type Sweeper struct {
	Ledger  *ledger.Service
	Locker  lock.Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// Handle processes one sweep task. Only one worker instance sweeps at a time;
// a held lock means another sweep is already in flight and this run is a no-op.
func (s Sweeper) Handle(ctx context.Context, _ *asynq.Task) error {
	if s.Ledger == nil {
		return errors.New("expiry: ledger service not configured")
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	lockCtx, cancel := context.WithTimeout(ctx, ttl)
	defer cancel()

	err := s.Locker.WithLock(lockCtx, lockKey, ttl, func(ctx context.Context) error {
		reclaimed, err := s.Ledger.ReleaseExpired(ctx)
		if err != nil {
			return err
		}
		if reclaimed > 0 {
			s.Logger.Info().Int("reclaimed", reclaimed).Msg("expired reservations swept")
		}
		return nil
	})
	if errors.Is(err, context.DeadlineExceeded) {
		// Another instance held the lock for the whole window.
		return nil
	}
	return err
}
