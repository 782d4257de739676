package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists domain events in the domain_events table.
type PGStore struct {
	Pool *pgxpool.Pool
}

// InsertDomainEvent implements Store.
func (s PGStore) InsertDomainEvent(ctx context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	if s.Pool == nil {
		return Event{}, errors.New("events: pool not configured")
	}
	const query = `
		INSERT INTO domain_events (id, topic, aggregate_id, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING occurred_at`
	ev := Event{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload}
	if err := s.Pool.QueryRow(ctx, query, ev.ID, ev.Topic, ev.AggregateID, ev.Payload).Scan(&ev.OccurredAt); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// MemStore keeps emitted events in memory. Used by tests and the
// no-database mode.
type MemStore struct {
	mu     sync.Mutex
	events []Event
}

// InsertDomainEvent implements Store.
func (s *MemStore) InsertDomainEvent(_ context.Context, topic, aggregateID string, payload []byte) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := Event{ID: uuid.New(), Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	s.events = append(s.events, ev)
	return ev, nil
}

// Events returns a snapshot of all recorded events.
func (s *MemStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
