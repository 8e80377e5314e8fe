// Package seatstest provides an in-memory seats.Store for tests.
package seatstest

import (
	"context"
	"sync"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"

	"github.com/google/uuid"
)

type txKey struct{}

// Store keeps seat state in memory. Transactions are serialized and a
// failed or panicking transaction restores every state it touched.
type Store struct {
	txMu sync.Mutex

	mu     sync.Mutex
	states map[uuid.UUID]*seats.State

	// staleWrites makes the next N SaveState calls fail with ErrStaleState.
	staleWrites int
	saves       int
}

func NewStore() *Store {
	return &Store{states: make(map[uuid.UUID]*seats.State)}
}

// AddEvent seeds an event with no seats booked.
func (s *Store) AddEvent(eventID uuid.UUID, totalSeats int, status events.Status) {
	s.Put(&seats.State{
		EventID:        eventID,
		Status:         status,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		BookedSeats:    events.SeatSet{},
	})
}

// Put stores state as-is, including states that break the seat accounting.
func (s *Store) Put(state *seats.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.EventID] = state.Clone()
}

// Get returns a copy of the stored state.
func (s *Store) Get(eventID uuid.UUID) (*seats.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[eventID]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// FailNextSaves makes the next n conditional writes lose their race.
func (s *Store) FailNextSaves(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staleWrites = n
}

// Saves counts SaveState calls, successful or not.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	backup := make(map[uuid.UUID]*seats.State, len(s.states))
	for id, st := range s.states {
		backup[id] = st.Clone()
	}
	s.mu.Unlock()

	committed := false
	defer func() {
		if !committed {
			s.mu.Lock()
			s.states = backup
			s.mu.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) LoadState(_ context.Context, eventID uuid.UUID) (*seats.State, error) {
	st, ok := s.Get(eventID)
	if !ok {
		return nil, seats.ErrEventNotFound
	}
	return st, nil
}

func (s *Store) SaveState(_ context.Context, state *seats.State, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saves++
	if s.staleWrites > 0 {
		s.staleWrites--
		return seats.ErrStaleState
	}

	current, ok := s.states[state.EventID]
	if !ok || current.Version != expectedVersion {
		return seats.ErrStaleState
	}
	s.states[state.EventID] = state.Clone()
	return nil
}
