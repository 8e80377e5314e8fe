package seats_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats/seatstest"
	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInventory(t *testing.T, totalSeats int, opts ...seats.Option) (*seats.Inventory, *seatstest.Store, uuid.UUID) {
	t.Helper()
	store := seatstest.NewStore()
	eventID := uuid.New()
	store.AddEvent(eventID, totalSeats, events.StatusUpcoming)

	opts = append([]seats.Option{seats.WithLogger(logger.Discard())}, opts...)
	return seats.NewInventory(store, opts...), store, eventID
}

func assertAccounting(t *testing.T, store *seatstest.Store, eventID uuid.UUID) *seats.State {
	t.Helper()
	st, ok := store.Get(eventID)
	require.True(t, ok)
	require.NoError(t, st.Check())
	return st
}

func TestInventory_ScenarioSixtySeats(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 60)

	snap, err := inv.Reserve(ctx, eventID, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 58, snap.AvailableSeats)
	assert.Equal(t, []int{1, 2}, snap.BookedSeats)

	_, err = inv.Reserve(ctx, eventID, []int{2, 3})
	require.ErrorIs(t, err, seats.ErrSeatConflict)
	assert.Equal(t, []int{2}, seats.UnavailableSeats(err))

	st := assertAccounting(t, store, eventID)
	assert.Equal(t, 58, st.AvailableSeats)
	assert.False(t, st.BookedSeats.Contains(3), "a rejected reservation must not book any seat")
}

func TestInventory_NoDoubleBooking(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 60)

	// 40 callers fight over overlapping pairs: caller i wants seats {i%20+1, i%20+2}
	const callers = 40
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted [][]int
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			req := []int{i%20 + 1, i%20 + 2}
			if _, err := inv.Reserve(ctx, eventID, req); err == nil {
				mu.Lock()
				granted = append(granted, req)
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, seats.ErrSeatConflict)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	owners := make(map[int]int)
	var union []int
	for _, req := range granted {
		for _, seat := range req {
			owners[seat]++
			union = append(union, seat)
		}
	}
	for seat, n := range owners {
		assert.Equal(t, 1, n, "seat %d granted %d times", seat, n)
	}

	st := assertAccounting(t, store, eventID)
	assert.Equal(t, events.NewSeatSet(union...), st.BookedSeats)
	assert.Equal(t, 60-len(union), st.AvailableSeats)
}

func TestInventory_DifferentEventsProceedIndependently(t *testing.T) {
	ctx := context.Background()
	store := seatstest.NewStore()
	inv := seats.NewInventory(store, seats.WithLogger(logger.Discard()))

	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		store.AddEvent(ids[i], 10, events.StatusOngoing)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for seat := 1; seat <= 10; seat++ {
			wg.Add(1)
			go func(id uuid.UUID, seat int) {
				defer wg.Done()
				_, err := inv.Reserve(ctx, id, []int{seat})
				assert.NoError(t, err)
			}(id, seat)
		}
	}
	wg.Wait()

	for _, id := range ids {
		st := assertAccounting(t, store, id)
		assert.Equal(t, 0, st.AvailableSeats)
	}
}

func TestInventory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 60)

	_, err := inv.Reserve(ctx, eventID, []int{10, 11})
	require.NoError(t, err)
	before := assertAccounting(t, store, eventID)

	_, err = inv.Reserve(ctx, eventID, []int{5, 20, 50})
	require.NoError(t, err)
	_, err = inv.Release(ctx, eventID, []int{50, 5, 20})
	require.NoError(t, err)

	after := assertAccounting(t, store, eventID)
	assert.Equal(t, before.BookedSeats, after.BookedSeats)
	assert.Equal(t, before.AvailableSeats, after.AvailableSeats)
	assert.Greater(t, after.Version, before.Version)
}

func TestInventory_InvariantHoldsAcrossSequence(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 30)

	steps := []struct {
		reserve bool
		seats   []int
	}{
		{true, []int{1, 2, 3}},
		{true, []int{30}},
		{false, []int{2}},
		{true, []int{2, 4, 5}},
		{false, []int{1, 3, 30}},
		{true, []int{29, 28}},
		{false, []int{2, 4, 5, 28, 29}},
	}

	for i, step := range steps {
		var err error
		if step.reserve {
			_, err = inv.Reserve(ctx, eventID, step.seats)
		} else {
			_, err = inv.Release(ctx, eventID, step.seats)
		}
		require.NoError(t, err, "step %d", i)
		assertAccounting(t, store, eventID)
	}

	st := assertAccounting(t, store, eventID)
	assert.Empty(t, st.BookedSeats)
	assert.Equal(t, 30, st.AvailableSeats)
}

func TestInventory_Boundaries(t *testing.T) {
	ctx := context.Background()

	t.Run("seat zero and past the last seat", func(t *testing.T) {
		inv, _, eventID := newInventory(t, 60)

		_, err := inv.Reserve(ctx, eventID, []int{0})
		assert.ErrorIs(t, err, seats.ErrInvalidSeat)

		_, err = inv.Reserve(ctx, eventID, []int{60, 61})
		var invalid *seats.InvalidSeatError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, []int{61}, invalid.Seats)

		snap, err := inv.Reserve(ctx, eventID, []int{60})
		require.NoError(t, err)
		assert.Equal(t, 59, snap.AvailableSeats)
	})

	t.Run("repeated seat in one request", func(t *testing.T) {
		inv, _, eventID := newInventory(t, 60)
		_, err := inv.Reserve(ctx, eventID, []int{4, 4})
		assert.ErrorIs(t, err, seats.ErrInvalidSeat)
	})

	t.Run("empty selection", func(t *testing.T) {
		inv, _, eventID := newInventory(t, 60)
		_, err := inv.Reserve(ctx, eventID, nil)
		assert.ErrorIs(t, err, seats.ErrNoSeats)
	})

	t.Run("unknown event", func(t *testing.T) {
		inv, _, _ := newInventory(t, 60)
		_, err := inv.Reserve(ctx, uuid.New(), []int{1})
		assert.ErrorIs(t, err, seats.ErrEventNotFound)
	})

	for _, status := range []events.Status{events.StatusCompleted, events.StatusCancelled} {
		t.Run("closed when "+string(status), func(t *testing.T) {
			store := seatstest.NewStore()
			eventID := uuid.New()
			store.AddEvent(eventID, 60, status)
			inv := seats.NewInventory(store, seats.WithLogger(logger.Discard()))

			_, err := inv.Reserve(ctx, eventID, []int{1})
			assert.ErrorIs(t, err, seats.ErrBookingClosed)
		})
	}
}

func TestInventory_ReleaseOfFreeSeatIsInvariantViolation(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 60)

	_, err := inv.Reserve(ctx, eventID, []int{1})
	require.NoError(t, err)
	before := assertAccounting(t, store, eventID)

	_, err = inv.Release(ctx, eventID, []int{1, 2})
	assert.ErrorIs(t, err, seats.ErrInvariantViolation)

	after := assertAccounting(t, store, eventID)
	assert.Equal(t, before, after)
}

func TestInventory_CorruptStateIsNeverRepaired(t *testing.T) {
	ctx := context.Background()
	store := seatstest.NewStore()
	eventID := uuid.New()
	store.Put(&seats.State{
		EventID:        eventID,
		Status:         events.StatusUpcoming,
		TotalSeats:     10,
		AvailableSeats: 10,
		BookedSeats:    events.SeatSet{3},
	})
	inv := seats.NewInventory(store, seats.WithLogger(logger.Discard()))

	_, err := inv.Reserve(ctx, eventID, []int{1})
	assert.ErrorIs(t, err, seats.ErrInvariantViolation)

	st, _ := store.Get(eventID)
	assert.Equal(t, 10, st.AvailableSeats)
	assert.Equal(t, events.SeatSet{3}, st.BookedSeats)
}

func TestInventory_AlongsideFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 60)
	boom := errors.New("booking insert failed")

	_, err := inv.Reserve(ctx, eventID, []int{7}, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	st := assertAccounting(t, store, eventID)
	assert.Empty(t, st.BookedSeats)
	assert.Equal(t, int64(0), st.Version)
}

func TestInventory_ReleaseIfGuardRejects(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 60)

	_, err := inv.Reserve(ctx, eventID, []int{4, 5})
	require.NoError(t, err)

	gone := errors.New("booking already cancelled")
	alongsideRan := false
	_, err = inv.ReleaseIf(ctx, eventID, []int{4, 5},
		func(context.Context) error { return gone },
		func(context.Context) error { alongsideRan = true; return nil },
	)
	assert.ErrorIs(t, err, gone)
	assert.False(t, alongsideRan)

	st := assertAccounting(t, store, eventID)
	assert.Equal(t, events.SeatSet{4, 5}, st.BookedSeats)

	snap, err := inv.ReleaseIf(ctx, eventID, []int{4}, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []int{5}, snap.BookedSeats)
}

func TestInventory_PanicReleasesEventLock(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 60)

	assert.PanicsWithValue(t, "insert exploded", func() {
		_, _ = inv.Reserve(ctx, eventID, []int{1}, func(context.Context) error {
			panic("insert exploded")
		})
	})

	st := assertAccounting(t, store, eventID)
	assert.Empty(t, st.BookedSeats)

	done := make(chan error, 1)
	go func() {
		_, err := inv.Reserve(ctx, eventID, []int{2})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("event lock still held after a panicking reservation")
	}

	st = assertAccounting(t, store, eventID)
	assert.Equal(t, events.SeatSet{2}, st.BookedSeats)
}

func TestInventory_ReleaseAllowedAfterBookingCloses(t *testing.T) {
	ctx := context.Background()
	inv, store, eventID := newInventory(t, 60)

	_, err := inv.Reserve(ctx, eventID, []int{10, 11})
	require.NoError(t, err)

	st := assertAccounting(t, store, eventID)
	st.Status = events.StatusCompleted
	store.Put(st)

	_, err = inv.Reserve(ctx, eventID, []int{12})
	assert.ErrorIs(t, err, seats.ErrBookingClosed)

	snap, err := inv.Release(ctx, eventID, []int{10})
	require.NoError(t, err)
	assert.Equal(t, []int{11}, snap.BookedSeats)
	assert.Equal(t, 59, snap.AvailableSeats)
}

func TestValidateSelection(t *testing.T) {
	got, err := seats.ValidateSelection([]int{9, 1, 4}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9}, got)

	_, err = seats.ValidateSelection(nil, 10)
	assert.ErrorIs(t, err, seats.ErrNoSeats)

	_, err = seats.ValidateSelection([]int{3, 3}, 10)
	assert.ErrorIs(t, err, seats.ErrInvalidSeat)

	_, err = seats.ValidateSelection([]int{0, 11}, 10)
	var invalid *seats.InvalidSeatError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []int{0, 11}, invalid.Seats)
}

func TestInventory_StaleWritesAreRetried(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers within the retry budget", func(t *testing.T) {
		inv, store, eventID := newInventory(t, 60, seats.WithMaxStaleRetries(3))
		store.FailNextSaves(2)

		snap, err := inv.Reserve(ctx, eventID, []int{1})
		require.NoError(t, err)
		assert.Equal(t, []int{1}, snap.BookedSeats)
		assert.Equal(t, 3, store.Saves())
	})

	t.Run("gives up after the budget", func(t *testing.T) {
		inv, store, eventID := newInventory(t, 60, seats.WithMaxStaleRetries(1))
		store.FailNextSaves(5)

		_, err := inv.Reserve(ctx, eventID, []int{1})
		assert.ErrorIs(t, err, seats.ErrStaleState)
		assert.Equal(t, 2, store.Saves())

		st := assertAccounting(t, store, eventID)
		assert.Empty(t, st.BookedSeats)
	})
}

type recordingMirror struct {
	mu        sync.Mutex
	published []seats.Snapshot
	stored    map[uuid.UUID]seats.Snapshot
	failWrite bool
	dropped   []uuid.UUID
}

func newRecordingMirror() *recordingMirror {
	return &recordingMirror{stored: make(map[uuid.UUID]seats.Snapshot)}
}

func (m *recordingMirror) Publish(_ context.Context, snap seats.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return errors.New("redis down")
	}
	m.published = append(m.published, snap)
	if cur, ok := m.stored[snap.EventID]; !ok || cur.Version < snap.Version {
		m.stored[snap.EventID] = snap
	}
	return nil
}

func (m *recordingMirror) Get(_ context.Context, eventID uuid.UUID) (*seats.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.stored[eventID]
	if !ok {
		return nil, seats.ErrMirrorMiss
	}
	return &snap, nil
}

func (m *recordingMirror) Invalidate(_ context.Context, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stored, eventID)
	m.dropped = append(m.dropped, eventID)
	return nil
}

func TestInventory_Mirror(t *testing.T) {
	ctx := context.Background()

	t.Run("committed snapshots are mirrored and served", func(t *testing.T) {
		mirror := newRecordingMirror()
		inv, store, eventID := newInventory(t, 60, seats.WithMirror(mirror))

		_, err := inv.Reserve(ctx, eventID, []int{5})
		require.NoError(t, err)
		require.Len(t, mirror.published, 1)
		assert.Equal(t, int64(1), mirror.published[0].Version)

		// a direct store change is invisible while the mirror holds the entry
		store.Put(&seats.State{EventID: eventID, Status: events.StatusUpcoming, TotalSeats: 60, AvailableSeats: 60, BookedSeats: events.SeatSet{}, Version: 1})
		snap, err := inv.State(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, []int{5}, snap.BookedSeats)
	})

	t.Run("miss falls back to the store and warms the mirror", func(t *testing.T) {
		mirror := newRecordingMirror()
		inv, _, eventID := newInventory(t, 60, seats.WithMirror(mirror))

		snap, err := inv.State(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, 60, snap.AvailableSeats)

		_, err = mirror.Get(ctx, eventID)
		assert.NoError(t, err)
	})

	t.Run("failed publish invalidates the entry", func(t *testing.T) {
		mirror := newRecordingMirror()
		inv, _, eventID := newInventory(t, 60, seats.WithMirror(mirror))
		_, err := inv.State(ctx, eventID)
		require.NoError(t, err)

		mirror.failWrite = true
		_, err = inv.Reserve(ctx, eventID, []int{1})
		require.NoError(t, err, "mirror failures never fail a reservation")
		assert.Equal(t, []uuid.UUID{eventID}, mirror.dropped)
	})
}
