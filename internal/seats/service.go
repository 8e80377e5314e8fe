package seats

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Moses-lal/Smart-Event-Manager/pkg/logger"

	"github.com/google/uuid"
)

// Inventory is the single writer of per-event seat state.
//
// A mutation takes the event's in-process lock, then runs
// load-check-apply-save in one store transaction. The row lock taken by
// LoadState and the version check in SaveState keep the step atomic even
// if another process writes the same row; a lost race is retried from a
// fresh read.
type Inventory struct {
	store      Store
	locks      *eventLocks
	mirror     Mirror
	maxRetries int
	log        *logger.Logger
}

type Option func(*Inventory)

// WithMirror publishes every committed snapshot to m and serves reads from it.
func WithMirror(m Mirror) Option {
	return func(inv *Inventory) { inv.mirror = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(inv *Inventory) { inv.log = l }
}

func WithMaxStaleRetries(n int) Option {
	return func(inv *Inventory) {
		if n >= 0 {
			inv.maxRetries = n
		}
	}
}

func NewInventory(store Store, opts ...Option) *Inventory {
	inv := &Inventory{
		store:      store,
		locks:      newEventLocks(),
		maxRetries: 3,
		log:        logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	inv.log = inv.log.Component("seat_inventory")
	return inv
}

// TxFunc runs inside the inventory's transaction after the seat state has
// been written. Returning an error rolls the seat change back.
type TxFunc func(ctx context.Context) error

// Reserve marks seats as booked, all or nothing. It fails with
// SeatConflictError naming every requested seat that is already taken.
func (inv *Inventory) Reserve(ctx context.Context, eventID uuid.UUID, seats []int, alongside ...TxFunc) (*Snapshot, error) {
	requested, err := normalizeSeats(seats)
	if err != nil {
		return nil, err
	}

	return inv.mutate(ctx, eventID, nil, alongside, func(state *State) error {
		if !state.Status.BookingOpen() {
			return fmt.Errorf("%w: event is %s", ErrBookingClosed, state.Status)
		}
		if bad := outOfRange(requested, state.TotalSeats); len(bad) > 0 {
			return &InvalidSeatError{Seats: bad, TotalSeats: state.TotalSeats}
		}

		var taken []int
		for _, seat := range requested {
			if state.BookedSeats.Contains(seat) {
				taken = append(taken, seat)
			}
		}
		if len(taken) > 0 {
			inv.log.LogSeatConflict(ctx, eventID.String(), requested, taken)
			return &SeatConflictError{Seats: taken}
		}

		state.BookedSeats = state.BookedSeats.Union(requested)
		return nil
	})
}

// Release returns seats to the pool. Every seat must currently be booked;
// anything else means the caller's records disagree with the inventory.
func (inv *Inventory) Release(ctx context.Context, eventID uuid.UUID, seats []int, alongside ...TxFunc) (*Snapshot, error) {
	return inv.ReleaseIf(ctx, eventID, seats, nil, alongside...)
}

// ReleaseIf is Release with a guard. The guard runs inside the transaction
// while the event is locked, before any seat changes; an error from it
// aborts the release untouched.
func (inv *Inventory) ReleaseIf(ctx context.Context, eventID uuid.UUID, seats []int, guard TxFunc, alongside ...TxFunc) (*Snapshot, error) {
	requested, err := normalizeSeats(seats)
	if err != nil {
		return nil, err
	}

	return inv.mutate(ctx, eventID, guard, alongside, func(state *State) error {
		var missing []int
		for _, seat := range requested {
			if !state.BookedSeats.Contains(seat) {
				missing = append(missing, seat)
			}
		}
		if len(missing) > 0 {
			inv.log.LogInvariantViolation(ctx, eventID.String(), "release of seats that are not booked", map[string]interface{}{
				"seats":        missing,
				"booked_seats": []int(state.BookedSeats),
			})
			return fmt.Errorf("%w: seats %v are not booked", ErrInvariantViolation, missing)
		}

		state.BookedSeats = state.BookedSeats.Without(requested)
		return nil
	})
}

// State returns the current seat state, from the mirror when it has it.
func (inv *Inventory) State(ctx context.Context, eventID uuid.UUID) (*Snapshot, error) {
	if inv.mirror != nil {
		snap, err := inv.mirror.Get(ctx, eventID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrMirrorMiss) {
			inv.log.WarnContext(ctx, "seat mirror read failed", "event_id", eventID.String(), "error", err)
		}
	}

	state, err := inv.store.LoadState(ctx, eventID)
	if err != nil {
		return nil, err
	}
	snap := state.Snapshot()
	inv.publishMirror(ctx, snap)
	return &snap, nil
}

func (inv *Inventory) mutate(ctx context.Context, eventID uuid.UUID, guard TxFunc, alongside []TxFunc, apply func(*State) error) (*Snapshot, error) {
	snap, err := inv.commit(ctx, eventID, guard, alongside, apply)
	if err != nil {
		return nil, err
	}

	inv.publishMirror(ctx, snap)
	return &snap, nil
}

// commit runs the seat change while holding the event's lock. The lock is
// released on every exit, including a panic in a callback.
func (inv *Inventory) commit(ctx context.Context, eventID uuid.UUID, guard TxFunc, alongside []TxFunc, apply func(*State) error) (Snapshot, error) {
	unlock := inv.locks.lock(eventID)
	defer unlock()

	var snap Snapshot
	var err error
	for attempt := 0; ; attempt++ {
		err = inv.store.WithTx(ctx, func(txCtx context.Context) error {
			state, err := inv.store.LoadState(txCtx, eventID)
			if err != nil {
				return err
			}
			if err := state.Check(); err != nil {
				inv.log.LogInvariantViolation(txCtx, eventID.String(), err.Error(), map[string]interface{}{
					"available_seats": state.AvailableSeats,
					"total_seats":     state.TotalSeats,
					"booked_count":    len(state.BookedSeats),
				})
				return err
			}
			if guard != nil {
				if err := guard(txCtx); err != nil {
					return err
				}
			}

			expected := state.Version
			if err := apply(state); err != nil {
				return err
			}
			state.AvailableSeats = state.TotalSeats - len(state.BookedSeats)
			state.Version = expected + 1

			if err := inv.store.SaveState(txCtx, state, expected); err != nil {
				return err
			}
			for _, fn := range alongside {
				if err := fn(txCtx); err != nil {
					return err
				}
			}

			snap = state.Snapshot()
			return nil
		})
		if !errors.Is(err, ErrStaleState) || attempt >= inv.maxRetries {
			break
		}
		inv.log.DebugContext(ctx, "seat state changed underneath, retrying",
			"event_id", eventID.String(), "attempt", attempt+1)
	}
	return snap, err
}

func (inv *Inventory) publishMirror(ctx context.Context, snap Snapshot) {
	if inv.mirror == nil {
		return
	}
	if err := inv.mirror.Publish(ctx, snap); err != nil {
		inv.log.WarnContext(ctx, "seat mirror publish failed, invalidating",
			"event_id", snap.EventID.String(), "version", snap.Version, "error", err)
		if err := inv.mirror.Invalidate(ctx, snap.EventID); err != nil {
			inv.log.ErrorContext(ctx, "seat mirror invalidate failed", "event_id", snap.EventID.String(), "error", err)
		}
	}
}

// ValidateSelection checks a seat selection against an event of totalSeats
// seats and returns it sorted.
func ValidateSelection(seats []int, totalSeats int) ([]int, error) {
	requested, err := normalizeSeats(seats)
	if err != nil {
		return nil, err
	}
	if bad := outOfRange(requested, totalSeats); len(bad) > 0 {
		return nil, &InvalidSeatError{Seats: bad, TotalSeats: totalSeats}
	}
	return requested, nil
}

// normalizeSeats rejects empty and repeated selections and returns the seats sorted.
func normalizeSeats(seats []int) ([]int, error) {
	if len(seats) == 0 {
		return nil, ErrNoSeats
	}

	out := make([]int, len(seats))
	copy(out, seats)
	sort.Ints(out)

	var dups []int
	for i := 1; i < len(out); i++ {
		if out[i] == out[i-1] && (len(dups) == 0 || dups[len(dups)-1] != out[i]) {
			dups = append(dups, out[i])
		}
	}
	if len(dups) > 0 {
		return nil, &InvalidSeatError{Seats: dups}
	}
	return out, nil
}

func outOfRange(seats []int, total int) []int {
	var bad []int
	for _, seat := range seats {
		if seat < 1 || seat > total {
			bad = append(bad, seat)
		}
	}
	return bad
}
