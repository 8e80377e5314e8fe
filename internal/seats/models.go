package seats

import (
	"fmt"
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/realtime"

	"github.com/google/uuid"
)

// State is the authoritative seat record of one event.
type State struct {
	EventID        uuid.UUID
	Status         events.Status
	TotalSeats     int
	AvailableSeats int
	BookedSeats    events.SeatSet
	Version        int64
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	cp := *s
	cp.BookedSeats = s.BookedSeats.Clone()
	return &cp
}

// Check verifies the seat accounting of s.
func (s *State) Check() error {
	if s.TotalSeats <= 0 {
		return fmt.Errorf("%w: total seats %d", ErrInvariantViolation, s.TotalSeats)
	}
	if want := s.TotalSeats - len(s.BookedSeats); s.AvailableSeats != want {
		return fmt.Errorf("%w: available seats %d, expected %d", ErrInvariantViolation, s.AvailableSeats, want)
	}
	for i, seat := range s.BookedSeats {
		if seat < 1 || seat > s.TotalSeats {
			return fmt.Errorf("%w: booked seat %d outside 1-%d", ErrInvariantViolation, seat, s.TotalSeats)
		}
		if i > 0 && s.BookedSeats[i-1] >= seat {
			return fmt.Errorf("%w: booked seats not a sorted set", ErrInvariantViolation)
		}
	}
	return nil
}

// Snapshot is a read-only copy of an event's seat state.
type Snapshot struct {
	EventID        uuid.UUID `json:"event_id"`
	BookedSeats    []int     `json:"booked_seats"`
	AvailableSeats int       `json:"available_seats"`
	TotalSeats     int       `json:"total_seats"`
	Version        int64     `json:"version"`
}

func (s *State) Snapshot() Snapshot {
	booked := make([]int, len(s.BookedSeats))
	copy(booked, s.BookedSeats)
	return Snapshot{
		EventID:        s.EventID,
		BookedSeats:    booked,
		AvailableSeats: s.AvailableSeats,
		TotalSeats:     s.TotalSeats,
		Version:        s.Version,
	}
}

// Message converts the snapshot into the fan-out message.
func (s Snapshot) Message(at time.Time) realtime.SeatStateChanged {
	booked := make([]int, len(s.BookedSeats))
	copy(booked, s.BookedSeats)
	return realtime.SeatStateChanged{
		EventID:        s.EventID,
		BookedSeats:    booked,
		AvailableSeats: s.AvailableSeats,
		TotalSeats:     s.TotalSeats,
		Version:        s.Version,
		OccurredAt:     at,
	}
}

func stateFromEvent(e *events.Event) *State {
	booked := e.BookedSeats
	if booked == nil {
		booked = events.SeatSet{}
	}
	return &State{
		EventID:        e.ID,
		Status:         e.Status,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats,
		BookedSeats:    booked,
		Version:        e.SeatVersion,
	}
}
