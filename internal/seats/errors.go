package seats

import (
	"errors"
	"fmt"

	"github.com/Moses-lal/Smart-Event-Manager/internal/events"
	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
)

var (
	ErrEventNotFound      = events.ErrEventNotFound
	ErrInvalidSeat        = pricing.ErrInvalidSeat
	ErrNoSeats            = errors.New("at least one seat must be selected")
	ErrBookingClosed      = errors.New("booking is closed for this event")
	ErrSeatConflict       = errors.New("seats are no longer available")
	ErrInvariantViolation = errors.New("seat inventory invariant violated")
	// ErrStaleState means the seat row changed between read and conditional write.
	ErrStaleState = errors.New("seat state changed concurrently")
)

// SeatConflictError names the requested seats that are already booked.
type SeatConflictError struct {
	Seats []int
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats %v were just booked by someone else, please reselect", e.Seats)
}

func (e *SeatConflictError) Is(target error) bool {
	return target == ErrSeatConflict
}

// InvalidSeatError names seats outside [1, TotalSeats] or repeated in one request.
type InvalidSeatError struct {
	Seats      []int
	TotalSeats int
}

func (e *InvalidSeatError) Error() string {
	if e.TotalSeats > 0 {
		return fmt.Sprintf("invalid seat numbers %v: seats must be between 1 and %d and not repeated", e.Seats, e.TotalSeats)
	}
	return fmt.Sprintf("invalid seat numbers %v", e.Seats)
}

func (e *InvalidSeatError) Is(target error) bool {
	return target == ErrInvalidSeat
}

// UnavailableSeats returns the conflicting seats carried by err, if any.
func UnavailableSeats(err error) []int {
	var conflict *SeatConflictError
	if errors.As(err, &conflict) {
		return conflict.Seats
	}
	return nil
}
