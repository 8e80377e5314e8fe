package bookings

import "errors"

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrForbidden        = errors.New("booking belongs to another user")
)
