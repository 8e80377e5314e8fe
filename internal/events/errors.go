package events

import "errors"

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrTotalSeatsImmutable = errors.New("total seats cannot be changed after creation")
	ErrEventHasBookings    = errors.New("event has confirmed bookings and cannot be deleted")
)
