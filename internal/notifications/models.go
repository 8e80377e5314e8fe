package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type BookingEventType string

const (
	BookingEventConfirmed BookingEventType = "BOOKING_CONFIRMED"
	BookingEventCancelled BookingEventType = "BOOKING_CANCELLED"
)

// BookingEvent is the domain message emitted after a booking commits.
type BookingEvent struct {
	ID          uuid.UUID        `json:"id"`
	Type        BookingEventType `json:"type"`
	BookingID   uuid.UUID        `json:"booking_id"`
	BookingRef  string           `json:"booking_ref"`
	EventID     uuid.UUID        `json:"event_id"`
	UserID      uuid.UUID        `json:"user_id"`
	ActorID     *uuid.UUID       `json:"actor_id,omitempty"`
	SeatNumbers []int            `json:"seat_numbers"`
	TotalPrice  float64          `json:"total_price"`
	// SeatVersion is the seat-state version the booking change produced
	SeatVersion int64     `json:"seat_version"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewBookingEvent stamps a new message with an id and time.
func NewBookingEvent(eventType BookingEventType) *BookingEvent {
	return &BookingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}

// PartitionKey keeps every message of one event on the same partition.
func (e *BookingEvent) PartitionKey() string {
	return e.EventID.String()
}

func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
