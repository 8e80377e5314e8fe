package bookings

import (
	"time"

	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
	"github.com/Moses-lal/Smart-Event-Manager/internal/seats"
	"github.com/Moses-lal/Smart-Event-Manager/internal/shared/utils/response"
)

type EventSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Location string    `json:"location"`
	Date     time.Time `json:"date"`
}

type BookingResponse struct {
	ID          string        `json:"id"`
	BookingRef  string        `json:"booking_ref"`
	EventID     string        `json:"event_id"`
	UserID      string        `json:"user_id"`
	SeatNumbers []int         `json:"seat_numbers"`
	Quantity    int           `json:"quantity"`
	TotalPrice  float64       `json:"total_price"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	Event       *EventSummary `json:"event,omitempty"`

	// Set on create and cancel only
	Seats     []pricing.Quote `json:"seats,omitempty"`
	SeatState *seats.Snapshot `json:"seat_state,omitempty"`
}

type PaginatedBookings struct {
	Bookings   []BookingResponse   `json:"bookings"`
	Pagination response.Pagination `json:"pagination"`
}

// ConsistencyReport compares an event's booked seats with its confirmed
// bookings. MissingFromEvent lists seats held by a confirmed booking but not
// marked booked on the event, Orphaned the reverse. DoubleBooked lists seats
// held by more than one confirmed booking.
type ConsistencyReport struct {
	EventID          string `json:"event_id"`
	Consistent       bool   `json:"consistent"`
	TotalSeats       int    `json:"total_seats"`
	AvailableSeats   int    `json:"available_seats"`
	BookedSeats      []int  `json:"booked_seats"`
	BookingSeats     []int  `json:"booking_seats"`
	MissingFromEvent []int  `json:"missing_from_event"`
	Orphaned         []int  `json:"orphaned"`
	DoubleBooked     []int  `json:"double_booked"`
	CountMismatch    bool   `json:"count_mismatch"`
}

func (r *ConsistencyReport) isConsistent() bool {
	return len(r.MissingFromEvent) == 0 &&
		len(r.Orphaned) == 0 &&
		len(r.DoubleBooked) == 0 &&
		!r.CountMismatch
}

func (b *Booking) ToResponse() BookingResponse {
	resp := BookingResponse{
		ID:          b.ID.String(),
		BookingRef:  b.BookingRef,
		EventID:     b.EventID.String(),
		UserID:      b.UserID.String(),
		SeatNumbers: b.SeatNumbers.Clone(),
		Quantity:    b.Quantity,
		TotalPrice:  b.TotalPrice,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
		CancelledAt: b.CancelledAt,
	}
	if b.Event != nil {
		resp.Event = &EventSummary{
			ID:       b.Event.ID.String(),
			Title:    b.Event.Title,
			Location: b.Event.Location,
			Date:     b.Event.Date,
		}
	}
	return resp
}
