package bookings

import "github.com/google/uuid"

type CreateBookingRequest struct {
	EventID     uuid.UUID `json:"event_id" binding:"required"`
	SeatNumbers []int     `json:"seat_numbers" binding:"required,min=1,max=50"`
}

type BookingListQuery struct {
	Page    int    `form:"page" binding:"omitempty,min=1"`
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status  string `form:"status" binding:"omitempty,booking_status"`
	EventID string `form:"event_id" binding:"omitempty,uuid"`
}

func (q *BookingListQuery) normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
}
