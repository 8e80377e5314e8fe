package seats

import (
	"github.com/Moses-lal/Smart-Event-Manager/internal/pricing"
)

// QuoteResponse prices a seat selection before booking.
type QuoteResponse struct {
	EventID     string          `json:"event_id"`
	BasePrice   float64         `json:"base_price"`
	Seats       []pricing.Quote `json:"seats"`
	Total       float64         `json:"total"`
	Unavailable []int           `json:"unavailable_seats"`
}
