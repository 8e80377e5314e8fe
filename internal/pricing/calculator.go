package pricing

import (
	"math"
)

// Quote is the price of one seat.
type Quote struct {
	Seat       int     `json:"seat"`
	Zone       string  `json:"zone"`
	Multiplier float64 `json:"multiplier"`
	Price      float64 `json:"price"`
}

// Breakdown is the priced result for a seat selection.
type Breakdown struct {
	Seats []Quote `json:"seats"`
	Total float64 `json:"total"`
}

// Calculator prices seats against an event's zone layout, falling back to
// the configured default layout when the event carries none.
type Calculator struct {
	fallback Layout
}

func NewCalculator(fallback Layout) *Calculator {
	if len(fallback) == 0 {
		fallback = DefaultLayout()
	}
	return &Calculator{fallback: fallback}
}

// LayoutFor returns the layout that applies to an event.
func (c *Calculator) LayoutFor(custom Layout) Layout {
	if len(custom) > 0 {
		return custom
	}
	return c.fallback
}

// Price returns the zone and price of a single seat.
func (c *Calculator) Price(layout Layout, seat int, basePrice float64) (Quote, error) {
	zone, err := c.LayoutFor(layout).ZoneFor(seat)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Seat:       seat,
		Zone:       zone.Label,
		Multiplier: zone.Multiplier,
		Price:      roundCents(basePrice * zone.Multiplier),
	}, nil
}

// Total prices every seat and sums the result. Any out-of-range seat fails
// the whole selection.
func (c *Calculator) Total(layout Layout, seats []int, basePrice float64) (*Breakdown, error) {
	out := &Breakdown{Seats: make([]Quote, 0, len(seats))}
	for _, seat := range seats {
		q, err := c.Price(layout, seat, basePrice)
		if err != nil {
			return nil, err
		}
		out.Seats = append(out.Seats, q)
		out.Total += q.Price
	}
	out.Total = roundCents(out.Total)
	return out, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
