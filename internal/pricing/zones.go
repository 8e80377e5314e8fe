package pricing

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidSeat   = errors.New("invalid seat number")
	ErrInvalidLayout = errors.New("invalid zone layout")
)

// Zone is a contiguous seat-number range sharing one price multiplier.
// To == 0 means the zone is open-ended.
type Zone struct {
	Label      string  `json:"label"`
	From       int     `json:"from"`
	To         int     `json:"to,omitempty"`
	Multiplier float64 `json:"multiplier"`
}

// Contains reports whether seat falls inside the zone.
func (z Zone) Contains(seat int) bool {
	if seat < z.From {
		return false
	}
	return z.To == 0 || seat <= z.To
}

func (z Zone) String() string {
	if z.To == 0 {
		return fmt.Sprintf("%s:%d-:%g", z.Label, z.From, z.Multiplier)
	}
	return fmt.Sprintf("%s:%d-%d:%g", z.Label, z.From, z.To, z.Multiplier)
}

// Layout is an ordered list of zones starting at seat 1.
type Layout []Zone

// DefaultLayout returns the three-tier VIP / Premium / Standard scheme.
func DefaultLayout() Layout {
	return Layout{
		{Label: "VIP", From: 1, To: 16, Multiplier: 3},
		{Label: "Premium", From: 17, To: 46, Multiplier: 2},
		{Label: "Standard", From: 47, Multiplier: 1},
	}
}

// Validate checks that zones are ordered, contiguous from seat 1 and
// priced with positive multipliers. Only the last zone may be open-ended.
func (l Layout) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("%w: at least one zone is required", ErrInvalidLayout)
	}

	next := 1
	for i, z := range l {
		if strings.TrimSpace(z.Label) == "" {
			return fmt.Errorf("%w: zone %d has no label", ErrInvalidLayout, i+1)
		}
		if z.Multiplier <= 0 {
			return fmt.Errorf("%w: zone %q multiplier must be positive", ErrInvalidLayout, z.Label)
		}
		if z.From != next {
			return fmt.Errorf("%w: zone %q must start at seat %d", ErrInvalidLayout, z.Label, next)
		}
		if z.To == 0 {
			if i != len(l)-1 {
				return fmt.Errorf("%w: only the last zone may be open-ended", ErrInvalidLayout)
			}
			return nil
		}
		if z.To < z.From {
			return fmt.Errorf("%w: zone %q ends before it starts", ErrInvalidLayout, z.Label)
		}
		next = z.To + 1
	}
	return nil
}

// LastSeat returns the highest seat covered by the layout, or 0 when the
// last zone is open-ended.
func (l Layout) LastSeat() int {
	if len(l) == 0 {
		return 0
	}
	return l[len(l)-1].To
}

// ZoneFor returns the zone that owns seat.
func (l Layout) ZoneFor(seat int) (Zone, error) {
	if seat < 1 {
		return Zone{}, fmt.Errorf("%w: %d", ErrInvalidSeat, seat)
	}
	for _, z := range l {
		if z.Contains(seat) {
			return z, nil
		}
	}
	return Zone{}, fmt.Errorf("%w: %d is outside every zone", ErrInvalidSeat, seat)
}

func (l Layout) String() string {
	parts := make([]string, len(l))
	for i, z := range l {
		parts[i] = z.String()
	}
	return strings.Join(parts, ",")
}

// ParseLayout reads the compact "Label:from-to:multiplier" form used in
// configuration, e.g. "VIP:1-16:3,Premium:17-46:2,Standard:47-:1".
func ParseLayout(raw string) (Layout, error) {
	var layout Layout
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		fields := strings.Split(item, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: %q is not label:from-to:multiplier", ErrInvalidLayout, item)
		}

		bounds := strings.SplitN(fields[1], "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("%w: %q has no seat range", ErrInvalidLayout, item)
		}
		from, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: bad range start in %q", ErrInvalidLayout, item)
		}
		to := 0
		if end := strings.TrimSpace(bounds[1]); end != "" {
			if to, err = strconv.Atoi(end); err != nil {
				return nil, fmt.Errorf("%w: bad range end in %q", ErrInvalidLayout, item)
			}
		}
		multiplier, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad multiplier in %q", ErrInvalidLayout, item)
		}

		layout = append(layout, Zone{
			Label:      strings.TrimSpace(fields[0]),
			From:       from,
			To:         to,
			Multiplier: multiplier,
		})
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// Value stores the layout as JSON.
func (l Layout) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON layout column.
func (l *Layout) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported zone layout column type %T", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}
