package events

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// SeatSet is a sorted set of seat numbers stored as a JSON array.
type SeatSet []int

// NewSeatSet returns the sorted, de-duplicated set of seats.
func NewSeatSet(seats ...int) SeatSet {
	out := make(SeatSet, 0, len(seats))
	seen := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

func (s SeatSet) Len() int { return len(s) }

// Contains uses binary search; s must be sorted.
func (s SeatSet) Contains(seat int) bool {
	i := sort.SearchInts(s, seat)
	return i < len(s) && s[i] == seat
}

// Union returns s with every seat in other added.
func (s SeatSet) Union(other []int) SeatSet {
	merged := make([]int, 0, len(s)+len(other))
	merged = append(merged, s...)
	merged = append(merged, other...)
	return NewSeatSet(merged...)
}

// Without returns s with every seat in other removed.
func (s SeatSet) Without(other []int) SeatSet {
	drop := make(map[int]struct{}, len(other))
	for _, seat := range other {
		drop[seat] = struct{}{}
	}
	out := make(SeatSet, 0, len(s))
	for _, seat := range s {
		if _, ok := drop[seat]; !ok {
			out = append(out, seat)
		}
	}
	return out
}

// Equal reports whether both sets hold the same seats.
func (s SeatSet) Equal(other SeatSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no memory with s.
func (s SeatSet) Clone() SeatSet {
	out := make(SeatSet, len(s))
	copy(out, s)
	return out
}

// Value always writes an array, never null.
func (s SeatSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SeatSet) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*s = SeatSet{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported seat set column type %T", value)
	}

	var seats []int
	if err := json.Unmarshal(data, &seats); err != nil {
		return fmt.Errorf("decode seat set: %w", err)
	}
	*s = NewSeatSet(seats...)
	return nil
}

// MarshalJSON keeps empty sets as [] in API payloads.
func (s SeatSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]int(s))
}
