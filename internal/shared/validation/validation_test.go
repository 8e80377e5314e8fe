package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Category string `validate:"omitempty,event_category"`
	Status   string `validate:"omitempty,event_status"`
	Booking  string `validate:"omitempty,booking_status"`
}

func TestRegisterOn(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterOn(v))

	tests := []struct {
		name    string
		in      sample
		wantErr bool
	}{
		{"empty fields", sample{}, false},
		{"known values", sample{Category: "music", Status: "upcoming", Booking: "confirmed"}, false},
		{"unknown category", sample{Category: "opera"}, true},
		{"status is case sensitive", sample{Status: "UPCOMING"}, true},
		{"unknown booking status", sample{Booking: "pending"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	assert.NoError(t, Register())
}
