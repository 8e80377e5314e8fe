package validation

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	eventCategories = map[string]struct{}{
		"music": {}, "tech": {}, "sports": {}, "food": {}, "art": {}, "other": {},
	}
	eventStatuses = map[string]struct{}{
		"upcoming": {}, "ongoing": {}, "completed": {}, "cancelled": {},
	}
	bookingStatuses = map[string]struct{}{
		"confirmed": {}, "cancelled": {},
	}
)

// Register installs the custom tags on gin's validator. Call once at boot.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return RegisterOn(v)
}

// RegisterOn installs the custom tags on v.
func RegisterOn(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"event_category": oneOf(eventCategories),
		"event_status":   oneOf(eventStatuses),
		"booking_status": oneOf(bookingStatuses),
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

func oneOf(allowed map[string]struct{}) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}
}
