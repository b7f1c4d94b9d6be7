// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
)

// Offsets outside this range do not exist on any civil clock.
const (
	minUTCOffsetHours = -12
	maxUTCOffsetHours = 14
)

// Validator wraps the go-playground validator for structured validation.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the shared custom rules registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("iana_tz", validateIANATimezone)
	_ = v.RegisterValidation("utc_offset", validateUTCOffset)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// validateIANATimezone accepts names the runtime zone database knows, e.g. America/New_York.
func validateIANATimezone(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	if name == "" || strings.EqualFold(name, "local") {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

func validateUTCOffset(fl validator.FieldLevel) bool {
	offset := fl.Field().Int()
	return offset >= minUTCOffsetHours && offset <= maxUTCOffsetHours
}
