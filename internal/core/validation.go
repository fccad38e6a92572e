// AngelaMos | 2026
// validation.go

package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
)

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

// NewValidator returns a validator that reports JSON field names and knows
// the "phone" and "notblank" tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	//nolint:errcheck // tag name is static and valid
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	//nolint:errcheck // tag name is static and valid
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return v
}

// CanonicalID returns id in canonical UUID form. Path IDs go through it
// before reaching a UUID column so malformed input reads as not found.
func CanonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
