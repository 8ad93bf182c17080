// Package validation wraps validator/v10 and converts its failures to domain errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/kellerblick/storefront/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the storefront's custom tags registered:
// "isodate" (YYYY-MM-DD) and "clock" (HH:MM).
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("isodate", layoutValidator(time.DateOnly))
	_ = v.RegisterValidation("clock", layoutValidator("15:04"))

	return &Validator{v: v}
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, fl.Field().String())
		return err == nil
	}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Fields validates s and returns the failing fields keyed by their JSON path,
// or nil when s is valid.
func (v *Validator) Fields(s any) map[string]string {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string]string{"": err.Error()}
	}
	return v.collect(validationErrs)
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	return domainerrors.ValidationWithDetails("validation failed", v.collect(validationErrs))
}

func (v *Validator) collect(errs validator.ValidationErrors) map[string]string {
	fieldErrors := make(map[string]string, len(errs))
	for _, e := range errs {
		// Namespace is "Type.field.sub"; drop the root struct name.
		path := e.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		fieldErrors[path] = v.friendlyMessage(e)
	}
	return fieldErrors
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.String || e.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String || e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return "must not exceed " + e.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "ltefield":
		return "must be less than or equal to " + e.Param()
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "clock":
		return "must be a time in HH:MM format"
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return "is invalid"
	}
}
