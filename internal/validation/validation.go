// Package validation runs struct-tag validation and turns the result into a
// single ValidationError with readable field messages.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"gymhub/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

// newValidator reports fields by their json names so messages match the
// request bodies clients send.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func Struct(s any) error {
	errs := Fields(s)
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

// Fields returns every failed rule of s, or nil when s is valid.
func Fields(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// Price accepts non-negative amounts with at most two decimal places.
func Price(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return apperr.Validation("price must have at most two decimal places")
	}
	return nil
}

func message(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "gt":
		return err.Field() + " must be greater than " + err.Param()
	case "gte":
		return err.Field() + " must be greater than or equal to " + err.Param()
	case "lte":
		return err.Field() + " must be less than or equal to " + err.Param()
	case "oneof":
		return err.Field() + " must be one of " + err.Param()
	case "datetime":
		return err.Field() + " must match layout " + err.Param()
	default:
		return err.Field() + " is invalid"
	}
}
