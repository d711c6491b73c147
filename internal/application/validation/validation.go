// Package validation checks service inputs with struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("tenant", func(fl validator.FieldLevel) bool {
		_, err := catalog.ParseTenant(fl.Field().String())
		return err == nil
	})
	return v
}

// Struct validates s and reports the first failure as a domain error.
// Unknown tenants map to INVALID_TENANT, everything else to INVALID_INPUT.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return shared.ErrInvalidInput.WithMessage(err.Error())
	}

	first := verrs[0]
	if first.Tag() == "tenant" {
		return shared.ErrInvalidTenant.WithMessage("Unknown store: " + fmt.Sprint(first.Value()))
	}
	return shared.ErrInvalidInput.WithMessage(first.Field() + ": " + Message(first))
}

// Message returns a human-readable message for one field error
func Message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "url":
		return "Invalid URL format"
	case "tenant":
		return "Unknown store"
	default:
		return "Invalid value"
	}
}
