// Package validation provides a shared request validator with project specific tags
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// rgbHexPattern matches a 6-digit RGB hex color with an optional leading "#"
var rgbHexPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Get returns the shared validator instance
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = New()
	})
	return validate
}

// New creates a validator that reports JSON field names and knows the "rgbhex" tag
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for an empty tag name
	_ = v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return IsRGBHex(fl.Field().String())
	})

	return v
}

// IsRGBHex reports whether s is a 6-digit RGB hex color, optionally prefixed with "#"
func IsRGBHex(s string) bool {
	return rgbHexPattern.MatchString(s)
}

// Message renders the first validation failure of err as a readable reason.
// Errors that are not validator errors are returned as is.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	return FieldMessage(verrs[0])
}

// FieldMessage renders a single field error
func FieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "rgbhex":
		return fmt.Sprintf("%s must be a 6-digit hex color like #1A2B3C", fe.Field())
	case "http_url", "url":
		return "Please enter a valid URL"
	default:
		return fmt.Sprintf("%s failed on the %q rule", fe.Field(), fe.Tag())
	}
}
