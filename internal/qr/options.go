// Package qr validates rendering options and renders payloads into QR code images
package qr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/qrtist/backend/internal/models"
	"github.com/qrtist/backend/internal/validation"
)

const (
	MinModuleSize = 5
	MaxModuleSize = 20

	DefaultModuleSize = 10
	DefaultForeground = "#000000"
	DefaultBackground = "#FFFFFF"
)

// optionsInput mirrors RenderOptions with validation rules attached
type optionsInput struct {
	ModuleSize int    `json:"size" validate:"min=5,max=20"`
	Foreground string `json:"fill_color" validate:"rgbhex"`
	Background string `json:"back_color" validate:"rgbhex"`
}

// DefaultOptions returns the options used when a request does not specify any
func DefaultOptions() models.RenderOptions {
	return models.RenderOptions{
		ModuleSize: DefaultModuleSize,
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// ValidateOptions checks the module size and both colors and returns normalized options.
//
// Module size must be in [5, 20], otherwise ErrInvalidSize is returned.
// Colors must be 6 hex digits with an optional "#" prefix, otherwise ErrInvalidColor is returned.
// Returned colors are upper case and always carry the "#" prefix.
func ValidateOptions(moduleSize int, foreground, background string) (models.RenderOptions, error) {
	in := optionsInput{
		ModuleSize: moduleSize,
		Foreground: foreground,
		Background: background,
	}

	if err := validation.Get().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return models.RenderOptions{}, fmt.Errorf("%w: %v", models.ErrValidation, err)
		}
		fe := verrs[0]
		if fe.Field() == "size" {
			return models.RenderOptions{}, fmt.Errorf("%w: size must be between %d and %d, got %d",
				models.ErrInvalidSize, MinModuleSize, MaxModuleSize, moduleSize)
		}
		return models.RenderOptions{}, fmt.Errorf("%w: %s", models.ErrInvalidColor, validation.FieldMessage(fe))
	}

	return models.RenderOptions{
		ModuleSize: moduleSize,
		Foreground: normalizeColor(foreground),
		Background: normalizeColor(background),
	}, nil
}

// normalizeColor converts a validated color into the "#RRGGBB" form
func normalizeColor(c string) string {
	return "#" + strings.ToUpper(strings.TrimPrefix(c, "#"))
}
