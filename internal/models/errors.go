package models

import (
	"errors"
	"fmt"
)

// Error categories. Handlers map these to response statuses with errors.Is.
var (
	ErrValidation  = errors.New("validation error")
	ErrRender      = errors.New("render error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("persistence error")
)

// Validation kinds
var (
	ErrInvalidSize     = fmt.Errorf("%w: invalid size", ErrValidation)
	ErrInvalidColor    = fmt.Errorf("%w: invalid color", ErrValidation)
	ErrInvalidURL      = fmt.Errorf("%w: invalid url", ErrValidation)
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", ErrValidation)
	ErrInvalidFileType = fmt.Errorf("%w: invalid file type", ErrValidation)
	ErrEmptyPayload    = fmt.Errorf("%w: empty payload", ErrValidation)
	ErrContentTooLong  = fmt.Errorf("%w: content too long", ErrValidation)
)

// ErrPayloadTooLarge is returned when no symbol version can hold the payload.
var ErrPayloadTooLarge = fmt.Errorf("%w: payload too large", ErrRender)
