package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidElement    = errors.New("invalid element")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrBusy              = errors.New("operation already in progress")
	ErrInvalidInput      = errors.New("invalid input")

	ErrCanvasTooLarge = fmt.Errorf("%w: canvas too large", ErrInvalidInput)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidElement, fmt.Sprintf(format, args...))
}
