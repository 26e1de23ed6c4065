package attenuation

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrInvalidInput is returned for any non-physical geometry or measurement.
var ErrInvalidInput = errors.New("invalid input")

// InputError identifies the offending parameter and its value.
type InputError struct {
	Param string
	Value any
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s=%v", ErrInvalidInput, e.Param, e.Value)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Invalid returns an InputError for param.
func Invalid(param string, value any) error {
	return &InputError{Param: param, Value: value}
}

// IsInvalidInput reports whether err was caused by invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// positive reports an InputError unless v > 0. NaN is never positive.
func positive(param string, v float64) error {
	if !(v > 0) {
		return Invalid(param, v)
	}
	return nil
}
