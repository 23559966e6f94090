package models

import (
	"errors"
	"fmt"
)

// ErrValidation marks input rejected by a business rule.
var ErrValidation = errors.New("validation failed")

// ValidationError carries a client-facing description of rejected input and
// matches ErrValidation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
