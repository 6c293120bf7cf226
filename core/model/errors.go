package model

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports malformed order or flight input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
