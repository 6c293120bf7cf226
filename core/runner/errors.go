package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariantViolation is matched by every *InvariantViolation.
	ErrInvariantViolation = errors.New("scheduling invariant violation")
	// ErrHalted is returned by every call made after a violation.
	ErrHalted = errors.New("runner halted")
)

// InvariantViolation reports a fleet state the runner refused to commit.
type InvariantViolation struct {
	Time   int64
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("scheduling invariant violation at t=%d: %s", e.Time, e.Reason)
}

// Is makes errors.Is(err, ErrInvariantViolation) succeed.
func (e *InvariantViolation) Is(target error) bool { return target == ErrInvariantViolation }

func violation(now int64, format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Time: now, Reason: fmt.Sprintf(format, args...)}
}
