package profile

import (
	"errors"
	"fmt"
)

// Sentinel feasibility errors. An infeasible combination is rejected
// before any geometry exists rather than producing a self-intersecting
// profile.
var (
	ErrAroundTooSmall       = errors.New("elements count around must be at least 4")
	ErrAroundNotMultipleOf4 = errors.New("elements count around must be a multiple of 4 with core")
	ErrBoxMinorOdd          = errors.New("core box minor count must be even")
	ErrBoxMinorRange        = errors.New("core box minor count out of range for elements around")
	ErrTransitionRange      = errors.New("transition count out of range for core box")
	ErrShellRange           = errors.New("elements count through shell must be at least 1")
)

// InfeasibleError reports a cross-section layout that cannot be built,
// with the counts it was attempted with.
type InfeasibleError struct {
	Around     int
	Shell      int
	BoxMinor   int
	Transition int
	Cause      error
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("infeasible cross-section (around %d, shell %d, box minor %d, transition %d): %v",
		e.Around, e.Shell, e.BoxMinor, e.Transition, e.Cause)
}

func (e *InfeasibleError) Unwrap() error { return e.Cause }

// Is reports whether the target matches this error's cause.
func (e *InfeasibleError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}
