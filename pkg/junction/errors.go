package junction

import (
	"errors"
	"fmt"
)

// Sentinel causes for incompatible junctions.
var (
	ErrOddConnectionSum = errors.New("incident around counts sum to an odd number")
	ErrNoDecomposition  = errors.New("no positive pairwise connection counts exist")
	ErrTooFewRings      = errors.New("a junction needs at least two incident rings")
	ErrCoreChainCounts  = errors.New("core continuation requires equal core counts")
	ErrCoreSaddle       = errors.New("solid core cannot continue through a branching saddle")
)

// IncompatibleError reports a junction whose incident around counts admit
// no valid pairwise connection-count decomposition.
type IncompatibleError struct {
	NodeID int
	Around []int
	Cause  error
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("incompatible junction at node %d (around counts %v): %v",
		e.NodeID, e.Around, e.Cause)
}

func (e *IncompatibleError) Unwrap() error { return e.Cause }

// Is reports whether the target matches this error's cause.
func (e *IncompatibleError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}
