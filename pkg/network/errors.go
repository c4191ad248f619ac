package network

import (
	"errors"
	"fmt"
)

// Sentinel parse errors. Parsing is atomic: when any of these is returned
// no partial network is exposed.
var (
	ErrEmptyStructure    = errors.New("empty structure string")
	ErrBadNodeID         = errors.New("node identifier is not a positive integer")
	ErrBadVersion        = errors.New("node version is not a positive integer")
	ErrVersionGap        = errors.New("node version referenced out of sequence")
	ErrSelfLoop          = errors.New("segment starts and ends on the same node version")
	ErrSingleNodeChain   = errors.New("chain has fewer than two nodes")
	ErrOrphanNode        = errors.New("node has no incident segments")
	ErrUnbalancedCapMark = errors.New("cap mark not at chain boundary")
)

// ParseError reports a structural error in a structure string, with the
// chain and token it occurred at.
type ParseError struct {
	Chain string // the offending comma-separated chain
	Token string // the offending dash-separated token, if any
	Cause error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse chain %q token %q: %v", e.Chain, e.Token, e.Cause)
	}
	return fmt.Sprintf("parse chain %q: %v", e.Chain, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Is reports whether the target matches this error's cause.
func (e *ParseError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func parseErr(chain, token string, cause error) error {
	return &ParseError{Chain: chain, Token: token, Cause: cause}
}
