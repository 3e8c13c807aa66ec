// Package selection implements the knapsack local-search engine: a density
// ranked greedy constructor followed by neighborhood search over add, swap
// and exchange moves.
package selection

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a solver failure
type ErrorKind int

const (
	// MalformedInput means the instance failed validation before solving
	MalformedInput ErrorKind = iota + 1
	// InternalFailure means the engine panicked or broke one of its own invariants
	InternalFailure
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case InternalFailure:
		return "internal failure"
	default:
		return "unknown error"
	}
}

// Error represents an error that occurs while solving an instance
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

var (
	// ErrInfeasibleMove is returned by SolutionState.Apply when the move would exceed capacity
	ErrInfeasibleMove = errors.New("move exceeds capacity")
	// ErrInvalidMove is returned when a move references unknown ids or the wrong membership
	ErrInvalidMove = errors.New("invalid move")
)

// IsKind reports whether err is a selection *Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var selErr *Error
	if errors.As(err, &selErr) {
		return selErr.Kind == kind
	}
	return false
}
