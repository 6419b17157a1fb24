// Package engine defines the feasibility-engine capability interface shared by
// all solver backends. An engine answers boolean feasibility queries over a
// fixed set of candidates: clauses require at least one of a set of candidates
// to be selected, forbidden pairs prevent two candidates from being selected
// together. Engines only ever tighten; retracting a constraint means creating
// a fresh engine through the Factory.
package engine

import (
	"context"

	"github.com/pkg/errors"
)

// Status is the outcome of a feasibility query.
type Status byte

const (
	// Indet means the query was not decided, e.g. because the deadline elapsed.
	Indet = Status(iota)
	// Sat means a selection satisfying all constraints exists.
	Sat
	// Unsat means no selection can satisfy the constraints.
	Unsat
)

func (s Status) String() string {
	switch s {
	case Indet:
		return "INDETERMINATE"
	case Sat:
		return "SAT"
	case Unsat:
		return "UNSAT"
	default:
		panic("invalid status")
	}
}

// ErrTimeout is reported when the deadline elapsed before a definitive answer.
// It is terminal for the solve call that raised it: no constraint may be added
// to the engine afterwards.
var ErrTimeout = errors.New("engine: deadline elapsed before a definitive answer")

// Interface is the capability contract of a feasibility engine.
type Interface interface {
	// AddClause requires that at least one of the given candidates is
	// selected. The set must be non-empty and all indices valid.
	AddClause(candidates []int) error
	// ForbidPair prevents candidates a and b from being selected together.
	// Requires a != b and both indices valid.
	ForbidPair(a, b int) error
	// Solve decides feasibility under the context deadline. On Sat it also
	// returns the selected candidates. If the deadline elapses first, it
	// returns Indet and an error wrapping ErrTimeout.
	Solve(ctx context.Context) (Status, []int, error)
	// Close releases solver resources. The engine must not be used afterwards.
	Close() error
}

// CutFunc inspects a satisfying selection and returns additional clauses
// ("cuts") that the selection violates, or nothing if it is acceptable.
type CutFunc func(selected []int) ([][]int, error)

// LazyEngine is implemented by engines that can apply cuts natively during
// Solve instead of having the caller drive the solve/cut fixpoint.
type LazyEngine interface {
	Interface
	// RegisterLazyCuts installs the cut generator consulted on every
	// satisfying selection found during Solve.
	RegisterLazyCuts(cuts CutFunc)
}

// Factory creates a fresh engine over n candidates.
type Factory func(n int) (Interface, error)

// ValidateClause checks a clause against the candidate range [0,n).
func ValidateClause(n int, candidates []int) error {
	if len(candidates) == 0 {
		return errors.New("engine: empty clause")
	}
	for _, c := range candidates {
		if c < 0 || c >= n {
			return errors.Errorf("engine: candidate %d out of range [0,%d)", c, n)
		}
	}
	return nil
}

// ValidatePair checks a forbidden pair against the candidate range [0,n).
func ValidatePair(n, a, b int) error {
	if a == b {
		return errors.Errorf("engine: forbidden pair (%d,%d) must be distinct", a, b)
	}
	if a < 0 || a >= n || b < 0 || b >= n {
		return errors.Errorf("engine: pair (%d,%d) out of range [0,%d)", a, b, n)
	}
	return nil
}
