package disp

import (
	"github.com/pkg/errors"

	"github.com/optlabs/dispgard/instance"
)

// A Region is an opaque handle to a piece of area, owned by the Oracle that
// produced it.
type Region interface{}

// ErrDegenerateRegion is reported by an Oracle when a region became too
// malformed to answer queries about. The caller may ask the oracle to Repair
// the region once; a second failure on the repaired pieces is fatal.
var ErrDegenerateRegion = errors.New("disp: degenerate region")

// An Oracle answers the visibility and coverage queries of the optimizer. It
// is an external collaborator: the optimizer never inspects regions itself,
// it only feeds them back into the oracle. Implementations must be safe for
// read-only sharing after construction.
type Oracle interface {
	// Universe returns the region describing the whole area to cover.
	Universe() (Region, error)
	// VisibilityRegion returns the part of the area covered by a candidate.
	VisibilityRegion(candidate int) (Region, error)
	// Difference subtracts cover from region. The result may be empty, and
	// subtraction can split one region into several disjoint pieces.
	Difference(region, cover Region) ([]Region, error)
	// Contains reports whether the region contains the given point.
	Contains(region Region, p instance.Position) bool
	// SampleInterior returns one or more points inside the region. It
	// reports ErrDegenerateRegion if the region has become malformed.
	SampleInterior(region Region) ([]instance.Position, error)
	// Repair splits a degenerate region into at least two healthier pieces.
	Repair(region Region) ([]Region, error)
}
