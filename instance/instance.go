package instance

import (
	"github.com/pkg/errors"
)

// A Position is a planar placement point.
type Position struct {
	X float64
	Y float64
}

// An Instance describes a guarding problem: a set of candidate positions and a
// polygonal area given as index rings into those positions. The boundary ring
// describes the outer polygon, each hole ring one forbidden area inside it.
// Every position is a candidate, whether it lies on the boundary or on a hole.
//
// An Instance is immutable once created.
type Instance struct {
	positions []Position
	boundary  []int
	holes     [][]int
}

// New creates an instance and validates it: the boundary and hole rings must
// reference every position exactly once overall, i.e. the referenced indices
// must be 0..len(positions)-1, and every ring needs at least 3 vertices.
func New(positions []Position, boundary []int, holes [][]int) (*Instance, error) {
	if len(boundary) < 3 {
		return nil, errors.Errorf("instance: boundary has %d vertices, need at least 3", len(boundary))
	}
	for h, hole := range holes {
		if len(hole) < 3 {
			return nil, errors.Errorf("instance: hole %d has %d vertices, need at least 3", h, len(hole))
		}
	}
	seen := make([]bool, len(positions))
	count := 0
	mark := func(i int) error {
		if i < 0 || i >= len(positions) {
			return errors.Errorf("instance: vertex index %d out of range [0,%d)", i, len(positions))
		}
		if !seen[i] {
			seen[i] = true
			count++
		}
		return nil
	}
	for _, i := range boundary {
		if err := mark(i); err != nil {
			return nil, err
		}
	}
	for _, hole := range holes {
		for _, i := range hole {
			if err := mark(i); err != nil {
				return nil, err
			}
		}
	}
	if count != len(positions) {
		return nil, errors.Errorf("instance: %d of %d positions are not referenced by boundary or holes", len(positions)-count, len(positions))
	}
	inst := &Instance{
		positions: append([]Position(nil), positions...),
		boundary:  append([]int(nil), boundary...),
		holes:     make([][]int, len(holes)),
	}
	for h, hole := range holes {
		inst.holes[h] = append([]int(nil), hole...)
	}
	return inst, nil
}

// NumPositions returns the number of candidate positions.
func (inst *Instance) NumPositions() int { return len(inst.positions) }

// NumHoles returns the number of holes.
func (inst *Instance) NumHoles() int { return len(inst.holes) }

// Position returns the i-th candidate position.
func (inst *Instance) Position(i int) Position { return inst.positions[i] }

// Boundary returns the outer ring as position indices.
func (inst *Instance) Boundary() []int { return append([]int(nil), inst.boundary...) }

// Hole returns the h-th hole ring as position indices.
func (inst *Instance) Hole(h int) []int { return append([]int(nil), inst.holes[h]...) }
