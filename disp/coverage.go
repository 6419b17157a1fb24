package disp

import (
	"github.com/pkg/errors"

	"github.com/optlabs/dispgard/instance"
)

// Coverage adapts an Oracle to the candidate-index level: it caches the
// visibility region of every candidate and answers which candidates see a
// point, whether two candidates see each other, and what area a selection
// leaves uncovered. Read-only after construction.
type Coverage struct {
	inst    *instance.Instance
	oracle  Oracle
	regions []Region
}

// NewCoverage precomputes the visibility regions of all candidates.
func NewCoverage(inst *instance.Instance, oracle Oracle) (*Coverage, error) {
	regions := make([]Region, inst.NumPositions())
	for i := range regions {
		r, err := oracle.VisibilityRegion(i)
		if err != nil {
			return nil, errors.Wrapf(err, "coverage: visibility region of candidate %d", i)
		}
		regions[i] = r
	}
	return &Coverage{inst: inst, oracle: oracle, regions: regions}, nil
}

// VisibilityOf returns the cached visibility region of a candidate.
func (c *Coverage) VisibilityOf(candidate int) Region { return c.regions[candidate] }

// CanSee reports whether candidate a sees candidate b.
func (c *Coverage) CanSee(a, b int) bool {
	return c.oracle.Contains(c.regions[a], c.inst.Position(b))
}

// CoveringCandidates returns all candidates whose visibility region contains
// the point. Visibility is symmetric, so these are exactly the candidates
// that would cover a witness placed at p.
func (c *Coverage) CoveringCandidates(p instance.Position) []int {
	var covering []int
	for i, r := range c.regions {
		if c.oracle.Contains(r, p) {
			covering = append(covering, i)
		}
	}
	return covering
}

// CandidatesWithin returns all candidates lying inside the region.
func (c *Coverage) CandidatesWithin(region Region) []int {
	var inside []int
	for i := 0; i < c.inst.NumPositions(); i++ {
		if c.oracle.Contains(region, c.inst.Position(i)) {
			inside = append(inside, i)
		}
	}
	return inside
}

// Uncovered subtracts the visibility regions of all selected candidates from
// the universe and returns the remaining pieces. An empty result means the
// selection covers the whole area.
func (c *Coverage) Uncovered(selected []int) ([]Region, error) {
	universe, err := c.oracle.Universe()
	if err != nil {
		return nil, errors.Wrap(err, "coverage: universe")
	}
	missing := []Region{universe}
	for _, g := range selected {
		var next []Region
		for _, r := range missing {
			parts, err := c.oracle.Difference(r, c.regions[g])
			if err != nil {
				return nil, errors.Wrapf(err, "coverage: subtracting candidate %d", g)
			}
			next = append(next, parts...)
		}
		missing = next
		if len(missing) == 0 {
			break
		}
	}
	return missing, nil
}
