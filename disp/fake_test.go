package disp

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/optlabs/dispgard/engine"
	"github.com/optlabs/dispgard/instance"
)

// fakeEngine decides feasibility by exhaustive enumeration over all non-empty
// candidate subsets, smallest bitmask first. Good for up to a dozen
// candidates, which is all the tests need.
type fakeEngine struct {
	n       int
	clauses [][]int
	pairs   [][2]int
}

func fakeFactory(n int) (engine.Interface, error) {
	return &fakeEngine{n: n}, nil
}

func (e *fakeEngine) AddClause(candidates []int) error {
	if err := engine.ValidateClause(e.n, candidates); err != nil {
		return err
	}
	e.clauses = append(e.clauses, append([]int(nil), candidates...))
	return nil
}

func (e *fakeEngine) ForbidPair(a, b int) error {
	if err := engine.ValidatePair(e.n, a, b); err != nil {
		return err
	}
	e.pairs = append(e.pairs, [2]int{a, b})
	return nil
}

func (e *fakeEngine) Solve(ctx context.Context) (engine.Status, []int, error) {
	if err := ctx.Err(); err != nil {
		return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, err.Error())
	}
	for mask := 1; mask < 1<<uint(e.n); mask++ {
		if e.satisfies(mask) {
			var selected []int
			for i := 0; i < e.n; i++ {
				if mask&(1<<uint(i)) != 0 {
					selected = append(selected, i)
				}
			}
			return engine.Sat, selected, nil
		}
	}
	return engine.Unsat, nil, nil
}

func (e *fakeEngine) satisfies(mask int) bool {
	for _, clause := range e.clauses {
		hit := false
		for _, c := range clause {
			if mask&(1<<uint(c)) != 0 {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for _, p := range e.pairs {
		if mask&(1<<uint(p[0])) != 0 && mask&(1<<uint(p[1])) != 0 {
			return false
		}
	}
	return true
}

func (e *fakeEngine) Close() error { return nil }

// fakeLazyEngine drives the cut fixpoint inside Solve, like a MIP solver with
// lazy constraint callbacks.
type fakeLazyEngine struct {
	fakeEngine
	cuts engine.CutFunc
}

func fakeLazyFactory(n int) (engine.Interface, error) {
	return &fakeLazyEngine{fakeEngine: fakeEngine{n: n}}, nil
}

func (e *fakeLazyEngine) RegisterLazyCuts(cuts engine.CutFunc) {
	e.cuts = cuts
}

func (e *fakeLazyEngine) Solve(ctx context.Context) (engine.Status, []int, error) {
	for {
		st, selected, err := e.fakeEngine.Solve(ctx)
		if err != nil || st != engine.Sat || e.cuts == nil {
			return st, selected, err
		}
		newCuts, err := e.cuts(selected)
		if err != nil {
			return engine.Indet, nil, err
		}
		if len(newCuts) == 0 {
			return st, selected, nil
		}
		for _, clause := range newCuts {
			if err := e.AddClause(clause); err != nil {
				return engine.Indet, nil, err
			}
		}
	}
}

// fakeOracle answers coverage queries over a discrete universe whose points
// are exactly the candidate positions. Regions are sorted index sets.
type fakeOracle struct {
	points []instance.Position
	vis    [][]int
}

func (o *fakeOracle) Universe() (Region, error) {
	all := make([]int, len(o.points))
	for i := range all {
		all[i] = i
	}
	return all, nil
}

func (o *fakeOracle) VisibilityRegion(candidate int) (Region, error) {
	if candidate < 0 || candidate >= len(o.vis) {
		return nil, errors.Errorf("fake: candidate %d out of range", candidate)
	}
	return o.vis[candidate], nil
}

func (o *fakeOracle) Difference(region, cover Region) ([]Region, error) {
	covered := make(map[int]bool)
	for _, i := range cover.([]int) {
		covered[i] = true
	}
	var rest []int
	for _, i := range region.([]int) {
		if !covered[i] {
			rest = append(rest, i)
		}
	}
	if len(rest) == 0 {
		return nil, nil
	}
	return []Region{rest}, nil
}

func (o *fakeOracle) Contains(region Region, p instance.Position) bool {
	for _, i := range region.([]int) {
		if o.points[i] == p {
			return true
		}
	}
	return false
}

func (o *fakeOracle) SampleInterior(region Region) ([]instance.Position, error) {
	r := region.([]int)
	if len(r) == 0 {
		return nil, ErrDegenerateRegion
	}
	var points []instance.Position
	for _, i := range r {
		points = append(points, o.points[i])
	}
	return points, nil
}

func (o *fakeOracle) Repair(region Region) ([]Region, error) {
	r := region.([]int)
	if len(r) < 2 {
		return nil, errors.New("fake: region too small to repair")
	}
	mid := len(r) / 2
	return []Region{r[:mid:mid], r[mid:]}, nil
}

// unitSquare returns a 4-corner instance and the adjacency visibility of its
// corners: every corner sees itself and its two neighbors, not the diagonal.
func unitSquare() (*instance.Instance, *fakeOracle) {
	positions := []instance.Position{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	}
	inst, err := instance.New(positions, []int{0, 1, 2, 3}, nil)
	if err != nil {
		panic(err)
	}
	vis := make([][]int, 4)
	for i := range vis {
		vis[i] = []int{(i + 3) % 4, i, (i + 1) % 4}
		sort.Ints(vis[i])
	}
	return inst, &fakeOracle{points: positions, vis: vis}
}

// convexSquare returns the same instance with full mutual visibility.
func convexSquare() (*instance.Instance, *fakeOracle) {
	inst, _ := unitSquare()
	vis := make([][]int, 4)
	for i := range vis {
		vis[i] = []int{0, 1, 2, 3}
	}
	positions := make([]instance.Position, 4)
	for i := range positions {
		positions[i] = inst.Position(i)
	}
	return inst, &fakeOracle{points: positions, vis: vis}
}
