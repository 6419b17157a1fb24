package geom

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/optlabs/dispgard/disp"
	"github.com/optlabs/dispgard/instance"
)

// maxSamples bounds how many witness points one region sample returns.
const maxSamples = 16

// A pointSet is a region handle: a sorted set of indices into the oracle's
// sample universe.
type pointSet []int

// An Oracle answers coverage queries on a sampled universe: the candidate
// positions themselves plus a regular grid clipped to the polygon. Regions
// are subsets of that universe, so set difference and containment are exact
// on the samples. Read-only after construction.
type Oracle struct {
	inst   *instance.Instance
	poly   *Polygon
	points []instance.Position
	index  map[instance.Position]int
	vis    []pointSet
}

// NewOracle builds an oracle for the instance. resolution is the grid
// spacing of the sample universe; non-positive picks a tenth of the longer
// bounding box side.
func NewOracle(inst *instance.Instance, resolution float64) (*Oracle, error) {
	poly := FromInstance(inst)
	min, max := poly.BoundingBox()
	if resolution <= 0 {
		longer := max.X - min.X
		if max.Y-min.Y > longer {
			longer = max.Y - min.Y
		}
		resolution = longer / 10
	}
	if resolution <= 0 {
		return nil, errors.New("geom: degenerate bounding box")
	}
	o := &Oracle{
		inst:  inst,
		poly:  poly,
		index: make(map[instance.Position]int),
		vis:   make([]pointSet, inst.NumPositions()),
	}
	for i := 0; i < inst.NumPositions(); i++ {
		o.add(inst.Position(i))
	}
	for x := min.X; x <= max.X; x += resolution {
		for y := min.Y; y <= max.Y; y += resolution {
			p := instance.Position{X: x, Y: y}
			if poly.Contains(p) {
				o.add(p)
			}
		}
	}
	return o, nil
}

func (o *Oracle) add(p instance.Position) {
	if _, ok := o.index[p]; ok {
		return
	}
	o.index[p] = len(o.points)
	o.points = append(o.points, p)
}

// NumSamples returns the size of the sample universe.
func (o *Oracle) NumSamples() int { return len(o.points) }

// Polygon returns the resolved polygon of the instance.
func (o *Oracle) Polygon() *Polygon { return o.poly }

// Universe returns the full sample universe as one region.
func (o *Oracle) Universe() (disp.Region, error) {
	all := make(pointSet, len(o.points))
	for i := range all {
		all[i] = i
	}
	return all, nil
}

// VisibilityRegion returns the sample points visible from a candidate. The
// result is cached; every candidate sees at least itself.
func (o *Oracle) VisibilityRegion(candidate int) (disp.Region, error) {
	if candidate < 0 || candidate >= o.inst.NumPositions() {
		return nil, errors.Errorf("geom: candidate %d out of range [0,%d)", candidate, o.inst.NumPositions())
	}
	if o.vis[candidate] != nil {
		return o.vis[candidate], nil
	}
	from := o.inst.Position(candidate)
	var visible pointSet
	for i, p := range o.points {
		if o.poly.Sees(from, p) {
			visible = append(visible, i)
		}
	}
	o.vis[candidate] = visible
	return visible, nil
}

// Difference removes the covered samples from the region. The discrete
// universe never splits, so the result is a single piece or nothing.
func (o *Oracle) Difference(region, cover disp.Region) ([]disp.Region, error) {
	r, err := o.set(region)
	if err != nil {
		return nil, err
	}
	c, err := o.set(cover)
	if err != nil {
		return nil, err
	}
	covered := make(map[int]bool, len(c))
	for _, i := range c {
		covered[i] = true
	}
	var rest pointSet
	for _, i := range r {
		if !covered[i] {
			rest = append(rest, i)
		}
	}
	if len(rest) == 0 {
		return nil, nil
	}
	return []disp.Region{rest}, nil
}

// Contains reports whether the region contains p. Only points of the sample
// universe can be contained.
func (o *Oracle) Contains(region disp.Region, p instance.Position) bool {
	r, err := o.set(region)
	if err != nil {
		panic(err)
	}
	i, ok := o.index[p]
	if !ok {
		return false
	}
	at := sort.SearchInts(r, i)
	return at < len(r) && r[at] == i
}

// SampleInterior returns up to maxSamples points spread over the region.
func (o *Oracle) SampleInterior(region disp.Region) ([]instance.Position, error) {
	r, err := o.set(region)
	if err != nil {
		return nil, err
	}
	if len(r) == 0 {
		return nil, disp.ErrDegenerateRegion
	}
	step := 1
	if len(r) > maxSamples {
		step = (len(r) + maxSamples - 1) / maxSamples
	}
	var points []instance.Position
	for i := 0; i < len(r); i += step {
		points = append(points, o.points[r[i]])
	}
	return points, nil
}

// Repair splits a region into two halves. It cannot repair regions of fewer
// than two points.
func (o *Oracle) Repair(region disp.Region) ([]disp.Region, error) {
	r, err := o.set(region)
	if err != nil {
		return nil, err
	}
	if len(r) < 2 {
		return nil, errors.Errorf("geom: cannot repair region of %d points", len(r))
	}
	mid := len(r) / 2
	return []disp.Region{r[:mid:mid], r[mid:]}, nil
}

func (o *Oracle) set(region disp.Region) (pointSet, error) {
	r, ok := region.(pointSet)
	if !ok {
		return nil, errors.Errorf("geom: foreign region of type %T", region)
	}
	return r, nil
}
