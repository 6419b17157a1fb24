// Package geom provides the planar geometry behind the default coverage
// oracle: point-in-polygon tests and segment visibility for polygons with
// holes, plus a sampling-based implementation of disp.Oracle.
package geom

import (
	"math"

	"github.com/optlabs/dispgard/instance"
)

// orient returns the signed area of the triangle abc, positive for a left
// turn.
func orient(a, b, c instance.Position) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment reports whether p lies on the closed segment ab.
func onSegment(a, b, p instance.Position) bool {
	if orient(a, b, p) != 0 {
		return false
	}
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// properCross reports whether segments ab and cd intersect in a single point
// interior to both. Touching at an endpoint or overlapping collinearly does
// not count.
func properCross(a, b, c, d instance.Position) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	return ((o1 > 0 && o2 < 0) || (o1 < 0 && o2 > 0)) &&
		((o3 > 0 && o4 < 0) || (o3 < 0 && o4 > 0))
}

// inRing reports whether q is strictly inside the ring by even-odd ray
// casting. Points on the ring itself give unspecified results; callers test
// the boundary separately.
func inRing(ring []instance.Position, q instance.Position) bool {
	in := false
	for i := range ring {
		a := ring[i]
		b := ring[(i+1)%len(ring)]
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := a.X + (q.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if q.X < x {
				in = !in
			}
		}
	}
	return in
}

// A Polygon is a simple polygon with optional holes, closed under its
// boundary: points on the outer ring or on a hole ring belong to the polygon.
type Polygon struct {
	boundary []instance.Position
	holes    [][]instance.Position
}

// FromInstance resolves the index rings of an instance into a polygon.
func FromInstance(inst *instance.Instance) *Polygon {
	ring := func(indices []int) []instance.Position {
		ps := make([]instance.Position, len(indices))
		for i, idx := range indices {
			ps[i] = inst.Position(idx)
		}
		return ps
	}
	p := &Polygon{boundary: ring(inst.Boundary())}
	for h := 0; h < inst.NumHoles(); h++ {
		p.holes = append(p.holes, ring(inst.Hole(h)))
	}
	return p
}

// onAnyEdge reports whether q lies on an edge of the boundary or of a hole.
func (p *Polygon) onAnyEdge(q instance.Position) bool {
	rings := append([][]instance.Position{p.boundary}, p.holes...)
	for _, ring := range rings {
		for i := range ring {
			if onSegment(ring[i], ring[(i+1)%len(ring)], q) {
				return true
			}
		}
	}
	return false
}

// Contains reports whether q belongs to the polygon. The boundary and hole
// rings count as inside, hole interiors do not.
func (p *Polygon) Contains(q instance.Position) bool {
	if p.onAnyEdge(q) {
		return true
	}
	if !inRing(p.boundary, q) {
		return false
	}
	for _, hole := range p.holes {
		if inRing(hole, q) {
			return false
		}
	}
	return true
}

// Sees reports whether the open segment between a and b stays inside the
// polygon. The segment may touch the boundary or graze a hole corner; it must
// not cross an edge properly and its interior must not run through a hole or
// outside the outer ring, which is checked at a few interior sample points.
func (p *Polygon) Sees(a, b instance.Position) bool {
	if a == b {
		return p.Contains(a)
	}
	rings := append([][]instance.Position{p.boundary}, p.holes...)
	for _, ring := range rings {
		for i := range ring {
			if properCross(a, b, ring[i], ring[(i+1)%len(ring)]) {
				return false
			}
		}
	}
	if !p.Contains(a) || !p.Contains(b) {
		return false
	}
	for _, t := range []float64{0.25, 0.5, 0.75} {
		mid := instance.Position{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
		if !p.Contains(mid) {
			return false
		}
	}
	return true
}

// BoundingBox returns the axis-aligned bounding box of the outer ring.
func (p *Polygon) BoundingBox() (min, max instance.Position) {
	min = p.boundary[0]
	max = p.boundary[0]
	for _, v := range p.boundary[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
	}
	return min, max
}
