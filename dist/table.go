// Package dist provides the precomputed table of pairwise geodesic distances
// between candidate positions. The geodesic distance between two points in a
// polygon equals the length of the shortest path in the graph connecting all
// mutually visible candidates, so the table is built from a visibility
// predicate and Dijkstra over the resulting weighted graph.
package dist

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/optlabs/dispgard/instance"
)

// A Table holds the symmetric pairwise distances of an instance plus the
// ascending sequence of unique distance values. It is computed once and
// immutable afterwards.
type Table struct {
	n      int
	d      [][]float64
	sorted []float64 // unique values, ascending
}

// New computes all pairwise geodesic distances for the instance. Two
// candidates are connected by a direct edge iff sees(i, j) reports mutual
// visibility; edge weights are Euclidean. Returns an error if the visibility
// graph is not connected.
func New(inst *instance.Instance, sees func(i, j int) bool) (*Table, error) {
	n := inst.NumPositions()
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !sees(i, j) {
				continue
			}
			a, b := inst.Position(i), inst.Position(j)
			w := math.Hypot(a.X-b.X, a.Y-b.Y)
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), w))
		}
	}
	shortest := path.DijkstraAllPaths(g)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := shortest.Weight(int64(i), int64(j))
			if math.IsInf(w, 1) {
				return nil, errors.Errorf("dist: candidates %d and %d are not connected", i, j)
			}
			d[i][j] = w
			d[j][i] = w
		}
	}
	return fromMatrix(d), nil
}

// NewFromMatrix builds a table from an externally computed symmetric distance
// matrix, e.g. cached geodesics. The matrix must be square with a zero
// diagonal and non-negative entries.
func NewFromMatrix(d [][]float64) (*Table, error) {
	n := len(d)
	cp := make([][]float64, n)
	for i, row := range d {
		if len(row) != n {
			return nil, errors.Errorf("dist: row %d has %d entries, want %d", i, len(row), n)
		}
		cp[i] = append([]float64(nil), row...)
	}
	for i := 0; i < n; i++ {
		if cp[i][i] != 0 {
			return nil, errors.Errorf("dist: non-zero diagonal entry at %d", i)
		}
		for j := 0; j < n; j++ {
			if cp[i][j] < 0 {
				return nil, errors.Errorf("dist: negative distance at (%d,%d)", i, j)
			}
			if cp[i][j] != cp[j][i] {
				return nil, errors.Errorf("dist: asymmetric entries at (%d,%d)", i, j)
			}
		}
	}
	return fromMatrix(cp), nil
}

func fromMatrix(d [][]float64) *Table {
	n := len(d)
	values := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			values = append(values, d[i][j])
		}
	}
	sort.Float64s(values)
	unique := values[:0]
	for i, v := range values {
		if i == 0 || v != unique[len(unique)-1] {
			unique = append(unique, v)
		}
	}
	return &Table{n: n, d: d, sorted: unique}
}

// Size returns the number of candidates.
func (t *Table) Size() int { return t.n }

// Distance returns the distance between candidates i and j.
func (t *Table) Distance(i, j int) float64 { return t.d[i][j] }

// Max returns the largest pairwise distance, or 0 if there are fewer than two
// candidates.
func (t *Table) Max() float64 {
	if len(t.sorted) == 0 {
		return 0
	}
	return t.sorted[len(t.sorted)-1]
}

// NextAbove returns the smallest distance value strictly greater than d, or
// +Inf if no such value exists.
func (t *Table) NextAbove(d float64) float64 {
	i := sort.SearchFloat64s(t.sorted, d)
	for i < len(t.sorted) && t.sorted[i] <= d {
		i++
	}
	if i == len(t.sorted) {
		return math.Inf(1)
	}
	return t.sorted[i]
}

// NextBelow returns the largest distance value strictly less than d, or 0 if
// no such value exists.
func (t *Table) NextBelow(d float64) float64 {
	i := sort.SearchFloat64s(t.sorted, d)
	if i == 0 {
		return 0
	}
	return t.sorted[i-1]
}

// MinPairwise returns the minimum pairwise distance among the given
// candidates. A single candidate has no pair, so its dispersion is +Inf.
func (t *Table) MinPairwise(selected []int) (float64, error) {
	if len(selected) == 0 {
		return 0, errors.New("dist: empty selection")
	}
	for _, s := range selected {
		if s < 0 || s >= t.n {
			return 0, errors.Errorf("dist: candidate %d out of range [0,%d)", s, t.n)
		}
	}
	if len(selected) == 1 {
		return math.Inf(1), nil
	}
	min := math.Inf(1)
	for i := 0; i < len(selected); i++ {
		for j := i + 1; j < len(selected); j++ {
			if d := t.d[selected[i]][selected[j]]; d < min {
				min = d
			}
		}
	}
	return min, nil
}
