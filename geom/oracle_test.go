package geom

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optlabs/dispgard/disp"
	"github.com/optlabs/dispgard/instance"
)

func newHoledOracle(t *testing.T) *Oracle {
	t.Helper()
	o, err := NewOracle(holed(t), 1)
	require.NoError(t, err)
	return o
}

func TestOracleUniverse(t *testing.T) {
	o := newHoledOracle(t)
	// All candidates plus a non-trivial number of grid points.
	require.Greater(t, o.NumSamples(), holed(t).NumPositions())

	universe, err := o.Universe()
	require.NoError(t, err)
	require.True(t, o.Contains(universe, instance.Position{X: 0, Y: 0}))
	require.True(t, o.Contains(universe, instance.Position{X: 2, Y: 2}))
	// Hole interior points are not part of the universe.
	require.False(t, o.Contains(universe, instance.Position{X: 5, Y: 5}))
}

func TestOracleVisibility(t *testing.T) {
	o := newHoledOracle(t)

	corner, err := o.VisibilityRegion(0)
	require.NoError(t, err)
	require.True(t, o.Contains(corner, instance.Position{X: 0, Y: 0}))
	require.True(t, o.Contains(corner, instance.Position{X: 10, Y: 0}))
	// The opposite corner hides behind the hole.
	require.False(t, o.Contains(corner, instance.Position{X: 10, Y: 10}))

	_, err = o.VisibilityRegion(99)
	require.Error(t, err)
}

func TestOracleDifference(t *testing.T) {
	o := newHoledOracle(t)
	universe, err := o.Universe()
	require.NoError(t, err)

	empty, err := o.Difference(universe, universe)
	require.NoError(t, err)
	require.Empty(t, empty)

	corner, err := o.VisibilityRegion(0)
	require.NoError(t, err)
	rest, err := o.Difference(universe, corner)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.False(t, o.Contains(rest[0], instance.Position{X: 0, Y: 0}))
	require.True(t, o.Contains(rest[0], instance.Position{X: 10, Y: 10}))
}

func TestOracleSampleInterior(t *testing.T) {
	o := newHoledOracle(t)
	universe, err := o.Universe()
	require.NoError(t, err)

	points, err := o.SampleInterior(universe)
	require.NoError(t, err)
	require.NotEmpty(t, points)
	require.LessOrEqual(t, len(points), maxSamples)

	_, err = o.SampleInterior(pointSet{})
	require.ErrorIs(t, err, disp.ErrDegenerateRegion)
}

func TestOracleRepair(t *testing.T) {
	o := newHoledOracle(t)
	universe, err := o.Universe()
	require.NoError(t, err)

	parts, err := o.Repair(universe)
	require.NoError(t, err)
	require.Len(t, parts, 2)

	_, err = o.Repair(pointSet{1})
	require.Error(t, err)
}

func TestOracleForeignRegion(t *testing.T) {
	o := newHoledOracle(t)
	_, err := o.SampleInterior("not a region")
	require.Error(t, err)
	require.Panics(t, func() { o.Contains(42, instance.Position{}) })
}

func TestOracleCoversWholeSquare(t *testing.T) {
	// Two opposite corners cover everything: each hole shadow is visible
	// from the other corner.
	o := newHoledOracle(t)
	universe, err := o.Universe()
	require.NoError(t, err)
	nearRegion, err := o.VisibilityRegion(0)
	require.NoError(t, err)
	farRegion, err := o.VisibilityRegion(2)
	require.NoError(t, err)

	rest, err := o.Difference(universe, nearRegion)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	rest, err = o.Difference(rest[0], farRegion)
	require.NoError(t, err)
	require.Empty(t, rest)
}
