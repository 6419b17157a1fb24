package disp

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/optlabs/dispgard/dist"
	"github.com/optlabs/dispgard/engine"
)

// testTable is a 4-candidate distance matrix with value set {1, 3, 4, 5}.
// Under clauses {0,1}, {2,3}, {1,3} the best achievable dispersion is 4,
// via the selection {1,2}.
func testTable(t *testing.T) *dist.Table {
	t.Helper()
	table, err := dist.NewFromMatrix([][]float64{
		{0, 1, 5, 4},
		{1, 0, 4, 3},
		{5, 4, 0, 1},
		{4, 3, 1, 0},
	})
	require.NoError(t, err)
	return table
}

func newTestOptimizer(t *testing.T, table *dist.Table, params Params, factory engine.Factory) (*DistanceOptimizer, *ThresholdModel) {
	t.Helper()
	model, err := NewThresholdModel(table.Size(), factory, nil)
	require.NoError(t, err)
	t.Cleanup(func() { model.Close() })
	o := NewDistanceOptimizer(table, model, params, nil)
	require.NoError(t, o.AddCoverage([]int{0, 1}))
	require.NoError(t, o.AddCoverage([]int{2, 3}))
	require.NoError(t, o.AddCoverage([]int{1, 3}))
	return o, model
}

func TestDistanceOptimizerBinary(t *testing.T) {
	params := DefaultParams()
	o, model := newTestOptimizer(t, testTable(t), params, fakeFactory)

	require.NoError(t, o.Solve(context.Background(), nil))

	require.Equal(t, 4.0, o.Objective())
	require.Equal(t, 4.0, o.UpperBound())
	require.Equal(t, 0.0, o.Gap())
	min, err := testTable(t).MinPairwise(o.Solution())
	require.NoError(t, err)
	require.Equal(t, 4.0, min)

	// Binary search first proves 5 infeasible, then lowers the threshold to
	// 2, which forces exactly one model rebuild.
	require.Equal(t, 1, model.Resets())
	require.Equal(t, 2, model.Solves())
}

func TestDistanceOptimizerStrategiesAgree(t *testing.T) {
	for _, strat := range []SearchStrategy{Binary, Up, Down} {
		t.Run(strat.String(), func(t *testing.T) {
			params := DefaultParams()
			params.StrategyStart = strat
			params.StrategyIteration = strat
			o, _ := newTestOptimizer(t, testTable(t), params, fakeFactory)

			require.NoError(t, o.Solve(context.Background(), nil))
			require.Equal(t, 4.0, o.Objective())
			require.Equal(t, 0.0, o.Gap())
		})
	}
}

// Cut generators that demand specific candidates force the search into a
// fixpoint loop at a fixed threshold before the threshold moves on.
func requireBoth(c1, c2 int) engine.CutFunc {
	return func(selected []int) ([][]int, error) {
		chosen := make(map[int]bool)
		for _, s := range selected {
			chosen[s] = true
		}
		var cuts [][]int
		if !chosen[c1] {
			cuts = append(cuts, []int{c1})
		}
		if !chosen[c2] {
			cuts = append(cuts, []int{c2})
		}
		return cuts, nil
	}
}

func TestDistanceOptimizerCutFixpoint(t *testing.T) {
	params := DefaultParams()
	params.StrategyStart = Up
	params.StrategyIteration = Up
	table := testTable(t)
	model, err := NewThresholdModel(table.Size(), fakeFactory, nil)
	require.NoError(t, err)
	defer model.Close()
	o := NewDistanceOptimizer(table, model, params, nil)
	require.NoError(t, o.AddCoverage([]int{0, 1, 2, 3}))

	// Forcing candidates 2 and 3 pins the objective to their distance.
	require.NoError(t, o.Solve(context.Background(), requireBoth(2, 3)))
	require.Equal(t, 1.0, o.Objective())
	require.Equal(t, 0.0, o.Gap())
	require.Contains(t, o.Solution(), 2)
	require.Contains(t, o.Solution(), 3)
	require.Equal(t, 3, model.NumCoverage())
}

func TestDistanceOptimizerNativeLazy(t *testing.T) {
	params := DefaultParams()
	table := testTable(t)
	model, err := NewThresholdModel(table.Size(), fakeLazyFactory, nil)
	require.NoError(t, err)
	defer model.Close()
	o := NewDistanceOptimizer(table, model, params, nil)
	require.NoError(t, o.AddCoverage([]int{0, 1, 2, 3}))

	require.NoError(t, o.Solve(context.Background(), requireBoth(2, 3)))
	require.Equal(t, 1.0, o.Objective())
	require.Equal(t, 0.0, o.Gap())
	require.Equal(t, 3, model.NumCoverage())
}

func TestDistanceOptimizerTimeout(t *testing.T) {
	o, _ := newTestOptimizer(t, testTable(t), DefaultParams(), fakeFactory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := o.Solve(ctx, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, engine.ErrTimeout))
	require.Equal(t, 0.0, o.Objective())
	require.Nil(t, o.Solution())
}

func TestDistanceOptimizerUpperBoundCarryOver(t *testing.T) {
	o, model := newTestOptimizer(t, testTable(t), DefaultParams(), fakeFactory)
	o.AddUpperBound(4)

	require.NoError(t, o.Solve(context.Background(), nil))
	// With the tight bound carried in, binary search starts low enough to
	// skip the infeasible probe at 5 and never rebuilds the model.
	require.Equal(t, 4.0, o.Objective())
	require.Equal(t, 4.0, o.UpperBound())
	require.Equal(t, 0, model.Resets())
	require.Equal(t, 1, model.Solves())
}

func TestDistanceOptimizerTraceMonotone(t *testing.T) {
	o, _ := newTestOptimizer(t, testTable(t), DefaultParams(), fakeFactory)
	require.NoError(t, o.Solve(context.Background(), nil))

	trace := o.Trace()
	require.NotEmpty(t, trace)
	for i := 1; i < len(trace); i++ {
		require.GreaterOrEqual(t, trace[i].Objective, trace[i-1].Objective)
		require.LessOrEqual(t, trace[i].UpperBound, trace[i-1].UpperBound)
	}
	last := trace[len(trace)-1]
	require.Equal(t, o.Objective(), last.Objective)
	require.Equal(t, o.UpperBound(), last.UpperBound)
}

func TestGap(t *testing.T) {
	o := &DistanceOptimizer{objective: 0, upperBound: math.Inf(1)}
	require.True(t, math.IsInf(o.Gap(), 1))

	o.objective = math.Inf(1)
	require.Equal(t, 0.0, o.Gap())

	o.objective = 4
	o.upperBound = 5
	require.InDelta(t, 0.25, o.Gap(), 1e-12)

	o.upperBound = 4
	require.Equal(t, 0.0, o.Gap())
}

func TestParseStrategy(t *testing.T) {
	for _, strat := range []SearchStrategy{Binary, Up, Down} {
		parsed, err := ParseStrategy(strat.String())
		require.NoError(t, err)
		require.Equal(t, strat, parsed)
	}
	_, err := ParseStrategy("sideways")
	require.Error(t, err)
}
