package disp

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/optlabs/dispgard/dist"
	"github.com/optlabs/dispgard/engine"
)

// SearchStrategy decides which distance threshold to try next.
type SearchStrategy byte

const (
	// Binary tries the midpoint of the current [objective, upper bound]
	// interval.
	Binary = SearchStrategy(iota)
	// Up tries the next distance value strictly above the objective.
	Up
	// Down tries the next distance value strictly below the upper bound.
	Down
)

func (s SearchStrategy) String() string {
	switch s {
	case Binary:
		return "BINARY"
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	default:
		panic("invalid search strategy")
	}
}

// ParseStrategy converts a strategy name (case-sensitive, as produced by
// String) back into a SearchStrategy.
func ParseStrategy(s string) (SearchStrategy, error) {
	switch s {
	case "BINARY":
		return Binary, nil
	case "UP":
		return Up, nil
	case "DOWN":
		return Down, nil
	default:
		return Binary, errors.Errorf("disp: unknown search strategy %q", s)
	}
}

// DistanceOptimizer finds the maximum threshold k for which a selection of
// candidates exists that satisfies all coverage clauses and contains no pair
// closer than k. It owns the bounds of one optimization run: objective (best
// proven achievable dispersion) and upper bound (best proven ceiling), and it
// never loosens either.
type DistanceOptimizer struct {
	table *dist.Table
	model *ThresholdModel
	log   logrus.FieldLogger

	optTol     float64
	stratStart SearchStrategy
	stratIter  SearchStrategy

	objective  float64
	upperBound float64
	solution   []int
	k          float64 // threshold the current prohibition set was built for
	first      bool
	nativeLazy bool

	trace []BoundsSample
}

// NewDistanceOptimizer creates an optimizer over the given distance table and
// threshold model. Initially the objective is 0 and the upper bound +Inf.
func NewDistanceOptimizer(table *dist.Table, model *ThresholdModel, params Params, log logrus.FieldLogger) *DistanceOptimizer {
	return &DistanceOptimizer{
		table:      table,
		model:      model,
		log:        ensureLogger(log),
		optTol:     params.OptTol,
		stratStart: params.StrategyStart,
		stratIter:  params.StrategyIteration,
		objective:  0,
		upperBound: math.Inf(1),
		first:      true,
	}
}

// Objective returns the best proven achievable dispersion.
func (o *DistanceOptimizer) Objective() float64 { return o.objective }

// UpperBound returns the best proven ceiling on the dispersion.
func (o *DistanceOptimizer) UpperBound() float64 { return o.upperBound }

// Solution returns the selection achieving Objective, or nil before the first
// feasible solve.
func (o *DistanceOptimizer) Solution() []int { return o.solution }

// Trace returns the recorded (objective, upper bound) samples, one per bound
// update.
func (o *DistanceOptimizer) Trace() []BoundsSample { return o.trace }

// AddUpperBound tightens the upper bound; looser values are ignored.
func (o *DistanceOptimizer) AddUpperBound(ub float64) {
	if ub < o.upperBound {
		o.upperBound = ub
		o.log.WithField("upper_bound", ub).Info("tightened upper bound")
	}
}

// AddCoverage adds a coverage clause to the underlying model.
func (o *DistanceOptimizer) AddCoverage(candidates []int) error {
	return o.model.AddCoverage(candidates)
}

// Gap returns the normalized optimality gap.
func (o *DistanceOptimizer) Gap() float64 {
	switch {
	case math.IsInf(o.objective, 1):
		return 0
	case math.IsInf(o.upperBound, 1):
		return math.Inf(1)
	case o.objective == 0:
		if o.upperBound == 0 {
			return 0
		}
		return math.Inf(1)
	default:
		return (o.upperBound - o.objective) / o.objective
	}
}

// nextThreshold picks the threshold to try next. up is the smallest distance
// value that could still improve the objective; every candidate threshold is
// clipped into (objective, upperBound] and never below up.
func (o *DistanceOptimizer) nextThreshold(up float64) float64 {
	strat := o.stratIter
	if o.first {
		strat = o.stratStart
	}
	var k float64
	switch strat {
	case Up:
		k = up
	case Down:
		k = math.Max(o.table.NextBelow(o.upperBound), up)
	case Binary:
		if math.IsInf(o.upperBound, 1) {
			k = math.Max(o.table.NextBelow(o.upperBound), up)
		} else {
			k = math.Max((o.objective+o.upperBound)/2, up)
		}
	}
	if k > o.upperBound {
		k = o.upperBound
	}
	return k
}

// applyThreshold brings the prohibition set in line with threshold k. Engines
// cannot retract constraints, so lowering k below the threshold the current
// prohibitions were built for forces a model reset and a full rebuild;
// raising it only adds the pairs in [previous k, k).
func (o *DistanceOptimizer) applyThreshold(k float64) error {
	if k < o.k {
		o.log.WithFields(logrus.Fields{"from": o.k, "to": k}).Info("threshold lowered, resetting model")
		if err := o.model.Reset(); err != nil {
			return err
		}
		o.k = 0
	}
	added := 0
	n := o.table.Size()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if d := o.table.Distance(i, j); o.k <= d && d < k {
				if err := o.model.ProhibitPair(i, j); err != nil {
					return err
				}
				added++
			}
		}
	}
	o.k = k
	o.log.WithFields(logrus.Fields{"k": k, "prohibited": added}).Info("prohibited candidate pairs")
	return nil
}

// solveForK solves at threshold k to a cut fixpoint: while the engine reports
// Sat and the cut generator returns new coverage clauses, the clauses are
// added and the model re-solved at the same k.
func (o *DistanceOptimizer) solveForK(ctx context.Context, k float64, cuts engine.CutFunc) (engine.Status, []int, error) {
	if err := o.applyThreshold(k); err != nil {
		return engine.Indet, nil, err
	}
	st, selected, err := o.model.Solve(ctx)
	if err != nil || o.nativeLazy {
		return st, selected, err
	}
	for st == engine.Sat {
		if err := ctx.Err(); err != nil {
			return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, err.Error())
		}
		newCuts, err := cuts(selected)
		if err != nil {
			return engine.Indet, nil, err
		}
		if len(newCuts) == 0 {
			return st, selected, nil
		}
		for _, clause := range newCuts {
			if err := o.model.AddCoverage(clause); err != nil {
				return engine.Indet, nil, err
			}
		}
		st, selected, err = o.model.Solve(ctx)
		if err != nil {
			return st, selected, err
		}
	}
	return st, selected, nil
}

// Solve narrows the [objective, upperBound] interval until the gap is within
// the optimality tolerance. The cut generator is consulted on every
// satisfying selection; pass nil to disable lazy coverage generation. On
// timeout the error wraps engine.ErrTimeout and the best bounds found so far
// remain readable on the optimizer.
func (o *DistanceOptimizer) Solve(ctx context.Context, cuts engine.CutFunc) error {
	if cuts == nil {
		cuts = func([]int) ([][]int, error) { return nil, nil }
	}
	o.nativeLazy = o.model.RegisterLazyCuts(cuts)
	for o.Gap() > o.optTol {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(engine.ErrTimeout, err.Error())
		}
		up := o.table.NextAbove(o.objective)
		if up > o.upperBound {
			// No distance value in (objective, upperBound] remains, so the
			// objective cannot improve: it is optimal.
			o.upperBound = o.objective
			o.record()
			break
		}
		k := o.nextThreshold(up)
		st, selected, err := o.solveForK(ctx, k, cuts)
		o.first = false
		if err != nil {
			return err
		}
		switch st {
		case engine.Unsat:
			// k itself is proven infeasible, so the next lower distance
			// value bounds the achievable dispersion.
			o.AddUpperBound(o.table.NextBelow(k))
			o.record()
			o.log.WithField("k", k).Info("threshold infeasible")
		case engine.Sat:
			obj, err := o.table.MinPairwise(selected)
			if err != nil {
				return err
			}
			// The threshold only bounds the selection from below; the
			// achieved dispersion may exceed k.
			o.solution = selected
			o.objective = obj
			o.record()
			o.log.WithFields(logrus.Fields{"k": k, "objective": obj}).Info("threshold feasible")
		default:
			return errors.Errorf("disp: unexpected engine status %v", st)
		}
	}
	return nil
}

func (o *DistanceOptimizer) record() {
	o.trace = append(o.trace, BoundsSample{Objective: o.objective, UpperBound: o.upperBound})
}
