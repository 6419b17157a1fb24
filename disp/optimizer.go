package disp

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/optlabs/dispgard/dist"
	"github.com/optlabs/dispgard/engine"
	"github.com/optlabs/dispgard/instance"
)

// Status is the outcome of an optimization run.
type Status byte

const (
	// Optimal means the optimality gap was closed within tolerance.
	Optimal = Status(iota)
	// Feasible means a covering solution was found but the time budget ran
	// out before the gap was closed.
	Feasible
	// Unknown means no covering solution was found before the deadline.
	Unknown
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Unknown:
		return "UNKNOWN"
	default:
		panic("invalid status")
	}
}

// Optimizer orchestrates the outer coverage fixpoint: it alternates between
// solving for the best dispersion threshold under the witnesses known so far
// and asking the oracle whether the resulting selection leaves area
// uncovered, until no new witnesses appear and the gap is closed.
type Optimizer struct {
	inst    *instance.Instance
	cov     *Coverage
	table   *dist.Table
	factory engine.Factory
	params  Params
	gen     *WitnessGenerator
	log     logrus.FieldLogger
	obs     Observer

	objective  float64
	upperBound float64
	solution   []int
	stats      Stats
}

// NewOptimizer prepares a run: it caches all visibility regions and computes
// the geodesic distance table.
func NewOptimizer(inst *instance.Instance, oracle Oracle, factory engine.Factory, params Params, log logrus.FieldLogger) (*Optimizer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	log = ensureLogger(log)
	cov, err := NewCoverage(inst, oracle)
	if err != nil {
		return nil, err
	}
	log.Info("computing geodesic distances")
	table, err := dist.New(inst, cov.CanSee)
	if err != nil {
		return nil, err
	}
	return &Optimizer{
		inst:       inst,
		cov:        cov,
		table:      table,
		factory:    factory,
		params:     params,
		gen:        NewWitnessGenerator(inst, cov, params.Lazy, params.TrivialWitnessesOnly, log),
		log:        log,
		obs:        NopObserver{},
		objective:  0,
		upperBound: math.Inf(1),
	}, nil
}

// SetObserver installs a progress observer. Must be called before Solve.
func (o *Optimizer) SetObserver(obs Observer) {
	if obs != nil {
		o.obs = obs
	}
}

// Objective returns the dispersion of the best covering solution, +Inf for a
// single-candidate solution, 0 before any solution was accepted.
func (o *Optimizer) Objective() float64 { return o.objective }

// UpperBound returns the best proven ceiling on the achievable dispersion.
func (o *Optimizer) UpperBound() float64 { return o.upperBound }

// Solution returns the best covering selection, or nil if none was found.
func (o *Optimizer) Solution() []int { return o.solution }

// Stats returns the accumulated run statistics.
func (o *Optimizer) Stats() Stats { return o.stats }

// DistanceTable exposes the precomputed geodesic distances of the run.
func (o *Optimizer) DistanceTable() *dist.Table { return o.table }

// gap mirrors DistanceOptimizer.Gap on the outer bounds.
func (o *Optimizer) gap() float64 {
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

// runThresholdSearch performs one full threshold search over all witnesses
// accumulated so far, carrying the outer upper bound in and folding the
// search's bound improvements back out, even on timeout.
func (o *Optimizer) runThresholdSearch(ctx context.Context) (selected []int, objective float64, err error) {
	model, err := NewThresholdModel(o.inst.NumPositions(), o.factory, o.log)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		o.stats.addModel(model)
		if cerr := model.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	dopt := NewDistanceOptimizer(o.table, model, o.params, o.log)
	dopt.AddUpperBound(o.upperBound)
	witnesses := o.gen.All()
	o.log.WithField("witnesses", len(witnesses)).Info("computing optimal selection for witness set")
	for _, w := range witnesses {
		if err := dopt.AddCoverage(w.Guards); err != nil {
			return nil, 0, err
		}
	}
	err = dopt.Solve(ctx, o.gen.Cuts)
	o.stats.Trace = append(o.stats.Trace, dopt.Trace()...)
	if ub := dopt.UpperBound(); ub < o.upperBound {
		o.upperBound = ub
	}
	if err != nil {
		// With lazy witnesses every selection the search accepted is
		// covering, so a partial result survives the timeout.
		if o.params.Lazy && errors.Is(err, engine.ErrTimeout) && dopt.Solution() != nil {
			o.accept(dopt.Solution(), dopt.Objective())
		}
		return nil, 0, err
	}
	// The search was optimal for a subset of all coverage constraints, so
	// its objective bounds the fully-constrained optimum from above.
	if obj := dopt.Objective(); obj < o.upperBound {
		o.upperBound = obj
		o.log.WithField("upper_bound", obj).Info("tightened upper bound")
	}
	return dopt.Solution(), dopt.Objective(), nil
}

// accept records a covering selection as the incumbent.
func (o *Optimizer) accept(selected []int, objective float64) {
	if objective >= o.objective {
		o.solution = append([]int(nil), selected...)
		o.objective = objective
		o.obs.OnNewSolution(o.solution, o.objective)
	}
}

// Solve runs the optimization under the configured time limit and reports
// the termination status. Bounds, solution and statistics remain readable on
// the optimizer afterwards.
func (o *Optimizer) Solve(ctx context.Context) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, o.params.TimeLimit)
	defer cancel()

	if _, err := o.gen.InitialWitnesses(); err != nil {
		return Unknown, err
	}
	status, err := o.solve(ctx)
	o.stats.Witnesses = o.gen.Stats()
	return status, err
}

func (o *Optimizer) solve(ctx context.Context) (Status, error) {
	selected, objective, err := o.runThresholdSearch(ctx)
	if err != nil {
		return o.timeoutStatus(err)
	}
	for iteration := 1; ; iteration++ {
		witnesses, werr := o.gen.WitnessesForSelection(selected)
		if werr != nil {
			return Unknown, werr
		}
		o.obs.OnCoverageIteration(iteration, len(o.gen.All()))
		o.stats.CoverageIterations++
		if len(witnesses) == 0 {
			// Coverage fixpoint: the selection covers everything and the
			// threshold search already closed the gap for it.
			o.accept(selected, objective)
			o.log.WithFields(logrus.Fields{"objective": o.objective, "guards": len(o.solution)}).Info("found optimal solution")
			return Optimal, nil
		}
		assertWitnessesNonRedundant(witnesses, selected)
		o.obs.OnNewWitnesses(witnesses)
		o.log.WithField("witnesses", len(witnesses)).Info("adding witnesses to cover missing area")
		selected, objective, err = o.runThresholdSearch(ctx)
		if err != nil {
			return o.timeoutStatus(err)
		}
	}
}

func (o *Optimizer) timeoutStatus(err error) (Status, error) {
	if !errors.Is(err, engine.ErrTimeout) {
		return Unknown, err
	}
	o.log.Info("time limit reached")
	switch {
	case o.solution != nil && o.gap() <= o.params.OptTol:
		return Optimal, nil
	case o.solution != nil:
		return Feasible, nil
	default:
		return Unknown, nil
	}
}

// assertWitnessesNonRedundant panics if a freshly generated witness is
// already satisfied by the selection it was generated against. Such a
// witness signals a broken oracle contract: the uncovered area computation
// claimed a point was missed although a selected candidate covers it.
// Continuing would loop forever on the same witness.
func assertWitnessesNonRedundant(witnesses []Witness, selected []int) {
	chosen := make(map[int]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	for _, w := range witnesses {
		for _, g := range w.Guards {
			if chosen[g] {
				panic(fmt.Sprintf("disp: redundant witness: guard %d of a new witness is already selected", g))
			}
		}
	}
}
