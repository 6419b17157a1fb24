// Package grb implements the feasibility engine on Gurobi through the gorobi
// bindings. Clauses become linear rows over binary variables. The engine
// applies lazy cuts natively: after every integer-feasible solve it asks the
// registered cut generator for violated clauses, adds them as rows and
// re-optimizes until the incumbent is acceptable.
package grb

import (
	"context"
	"fmt"
	"time"

	"git.solver4all.com/azaryc2s/gorobi/gurobi"
	"github.com/pkg/errors"

	"github.com/optlabs/dispgard/engine"
)

// Engine is a feasibility engine over n candidates backed by Gurobi.
type Engine struct {
	n     int
	env   *gurobi.Env
	model *gurobi.Model
	cuts  engine.CutFunc
}

var _ engine.LazyEngine = (*Engine)(nil)

// New creates an engine over n candidates with one binary variable each.
func New(n int) (*Engine, error) {
	if n <= 0 {
		return nil, errors.Errorf("grb: need at least one candidate, got %d", n)
	}
	env, err := gurobi.NewEnv("")
	if err != nil {
		return nil, errors.Wrap(err, "grb: creating environment")
	}
	if err := env.SetIntParam("OutputFlag", 0); err != nil {
		env.Free()
		return nil, errors.Wrap(err, "grb: silencing solver")
	}
	model, err := gurobi.NewModel(env, "dispgard")
	if err != nil {
		env.Free()
		return nil, errors.Wrap(err, "grb: creating model")
	}
	e := &Engine{n: n, env: env, model: model}
	for i := 0; i < n; i++ {
		if err := model.AddVar(gurobi.BINARY, 0, 0, 1, fmt.Sprintf("x%d", i), nil, nil); err != nil {
			e.Close()
			return nil, errors.Wrapf(err, "grb: adding variable %d", i)
		}
	}
	if err := model.Update(); err != nil {
		e.Close()
		return nil, errors.Wrap(err, "grb: updating model")
	}
	return e, nil
}

// Factory is the engine.Factory for Gurobi-backed engines.
func Factory(n int) (engine.Interface, error) {
	return New(n)
}

// AddClause adds the row sum(x_c) >= 1 over the clause candidates.
func (e *Engine) AddClause(candidates []int) error {
	if err := engine.ValidateClause(e.n, candidates); err != nil {
		return err
	}
	ind := make([]int32, len(candidates))
	val := make([]float64, len(candidates))
	for i, c := range candidates {
		ind[i] = int32(c)
		val[i] = 1
	}
	if err := e.model.AddConstr(ind, val, gurobi.GREATER_EQUAL, 1, ""); err != nil {
		return errors.Wrap(err, "grb: adding clause row")
	}
	return nil
}

// ForbidPair adds the row x_a + x_b <= 1.
func (e *Engine) ForbidPair(a, b int) error {
	if err := engine.ValidatePair(e.n, a, b); err != nil {
		return err
	}
	ind := []int32{int32(a), int32(b)}
	val := []float64{1, 1}
	if err := e.model.AddConstr(ind, val, gurobi.LESS_EQUAL, 1, ""); err != nil {
		return errors.Wrap(err, "grb: adding pair row")
	}
	return nil
}

// RegisterLazyCuts installs the cut generator consulted after every
// integer-feasible solve.
func (e *Engine) RegisterLazyCuts(cuts engine.CutFunc) {
	e.cuts = cuts
}

// Solve decides feasibility under the context deadline, driving the lazy cut
// loop internally when a generator is registered.
func (e *Engine) Solve(ctx context.Context) (engine.Status, []int, error) {
	for {
		st, selected, err := e.optimize(ctx)
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

func (e *Engine) optimize(ctx context.Context) (engine.Status, []int, error) {
	if deadline, ok := ctx.Deadline(); ok {
		budget := time.Until(deadline).Seconds()
		if budget <= 0 {
			return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, "grb")
		}
		if err := e.env.SetDblParam("TimeLimit", budget); err != nil {
			return engine.Indet, nil, errors.Wrap(err, "grb: setting time limit")
		}
	}
	if err := e.model.Update(); err != nil {
		return engine.Indet, nil, errors.Wrap(err, "grb: updating model")
	}
	if err := e.model.Optimize(); err != nil {
		return engine.Indet, nil, errors.Wrap(err, "grb: optimizing")
	}
	status, err := e.model.GetIntAttr(gurobi.INT_ATTR_STATUS)
	if err != nil {
		return engine.Indet, nil, errors.Wrap(err, "grb: reading status")
	}
	switch status {
	case gurobi.OPTIMAL:
		x, err := e.model.GetDoubleAttrArray(gurobi.DBL_ATTR_X, 0, int32(e.n))
		if err != nil {
			return engine.Indet, nil, errors.Wrap(err, "grb: reading solution")
		}
		var selected []int
		for i, v := range x {
			if v > 0.5 {
				selected = append(selected, i)
			}
		}
		return engine.Sat, selected, nil
	case gurobi.INFEASIBLE:
		return engine.Unsat, nil, nil
	case gurobi.TIME_LIMIT:
		return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, "grb")
	default:
		return engine.Indet, nil, errors.Errorf("grb: unexpected solver status %d", status)
	}
}

// Close frees the model and environment.
func (e *Engine) Close() error {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	if e.env != nil {
		e.env.Free()
		e.env = nil
	}
	return nil
}
