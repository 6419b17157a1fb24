// Package cpsat implements the feasibility engine on the CP-SAT solver from
// OR-Tools. The model builder keeps all constraints, so the engine can be
// re-solved after adding clauses; deadlines are passed to the solver as its
// wall time limit.
package cpsat

import (
	"context"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"

	"github.com/optlabs/dispgard/engine"
)

// Engine is a feasibility engine over n candidates backed by CP-SAT.
type Engine struct {
	n       int
	builder *cpmodel.Builder
	vars    []cpmodel.BoolVar
}

var _ engine.Interface = (*Engine)(nil)

// New creates an engine over n candidates.
func New(n int) (*Engine, error) {
	if n <= 0 {
		return nil, errors.Errorf("cpsat: need at least one candidate, got %d", n)
	}
	builder := cpmodel.NewCpModelBuilder()
	vars := make([]cpmodel.BoolVar, n)
	for i := range vars {
		vars[i] = builder.NewBoolVar()
	}
	return &Engine{n: n, builder: builder, vars: vars}, nil
}

// Factory is the engine.Factory for CP-SAT-backed engines.
func Factory(n int) (engine.Interface, error) {
	return New(n)
}

// AddClause requires at least one of the candidates to be selected.
func (e *Engine) AddClause(candidates []int) error {
	if err := engine.ValidateClause(e.n, candidates); err != nil {
		return err
	}
	lits := make([]cpmodel.BoolVar, len(candidates))
	for i, c := range candidates {
		lits[i] = e.vars[c]
	}
	e.builder.AddBoolOr(lits...)
	return nil
}

// ForbidPair prevents a and b from being selected together.
func (e *Engine) ForbidPair(a, b int) error {
	if err := engine.ValidatePair(e.n, a, b); err != nil {
		return err
	}
	e.builder.AddAtMostOne(e.vars[a], e.vars[b])
	return nil
}

// Solve decides feasibility under the context deadline.
func (e *Engine) Solve(ctx context.Context) (engine.Status, []int, error) {
	model, err := e.builder.Model()
	if err != nil {
		return engine.Indet, nil, errors.Wrap(err, "cpsat: building model")
	}
	params := &sppb.SatParameters{}
	if deadline, ok := ctx.Deadline(); ok {
		budget := time.Until(deadline).Seconds()
		if budget <= 0 {
			return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, "cpsat")
		}
		params.MaxTimeInSeconds = proto.Float64(budget)
	}
	response, err := cpmodel.SolveCpModelWithParameters(model, params)
	if err != nil {
		return engine.Indet, nil, errors.Wrap(err, "cpsat: solving")
	}
	switch response.GetStatus() {
	case cmpb.CpSolverStatus_OPTIMAL, cmpb.CpSolverStatus_FEASIBLE:
		var selected []int
		for i, v := range e.vars {
			if cpmodel.SolutionBooleanValue(response, v) {
				selected = append(selected, i)
			}
		}
		return engine.Sat, selected, nil
	case cmpb.CpSolverStatus_INFEASIBLE:
		return engine.Unsat, nil, nil
	case cmpb.CpSolverStatus_UNKNOWN:
		return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, "cpsat")
	default:
		return engine.Indet, nil, errors.Errorf("cpsat: unexpected solver status %v", response.GetStatus())
	}
}

// Close releases the model builder.
func (e *Engine) Close() error {
	e.builder = nil
	e.vars = nil
	return nil
}
