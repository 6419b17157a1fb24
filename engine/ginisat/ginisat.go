// Package ginisat implements the feasibility engine on the gini SAT solver.
// gini solves asynchronously, so deadlines interrupt the search cleanly and
// the engine stays usable after a timeout.
package ginisat

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	"github.com/optlabs/dispgard/engine"
)

// pollInterval is how often an in-flight solve is checked for completion.
const pollInterval = 50 * time.Millisecond

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Engine is a feasibility engine over n candidates backed by gini.
type Engine struct {
	n int
	g *gini.Gini
}

var _ engine.Interface = (*Engine)(nil)

// New creates an engine over n candidates.
func New(n int) (*Engine, error) {
	if n <= 0 {
		return nil, errors.Errorf("ginisat: need at least one candidate, got %d", n)
	}
	return &Engine{n: n, g: gini.New()}, nil
}

// Factory is the engine.Factory for gini-backed engines.
func Factory(n int) (engine.Interface, error) {
	return New(n)
}

// lit maps candidate i to its positive solver literal. Solver variables are
// 1-based.
func lit(i int) z.Lit {
	return z.Var(i + 1).Pos()
}

// AddClause requires at least one of the candidates to be selected.
func (e *Engine) AddClause(candidates []int) error {
	if err := engine.ValidateClause(e.n, candidates); err != nil {
		return err
	}
	for _, c := range candidates {
		e.g.Add(lit(c))
	}
	e.g.Add(z.LitNull)
	return nil
}

// ForbidPair prevents a and b from being selected together.
func (e *Engine) ForbidPair(a, b int) error {
	if err := engine.ValidatePair(e.n, a, b); err != nil {
		return err
	}
	e.g.Add(lit(a).Not())
	e.g.Add(lit(b).Not())
	e.g.Add(z.LitNull)
	return nil
}

// Solve decides feasibility under the context deadline.
func (e *Engine) Solve(ctx context.Context) (engine.Status, []int, error) {
	switch waitForSolution(ctx, e.g.GoSolve()) {
	case satisfiable:
		var selected []int
		for i := 0; i < e.n; i++ {
			if e.g.Value(lit(i)) {
				selected = append(selected, i)
			}
		}
		return engine.Sat, selected, nil
	case unsatisfiable:
		return engine.Unsat, nil, nil
	default:
		return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, "ginisat")
	}
}

// Close releases the solver.
func (e *Engine) Close() error {
	e.g = nil
	return nil
}

// waitForSolution polls an asynchronous solve until it finishes or the
// context is done, in which case the solve is stopped and its result so far
// returned.
func waitForSolution(ctx context.Context, gs inter.Solve) int {
	t := time.NewTicker(pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return gs.Stop()
		case <-t.C:
			if result, ok := gs.Test(); ok {
				return result
			}
		}
	}
}
