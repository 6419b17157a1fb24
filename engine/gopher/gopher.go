// Package gopher implements the feasibility engine on the gophersat solver.
// gophersat solves synchronously, so a deadline abandons the running search
// in its goroutine and poisons the engine; a poisoned engine rejects all
// further calls. Timeouts are terminal for the search that raised them, so
// poisoning never loses work.
package gopher

import (
	"context"

	"github.com/crillab/gophersat/solver"
	"github.com/pkg/errors"

	"github.com/optlabs/dispgard/engine"
)

// Engine is a feasibility engine over n candidates backed by gophersat.
type Engine struct {
	n        int
	s        *solver.Solver
	poisoned bool
}

var _ engine.Interface = (*Engine)(nil)

// New creates an engine over n candidates. The variable count is pinned with
// a tautological clause over the last variable so that every candidate has a
// solver variable from the start.
func New(n int) (*Engine, error) {
	if n <= 0 {
		return nil, errors.Errorf("gopher: need at least one candidate, got %d", n)
	}
	pb := solver.ParseSlice([][]int{{n, -n}})
	return &Engine{n: n, s: solver.New(pb)}, nil
}

// Factory is the engine.Factory for gophersat-backed engines.
func Factory(n int) (engine.Interface, error) {
	return New(n)
}

func (e *Engine) check() error {
	if e.s == nil {
		return errors.New("gopher: engine is closed")
	}
	if e.poisoned {
		return errors.New("gopher: engine was abandoned after a timeout")
	}
	return nil
}

// AddClause requires at least one of the candidates to be selected.
func (e *Engine) AddClause(candidates []int) error {
	if err := engine.ValidateClause(e.n, candidates); err != nil {
		return err
	}
	if err := e.check(); err != nil {
		return err
	}
	lits := make([]solver.Lit, len(candidates))
	for i, c := range candidates {
		lits[i] = solver.IntToLit(int32(c + 1))
	}
	e.s.AppendClause(solver.NewClause(lits))
	return nil
}

// ForbidPair prevents a and b from being selected together.
func (e *Engine) ForbidPair(a, b int) error {
	if err := engine.ValidatePair(e.n, a, b); err != nil {
		return err
	}
	if err := e.check(); err != nil {
		return err
	}
	lits := []solver.Lit{solver.IntToLit(int32(-(a + 1))), solver.IntToLit(int32(-(b + 1)))}
	e.s.AppendClause(solver.NewClause(lits))
	return nil
}

// Solve decides feasibility. If the deadline elapses first, the in-flight
// search keeps running in its goroutine until it finishes on its own; the
// engine is poisoned and its result discarded.
func (e *Engine) Solve(ctx context.Context) (engine.Status, []int, error) {
	if err := e.check(); err != nil {
		return engine.Indet, nil, err
	}
	if ctx.Err() != nil {
		e.poisoned = true
		return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, "gopher")
	}
	done := make(chan solver.Status, 1)
	go func() {
		done <- e.s.Solve()
	}()
	select {
	case <-ctx.Done():
		e.poisoned = true
		return engine.Indet, nil, errors.Wrap(engine.ErrTimeout, "gopher")
	case st := <-done:
		switch st {
		case solver.Sat:
			model := e.s.Model()
			var selected []int
			for i := 0; i < e.n; i++ {
				if model[i] {
					selected = append(selected, i)
				}
			}
			return engine.Sat, selected, nil
		case solver.Unsat:
			return engine.Unsat, nil, nil
		default:
			return engine.Indet, nil, errors.Errorf("gopher: unexpected solver status %v", st)
		}
	}
}

// Close releases the solver.
func (e *Engine) Close() error {
	e.s = nil
	return nil
}
