package disp

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/optlabs/dispgard/engine"
	"github.com/optlabs/dispgard/instance"
)

// Result bundles the outcome of a Solve call.
type Result struct {
	// Status is the termination status of the run.
	Status Status
	// Solution is the best covering selection, nil if Status is Unknown.
	Solution []int
	// Objective is the smallest pairwise geodesic distance within Solution,
	// +Inf for a single guard, 0 if no solution was found.
	Objective float64
	// UpperBound is the best proven ceiling on the achievable dispersion.
	UpperBound float64
	// Stats records the work done during the run.
	Stats Stats
}

// Solve runs the full optimization on one instance with a fresh optimizer
// and the given feasibility engine factory. A nil logger disables logging.
func Solve(ctx context.Context, inst *instance.Instance, oracle Oracle, factory engine.Factory, params Params, log logrus.FieldLogger) (Result, error) {
	opt, err := NewOptimizer(inst, oracle, factory, params, log)
	if err != nil {
		return Result{Status: Unknown}, err
	}
	status, err := opt.Solve(ctx)
	res := Result{
		Status:     status,
		Solution:   opt.Solution(),
		Objective:  opt.Objective(),
		UpperBound: opt.UpperBound(),
		Stats:      opt.Stats(),
	}
	return res, err
}
