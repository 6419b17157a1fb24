/*
Package disp searches for guard placements of maximum dispersion: among all
subsets of candidate positions that jointly cover an area, it finds one whose
minimum pairwise geodesic distance is as large as possible.

The search combines two lazily evaluated constraint families. Coverage is
delegated to an external Oracle: whenever a candidate selection leaves part of
the area uncovered, sample points of the uncovered part are turned into
witnesses, each contributing an "at least one of these candidates" clause.
Separation is enforced through a threshold k: all candidate pairs closer than
k are forbidden, and k is driven upwards through the sorted distance values
until the gap between the best found dispersion and its proven upper bound is
closed.

Feasibility questions are answered by a pluggable engine (see the engine
package); clause-based SAT, CP-SAT and MIP backends all run behind the same
optimization loop.

Basic usage:

	inst, _ := instance.LoadFile("area.json")
	oracle, _ := geom.NewOracle(inst, 1.0)
	res, err := disp.Solve(context.Background(), inst, oracle, ginisat.Factory, disp.DefaultParams(), nil)
*/
package disp
