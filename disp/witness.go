package disp

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/optlabs/dispgard/instance"
)

// A Witness is evidence that some location needs coverage: at least one of
// its Guards must be selected. The location is nil for the trivial
// all-candidates witness.
type Witness struct {
	Location *instance.Position
	Guards   []int
}

// WitnessStats counts the work done by a witness generator.
type WitnessStats struct {
	Initial        int // witnesses from initial seeding
	AreaCalls      int // uncovered pieces sampled
	SelectionCalls int // selections checked for missing coverage
	CutCalls       int // invocations as a lazy cut generator
	Repairs        int // degenerate regions repaired
}

// A WitnessGenerator turns uncovered area reported by the Coverage adapter
// into witnesses. Every witness ever produced is kept in a de-duplicated
// accumulator for the life of the run; witnesses are never removed.
type WitnessGenerator struct {
	inst        *instance.Instance
	cov         *Coverage
	lazy        bool
	trivialOnly bool
	log         logrus.FieldLogger
	witnesses   []Witness
	seen        map[string]bool
	stats       WitnessStats
}

// NewWitnessGenerator creates a generator. With trivialOnly set, initial
// seeding produces a single witness over all candidates instead of one
// witness per candidate location. With lazy unset, Cuts always reports
// nothing, disabling witness generation inside feasibility solves.
func NewWitnessGenerator(inst *instance.Instance, cov *Coverage, lazy, trivialOnly bool, log logrus.FieldLogger) *WitnessGenerator {
	return &WitnessGenerator{
		inst:        inst,
		cov:         cov,
		lazy:        lazy,
		trivialOnly: trivialOnly,
		log:         ensureLogger(log),
		seen:        make(map[string]bool),
	}
}

// All returns every witness accumulated so far.
func (w *WitnessGenerator) All() []Witness { return w.witnesses }

// Stats returns a snapshot of the generator counters.
func (w *WitnessGenerator) Stats() WitnessStats { return w.stats }

// InitialWitnesses seeds the accumulator: one witness per candidate location,
// guarded by every candidate that sees it, or the single trivial witness in
// trivial-only mode. Every returned guard set is non-empty, since each
// candidate at least sees itself.
func (w *WitnessGenerator) InitialWitnesses() ([]Witness, error) {
	if w.trivialOnly {
		all := make([]int, w.inst.NumPositions())
		for i := range all {
			all[i] = i
		}
		wit := Witness{Guards: all}
		w.stats.Initial++
		return w.record([]Witness{wit}), nil
	}
	witnesses := make([]Witness, 0, w.inst.NumPositions())
	for v := 0; v < w.inst.NumPositions(); v++ {
		p := w.inst.Position(v)
		guards := w.cov.CandidatesWithin(w.cov.VisibilityOf(v))
		if len(guards) == 0 {
			return nil, errors.Errorf("disp: no candidate covers candidate %d", v)
		}
		loc := p
		witnesses = append(witnesses, Witness{Location: &loc, Guards: guards})
	}
	w.stats.Initial += len(witnesses)
	return w.record(witnesses), nil
}

// WitnessesForSelection asks the oracle which area the selection leaves
// uncovered and produces witnesses for every remaining piece. An empty result
// means the selection covers everything.
func (w *WitnessGenerator) WitnessesForSelection(selected []int) ([]Witness, error) {
	w.stats.SelectionCalls++
	missing, err := w.cov.Uncovered(selected)
	if err != nil {
		return nil, err
	}
	var witnesses []Witness
	for _, area := range missing {
		ws, err := w.witnessesForArea(area, true)
		if err != nil {
			return nil, err
		}
		witnesses = append(witnesses, ws...)
	}
	if len(witnesses) > 0 {
		w.log.WithField("witnesses", len(witnesses)).Info("found witnesses for missing area")
	}
	return witnesses, nil
}

// witnessesForArea samples interior points of one uncovered piece. A
// degenerate region is repaired and retried once; a second degeneracy among
// the repaired pieces is fatal.
func (w *WitnessGenerator) witnessesForArea(area Region, allowRepair bool) ([]Witness, error) {
	w.stats.AreaCalls++
	points, err := w.cov.oracle.SampleInterior(area)
	if err != nil {
		if !errors.Is(err, ErrDegenerateRegion) {
			return nil, errors.Wrap(err, "disp: sampling uncovered area")
		}
		if !allowRepair {
			return nil, errors.Wrap(err, "disp: region still degenerate after repair")
		}
		w.log.Warn("degenerate uncovered region, repairing")
		w.stats.Repairs++
		parts, rerr := w.cov.oracle.Repair(area)
		if rerr != nil {
			return nil, errors.Wrap(rerr, "disp: repairing degenerate region")
		}
		if len(parts) < 2 {
			return nil, errors.Errorf("disp: repair produced %d pieces, want at least 2", len(parts))
		}
		var witnesses []Witness
		for _, part := range parts {
			ws, perr := w.witnessesForArea(part, false)
			if perr != nil {
				return nil, perr
			}
			witnesses = append(witnesses, ws...)
		}
		return witnesses, nil
	}
	witnesses := make([]Witness, 0, len(points))
	for _, p := range points {
		guards := w.cov.CoveringCandidates(p)
		if len(guards) == 0 {
			return nil, errors.Errorf("disp: no candidate covers sampled point (%g,%g)", p.X, p.Y)
		}
		loc := p
		witnesses = append(witnesses, Witness{Location: &loc, Guards: guards})
	}
	return w.record(witnesses), nil
}

// Cuts is the lazy-constraint hook handed to the threshold search: it returns
// the guard sets of all new witnesses for the selection, or nothing when lazy
// generation is disabled.
func (w *WitnessGenerator) Cuts(selected []int) ([][]int, error) {
	w.stats.CutCalls++
	if !w.lazy {
		return nil, nil
	}
	witnesses, err := w.WitnessesForSelection(selected)
	if err != nil {
		return nil, err
	}
	cuts := make([][]int, 0, len(witnesses))
	for _, wit := range witnesses {
		cuts = append(cuts, wit.Guards)
	}
	return cuts, nil
}

// record appends new witnesses to the accumulator, dropping exact duplicates,
// and returns the ones actually added.
func (w *WitnessGenerator) record(witnesses []Witness) []Witness {
	added := witnesses[:0]
	for _, wit := range witnesses {
		key := witnessKey(wit)
		if w.seen[key] {
			continue
		}
		w.seen[key] = true
		w.witnesses = append(w.witnesses, wit)
		added = append(added, wit)
	}
	return added
}

func witnessKey(w Witness) string {
	guards := append([]int(nil), w.Guards...)
	sort.Ints(guards)
	key := fmt.Sprint(guards)
	if w.Location != nil {
		key = fmt.Sprintf("%g,%g|%s", w.Location.X, w.Location.Y, key)
	}
	return key
}
