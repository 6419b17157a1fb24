package disp

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/optlabs/dispgard/engine"
)

// ThresholdModel owns one feasibility engine and translates domain
// constraints into engine constraints. Coverage clauses are recorded and
// survive a Reset; prohibited pairs do not, since they depend on the current
// distance threshold and must be rebuilt by the caller after a reset.
type ThresholdModel struct {
	n       int
	factory engine.Factory
	eng     engine.Interface
	log     logrus.FieldLogger

	coverage   [][]int
	cuts       engine.CutFunc
	prohibited int
	resets     int
	solves     int
}

// NewThresholdModel creates a model over n candidates with a fresh engine
// from the factory.
func NewThresholdModel(n int, factory engine.Factory, log logrus.FieldLogger) (*ThresholdModel, error) {
	if n <= 0 {
		return nil, errors.Errorf("disp: model needs at least one candidate, got %d", n)
	}
	eng, err := factory(n)
	if err != nil {
		return nil, errors.Wrap(err, "disp: creating engine")
	}
	return &ThresholdModel{n: n, factory: factory, eng: eng, log: ensureLogger(log)}, nil
}

// AddCoverage adds an "at least one of these candidates" clause. Duplicate
// clauses are harmless. The clause is recorded for replay on Reset.
func (m *ThresholdModel) AddCoverage(candidates []int) error {
	if err := engine.ValidateClause(m.n, candidates); err != nil {
		return err
	}
	if err := m.eng.AddClause(candidates); err != nil {
		return errors.Wrap(err, "disp: adding coverage clause")
	}
	m.coverage = append(m.coverage, append([]int(nil), candidates...))
	m.log.WithField("guards", len(candidates)).Debug("added coverage constraint")
	return nil
}

// ProhibitPair forbids selecting candidates a and b together.
func (m *ThresholdModel) ProhibitPair(a, b int) error {
	if err := engine.ValidatePair(m.n, a, b); err != nil {
		return err
	}
	if err := m.eng.ForbidPair(a, b); err != nil {
		return errors.Wrapf(err, "disp: prohibiting pair (%d,%d)", a, b)
	}
	m.prohibited++
	return nil
}

// Reset discards the engine, creates a fresh one and replays all recorded
// coverage clauses. Prohibited pairs are dropped; the caller must re-add the
// pairs consistent with its new threshold.
func (m *ThresholdModel) Reset() error {
	if err := m.eng.Close(); err != nil {
		return errors.Wrap(err, "disp: closing engine")
	}
	eng, err := m.factory(m.n)
	if err != nil {
		return errors.Wrap(err, "disp: recreating engine")
	}
	m.eng = eng
	m.prohibited = 0
	m.resets++
	if m.cuts != nil {
		if lazy, ok := m.eng.(engine.LazyEngine); ok {
			lazy.RegisterLazyCuts(m.cuts)
		}
	}
	for _, clause := range m.coverage {
		if err := m.eng.AddClause(clause); err != nil {
			return errors.Wrap(err, "disp: replaying coverage clause")
		}
	}
	m.log.WithField("coverage", len(m.coverage)).Info("model reset, coverage constraints replayed")
	return nil
}

// Solve runs the engine under the context deadline. It requires at least one
// coverage clause; a model without coverage constraints indicates a wiring
// bug, not an interesting feasibility question.
func (m *ThresholdModel) Solve(ctx context.Context) (engine.Status, []int, error) {
	if len(m.coverage) == 0 {
		return engine.Indet, nil, errors.New("disp: no coverage constraints added")
	}
	m.solves++
	return m.eng.Solve(ctx)
}

// RegisterLazyCuts installs the cut generator on the engine if it supports
// native lazy constraints. It reports whether the engine does. The generator
// is kept and re-installed on every engine a Reset creates.
func (m *ThresholdModel) RegisterLazyCuts(cuts engine.CutFunc) bool {
	lazy, ok := m.eng.(engine.LazyEngine)
	if !ok {
		return false
	}
	m.cuts = func(selected []int) ([][]int, error) {
		added, err := cuts(selected)
		if err != nil {
			return nil, err
		}
		// Record natively applied cuts so they survive a Reset.
		for _, clause := range added {
			m.coverage = append(m.coverage, append([]int(nil), clause...))
		}
		return added, nil
	}
	lazy.RegisterLazyCuts(m.cuts)
	return true
}

// Close releases the engine.
func (m *ThresholdModel) Close() error { return m.eng.Close() }

// NumCoverage returns the number of recorded coverage clauses.
func (m *ThresholdModel) NumCoverage() int { return len(m.coverage) }

// NumProhibited returns the number of pairs prohibited since the last reset.
func (m *ThresholdModel) NumProhibited() int { return m.prohibited }

// Resets returns how often the model was reset.
func (m *ThresholdModel) Resets() int { return m.resets }

// Solves returns the number of feasibility queries issued.
func (m *ThresholdModel) Solves() int { return m.solves }

func ensureLogger(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
