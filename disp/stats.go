package disp

// A BoundsSample is one point of the objective / upper bound trace.
type BoundsSample struct {
	Objective  float64
	UpperBound float64
}

// Stats is a snapshot of the work done by one optimization run.
type Stats struct {
	SolveCalls          int
	Resets              int
	CoverageConstraints int
	ProhibitedPairs     int
	CoverageIterations  int
	Witnesses           WitnessStats
	Trace               []BoundsSample
}

func (s *Stats) addModel(m *ThresholdModel) {
	s.SolveCalls += m.Solves()
	s.Resets += m.Resets()
	s.CoverageConstraints = m.NumCoverage()
	s.ProhibitedPairs += m.NumProhibited()
}
