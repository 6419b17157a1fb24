package disp

// An Observer receives progress notifications from the top-level optimizer.
// Implementations must be cheap; they run inline with the search.
type Observer interface {
	// OnNewWitnesses is called when uncovered area produced new witnesses.
	OnNewWitnesses(witnesses []Witness)
	// OnNewSolution is called when a selection was accepted as the new
	// incumbent, together with its dispersion.
	OnNewSolution(selected []int, objective float64)
	// OnCoverageIteration is called once per outer coverage iteration with
	// the iteration number and the number of witnesses known so far.
	OnCoverageIteration(iteration, witnesses int)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) OnNewWitnesses([]Witness)     {}
func (NopObserver) OnNewSolution([]int, float64) {}
func (NopObserver) OnCoverageIteration(int, int) {}
