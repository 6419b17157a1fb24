package disp

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Params configures an optimization run.
type Params struct {
	// TimeLimit is the wall-clock budget for the whole run.
	TimeLimit time.Duration `yaml:"time_limit"`
	// OptTol is the relative optimality gap at which the search stops.
	OptTol float64 `yaml:"opt_tol"`
	// StrategyStart picks the threshold for the first iteration of each
	// threshold search.
	StrategyStart SearchStrategy `yaml:"strategy_start"`
	// StrategyIteration picks the threshold for subsequent iterations.
	StrategyIteration SearchStrategy `yaml:"strategy_iteration"`
	// Lazy enables witness generation inside feasibility solves. Without it
	// witnesses are only generated between threshold searches.
	Lazy bool `yaml:"lazy"`
	// TrivialWitnessesOnly seeds the model with a single all-candidates
	// witness instead of one witness per candidate location.
	TrivialWitnessesOnly bool `yaml:"trivial_witnesses_only"`
}

// DefaultParams returns the parameters used throughout the benchmarks:
// 15 minutes, 0.01% gap, binary search, lazy witnesses.
func DefaultParams() Params {
	return Params{
		TimeLimit:         900 * time.Second,
		OptTol:            1e-4,
		StrategyStart:     Binary,
		StrategyIteration: Binary,
		Lazy:              true,
	}
}

// Validate rejects unusable parameter combinations.
func (p Params) Validate() error {
	if p.TimeLimit <= 0 {
		return errors.Errorf("disp: time limit must be positive, got %v", p.TimeLimit)
	}
	if p.OptTol < 0 {
		return errors.Errorf("disp: optimality tolerance must be non-negative, got %g", p.OptTol)
	}
	return nil
}

// LoadParams reads parameters from a YAML file, filling unset fields with
// defaults.
func LoadParams(path string) (Params, error) {
	params := DefaultParams()
	data, err := os.ReadFile(path)
	if err != nil {
		return params, errors.Wrap(err, "disp: reading params")
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, errors.Wrap(err, "disp: decoding params")
	}
	if err := params.Validate(); err != nil {
		return params, err
	}
	return params, nil
}

// UnmarshalYAML decodes parameters on top of the values already present, so
// absent fields keep their defaults. The time limit uses Go duration syntax,
// e.g. "900s" or "15m".
func (p *Params) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		TimeLimit            string          `yaml:"time_limit"`
		OptTol               *float64        `yaml:"opt_tol"`
		StrategyStart        *SearchStrategy `yaml:"strategy_start"`
		StrategyIteration    *SearchStrategy `yaml:"strategy_iteration"`
		Lazy                 *bool           `yaml:"lazy"`
		TrivialWitnessesOnly *bool           `yaml:"trivial_witnesses_only"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw.TimeLimit != "" {
		d, err := time.ParseDuration(raw.TimeLimit)
		if err != nil {
			return errors.Wrap(err, "disp: time limit")
		}
		p.TimeLimit = d
	}
	if raw.OptTol != nil {
		p.OptTol = *raw.OptTol
	}
	if raw.StrategyStart != nil {
		p.StrategyStart = *raw.StrategyStart
	}
	if raw.StrategyIteration != nil {
		p.StrategyIteration = *raw.StrategyIteration
	}
	if raw.Lazy != nil {
		p.Lazy = *raw.Lazy
	}
	if raw.TrivialWitnessesOnly != nil {
		p.TrivialWitnessesOnly = *raw.TrivialWitnessesOnly
	}
	return nil
}

// MarshalYAML encodes the strategy by name.
func (s SearchStrategy) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML decodes a strategy from its name.
func (s *SearchStrategy) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	strat, err := ParseStrategy(name)
	if err != nil {
		return err
	}
	*s = strat
	return nil
}
