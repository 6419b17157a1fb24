// Package backends maps backend names to feasibility engine factories.
package backends

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/optlabs/dispgard/engine"
	"github.com/optlabs/dispgard/engine/cpsat"
	"github.com/optlabs/dispgard/engine/ginisat"
	"github.com/optlabs/dispgard/engine/gopher"
	"github.com/optlabs/dispgard/engine/grb"
)

var factories = map[string]engine.Factory{
	"sat":    ginisat.Factory,
	"gopher": gopher.Factory,
	"cpsat":  cpsat.Factory,
	"mip":    grb.Factory,
}

// Default is the backend used when none is named.
const Default = "sat"

// Select returns the engine factory registered under the given name.
func Select(name string) (engine.Factory, error) {
	if factory, ok := factories[name]; ok {
		return factory, nil
	}
	return nil, errors.Errorf("backends: unknown backend %q, available: %v", name, Names())
}

// Names returns all registered backend names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
