package disp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParamsValidate(t *testing.T) {
	params := DefaultParams()
	params.TimeLimit = 0
	require.Error(t, params.Validate())

	params = DefaultParams()
	params.OptTol = -1
	require.Error(t, params.Validate())
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"time_limit: 30s\nopt_tol: 0.01\nstrategy_start: DOWN\nlazy: false\n",
	), 0o644))

	params, err := LoadParams(path)
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, params.TimeLimit)
	require.Equal(t, 0.01, params.OptTol)
	require.Equal(t, Down, params.StrategyStart)
	// Unset fields keep their defaults.
	require.Equal(t, Binary, params.StrategyIteration)
	require.False(t, params.Lazy)
}

func TestLoadParamsErrors(t *testing.T) {
	_, err := LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy_start: SIDEWAYS\n"), 0o644))
	_, err = LoadParams(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("time_limit: -5s\n"), 0o644))
	_, err = LoadParams(path)
	require.Error(t, err)
}

func TestStrategyYAMLRoundTrip(t *testing.T) {
	for _, strat := range []SearchStrategy{Binary, Up, Down} {
		data, err := yaml.Marshal(strat)
		require.NoError(t, err)
		var parsed SearchStrategy
		require.NoError(t, yaml.Unmarshal(data, &parsed))
		require.Equal(t, strat, parsed)
	}
}
