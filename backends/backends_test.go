package backends

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	for _, name := range Names() {
		factory, err := Select(name)
		require.NoError(t, err)
		require.NotNil(t, factory)
	}

	_, err := Select("quantum")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown backend")
}

func TestDefaultRegistered(t *testing.T) {
	require.Contains(t, Names(), Default)
}

func TestNamesSorted(t *testing.T) {
	require.Equal(t, []string{"cpsat", "gopher", "mip", "sat"}, Names())
}
