package instance

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func square() ([]Position, []int) {
	return []Position{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, []int{0, 1, 2, 3}
}

func TestNew(t *testing.T) {
	positions, boundary := square()
	inst, err := New(positions, boundary, nil)
	require.NoError(t, err)
	require.Equal(t, 4, inst.NumPositions())
	require.Equal(t, 0, inst.NumHoles())
	require.Equal(t, Position{1, 1}, inst.Position(2))
}

func TestNewRejectsShortBoundary(t *testing.T) {
	positions, _ := square()
	if _, err := New(positions[:2], []int{0, 1}, nil); err == nil {
		t.Error("expected error for a 2-vertex boundary")
	}
}

func TestNewRejectsOutOfRangeIndex(t *testing.T) {
	positions, _ := square()
	if _, err := New(positions, []int{0, 1, 2, 7}, nil); err == nil {
		t.Error("expected error for out-of-range vertex index")
	}
}

func TestNewRejectsUnreferencedPosition(t *testing.T) {
	positions, _ := square()
	if _, err := New(positions, []int{0, 1, 2}, nil); err == nil {
		t.Error("expected error when a position is not referenced")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	inst, err := New(
		[]Position{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {4, 4}, {6, 4}, {6, 6}, {4, 6}},
		[]int{0, 1, 2, 3},
		[][]int{{4, 5, 6, 7}},
	)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, inst.Write(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, inst.NumPositions(), loaded.NumPositions())
	require.Equal(t, inst.Boundary(), loaded.Boundary())
	require.Equal(t, inst.Hole(0), loaded.Hole(0))
}

func TestLoadBadJSON(t *testing.T) {
	if _, err := Load(strings.NewReader("{not json")); err == nil {
		t.Error("expected decode error")
	}
}
