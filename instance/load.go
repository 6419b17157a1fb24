package instance

import (
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type instanceJSON struct {
	Positions [][2]float64 `json:"positions"`
	Boundary  []int        `json:"boundary"`
	Holes     [][]int      `json:"holes,omitempty"`
}

// Load reads an instance from its JSON form:
//
//	{"positions": [[x,y], ...], "boundary": [i, ...], "holes": [[i, ...], ...]}
func Load(r io.Reader) (*Instance, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "instance: read")
	}
	var raw instanceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "instance: decode")
	}
	positions := make([]Position, len(raw.Positions))
	for i, p := range raw.Positions {
		positions[i] = Position{X: p[0], Y: p[1]}
	}
	return New(positions, raw.Boundary, raw.Holes)
}

// LoadFile reads an instance from a JSON file.
func LoadFile(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "instance: open")
	}
	defer f.Close()
	return Load(f)
}

// Write serializes the instance as JSON.
func (inst *Instance) Write(w io.Writer) error {
	raw := instanceJSON{
		Positions: make([][2]float64, len(inst.positions)),
		Boundary:  inst.boundary,
		Holes:     inst.holes,
	}
	for i, p := range inst.positions {
		raw.Positions[i] = [2]float64{p.X, p.Y}
	}
	data, err := json.Marshal(&raw)
	if err != nil {
		return errors.Wrap(err, "instance: encode")
	}
	_, err = w.Write(data)
	return errors.Wrap(err, "instance: write")
}
