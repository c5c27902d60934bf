package sawyer

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/gomanip/environment/mujoco/internal/planar"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
)

// Backend creates a simulator of a variant's scene. modelPath, if not
// empty, overrides the variant's scene description.
type Backend func(v *Variant, modelPath string) (simulator.Simulator, error)

// PlanarBackend is the name of the built-in planar simulator
const PlanarBackend = "planar"

var backends = map[string]Backend{
	PlanarBackend: newPlanar,
}

// newPlanar returns a planar simulator of the variant's scene. Planar
// scenes are described in code, so a model path cannot be used.
func newPlanar(v *Variant, modelPath string) (simulator.Simulator, error) {
	if modelPath != "" {
		return nil, fmt.Errorf("newPlanar: scene descriptions cannot be "+
			"loaded from files, have(%v)", modelPath)
	}
	if v.Scene == nil {
		return nil, fmt.Errorf("newPlanar: variant %v has no planar scene",
			v.Name)
	}
	sim, err := planar.New(v.Scene())
	if err != nil {
		return nil, fmt.Errorf("newPlanar: %w", err)
	}
	return sim, nil
}

// Backends returns the names of all simulator backends compiled in
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSimulator returns a simulator of the variant's scene using the
// named backend
func NewSimulator(backend string, v *Variant,
	modelPath string) (simulator.Simulator, error) {
	create, ok := backends[backend]
	if !ok {
		return nil, fmt.Errorf("newSimulator: unknown backend %q, have %v",
			backend, Backends())
	}
	sim, err := create(v, modelPath)
	if err != nil {
		return nil, fmt.Errorf("newSimulator: %w", err)
	}
	return sim, nil
}
