//go:build mujoco

package sawyer

import (
	"os"
	"path/filepath"

	"github.com/samuelfneumann/gomanip/environment/mujoco/internal/mujocoenv"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
)

// MujocoBackend is the name of the MuJoCo simulator, available when
// built with the mujoco build tag
const MujocoBackend = "mujoco"

// AssetsEnv names the environment variable holding the directory that
// variants' scene descriptions are resolved against
const AssetsEnv = "GOMANIP_ASSETS"

func init() {
	backends[MujocoBackend] = newMujoco
}

func newMujoco(v *Variant, modelPath string) (simulator.Simulator, error) {
	if modelPath == "" {
		modelPath = filepath.Join(os.Getenv(AssetsEnv), v.ModelFile)
	}
	sim, err := mujocoenv.New(modelPath)
	if err != nil {
		return nil, err
	}
	return sim, nil
}
