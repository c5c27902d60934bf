package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/gomanip/environment/mujoco/sawyer"
	"github.com/samuelfneumann/gomanip/experiment/tracker"
)

// execute runs the root command with args, returning its output
func execute(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := RootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVariantsCommand(t *testing.T) {
	out, err := execute(t, "variants")
	require.NoError(t, err)
	for _, name := range sawyer.Variants() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, sawyer.PlanarBackend)
}

func TestTaskCommand(t *testing.T) {
	out, err := execute(t, "task", "--env", "shelf-place", "--seed", "1",
		"-n", "2")
	require.NoError(t, err)

	dec := yaml.NewDecoder(strings.NewReader(out))
	for i := 0; i < 2; i++ {
		var task sawyer.Task
		require.NoError(t, dec.Decode(&task))
		assert.Equal(t, "shelf-place", task.EnvName)
		assert.Len(t, task.RandVec, 6)
	}

	_, err = execute(t, "task", "--env", "door-open")
	assert.Error(t, err)
	_, err = execute(t, "task")
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	_, err := execute(t, "render", "--env", "bin-picking", "-o", path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "exp.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
max_steps: 6
env:
  env: peg-unplug-side
  max_path_length: 3
`), 0o644))

	out := filepath.Join(dir, "data")
	_, err := execute(t, "run", config, "-o", out, "--checkpoint-every", "3",
		"--progress")
	require.NoError(t, err)

	lengths, err := tracker.LoadData(filepath.Join(out, "length.bin"))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, lengths)

	success, err := tracker.LoadData(filepath.Join(out, "success.bin"))
	require.NoError(t, err)
	assert.Len(t, success, 2)

	returns, err := tracker.LoadData(filepath.Join(out, "return-2.bin"))
	require.NoError(t, err)
	assert.Len(t, returns, 2)

	_, err = execute(t, "run", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
