package experiment

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/envconfig"
	"github.com/samuelfneumann/gomanip/environment/mujoco/sawyer"
	"github.com/samuelfneumann/gomanip/experiment/checkpointer"
	"github.com/samuelfneumann/gomanip/experiment/tracker"
	ts "github.com/samuelfneumann/gomanip/timestep"
)

func TestRandom(t *testing.T) {
	spec := environment.NewBoxSpec(environment.Action, []float64{-1, 0},
		[]float64{1, 0.5})

	p := NewRandom(spec, 3)
	q := NewRandom(spec, 3)
	for i := 0; i < 100; i++ {
		a := p.SelectAction(ts.TimeStep{})
		assert.True(t, spec.Contains(a))
		assert.Equal(t, a, q.SelectAction(ts.TimeStep{}))
	}

	unbounded := environment.NewBoxSpec(environment.Action, []float64{-1},
		[]float64{math.Inf(1)})
	assert.Panics(t, func() { NewRandom(unbounded, 0) })
}

// scriptedStep returns a step observing the argument hand, gripper
// distance, object and goal
func scriptedStep(hand r3.Vec, gripper float64, obj, goal r3.Vec) ts.TimeStep {
	obs := make([]float64, sawyer.ObsDim)
	copy(obs, []float64{hand.X, hand.Y, hand.Z, gripper, obj.X, obj.Y, obj.Z,
		1})
	copy(obs[2*sawyer.FrameDim:], []float64{goal.X, goal.Y, goal.Z})
	return ts.New(ts.Mid, 0, 1, mat.NewVecDense(sawyer.ObsDim, obs), 1)
}

func TestScripted(t *testing.T) {
	obj := r3.Vec{X: 0, Y: 0.6, Z: 0.02}
	goal := r3.Vec{X: 0.1, Y: 0.8, Z: 0.3}

	tests := []struct {
		name    string
		hand    r3.Vec
		gripper float64
		want    []float64
	}{
		{"hover", r3.Vec{X: 0.1, Y: 0.6, Z: 0.2}, 1, []float64{-1, 0, -0.8,
			-1}},
		{"descend", r3.Vec{X: 0, Y: 0.6, Z: 0.2}, 1, []float64{0, 0, -1, -1}},
		{"grip", r3.Vec{X: 0, Y: 0.6, Z: 0.03}, 0.9, []float64{0, 0, 0, 1}},
		{"carry", r3.Vec{X: 0, Y: 0.6, Z: 0.03}, 0.3, []float64{1, 1, 1, 1}},
	}

	p := NewScripted()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a := p.SelectAction(scriptedStep(test.hand, test.gripper, obj, goal))
			require.Equal(t, sawyer.ActionDim, a.Len())
			for i, want := range test.want {
				assert.InDelta(t, want, a.AtVec(i), 1e-9, "element %v", i)
			}
		})
	}
}

func testConfig() Config {
	env := envconfig.Default("shelf-place")
	env.MaxPathLength = 5
	env.Seed = 2
	return Config{
		Type:     OnlineExp,
		MaxSteps: 12,
		Policy:   RandomPolicy,
		EnvConf:  env,
	}
}

func TestOnline(t *testing.T) {
	dir := t.TempDir()
	returns := tracker.NewReturn(filepath.Join(dir, "return.bin"))
	lengths := tracker.NewEpisodeLength(filepath.Join(dir, "length.bin"))
	success := tracker.NewSuccess(filepath.Join(dir, "success.bin"))
	check := checkpointer.NewNStep(5, lengths,
		checkpointer.FilenameEnumerator(0, filepath.Join(dir, "length"),
			".ckpt"))

	exp, env, err := testConfig().CreateExp(nil,
		[]tracker.Tracker{returns, lengths}, []checkpointer.Checkpointer{check})
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	exp.Register(success)

	online := exp.(*Online)
	var seen int
	online.OnStep(func(ts.TimeStep) { seen++ })

	require.NoError(t, exp.Run(context.Background()))
	require.NoError(t, exp.Save())

	// Two finished episodes of five steps and an unfinished one
	assert.Equal(t, uint(12), online.Steps())
	assert.Equal(t, 3, online.Episodes())
	assert.Equal(t, 15, seen)
	assert.Equal(t, []float64{5, 5}, lengths.Data())
	assert.Len(t, returns.Data(), 2)
	assert.Len(t, success.Data(), 2)
	for _, r := range returns.Data() {
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 5*sawyer.SuccessReward)
	}

	data, err := tracker.LoadData(filepath.Join(dir, "length.bin"))
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5}, data)

	// Checkpoints after steps 5 and 10
	data, err = tracker.LoadData(filepath.Join(dir, "length1.ckpt"))
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, data)
	data, err = tracker.LoadData(filepath.Join(dir, "length2.ckpt"))
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5}, data)
}

func TestOnlineCancelled(t *testing.T) {
	exp, env, err := testConfig().CreateExp(nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = exp.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_steps: 100
policy: scripted
env:
  env: bin-picking
  seed: 4
`), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, OnlineExp, c.Type)
	assert.Equal(t, ScriptedPolicy, c.Policy)
	assert.Equal(t, uint(100), c.MaxSteps)
	assert.Equal(t, "bin-picking", c.EnvConf.Env)
	assert.Equal(t, sawyer.PlanarBackend, c.EnvConf.Backend)
	assert.Equal(t, uint64(4), c.EnvConf.Seed)

	bad := testConfig()
	bad.Policy = "greedy"
	assert.Error(t, bad.Validate())
	bad = testConfig()
	bad.MaxSteps = 0
	assert.Error(t, bad.Validate())
	bad = testConfig()
	bad.EnvConf.Env = "door-open"
	assert.Error(t, bad.Validate())
}
