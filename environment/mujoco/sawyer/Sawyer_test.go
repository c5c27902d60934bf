package sawyer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	ts "github.com/samuelfneumann/gomanip/timestep"
)

func newTestEnv(t *testing.T, name string, opts Options) (*Env, ts.TimeStep) {
	v, err := VariantByName(name)
	require.NoError(t, err)
	sim, err := NewSimulator(PlanarBackend, v, "")
	require.NoError(t, err)

	env, step, err := New(v, sim, opts)
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	return env, step
}

// driveTo steps the hand towards pos with the argument gripper effort
// until it arrives, returning the last step
func driveTo(t *testing.T, env *Env, pos r3.Vec, effort float64) ts.TimeStep {
	var step ts.TimeStep
	for i := 0; i < 100; i++ {
		hand := NewObservation(env.CurrentTimeStep().Observation).Hand()
		delta := r3.Scale(1/actionScale, r3.Sub(pos, hand))
		if r3.Norm(delta) < 1e-9 && i > 0 {
			return step
		}
		a := mat.NewVecDense(ActionDim, []float64{delta.X, delta.Y, delta.Z,
			effort})

		var err error
		step, _, err = env.Step(a)
		require.NoError(t, err)
	}
	t.Fatalf("driveTo: hand did not reach %v", pos)
	return step
}

func TestResetPlacesTask(t *testing.T) {
	for _, name := range Variants() {
		t.Run(name, func(t *testing.T) {
			env, step := newTestEnv(t, name, Options{Seed: 3})
			v := env.Variant()
			cfg := env.Config()
			require.NotNil(t, cfg)

			assert.True(t, step.First())
			assert.Equal(t, 0, step.Number)
			assert.True(t, env.ObservationSpec().Contains(step.Observation))

			obs := NewObservation(step.Observation)
			assert.InDelta(t, 0, r3.Norm(r3.Sub(obs.Hand(), v.HandInit)), 1e-9)
			assert.InDelta(t, 0, r3.Norm(r3.Sub(cfg.InitTCP, v.HandInit)), 1e-9)
			assert.Equal(t, 1.0, obs.GripperDistance())
			assert.Equal(t, obs.Hand(), obs.PrevHand())
			assert.Equal(t, obs.ObjectPos(), obs.PrevObjectPos())
			assert.InDelta(t, 0, r3.Norm(r3.Sub(obs.ObjectPos(), cfg.ObjInitPos)),
				1e-9)
			assert.Equal(t, cfg.TargetPos, obs.Goal())

			rv := cfg.RandVec
			for i, box := range v.boxes() {
				assert.True(t, box.Contains(vec(rv, 3*i)), "box %v", i)
			}
			if v.Constraint != nil {
				assert.True(t, v.Constraint.Accept(rv))
			}
			assert.InDelta(t, v.inPlaceDistance(cfg.ObjInitPos, cfg.TargetPos),
				cfg.InPlaceMargin, 1e-12)

			var wantObj, wantTarget r3.Vec
			switch name {
			case binPickingName:
				wantObj = r3.Vec{X: rv[0], Y: rv[1], Z: 0.02}
				wantTarget = r3.Vec{X: 0.12, Y: 0.7, Z: 0.02}
			case pegUnplugSideName:
				plug := r3.Add(vec(rv, 0), plugOffset)
				wantObj = r3.Add(plug, r3.Vec{X: 0.02})
				wantTarget = r3.Add(plug, unplugOffset)
			case shelfPlaceName:
				wantObj = r3.Vec{X: rv[0], Y: rv[1], Z: 0.02}
				wantTarget = vec(rv, 3)
			case coffeePushName, plateSlideName:
				wantObj = vec(rv, 0)
				wantTarget = vec(rv, 3)
			}
			assert.InDelta(t, 0, r3.Norm(r3.Sub(cfg.ObjInitPos, wantObj)), 1e-9)
			assert.InDelta(t, 0, r3.Norm(r3.Sub(cfg.TargetPos, wantTarget)), 1e-9)
		})
	}
}

func TestResetIsDeterministic(t *testing.T) {
	env1, _ := newTestEnv(t, shelfPlaceName, Options{Seed: 11})
	env2, _ := newTestEnv(t, shelfPlaceName, Options{Seed: 11})
	env3, _ := newTestEnv(t, shelfPlaceName, Options{Seed: 12})

	assert.Equal(t, env1.Config().RandVec, env2.Config().RandVec)
	assert.NotEqual(t, env1.Config().RandVec, env3.Config().RandVec)

	// Every reset invalidates the previous configuration
	first := env1.Config()
	_, err := env1.Reset()
	require.NoError(t, err)
	assert.NotEqual(t, first.RandVec, env1.Config().RandVec)
	assert.NotEqual(t, env1.id, env2.id)
}

func TestStep(t *testing.T) {
	env, first := newTestEnv(t, binPickingName, Options{})
	hand := NewObservation(first.Observation).Hand()

	// Actions are clipped before moving the hand
	step, done, err := env.Step(mat.NewVecDense(ActionDim,
		[]float64{5, 0, 0, -1}))
	require.NoError(t, err)
	assert.False(t, done)
	assert.True(t, step.Mid())
	assert.Equal(t, 1, step.Number)
	assert.Equal(t, 1, env.PathLength())

	obs := NewObservation(step.Observation)
	assert.InDelta(t, hand.X+actionScale, obs.Hand().X, 1e-9)
	assert.Equal(t, hand, obs.PrevHand())

	assert.GreaterOrEqual(t, step.Reward, 0.0)
	assert.LessOrEqual(t, step.Reward, SuccessReward)
	for _, key := range []string{InfoSuccess, InfoNearObject,
		InfoGraspSuccess, InfoGraspReward, InfoInPlaceReward,
		InfoObjToTarget, InfoUnscaledReward} {
		assert.Contains(t, step.Info, key)
	}

	// The reward of a step is the evaluation of its observation
	r, info := env.Evaluate(step.Observation, mat.NewVecDense(ActionDim,
		[]float64{1, 0, 0, -1}))
	assert.Equal(t, step.Reward, r)
	assert.Equal(t, step.Info, info)
}

func TestStepKeepsHandInWorkspace(t *testing.T) {
	env, _ := newTestEnv(t, binPickingName, Options{})
	low := env.Variant().HandBounds.Low

	var step ts.TimeStep
	for i := 0; i < 30; i++ {
		var err error
		step, _, err = env.Step(mat.NewVecDense(ActionDim,
			[]float64{0, 0, -1, -1}))
		require.NoError(t, err)
	}
	assert.InDelta(t, low.Z, NewObservation(step.Observation).Hand().Z,
		1e-9)
}

func TestStepPanics(t *testing.T) {
	env, _ := newTestEnv(t, binPickingName, Options{})

	assert.Panics(t, func() {
		env.Step(mat.NewVecDense(ActionDim-1, nil))
	})

	env.configure(nil)
	assert.Panics(t, func() {
		env.Step(mat.NewVecDense(ActionDim, nil))
	})
}

func TestMaxPathLength(t *testing.T) {
	env, _ := newTestEnv(t, plateSlideName, Options{MaxPathLength: 3})
	a := mat.NewVecDense(ActionDim, nil)

	for i := 1; i <= 3; i++ {
		step, done, err := env.Step(a)
		require.NoError(t, err)
		assert.Equal(t, i == 3, done, "step %v", i)
		assert.Equal(t, i == 3, step.Last(), "step %v", i)
		if i == 3 {
			assert.True(t, step.Truncated())
			assert.Equal(t, ts.Timeout, step.EndType())
		}
	}

	_, done, err := env.Step(a)
	assert.True(t, done)
	assert.ErrorIs(t, err, ErrMaxPathLength)

	// Resetting starts a new episode
	_, err = env.Reset()
	require.NoError(t, err)
	_, _, err = env.Step(a)
	assert.NoError(t, err)
}

func TestObjectLost(t *testing.T) {
	env, _ := newTestEnv(t, shelfPlaceName, Options{TerminateOnObjectLost: true})
	a := mat.NewVecDense(ActionDim, nil)

	step, done, err := env.Step(a)
	require.NoError(t, err)
	assert.False(t, done)

	// Knock the object off the far edge of the table
	require.NoError(t, setObjectPos(env.sim, env.Variant().ObjectJoint,
		r3.Vec{X: 0, Y: 1.5, Z: 0.02}))
	step, done, err = env.Step(a)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, step.Last())
	assert.Equal(t, ts.OutOfBounds, step.EndType())
	assert.False(t, step.Truncated())
}

func TestSetTask(t *testing.T) {
	env, _ := newTestEnv(t, shelfPlaceName, Options{Seed: 5})

	task, err := env.SampleTask()
	require.NoError(t, err)
	assert.Equal(t, shelfPlaceName, task.EnvName)
	require.NoError(t, env.SetTask(task))

	for i := 0; i < 2; i++ {
		step, err := env.Reset()
		require.NoError(t, err)
		assert.Equal(t, task.RandVec, env.Config().RandVec)
		assert.True(t, floats.EqualApprox(task.RandVec[3:],
			[]float64{env.Config().TargetPos.X, env.Config().TargetPos.Y,
				env.Config().TargetPos.Z}, 1e-9))
		assert.NotEqual(t, r3.Vec{}, NewObservation(step.Observation).Goal())
	}

	// Hiding the goal
	task.PartiallyObservable = true
	require.NoError(t, env.SetTask(task))
	step, err := env.Reset()
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{}, NewObservation(step.Observation).Goal())
	assert.True(t, env.ObservationSpec().Contains(step.Observation))

	// Tasks of other environments and invalid instances are rejected
	err = env.SetTask(Task{EnvName: binPickingName, RandVec: task.RandVec})
	assert.ErrorIs(t, err, ErrWrongTask)
	err = env.SetTask(Task{EnvName: shelfPlaceName, RandVec: []float64{1}})
	assert.ErrorIs(t, err, environment.ErrFrozenInvalid)

	env.ClearTask()
	_, err = env.Reset()
	require.NoError(t, err)
	assert.NotEqual(t, task.RandVec, env.Config().RandVec)
}

func TestNewErrors(t *testing.T) {
	v := ShelfPlace()
	sim, err := NewSimulator(PlanarBackend, v, "")
	require.NoError(t, err)

	// The object and goal workspaces cannot be separated
	overlap := environment.NewBoundingBox(r3.Vec{X: 0, Y: 0.5, Z: 0.3},
		r3.Vec{X: 0.01, Y: 0.51, Z: 0.3})
	_, _, err = New(v, sim, Options{ObjBounds: &overlap, GoalBounds: &overlap})
	assert.True(t, environment.IsUnsatisfiable(err))

	_, err = NewSimulator("bullet", v, "")
	assert.Error(t, err)
	_, err = NewSimulator(PlanarBackend, v, "shelf.xml")
	assert.Error(t, err)
}

func TestUnpluggingPeg(t *testing.T) {
	env, _ := newTestEnv(t, pegUnplugSideName, Options{Seed: 7})
	plug := r3.Sub(env.Config().ObjInitPos, r3.Vec{X: 0.02})
	above := r3.Vec{X: plug.X, Y: plug.Y, Z: env.Variant().HandInit.Z}

	driveTo(t, env, above, -1)
	driveTo(t, env, plug, -1)

	// Close on the plug
	a := mat.NewVecDense(ActionDim, []float64{0, 0, 0, 1})
	for i := 0; i < 15; i++ {
		_, _, err := env.Step(a)
		require.NoError(t, err)
	}

	step := driveTo(t, env, r3.Add(plug, r3.Vec{X: 0.03}), 1)
	assert.Equal(t, 1.0, step.Info[InfoGraspSuccess])
	assert.Equal(t, 1.0, step.Info[InfoNearObject])
	assert.GreaterOrEqual(t, step.Reward, 1.0)

	obs := NewObservation(step.Observation)
	assert.Greater(t, obs.GripperDistance(), pegOpened)
	assert.InDelta(t, env.Config().ObjInitPos.X+0.03, obs.ObjectPos().X, 1e-9)
}

func TestRender(t *testing.T) {
	env, _ := newTestEnv(t, coffeePushName, Options{Width: 64, Height: 48})
	img, err := env.Render()
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestSpecs(t *testing.T) {
	env, _ := newTestEnv(t, binPickingName, Options{})

	assert.Equal(t, ActionDim, env.ActionSpec().Shape.Len())
	assert.Equal(t, ObsDim, env.ObservationSpec().Shape.Len())
	assert.Equal(t, SuccessReward, env.RewardSpec().UpperBound.AtVec(0))
	assert.True(t, env.ActionSpec().Contains(mat.NewVecDense(ActionDim,
		[]float64{1, -1, 0.5, 0})))
	assert.False(t, env.ActionSpec().Contains(mat.NewVecDense(ActionDim,
		[]float64{2, 0, 0, 0})))
}
