package sawyer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/reward"
)

// observation returns an observation with the argument hand, gripper
// distance and object position in both frames
func observation(hand r3.Vec, gripper float64, obj r3.Vec) *mat.VecDense {
	f := frame{
		hand:       hand,
		gripper:    gripper,
		objectPos:  obj,
		objectQuat: quat.Number{Real: 1},
	}
	data := append(f.data(), f.data()...)
	data = append(data, 0, 0, 0)
	return mat.NewVecDense(ObsDim, data)
}

func action(effort float64) *mat.VecDense {
	return mat.NewVecDense(ActionDim, []float64{0, 0, 0, effort})
}

// testConfig returns a task configuration consistent with the default
// placement of the named variant
func testConfig(v *Variant) *TaskConfig {
	var objInit, target r3.Vec
	switch v.Name {
	case binPickingName:
		objInit = r3.Vec{X: -0.12, Y: 0.7, Z: 0.02}
		target = r3.Vec{X: 0.12, Y: 0.7, Z: 0.02}
	case pegUnplugSideName:
		plug := r3.Add(r3.Vec{X: -0.2, Y: 0.6}, plugOffset)
		objInit = r3.Add(plug, r3.Vec{X: 0.02})
		target = r3.Add(plug, unplugOffset)
	case shelfPlaceName:
		objInit = r3.Vec{X: 0, Y: 0.55, Z: 0.02}
		target = r3.Vec{X: 0, Y: 0.85, Z: 0.3}
	case coffeePushName:
		objInit = r3.Vec{X: 0, Y: 0.6, Z: 0}
		target = r3.Vec{X: 0, Y: 0.75, Z: 0}
	case plateSlideName:
		objInit = r3.Vec{X: 0, Y: 0.6, Z: 0}
		target = r3.Vec{X: 0, Y: 0.85, Z: 0}
	}
	return &TaskConfig{
		ObjInitPos:    objInit,
		TargetPos:     target,
		HandInitPos:   v.HandInit,
		InitTCP:       v.HandInit,
		InPlaceMargin: v.inPlaceDistance(objInit, target),
	}
}

func newTestEvaluator(t *testing.T, name string) *Evaluator {
	v, err := VariantByName(name)
	require.NoError(t, err)
	e := NewEvaluator(v)
	e.configure(testConfig(v))
	return e
}

func TestVariants(t *testing.T) {
	names := Variants()
	assert.Equal(t, []string{binPickingName, coffeePushName,
		pegUnplugSideName, plateSlideName, shelfPlaceName}, names)

	for _, name := range names {
		v, err := VariantByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, v.Name)
		assert.NoError(t, v.Validate())
		assert.NoError(t, v.Scene().Validate(), name)
	}

	_, err := VariantByName("door-open")
	assert.Error(t, err)
}

func TestSuccessOverridesReward(t *testing.T) {
	for _, name := range Variants() {
		t.Run(name, func(t *testing.T) {
			e := newTestEvaluator(t, name)
			v := e.Variant()
			target := e.Config().TargetPos

			// Solved regardless of the hand, gripper and action
			for _, hand := range []r3.Vec{v.HandInit, target,
				{X: 0.4, Y: 0.45, Z: 0.4}} {
				for _, effort := range []float64{-1, 0, 1} {
					obj := r3.Add(target, r3.Vec{X: 0.01, Z: 0.005})
					r, info := e.Evaluate(observation(hand, 0.7, obj),
						action(effort))
					assert.Equal(t, SuccessReward, r)
					assert.Equal(t, 1.0, info[InfoSuccess])
					assert.Equal(t, r, info[InfoUnscaledReward])
				}
			}

			// Just outside of the success radius
			obj := r3.Add(target, r3.Vec{X: v.SuccessRadius + 0.01})
			r, info := e.Evaluate(observation(v.HandInit, 1, obj), action(0))
			assert.Less(t, r, SuccessReward)
			assert.Equal(t, 0.0, info[InfoSuccess])
			assert.InDelta(t, v.SuccessRadius+0.01, info[InfoObjToTarget],
				1e-12)
		})
	}
}

func TestNearObject(t *testing.T) {
	for _, name := range Variants() {
		t.Run(name, func(t *testing.T) {
			e := newTestEvaluator(t, name)
			v := e.Variant()
			obj := e.Config().ObjInitPos

			for _, test := range []struct {
				offset float64
				near   float64
			}{
				{0, 1},
				{v.NearThreshold - 0.005, 1},
				{v.NearThreshold + 0.005, 0},
				{0.5, 0},
			} {
				hand := r3.Add(obj, r3.Vec{Y: test.offset})
				_, info := e.Evaluate(observation(hand, 1, obj), action(0))
				assert.Equal(t, test.near, info[InfoNearObject],
					"offset %v", test.offset)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	for _, name := range Variants() {
		e := newTestEvaluator(t, name)
		obs := observation(r3.Vec{X: 0.05, Y: 0.62, Z: 0.1}, 0.6,
			r3.Vec{X: 0.02, Y: 0.65, Z: 0.05})
		r1, info1 := e.Evaluate(obs, action(0.5))
		r2, info2 := e.Evaluate(obs, action(0.5))
		assert.Equal(t, r1, r2, name)
		assert.Equal(t, info1, info2, name)

		assert.GreaterOrEqual(t, r1, 0.0, name)
		assert.LessOrEqual(t, r1, SuccessReward, name)
		for _, key := range []string{InfoGraspReward, InfoInPlaceReward} {
			assert.GreaterOrEqual(t, info1[key], 0.0, name)
			assert.LessOrEqual(t, info1[key], 1.0, name)
		}
	}
}

func TestEvaluatePanics(t *testing.T) {
	v := BinPicking()
	e := NewEvaluator(v)
	obs := observation(v.HandInit, 1, v.ObjInit)

	assert.Panics(t, func() { e.Evaluate(obs, action(0)) })

	e.configure(testConfig(v))
	assert.NotPanics(t, func() { e.Evaluate(obs, action(0)) })
	assert.Panics(t, func() {
		e.Evaluate(mat.NewVecDense(ObsDim-1, nil), action(0))
	})
	assert.Panics(t, func() {
		e.Evaluate(obs, mat.NewVecDense(ActionDim+1, nil))
	})

	e.configure(nil)
	assert.Panics(t, func() { e.Evaluate(obs, action(0)) })
}

func TestBinPickingFarHand(t *testing.T) {
	e := newTestEvaluator(t, binPickingName)
	obj := r3.Vec{X: -0.12, Y: 0.7, Z: 0.02}
	hand := r3.Add(obj, r3.Vec{X: 0.3, Y: -0.4})
	require.InDelta(t, 0.5, r3.Norm(r3.Sub(hand, obj)), 1e-12)

	r, info := e.Evaluate(observation(hand, 1, obj), action(0))
	assert.Equal(t, 0.0, info[InfoNearObject])
	assert.Equal(t, 0.0, info[InfoGraspSuccess])
	assert.Less(t, r, 1.0)
}

func TestBinPickingGrasp(t *testing.T) {
	e := newTestEvaluator(t, binPickingName)
	init := e.Config().ObjInitPos
	lifted := r3.Add(init, r3.Vec{Z: 0.03})
	hand := r3.Add(lifted, r3.Vec{Z: 0.01})

	r, info := e.Evaluate(observation(hand, 0.6, lifted), action(1))
	assert.Equal(t, 1.0, info[InfoGraspSuccess])
	assert.GreaterOrEqual(t, r, 1.0)

	// A gripper closed past the object holds nothing
	_, info = e.Evaluate(observation(hand, 0.3, lifted), action(1))
	assert.Equal(t, 0.0, info[InfoGraspSuccess])

	// The object must be lifted
	_, info = e.Evaluate(observation(r3.Add(init, r3.Vec{Z: 0.01}), 0.6,
		init), action(1))
	assert.Equal(t, 0.0, info[InfoGraspSuccess])
}

func TestFunnelFloor(t *testing.T) {
	assert.Equal(t, 0.0, funnelFloor(0))
	assert.Equal(t, 0.0, funnelFloor(funnelThreshold))
	assert.InDelta(t, funnelOffset, funnelFloor(1+funnelThreshold), 1e-12)
	assert.False(t, math.IsNaN(funnelFloor(funnelThreshold+1e-12)))

	cfg := testConfig(BinPicking())
	s := &State{Config: cfg, Hand: r3.Vec{X: 0.5, Y: 0.4, Z: 0.3}}
	assert.Equal(t, 1.0, aboveFloor(s))

	// Below both funnels the reward decays with depth
	s.Hand.Z = 0.05
	low := aboveFloor(s)
	s.Hand.Z = 0
	lower := aboveFloor(s)
	assert.Less(t, low, 1.0)
	assert.Less(t, lower, low)
}

func TestPegUnplugGraspSuccess(t *testing.T) {
	e := newTestEvaluator(t, pegUnplugSideName)
	init := e.Config().ObjInitPos
	pulled := r3.Add(init, r3.Vec{X: 0.02})
	unpulled := r3.Add(init, r3.Vec{X: 0.01})
	hand := r3.Sub(pulled, r3.Vec{X: 0.02})

	for _, test := range []struct {
		gripper float64
		obj     r3.Vec
		success float64
	}{
		{0.6, pulled, 1},
		{0.4, pulled, 0},
		{0.6, unpulled, 0},
		{0.4, unpulled, 0},
	} {
		r, info := e.Evaluate(observation(hand, test.gripper, test.obj),
			action(0.8))
		assert.Equal(t, test.success, info[InfoGraspSuccess],
			"gripper %v obj %v", test.gripper, test.obj)
		if test.success == 1 {
			// The grasp bonus applies within reach of the plug
			assert.GreaterOrEqual(t, r, 1+2*info[InfoGraspReward])
		} else {
			assert.InDelta(t, 2*info[InfoGraspReward], r, 1e-12)
		}
	}
}

func TestShelfGuard(t *testing.T) {
	cfg := testConfig(ShelfPlace())
	target := cfg.TargetPos

	guard := func(obj r3.Vec, inPlace float64) float64 {
		return shelfGuard(&State{Config: cfg, Obj: obj, InPlace: inPlace})
	}

	// Bound by the lip
	obj := r3.Vec{X: target.X, Y: target.Y - 0.05, Z: 0.1}
	yScale := (obj.Y - (target.Y - shelfLipDepth)) / shelfLipDepth
	zScale := (shelfLipHeight - obj.Z) / shelfLipHeight
	want := 0.9 - reward.HamacherProduct(yScale, zScale)
	assert.InDelta(t, math.Max(want, 0), guard(obj, 0.9), 1e-12)
	assert.Equal(t, 0.0, guard(obj, 0.1))

	// Behind the shelf
	assert.Equal(t, 0.0, guard(r3.Vec{X: target.X, Y: target.Y + 0.05,
		Z: 0.1}, 0.9))

	// Above the lip, beside the shelf and on the table are unaffected
	for _, obj := range []r3.Vec{
		{X: target.X, Y: target.Y - 0.05, Z: 0.25},
		{X: target.X + 0.2, Y: target.Y - 0.05, Z: 0.1},
		{X: target.X, Y: target.Y - 0.05, Z: 0},
	} {
		assert.Equal(t, 0.9, guard(obj, 0.9), "obj %v", obj)
	}
}

func TestShelfGraspNeedsTouch(t *testing.T) {
	e := newTestEvaluator(t, shelfPlaceName)
	lifted := r3.Add(e.Config().ObjInitPos, r3.Vec{Z: 0.05})
	obs := observation(lifted, 0.5, lifted)

	_, info := e.Evaluate(obs, action(1))
	assert.Equal(t, 0.0, info[InfoGraspSuccess])

	e.observeContact(Contact{Touching: true})
	_, info = e.Evaluate(obs, action(1))
	assert.Equal(t, 1.0, info[InfoGraspSuccess])
}

func TestCoffeePushScaledDistance(t *testing.T) {
	v := CoffeePush()
	target := r3.Vec{Y: 0.75}
	assert.InDelta(t, 0.2, v.inPlaceDistance(r3.Vec{X: 0.1, Y: 0.75}, target),
		1e-12)
	assert.InDelta(t, 0.1, v.inPlaceDistance(r3.Vec{Y: 0.75, Z: 0.1}, target),
		1e-12)
}

func TestPlateSlideReward(t *testing.T) {
	e := newTestEvaluator(t, plateSlideName)
	cfg := e.Config()
	obj := r3.Add(cfg.TargetPos, r3.Vec{Y: -0.1})

	r, info := e.Evaluate(observation(obj, 1, obj), action(0))
	assert.Equal(t, 1.0, info[InfoGraspReward])
	assert.Equal(t, 0.0, info[InfoGraspSuccess])

	inPlace := reward.Tolerance(0.1, r1.Interval{Min: 0, Max: TargetRadius},
		cfg.InPlaceMargin, reward.LongTail)
	assert.InDelta(t, plateScale*inPlace, r, 1e-12)
}

func BenchmarkEvaluate(b *testing.B) {
	v := ShelfPlace()
	e := NewEvaluator(v)
	e.configure(testConfig(v))
	obs := observation(r3.Vec{X: 0.05, Y: 0.62, Z: 0.1}, 0.6,
		r3.Vec{X: 0.02, Y: 0.65, Z: 0.05})
	a := action(0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Evaluate(obs, a)
	}
}
