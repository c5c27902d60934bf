package experiment

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/mujoco/sawyer"
	ts "github.com/samuelfneumann/gomanip/timestep"
	"github.com/samuelfneumann/gomanip/utils/matutils"
)

// Policy determines which actions are taken in an experiment
type Policy interface {
	SelectAction(t ts.TimeStep) *mat.VecDense
}

// Random is a Policy which selects actions uniformly at random within
// the bounds of an action specification
type Random struct {
	dists []distuv.Uniform
}

// NewRandom returns a new Random policy over the actions of spec.
// NewRandom panics if some action bound is not finite.
func NewRandom(spec environment.Spec, seed uint64) *Random {
	source := rand.NewSource(seed)

	dists := make([]distuv.Uniform, spec.Shape.Len())
	for i := range dists {
		low, high := spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i)
		if math.IsInf(low, 0) || math.IsInf(high, 0) || low > high {
			panic(fmt.Sprintf("newRandom: action %v has invalid bounds "+
				"[%v, %v]", i, low, high))
		}
		dists[i] = distuv.Uniform{Min: low, Max: high, Src: source}
	}
	return &Random{dists}
}

// SelectAction selects an action uniformly at random, ignoring the
// TimeStep
func (r *Random) SelectAction(ts.TimeStep) *mat.VecDense {
	action := mat.NewVecDense(len(r.dists), nil)
	for i := range r.dists {
		action.SetVec(i, r.dists[i].Rand())
	}
	return action
}

const (
	// Distances at which the scripted policy switches phase
	scriptedReach = 0.02
	scriptedHover = 0.1
	scriptedGrip  = 0.6

	// scriptedGain converts position errors into actions
	scriptedGain = 10.0
)

// Scripted is a Policy for Sawyer tasks which picks the object up and
// carries it to the goal using the observation alone. The goal must be
// observable.
//
// The hand hovers above the object, descends onto it, closes the
// gripper and then moves towards the goal with the gripper closed.
type Scripted struct{}

// NewScripted returns a new Scripted policy
func NewScripted() Scripted {
	return Scripted{}
}

// SelectAction selects the action of the current phase of the script
func (Scripted) SelectAction(t ts.TimeStep) *mat.VecDense {
	obs := sawyer.NewObservation(t.Observation)
	hand, obj := obs.Hand(), obs.ObjectPos()

	toObj := r3.Sub(obj, hand)
	planar := math.Hypot(toObj.X, toObj.Y)

	var target r3.Vec
	effort := -1.0
	switch {
	case planar > scriptedReach:
		target = r3.Add(obj, r3.Vec{Z: scriptedHover})
	case r3.Norm(toObj) > scriptedReach:
		target = obj
	case obs.GripperDistance() > scriptedGrip:
		target, effort = hand, 1.0
	default:
		target, effort = obs.Goal(), 1.0
	}

	delta := r3.Scale(scriptedGain, r3.Sub(target, hand))
	action := mat.NewVecDense(sawyer.ActionDim, []float64{delta.X, delta.Y,
		delta.Z, effort})
	matutils.VecClip(action, -1, 1)
	return action
}
