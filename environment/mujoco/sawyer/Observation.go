package sawyer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/utils/floatutils"
)

// Layout of observation vectors. An observation holds the current
// frame, the previous frame and the goal:
//
//	[0:3]   hand (tool centre point) position
//	[3]     gripper distance, the normalised separation of the claws
//	[4:7]   object position
//	[7:11]  object orientation quaternion (w, x, y, z)
//	[11:18] padding for a second object
//	[18:36] the previous frame, laid out as above
//	[36:39] goal position, zero when the goal is hidden
const (
	FrameDim     = 18
	ObsDim       = 2*FrameDim + 3
	ActionDim    = 4
	handIdx      = 0
	gripperIdx   = 3
	objectPosIdx = 4
	objectQuat   = 7
	prevIdx      = FrameDim
	goalIdx      = 2 * FrameDim

	// gripperNorm normalises the claw separation into the gripper
	// distance
	gripperNorm = 0.1
)

// Observation views an observation vector through the observation
// layout
type Observation struct {
	vec mat.Vector
}

// NewObservation returns a view of obs. NewObservation panics if obs
// does not have ObsDim elements.
func NewObservation(obs mat.Vector) Observation {
	if obs == nil || obs.Len() != ObsDim {
		length := 0
		if obs != nil {
			length = obs.Len()
		}
		panic(fmt.Sprintf("newObservation: observation must have %v "+
			"elements, have(%v)", ObsDim, length))
	}
	return Observation{obs}
}

func (o Observation) vec3(i int) r3.Vec {
	return r3.Vec{X: o.vec.AtVec(i), Y: o.vec.AtVec(i + 1),
		Z: o.vec.AtVec(i + 2)}
}

// Hand returns the position of the tool centre point
func (o Observation) Hand() r3.Vec {
	return o.vec3(handIdx)
}

// GripperDistance returns the normalised claw separation, 0 when
// closed and 1 when fully open
func (o Observation) GripperDistance() float64 {
	return o.vec.AtVec(gripperIdx)
}

// ObjectPos returns the position of the object
func (o Observation) ObjectPos() r3.Vec {
	return o.vec3(objectPosIdx)
}

// ObjectQuat returns the orientation of the object
func (o Observation) ObjectQuat() quat.Number {
	return quat.Number{
		Real: o.vec.AtVec(objectQuat),
		Imag: o.vec.AtVec(objectQuat + 1),
		Jmag: o.vec.AtVec(objectQuat + 2),
		Kmag: o.vec.AtVec(objectQuat + 3),
	}
}

// PrevHand returns the position of the tool centre point in the
// previous frame
func (o Observation) PrevHand() r3.Vec {
	return o.vec3(prevIdx + handIdx)
}

// PrevObjectPos returns the position of the object in the previous
// frame
func (o Observation) PrevObjectPos() r3.Vec {
	return o.vec3(prevIdx + objectPosIdx)
}

// Goal returns the goal position, zero if the goal is hidden
func (o Observation) Goal() r3.Vec {
	return o.vec3(goalIdx)
}

// frame is a single frame of an observation
type frame struct {
	hand       r3.Vec
	gripper    float64
	objectPos  r3.Vec
	objectQuat quat.Number
}

// data returns the frame laid out as in an observation
func (f frame) data() []float64 {
	d := make([]float64, FrameDim)
	copy(d[handIdx:], []float64{f.hand.X, f.hand.Y, f.hand.Z})
	d[gripperIdx] = f.gripper
	copy(d[objectPosIdx:], []float64{f.objectPos.X, f.objectPos.Y,
		f.objectPos.Z})
	copy(d[objectQuat:], []float64{f.objectQuat.Real, f.objectQuat.Imag,
		f.objectQuat.Jmag, f.objectQuat.Kmag})
	return d
}

// buildObservation lays out an observation from its current and
// previous frames and the goal, clipped to spec
func buildObservation(curr, prev frame, goal r3.Vec, hideGoal bool,
	spec environment.Spec) *mat.VecDense {
	obs := make([]float64, 0, ObsDim)
	obs = append(obs, curr.data()...)
	obs = append(obs, prev.data()...)
	if hideGoal {
		obs = append(obs, 0, 0, 0)
	} else {
		obs = append(obs, goal.X, goal.Y, goal.Z)
	}

	for i := range obs {
		obs[i] = floatutils.Clip(obs[i], spec.LowerBound.AtVec(i),
			spec.UpperBound.AtVec(i))
	}
	return mat.NewVecDense(ObsDim, obs)
}

// observationBounds returns the bounds of observations of an
// environment with the argument hand workspace. Object and goal
// positions are unbounded.
func observationBounds(hand environment.BoundingBox,
	hideGoal bool) (low, high []float64) {
	// The hand may overshoot its workspace slightly
	handLow := r3.Sub(hand.Low, r3.Vec{X: 0.025, Y: 0.052, Z: 0.1025})
	handHigh := r3.Add(hand.High, r3.Vec{X: 0.025, Y: 0.025, Z: 0.2})

	frameLow := make([]float64, FrameDim)
	frameHigh := make([]float64, FrameDim)
	copy(frameLow, []float64{handLow.X, handLow.Y, handLow.Z, -1})
	copy(frameHigh, []float64{handHigh.X, handHigh.Y, handHigh.Z, 1})
	for i := objectPosIdx; i < FrameDim; i++ {
		frameLow[i] = math.Inf(-1)
		frameHigh[i] = math.Inf(1)
	}

	low = append(append(low, frameLow...), frameLow...)
	high = append(append(high, frameHigh...), frameHigh...)
	if hideGoal {
		low = append(low, 0, 0, 0)
		high = append(high, 0, 0, 0)
	} else {
		low = append(low, math.Inf(-1), math.Inf(-1), math.Inf(-1))
		high = append(high, math.Inf(1), math.Inf(1), math.Inf(1))
	}
	return low, high
}

// gripperDistance normalises the separation of the claws into [0, 1]
func gripperDistance(right, left r3.Vec) float64 {
	return floatutils.Unit(r3.Norm(r3.Sub(right, left)) / gripperNorm)
}
