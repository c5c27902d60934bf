package reward

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/utils/floatutils"
)

// Density selects how densely the caging reward is shaped. Sparse
// shaping only rewards caging and closing; denser profiles average in
// an additional reach signal so that small objects still produce a
// useful gradient.
type Density int

const (
	Sparse Density = iota
	Medium
	High
)

// cagingThreshold is the caging value above which closing the gripper
// starts to be rewarded
const cagingThreshold = 0.97

// CagingParams holds the task-specific geometry of a caging reward
type CagingParams struct {
	ObjRadius            float64
	PadSuccessThresh     float64
	ObjectReachRadius    float64
	XZThresh             float64
	DesiredGripperEffort float64
	Density              Density
}

// Validate returns an error if the parameters cannot describe a
// caging reward
func (c CagingParams) Validate() error {
	if c.ObjRadius < 0 || c.PadSuccessThresh < c.ObjRadius {
		return fmt.Errorf("validate: need 0 <= ObjRadius (%v) <= "+
			"PadSuccessThresh (%v)", c.ObjRadius, c.PadSuccessThresh)
	}
	if c.ObjectReachRadius < 0 || c.XZThresh < 0 {
		return fmt.Errorf("validate: ObjectReachRadius (%v) and XZThresh "+
			"(%v) must be non-negative", c.ObjectReachRadius, c.XZThresh)
	}
	if c.DesiredGripperEffort <= 0 {
		return fmt.Errorf("validate: DesiredGripperEffort must be "+
			"positive, have(%v)", c.DesiredGripperEffort)
	}
	return nil
}

// GripperState is the gripper geometry a caging reward is computed
// from. LeftPad, RightPad and TCP are current positions, InitTCP and
// ObjInit were recorded when the episode started.
type GripperState struct {
	LeftPad  r3.Vec
	RightPad r3.Vec
	TCP      r3.Vec
	InitTCP  r3.Vec
	ObjInit  r3.Vec
}

// GripperCaging returns a value in [0, 1] expressing how well the
// gripper pads enclose an object at obj and whether the gripper is
// being closed with an appropriate effort. effort is the gripper
// component of the action.
//
// The y caging term compares each pad's distance from the object with
// the pad's distance from the object's initial position: before the
// object is touched the distance sits just outside the margin, and
// once the pads straddle the object it falls inside of the bounds. The
// xz term is a plain reach term towards the object.
func GripperCaging(effort float64, obj r3.Vec, g GripperState,
	p CagingParams) float64 {
	if err := p.Validate(); err != nil {
		panic(fmt.Sprintf("gripperCaging: %v", err))
	}

	// Caging along y, one potential per pad
	padBounds := r1.Interval{Min: p.ObjRadius, Max: p.PadSuccessThresh}
	cagingLR := [2]float64{}
	for i, pad := range [2]r3.Vec{g.LeftPad, g.RightPad} {
		padToObj := math.Abs(pad.Y - obj.Y)
		padToObjInit := math.Abs(pad.Y - g.ObjInit.Y)
		margin := math.Abs(padToObjInit - p.PadSuccessThresh)
		cagingLR[i] = Tolerance(padToObj, padBounds, margin, LongTail)
	}
	cagingY := HamacherProduct(cagingLR[0], cagingLR[1])

	// Caging in the xz plane. A hand that starts inside of the
	// threshold yields a negative margin, which is clamped.
	xzMargin := math.Max(xzNorm(r3.Sub(g.ObjInit, g.InitTCP))-p.XZThresh, 0)
	cagingXZ := Tolerance(
		xzNorm(r3.Sub(g.TCP, obj)),
		r1.Interval{Min: 0, Max: p.XZThresh},
		xzMargin,
		LongTail,
	)

	gripperClosed := floatutils.Clip(effort, 0, p.DesiredGripperEffort) /
		p.DesiredGripperEffort

	caging := HamacherProduct(cagingY, cagingXZ)
	gripping := 0.0
	if caging > cagingThreshold {
		gripping = gripperClosed
	}
	cagingAndGripping := HamacherProduct(caging, gripping)

	switch p.Density {
	case High:
		cagingAndGripping = (cagingAndGripping + caging) / 2

	case Medium:
		tcpToObj := r3.Norm(r3.Sub(obj, g.TCP))
		tcpToObjInit := r3.Norm(r3.Sub(g.ObjInit, g.InitTCP))
		reachMargin := math.Abs(tcpToObjInit - p.ObjectReachRadius)
		reach := Tolerance(
			tcpToObj,
			r1.Interval{Min: 0, Max: p.ObjectReachRadius},
			reachMargin,
			LongTail,
		)
		cagingAndGripping = (cagingAndGripping + reach) / 2
	}

	return cagingAndGripping
}

// xzNorm returns the Euclidean norm of v projected onto the xz plane
func xzNorm(v r3.Vec) float64 {
	return math.Hypot(v.X, v.Z)
}
