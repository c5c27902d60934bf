package sawyer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/mujoco/internal/planar"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
	"github.com/samuelfneumann/gomanip/reward"
)

const (
	binPickingName = "bin-picking"
	binGoalBody    = "bin_goal"

	// The hand is kept above a pair of funnels centred on the object's
	// initial position and on the target so that it does not run into
	// the walls of the bins
	funnelThreshold = 0.03
	funnelSlope     = 0.02
	funnelOffset    = 0.2

	// pinchedThreshold is the gripper distance below which the gripper
	// is closed too far to be holding the object
	pinchedThreshold = 0.43
	binNearThreshold = 0.04
	binLiftHeight    = 0.02
)

// BinPicking returns the task of picking an object out of one bin and
// placing it into another
func BinPicking() *Variant {
	return &Variant{
		Name:       binPickingName,
		HandBounds: environment.NewBoundingBox(r3.Vec{X: -0.5, Y: 0.4, Z: 0.07}, r3.Vec{X: 0.5, Y: 1, Z: 0.5}),
		ObjBounds:  environment.NewBoundingBox(r3.Vec{X: -0.16, Y: 0.67, Z: 0.02}, r3.Vec{X: -0.07, Y: 0.73, Z: 0.02}),
		GoalBounds: environment.NewBoundingBox(r3.Vec{X: 0.1199, Y: 0.699, Z: -0.001}, r3.Vec{X: 0.1201, Y: 0.701, Z: 0.001}),

		HandInit:        r3.Vec{X: 0, Y: 0.6, Z: 0.2},
		ObjInit:         r3.Vec{X: -0.12, Y: 0.7, Z: 0.02},
		ObjInitAngle:    0.3,
		HasObjInitAngle: true,
		GoalInit:        r3.Vec{X: 0.12, Y: 0.7, Z: 0.02},

		TargetRadius:  TargetRadius,
		SuccessRadius: TargetRadius,
		NearThreshold: binNearThreshold,

		Caging: reward.CagingParams{
			ObjRadius:            0.015,
			PadSuccessThresh:     0.05,
			ObjectReachRadius:    0.01,
			XZThresh:             0.01,
			DesiredGripperEffort: 0.7,
			Density:              reward.High,
		},

		ModelFile:   "sawyer_xyz/sawyer_bin_picking_big.xml",
		ObjectJoint: "objjoint",
		ObjectPos:   Element{Kind: Body, Name: "obj"},
		ObjectQuat:  Element{Kind: Body, Name: "obj"},
		TouchGeom:   "objGeom",

		Place: placeBin,
		Scene: binScene,

		Near: func(s *State) bool {
			return s.TCPToObj < binNearThreshold
		},
		GraspSuccess: binGraspSuccess,
		Bonus:        binGraspSuccess,
		Aux:          aboveFloor,
	}
}

// binGraspSuccess returns whether the object is lifted near the hand
// without the gripper being pinched shut
func binGraspSuccess(s *State) bool {
	near := s.TCPToObj < binNearThreshold
	pinched := s.TCPOpened < pinchedThreshold
	lifted := s.Obj.Z-binLiftHeight > s.Config.ObjInitPos.Z
	return near && lifted && !pinched
}

// funnelFloor returns the lowest height the hand should be at a planar
// distance radius from a funnel's centre
func funnelFloor(radius float64) float64 {
	if radius <= funnelThreshold {
		return 0.0
	}
	return funnelSlope*math.Log(radius-funnelThreshold) + funnelOffset
}

// aboveFloor returns 1 if the hand is above both funnels, decaying as
// it dips below them
func aboveFloor(s *State) float64 {
	floor := math.Min(
		funnelFloor(planarDistance(s.Hand, s.Config.ObjInitPos)),
		funnelFloor(planarDistance(s.Hand, s.Config.TargetPos)),
	)
	if s.Hand.Z >= floor {
		return 1.0
	}
	return reward.Tolerance(
		math.Max(floor-s.Hand.Z, 0),
		r1.Interval{Min: 0, Max: 0.01},
		0.05,
		reward.LongTail,
	)
}

// planarDistance returns the distance between a and b in the xy plane
func planarDistance(a, b r3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func placeBin(v *Variant, sim simulator.Simulator, rv []float64) (Placement,
	error) {
	obj, err := v.ObjectPos.Pos(sim)
	if err != nil {
		return Placement{}, fmt.Errorf("placeBin: %w", err)
	}

	init := r3.Vec{X: rv[0], Y: rv[1], Z: obj.Z}
	if err := setObjectPos(sim, v.ObjectJoint, init); err != nil {
		return Placement{}, fmt.Errorf("placeBin: %w", err)
	}

	target, err := sim.BodyCOM(binGoalBody)
	if err != nil {
		return Placement{}, fmt.Errorf("placeBin: %w", err)
	}
	return Placement{ObjInit: init, Target: target}, nil
}

func binScene() planar.Scene {
	return planar.Scene{
		Name:         binPickingName,
		ObjectBody:   "obj",
		ObjectJoint:  "objjoint",
		ObjectGeom:   "objGeom",
		ObjectRadius: 0.024,
		ObjectRest:   0.02,
		ObjectInit:   r3.Vec{X: -0.12, Y: 0.7, Z: 0.02},
		Bodies: map[string]r3.Vec{
			binGoalBody: {X: 0.12, Y: 0.7, Z: 0.02},
		},
		HandInit: r3.Vec{X: 0, Y: 0.6, Z: 0.2},
	}
}
