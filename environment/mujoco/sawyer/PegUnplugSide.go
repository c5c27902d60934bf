package sawyer

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/mujoco/internal/planar"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
	"github.com/samuelfneumann/gomanip/reward"
)

const (
	pegUnplugSideName = "peg-unplug-side"
	pegBoxBody        = "box"
	pegEndSite        = "pegEnd"
	pegGoalSite       = "goal"

	// pegExtraction is the distance the plug must be pulled out along x
	// before it counts as grasped
	pegExtraction = 0.015
	pegOpened     = 0.5
	pegBonusReach = 0.035
)

var (
	// Offset of the inserted plug from its box, and of the target from
	// the inserted plug
	plugOffset   = r3.Vec{X: 0.044, Y: 0, Z: 0.131}
	unplugOffset = r3.Vec{X: 0.15, Y: 0, Z: 0}
)

// PegUnplugSide returns the task of pulling a plug sideways out of
// its socket
func PegUnplugSide() *Variant {
	objLow := r3.Vec{X: -0.25, Y: 0.6, Z: -0.001}
	objHigh := r3.Vec{X: -0.15, Y: 0.8, Z: 0.001}
	goalOffset := r3.Vec{X: 0.194, Y: 0, Z: 0.131}

	return &Variant{
		Name:       pegUnplugSideName,
		HandBounds: environment.NewBoundingBox(r3.Vec{X: -0.5, Y: 0.4, Z: 0.05}, r3.Vec{X: 0.5, Y: 1, Z: 0.5}),
		ObjBounds:  environment.NewBoundingBox(objLow, objHigh),
		GoalBounds: environment.NewBoundingBox(r3.Add(objLow, goalOffset),
			r3.Add(objHigh, goalOffset)),
		TargetFromObj: true,

		HandInit: r3.Vec{X: 0, Y: 0.6, Z: 0.2},
		ObjInit:  r3.Vec{X: -0.225, Y: 0.6, Z: 0.05},
		GoalInit: r3.Vec{X: -0.225, Y: 0.6, Z: 0},

		TargetRadius:  TargetRadius,
		SuccessRadius: defaultSuccessRadius,
		NearThreshold: defaultNearThreshold,

		Caging: reward.CagingParams{
			ObjRadius:            0.025,
			PadSuccessThresh:     0.05,
			ObjectReachRadius:    0.01,
			XZThresh:             0.005,
			DesiredGripperEffort: 0.8,
			Density:              reward.High,
		},

		ModelFile:   "sawyer_xyz/sawyer_peg_unplug_side.xml",
		ObjectJoint: "plug1_joint",
		ObjectPos:   Element{Kind: Site, Name: pegEndSite},
		ObjectQuat:  Element{Kind: Body, Name: "plug1"},
		TouchGeom:   "plug1",

		Place: placePeg,
		Scene: pegScene,

		Base: func(s *State) float64 {
			return 2 * s.Grasp
		},
		GraspSuccess: pegGraspSuccess,
		Bonus: func(s *State) bool {
			return pegGraspSuccess(s) && s.TCPToObj < pegBonusReach
		},
	}
}

// pegGraspSuccess returns whether the plug was pulled out of its socket
// with the gripper open
func pegGraspSuccess(s *State) bool {
	return s.TCPOpened > pegOpened &&
		s.Obj.X-s.Config.ObjInitPos.X > pegExtraction
}

func placePeg(v *Variant, sim simulator.Simulator, rv []float64) (Placement,
	error) {
	box := vec(rv, 0)
	if err := sim.SetBodyPos(pegBoxBody, box); err != nil {
		return Placement{}, fmt.Errorf("placePeg: %w", err)
	}

	plug := r3.Add(box, plugOffset)
	if err := setObjectPos(sim, v.ObjectJoint, plug); err != nil {
		return Placement{}, fmt.Errorf("placePeg: %w", err)
	}
	if err := sim.Forward(); err != nil {
		return Placement{}, fmt.Errorf("placePeg: %w", err)
	}

	init, err := sim.SitePos(pegEndSite)
	if err != nil {
		return Placement{}, fmt.Errorf("placePeg: %w", err)
	}

	target := r3.Add(plug, unplugOffset)
	if err := sim.SetSitePos(pegGoalSite, target); err != nil {
		return Placement{}, fmt.Errorf("placePeg: %w", err)
	}
	return Placement{ObjInit: init, Target: target}, nil
}

func pegScene() planar.Scene {
	box := r3.Vec{X: -0.225, Y: 0.6, Z: 0}
	return planar.Scene{
		Name:         pegUnplugSideName,
		ObjectBody:   "plug1",
		ObjectJoint:  "plug1_joint",
		ObjectGeom:   "plug1",
		ObjectRadius: 0.028,
		ObjectRest:   plugOffset.Z,
		ObjectInit:   r3.Add(box, plugOffset),
		Bodies: map[string]r3.Vec{
			pegBoxBody: box,
		},
		Sites: map[string]planar.Frame{
			pegEndSite:  {Body: "plug1", Offset: r3.Vec{X: 0.02}},
			pegGoalSite: {Offset: r3.Add(r3.Add(box, plugOffset), unplugOffset)},
		},
		Geoms: map[string]planar.Frame{
			"box": {Body: pegBoxBody},
		},
		HandInit: r3.Vec{X: 0, Y: 0.6, Z: 0.2},
	}
}
