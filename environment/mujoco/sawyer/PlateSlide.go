package sawyer

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/mujoco/internal/planar"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
	"github.com/samuelfneumann/gomanip/reward"
)

const (
	plateSlideName = "plate-slide"
	plateGoalBody  = "puck_goal"
	plateGoalSite  = "goal"
	plateScale     = 8.0
)

// PlateSlide returns the task of sliding a plate into a goal without
// grasping it
func PlateSlide() *Variant {
	return &Variant{
		Name:       plateSlideName,
		HandBounds: environment.NewBoundingBox(r3.Vec{X: -0.5, Y: 0.4, Z: 0.05}, r3.Vec{X: 0.5, Y: 1, Z: 0.5}),
		ObjBounds:  environment.NewBoundingBox(r3.Vec{X: 0, Y: 0.6, Z: 0}, r3.Vec{X: 0, Y: 0.6, Z: 0}),
		GoalBounds: environment.NewBoundingBox(r3.Vec{X: -0.1, Y: 0.85, Z: 0}, r3.Vec{X: 0.1, Y: 0.9, Z: 0}),

		HandInit:        r3.Vec{X: 0, Y: 0.6, Z: 0.2},
		ObjInit:         r3.Vec{X: 0, Y: 0.6, Z: 0},
		ObjInitAngle:    0.3,
		HasObjInitAngle: true,
		GoalInit:        r3.Vec{X: 0, Y: 0.85, Z: 0.02},

		TargetRadius:  TargetRadius,
		SuccessRadius: defaultSuccessRadius,
		NearThreshold: defaultNearThreshold,

		ModelFile:   "sawyer_xyz/sawyer_plate_slide.xml",
		ObjectJoint: "puck_joint",
		ObjectPos:   Element{Kind: Geom, Name: "puck"},
		ObjectQuat:  Element{Kind: Geom, Name: "puck"},
		TouchGeom:   "puck",

		Place: placePlate,
		Scene: plateScene,

		// The plate is pushed rather than caged, so grasping is
		// reaching it
		Grasp: func(s *State) float64 {
			return reward.Tolerance(
				s.TCPToObj,
				r1.Interval{Min: 0, Max: s.Variant.TargetRadius},
				r3.Norm(r3.Sub(s.Config.InitTCP, s.Config.ObjInitPos)),
				reward.LongTail,
			)
		},
		Base: func(s *State) float64 {
			return plateScale * reward.HamacherProduct(s.Grasp, s.InPlace)
		},
	}
}

func placePlate(v *Variant, sim simulator.Simulator, rv []float64) (Placement,
	error) {
	init, target := vec(rv, 0), vec(rv, 3)
	if err := sim.SetBodyPos(plateGoalBody, target); err != nil {
		return Placement{}, fmt.Errorf("placePlate: %w", err)
	}
	if err := setObjectPos(sim, v.ObjectJoint, init); err != nil {
		return Placement{}, fmt.Errorf("placePlate: %w", err)
	}
	if err := sim.SetSitePos(plateGoalSite, target); err != nil {
		return Placement{}, fmt.Errorf("placePlate: %w", err)
	}
	return Placement{ObjInit: init, Target: target}, nil
}

func plateScene() planar.Scene {
	return planar.Scene{
		Name:         plateSlideName,
		ObjectBody:   "puck_link",
		ObjectJoint:  "puck_joint",
		ObjectGeom:   "puck",
		ObjectRadius: 0.04,
		ObjectRest:   0,
		ObjectInit:   r3.Vec{X: 0, Y: 0.6, Z: 0},
		Bodies: map[string]r3.Vec{
			plateGoalBody: {X: 0, Y: 0.85, Z: 0},
		},
		Sites: map[string]planar.Frame{
			plateGoalSite: {Offset: r3.Vec{X: 0, Y: 0.85, Z: 0}},
		},
		HandInit: r3.Vec{X: 0, Y: 0.6, Z: 0.2},
	}
}
