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
	coffeePushName      = "coffee-push"
	coffeeMachineBody   = "coffee_machine"
	coffeeMugGoalSite   = "mug_goal"
	coffeeBonusReach    = 0.04
	coffeeMinSeparation = 0.15
)

var (
	// coffeeMachineOffset is the offset of the machine from the target
	coffeeMachineOffset = r3.Vec{X: 0, Y: 0.22, Z: 0}

	// coffeeScale weighs the planar error of the mug over its height
	coffeeScale = r3.Vec{X: 2, Y: 2, Z: 1}
)

// CoffeePush returns the task of pushing a mug under a coffee machine
func CoffeePush() *Variant {
	return &Variant{
		Name:       coffeePushName,
		HandBounds: environment.NewBoundingBox(r3.Vec{X: -0.5, Y: 0.4, Z: 0.05}, r3.Vec{X: 0.5, Y: 1, Z: 0.5}),
		ObjBounds:  environment.NewBoundingBox(r3.Vec{X: -0.1, Y: 0.55, Z: -0.001}, r3.Vec{X: 0.1, Y: 0.65, Z: 0.001}),
		GoalBounds: environment.NewBoundingBox(r3.Vec{X: -0.05, Y: 0.7, Z: -0.001}, r3.Vec{X: 0.05, Y: 0.75, Z: 0.001}),

		HandInit:        r3.Vec{X: 0, Y: 0.4, Z: 0.2},
		ObjInit:         r3.Vec{X: 0, Y: 0.6, Z: 0},
		ObjInitAngle:    0.3,
		HasObjInitAngle: true,
		GoalInit:        r3.Vec{X: 0, Y: 0.75, Z: 0},

		TargetRadius:  TargetRadius,
		SuccessRadius: defaultSuccessRadius,
		NearThreshold: defaultNearThreshold,

		Caging: reward.CagingParams{
			ObjRadius:            0.02,
			PadSuccessThresh:     0.05,
			ObjectReachRadius:    0.04,
			XZThresh:             0.05,
			DesiredGripperEffort: 0.7,
			Density:              reward.Medium,
		},

		ModelFile:   "sawyer_xyz/sawyer_coffee.xml",
		ObjectJoint: "mug_joint",
		ObjectPos:   Element{Kind: Body, Name: "obj"},
		ObjectQuat:  Element{Kind: Geom, Name: "mug"},
		TouchGeom:   "mug",

		Constraint: environment.NewMinSeparation(0, 3, 2, coffeeMinSeparation),

		Place: placeCoffee,
		Scene: coffeeScene,

		InPlaceDistance: func(obj, target r3.Vec) float64 {
			d := r3.Sub(obj, target)
			return r3.Norm(r3.Vec{X: d.X * coffeeScale.X,
				Y: d.Y * coffeeScale.Y, Z: d.Z * coffeeScale.Z})
		},
		GraspSuccess: func(s *State) bool {
			return s.Contact.Touching && s.TCPOpened > 0
		},
		Bonus: func(s *State) bool {
			return s.TCPToObj < coffeeBonusReach && s.TCPOpened > 0
		},
	}
}

func placeCoffee(v *Variant, sim simulator.Simulator, rv []float64) (Placement,
	error) {
	mug, goal := vec(rv, 0), vec(rv, 3)
	if err := setObjectPos(sim, v.ObjectJoint, mug); err != nil {
		return Placement{}, fmt.Errorf("placeCoffee: %w", err)
	}
	err := sim.SetBodyPos(coffeeMachineBody, r3.Add(goal, coffeeMachineOffset))
	if err != nil {
		return Placement{}, fmt.Errorf("placeCoffee: %w", err)
	}
	if err := sim.SetSitePos(coffeeMugGoalSite, goal); err != nil {
		return Placement{}, fmt.Errorf("placeCoffee: %w", err)
	}
	return Placement{ObjInit: mug, Target: goal}, nil
}

func coffeeScene() planar.Scene {
	goal := r3.Vec{X: 0, Y: 0.75, Z: 0}
	return planar.Scene{
		Name:         coffeePushName,
		ObjectBody:   "obj",
		ObjectJoint:  "mug_joint",
		ObjectGeom:   "mug",
		ObjectRadius: 0.03,
		ObjectRest:   0,
		ObjectInit:   r3.Vec{X: 0, Y: 0.6, Z: 0},
		Bodies: map[string]r3.Vec{
			coffeeMachineBody: r3.Add(goal, coffeeMachineOffset),
		},
		Sites: map[string]planar.Frame{
			coffeeMugGoalSite: {Offset: goal},
		},
		Geoms: map[string]planar.Frame{
			"coffee_machine_geom": {Body: coffeeMachineBody},
		},
		HandInit: r3.Vec{X: 0, Y: 0.4, Z: 0.2},
	}
}
