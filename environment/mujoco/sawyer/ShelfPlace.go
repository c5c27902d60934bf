package sawyer

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/mujoco/internal/planar"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
	"github.com/samuelfneumann/gomanip/reward"
	"github.com/samuelfneumann/gomanip/utils/floatutils"
)

const (
	shelfPlaceName = "shelf-place"
	shelfBody      = "shelf"
	shelfGoalSite  = "goal"
	shelfHeight    = 0.3

	// The region in front of and below the shelf's top in which the
	// object is bound by the shelf's lip
	shelfLipHeight = 0.24
	shelfHalfWidth = 0.15
	shelfLipDepth  = 3 * TargetRadius

	shelfBonusReach    = 0.025
	shelfBonusLift     = 0.01
	shelfGraspLift     = 0.02
	shelfMinSeparation = 0.1
)

// ShelfPlace returns the task of picking up an object and placing it
// on a shelf
func ShelfPlace() *Variant {
	return &Variant{
		Name:       shelfPlaceName,
		HandBounds: environment.NewBoundingBox(r3.Vec{X: -0.5, Y: 0.4, Z: 0.05}, r3.Vec{X: 0.5, Y: 1, Z: 0.5}),
		ObjBounds:  environment.NewBoundingBox(r3.Vec{X: -0.1, Y: 0.5, Z: 0.019}, r3.Vec{X: 0.1, Y: 0.6, Z: 0.021}),
		GoalBounds: environment.NewBoundingBox(r3.Vec{X: -0.1, Y: 0.8, Z: 0.299}, r3.Vec{X: 0.1, Y: 0.9, Z: 0.301}),

		HandInit:        r3.Vec{X: 0, Y: 0.6, Z: 0.2},
		ObjInit:         r3.Vec{X: 0, Y: 0.6, Z: 0.02},
		ObjInitAngle:    0.3,
		HasObjInitAngle: true,
		GoalInit:        r3.Vec{X: 0, Y: 0.85, Z: 0.301},

		TargetRadius:  TargetRadius,
		SuccessRadius: defaultSuccessRadius,
		NearThreshold: defaultNearThreshold,

		Caging: reward.CagingParams{
			ObjRadius:            0.02,
			PadSuccessThresh:     0.05,
			ObjectReachRadius:    0.01,
			XZThresh:             0.01,
			DesiredGripperEffort: 1.0,
			Density:              reward.Sparse,
		},

		ModelFile:   "sawyer_xyz/sawyer_shelf_placing_big.xml",
		ObjectJoint: "objjoint",
		ObjectPos:   Element{Kind: Body, Name: "obj"},
		ObjectQuat:  Element{Kind: Geom, Name: "objGeom"},
		TouchGeom:   "objGeom",

		// The object and the shelf must not overlap in the plane
		Constraint: environment.NewMinSeparation(0, 3, 2, shelfMinSeparation),

		Place: placeShelf,
		Scene: shelfScene,

		Guard: shelfGuard,
		GraspSuccess: func(s *State) bool {
			return s.Contact.Touching && s.TCPOpened > 0 &&
				s.Obj.Z-shelfGraspLift > s.Config.ObjInitPos.Z
		},
		Bonus: func(s *State) bool {
			return s.TCPToObj < shelfBonusReach && s.TCPOpened > 0 &&
				s.Obj.Z-shelfBonusLift > s.Config.ObjInitPos.Z
		},
	}
}

// shelfGuard reduces the in-place reward of an object bound by the
// shelf's lip and removes it for an object behind the shelf
func shelfGuard(s *State) float64 {
	obj, target := s.Obj, s.Config.TargetPos
	inPlace := s.InPlace

	belowLip := 0 < obj.Z && obj.Z < shelfLipHeight
	alongShelf := target.X-shelfHalfWidth < obj.X &&
		obj.X < target.X+shelfHalfWidth

	if belowLip && alongShelf && target.Y-shelfLipDepth < obj.Y &&
		obj.Y < target.Y {
		zScale := (shelfLipHeight - obj.Z) / shelfLipHeight
		yScale := (obj.Y - (target.Y - shelfLipDepth)) / shelfLipDepth
		boundLoss := reward.HamacherProduct(yScale, zScale)
		inPlace = floatutils.Clip(inPlace-boundLoss, 0, 1)
	}
	if belowLip && alongShelf && obj.Y > target.Y {
		inPlace = 0
	}
	return inPlace
}

func placeShelf(v *Variant, sim simulator.Simulator, rv []float64) (Placement,
	error) {
	obj, err := v.ObjectPos.Pos(sim)
	if err != nil {
		return Placement{}, fmt.Errorf("placeShelf: %w", err)
	}

	shelf := r3.Sub(vec(rv, 3), r3.Vec{Z: shelfHeight})
	if err := sim.SetBodyPos(shelfBody, shelf); err != nil {
		return Placement{}, fmt.Errorf("placeShelf: %w", err)
	}
	if err := sim.Forward(); err != nil {
		return Placement{}, fmt.Errorf("placeShelf: %w", err)
	}
	target, err := sim.SitePos(shelfGoalSite)
	if err != nil {
		return Placement{}, fmt.Errorf("placeShelf: %w", err)
	}

	init := r3.Vec{X: rv[0], Y: rv[1], Z: obj.Z}
	if err := setObjectPos(sim, v.ObjectJoint, init); err != nil {
		return Placement{}, fmt.Errorf("placeShelf: %w", err)
	}
	return Placement{ObjInit: init, Target: target}, nil
}

func shelfScene() planar.Scene {
	return planar.Scene{
		Name:         shelfPlaceName,
		ObjectBody:   "obj",
		ObjectJoint:  "objjoint",
		ObjectGeom:   "objGeom",
		ObjectRadius: 0.02,
		ObjectRest:   0.02,
		ObjectInit:   r3.Vec{X: 0, Y: 0.6, Z: 0.02},
		Bodies: map[string]r3.Vec{
			shelfBody: {X: 0, Y: 0.85, Z: 0},
		},
		Sites: map[string]planar.Frame{
			shelfGoalSite: {Body: shelfBody, Offset: r3.Vec{Z: shelfHeight}},
		},
		Geoms: map[string]planar.Frame{
			"shelfGeom": {Body: shelfBody},
		},
		Supports: []planar.Support{
			{Body: shelfBody, HalfX: 0.1, HalfY: 0.05, Height: shelfHeight},
		},
		HandInit: r3.Vec{X: 0, Y: 0.6, Z: 0.2},
	}
}
