package sawyer

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/mujoco/internal/planar"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
	"github.com/samuelfneumann/gomanip/reward"
)

const (
	// TargetRadius is the radius of the target region within which the
	// in-place reward is maximal
	TargetRadius = 0.05

	defaultSuccessRadius = 0.07
	defaultNearThreshold = 0.03
)

// ElementKind is the kind of simulator element an Element refers to
type ElementKind int

const (
	Body ElementKind = iota
	Site
	Geom
)

// Element names a simulator element the state of an object is read
// from
type Element struct {
	Kind ElementKind
	Name string
}

// Pos returns the world position of the element
func (e Element) Pos(sim simulator.Simulator) (r3.Vec, error) {
	switch e.Kind {
	case Body:
		return sim.BodyCOM(e.Name)
	case Site:
		return sim.SitePos(e.Name)
	case Geom:
		return sim.GeomPos(e.Name)
	}
	return r3.Vec{}, fmt.Errorf("pos: unknown element kind %v", e.Kind)
}

// Quat returns the world orientation of the element. Sites carry no
// orientation.
func (e Element) Quat(sim simulator.Simulator) (quat.Number, error) {
	switch e.Kind {
	case Body:
		return sim.BodyQuat(e.Name)
	case Geom:
		return sim.GeomQuat(e.Name)
	}
	return quat.Number{}, fmt.Errorf("quat: element %q has no orientation",
		e.Name)
}

// Placement is the result of placing a task instance in the simulator
type Placement struct {
	ObjInit r3.Vec
	Target  r3.Vec
}

// Variant describes a single manipulation task as data plugged into
// the shared reward skeleton of an Evaluator. Hooks left nil take the
// default behaviour documented on each.
type Variant struct {
	Name string

	// Workspaces. The task-instance vector is drawn from ObjBounds
	// followed by GoalBounds, or from ObjBounds alone when the target
	// is derived from the object placement.
	HandBounds    environment.BoundingBox
	ObjBounds     environment.BoundingBox
	GoalBounds    environment.BoundingBox
	TargetFromObj bool

	HandInit        r3.Vec
	ObjInit         r3.Vec
	ObjInitAngle    float64
	HasObjInitAngle bool
	GoalInit        r3.Vec

	TargetRadius  float64
	SuccessRadius float64
	NearThreshold float64

	Caging reward.CagingParams

	// ModelFile is the scene description loaded by file-based
	// simulators
	ModelFile string

	ObjectJoint string
	ObjectPos   Element
	ObjectQuat  Element

	// TouchGeom is the geom the gripper pads must press on for the
	// object to count as touched
	TouchGeom string

	// Constraint rejects task-instance vectors, nil accepts all
	Constraint environment.Constraint

	// Place places the task instance rv in the simulator
	Place func(v *Variant, sim simulator.Simulator, rv []float64) (Placement,
		error)

	// Scene describes the task to the planar simulator
	Scene func() planar.Scene

	// InPlaceDistance is the distance the in-place reward is computed
	// from. Defaults to the Euclidean distance.
	InPlaceDistance func(obj, target r3.Vec) float64

	// InPlace defaults to a long-tailed tolerance of the in-place
	// distance within TargetRadius
	InPlace func(s *State) float64

	// Grasp defaults to the caging reward with Caging
	Grasp func(s *State) float64

	// Base defaults to the Hamacher product of Grasp and InPlace
	Base func(s *State) float64

	// Guard, if set, replaces the in-place reward once the base reward
	// was computed
	Guard func(s *State) float64

	// Near defaults to TCPToObj <= NearThreshold
	Near func(s *State) bool

	// GraspSuccess defaults to false
	GraspSuccess func(s *State) bool

	// Bonus decides whether the placement bonus is awarded, nil never
	// awards it. Aux, if set, is fused with the in-place reward in the
	// bonus.
	Bonus func(s *State) bool
	Aux   func(s *State) float64

	// Success defaults to ObjToTarget <= SuccessRadius
	Success func(s *State) bool
}

// Validate returns an error if the variant is malformed
func (v *Variant) Validate() error {
	if v == nil {
		return fmt.Errorf("validate: nil variant")
	}
	if v.Name == "" {
		return fmt.Errorf("validate: variant must be named")
	}
	for _, b := range []environment.BoundingBox{v.HandBounds, v.ObjBounds,
		v.GoalBounds} {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("validate: %v: %w", v.Name, err)
		}
	}
	if v.TargetRadius <= 0 || v.SuccessRadius <= 0 || v.NearThreshold <= 0 {
		return fmt.Errorf("validate: %v: radii must be positive", v.Name)
	}
	if v.Grasp == nil {
		if err := v.Caging.Validate(); err != nil {
			return fmt.Errorf("validate: %v: %w", v.Name, err)
		}
	}
	if v.Place == nil {
		return fmt.Errorf("validate: %v: no placement", v.Name)
	}
	return nil
}

// boxes returns the boxes task-instance vectors are drawn from
func (v *Variant) boxes() []environment.BoundingBox {
	if v.TargetFromObj {
		return []environment.BoundingBox{v.ObjBounds}
	}
	return []environment.BoundingBox{v.ObjBounds, v.GoalBounds}
}

func (v *Variant) inPlaceDistance(obj, target r3.Vec) float64 {
	if v.InPlaceDistance != nil {
		return v.InPlaceDistance(obj, target)
	}
	return r3.Norm(r3.Sub(obj, target))
}

func (v *Variant) inPlace(s *State) float64 {
	if v.InPlace != nil {
		return v.InPlace(s)
	}
	return reward.Tolerance(
		v.inPlaceDistance(s.Obj, s.Config.TargetPos),
		r1.Interval{Min: 0, Max: v.TargetRadius},
		s.Config.InPlaceMargin,
		reward.LongTail,
	)
}

func (v *Variant) grasp(s *State) float64 {
	if v.Grasp != nil {
		return v.Grasp(s)
	}
	return reward.GripperCaging(s.Effort, s.Obj, s.GripperState(), v.Caging)
}

func (v *Variant) base(s *State) float64 {
	if v.Base != nil {
		return v.Base(s)
	}
	return reward.HamacherProduct(s.Grasp, s.InPlace)
}

func (v *Variant) near(s *State) bool {
	if v.Near != nil {
		return v.Near(s)
	}
	return s.TCPToObj <= v.NearThreshold
}

func (v *Variant) success(s *State) bool {
	if v.Success != nil {
		return v.Success(s)
	}
	return s.ObjToTarget <= v.SuccessRadius
}

// withBounds returns a copy of v with the non-empty argument bounds
// replacing its own
func (v *Variant) withBounds(hand, obj, goal *environment.BoundingBox) *Variant {
	out := *v
	if hand != nil {
		out.HandBounds = *hand
	}
	if obj != nil {
		out.ObjBounds = *obj
	}
	if goal != nil {
		out.GoalBounds = *goal
	}
	return &out
}

// setObjectPos moves the free object joint to pos at rest, upright
func setObjectPos(sim simulator.Simulator, joint string, pos r3.Vec) error {
	if err := sim.SetJointQPos(joint, []float64{pos.X, pos.Y, pos.Z, 1, 0,
		0, 0}); err != nil {
		return err
	}
	return sim.SetJointQVel(joint, make([]float64, 6))
}

// vec returns the 3-vector starting at index i of v
func vec(v []float64, i int) r3.Vec {
	return r3.Vec{X: v[i], Y: v[i+1], Z: v[i+2]}
}

// variants registers the constructors of all task variants by name
var variants = map[string]func() *Variant{
	binPickingName:    BinPicking,
	pegUnplugSideName: PegUnplugSide,
	shelfPlaceName:    ShelfPlace,
	coffeePushName:    CoffeePush,
	plateSlideName:    PlateSlide,
}

// Variants returns the names of all task variants in sorted order
func Variants() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariantByName returns a new instance of the named task variant
func VariantByName(name string) (*Variant, error) {
	create, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("variantByName: unknown variant %q", name)
	}
	return create(), nil
}
