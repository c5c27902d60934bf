package sawyer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/reward"
	ts "github.com/samuelfneumann/gomanip/timestep"
)

// Keys of the diagnostics reported by an Evaluator
const (
	InfoSuccess        = "success"
	InfoNearObject     = "near_object"
	InfoGraspSuccess   = "grasp_success"
	InfoGraspReward    = "grasp_reward"
	InfoInPlaceReward  = "in_place_reward"
	InfoObjToTarget    = "obj_to_target"
	InfoUnscaledReward = "unscaled_reward"
)

const (
	// SuccessReward is the reward of every transition which solves a
	// task
	SuccessReward = 10.0

	graspBonus = 1.0
	placeScale = 5.0
)

// Contact is the state of the gripper pads, which observations do not
// carry
type Contact struct {
	LeftPad  r3.Vec
	RightPad r3.Vec

	// Touching is whether both pads press on the object
	Touching bool
}

// State holds the terms a reward is composed from. The terms are
// filled in the order they are declared: the hooks of a Variant may
// use every term declared before the one they compute.
type State struct {
	Variant *Variant
	Config  *TaskConfig
	Contact Contact
	Obs     Observation
	Action  mat.Vector

	// Hand is the tool centre point, Obj the object position
	Hand r3.Vec
	Obj  r3.Vec

	// TCPOpened is the gripper distance of the observation and Effort
	// the gripper component of the action
	TCPOpened float64
	Effort    float64

	ObjToTarget float64
	TCPToObj    float64

	InPlace float64
	Grasp   float64
}

// GripperState returns the gripper geometry of the state for a caging
// reward
func (s *State) GripperState() reward.GripperState {
	return reward.GripperState{
		LeftPad:  s.Contact.LeftPad,
		RightPad: s.Contact.RightPad,
		TCP:      s.Hand,
		InitTCP:  s.Config.InitTCP,
		ObjInit:  s.Config.ObjInitPos,
	}
}

// Evaluator computes the reward and diagnostics of a Variant from
// observations. An Evaluator must be configured by a reset before
// evaluating.
type Evaluator struct {
	variant *Variant
	config  *TaskConfig
	contact Contact
}

// NewEvaluator returns a new, unconfigured Evaluator of a Variant
func NewEvaluator(v *Variant) *Evaluator {
	if err := v.Validate(); err != nil {
		panic(fmt.Sprintf("newEvaluator: %v", err))
	}
	return &Evaluator{variant: v}
}

// configure sets the task configuration evaluations are computed
// against. A nil configuration invalidates the Evaluator until the
// next call.
func (e *Evaluator) configure(c *TaskConfig) {
	e.config = c
}

// observeContact records the state of the gripper pads
func (e *Evaluator) observeContact(c Contact) {
	e.contact = c
}

// Config returns a copy of the current task configuration, or nil if
// there is none
func (e *Evaluator) Config() *TaskConfig {
	return e.config.copy()
}

// Variant returns the task variant evaluated
func (e *Evaluator) Variant() *Variant {
	return e.variant
}

// Evaluate returns the reward for the observation following action,
// along with its diagnostics. Evaluate is a pure function of its
// arguments, the task configuration and the recorded pad contacts.
//
// Evaluate panics if the Evaluator has no task configuration or if
// the observation or action are malformed.
func (e *Evaluator) Evaluate(obs, action mat.Vector) (float64, ts.Info) {
	if e.config == nil {
		panic("evaluate: no task configuration, reset before evaluating")
	}
	o := NewObservation(obs)
	if action == nil || action.Len() != ActionDim {
		panic(fmt.Sprintf("evaluate: action must have %v elements",
			ActionDim))
	}

	v := e.variant
	s := &State{
		Variant:   v,
		Config:    e.config,
		Contact:   e.contact,
		Obs:       o,
		Action:    action,
		Hand:      o.Hand(),
		Obj:       o.ObjectPos(),
		TCPOpened: o.GripperDistance(),
		Effort:    action.AtVec(ActionDim - 1),
	}
	s.ObjToTarget = r3.Norm(r3.Sub(s.Obj, e.config.TargetPos))
	s.TCPToObj = r3.Norm(r3.Sub(s.Obj, s.Hand))
	s.InPlace = v.inPlace(s)
	s.Grasp = v.grasp(s)

	value := v.base(s)
	if v.Guard != nil {
		s.InPlace = v.Guard(s)
	}

	near := v.near(s)
	graspSuccess := v.GraspSuccess != nil && v.GraspSuccess(s)

	if v.Bonus != nil && v.Bonus(s) {
		placed := s.InPlace
		if v.Aux != nil {
			placed = reward.HamacherProduct(v.Aux(s), s.InPlace)
		}
		value += graspBonus + placeScale*placed
	}

	success := v.success(s)
	if success {
		value = SuccessReward
	}

	return value, ts.Info{
		InfoSuccess:        indicator(success),
		InfoNearObject:     indicator(near),
		InfoGraspSuccess:   indicator(graspSuccess),
		InfoGraspReward:    s.Grasp,
		InfoInPlaceReward:  s.InPlace,
		InfoObjToTarget:    s.ObjToTarget,
		InfoUnscaledReward: value,
	}
}

func indicator(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
