// Package sawyer implements manipulation tasks for a simulated Sawyer
// arm with a parallel gripper. Each task is a Variant: data plugged
// into a single reward skeleton which converts observations into a
// shaped reward and a set of diagnostics.
//
// An Env drives a simulator.Simulator through episodes of a Variant.
// At every reset the arm is returned to its initial position, a task
// instance is drawn from the variant's workspaces and placed in the
// simulator, and a TaskConfig describing the episode is cached. The
// reward of each step is computed from the observation following the
// step and the cached TaskConfig only.
package sawyer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/gomanip/environment"
	"github.com/samuelfneumann/gomanip/environment/mujoco/simulator"
	ts "github.com/samuelfneumann/gomanip/timestep"
	"github.com/samuelfneumann/gomanip/utils/floatutils"
)

// Names of the elements of the Sawyer hand in every scene
const (
	mocapBody     = "mocap"
	leftPadBody   = "leftpad"
	rightPadBody  = "rightpad"
	leftClawBody  = "leftclaw_it"
	rightClawBody = "rightclaw_it"
	leftEffector  = "leftEndEffector"
	rightEffector = "rightEndEffector"
	leftPadGeom   = "leftpad_geom"
	rightPadGeom  = "rightpad_geom"
)

const (
	DefaultMaxPathLength = 500
	DefaultFrameSkip     = 5
	DefaultRenderSize    = 480
	DefaultCamera        = "corner"

	// actionScale converts actions into hand displacements
	actionScale = 1.0 / 100
	settleSteps = 50
)

// handQuat is the fixed orientation of the hand, pointing down
var handQuat = quat.Number{Real: 1, Jmag: 1}

// arena is the region the object must stay in for a task to remain
// solvable, the table top and the space above it
var arena = environment.NewBoundingBox(r3.Vec{X: -0.6, Y: 0.3, Z: -0.05},
	r3.Vec{X: 0.6, Y: 1.1, Z: 1})

// Options configures an Env. Zero values take defaults, except for
// Discount which is used as is.
type Options struct {
	MaxPathLength int
	FrameSkip     int
	Discount      float64
	Seed          uint64

	// Workspace overrides, nil keeps the variant's
	HandBounds *environment.BoundingBox
	ObjBounds  *environment.BoundingBox
	GoalBounds *environment.BoundingBox

	RenderMode simulator.RenderMode
	CameraName string
	Width      int
	Height     int

	PartiallyObservable bool
	TerminateOnSuccess  bool

	// TerminateOnObjectLost ends episodes once the object leaves the
	// table
	TerminateOnObjectLost bool

	SamplerMaxTries int

	Logger *slog.Logger
}

// DefaultOptions returns the default options of an Env
func DefaultOptions() Options {
	return Options{
		MaxPathLength: DefaultMaxPathLength,
		FrameSkip:     DefaultFrameSkip,
		Discount:      1.0,
		RenderMode:    simulator.RGBArray,
		CameraName:    DefaultCamera,
		Width:         DefaultRenderSize,
		Height:        DefaultRenderSize,
	}
}

// withDefaults fills the zero-valued fields of o with defaults
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxPathLength <= 0 {
		o.MaxPathLength = d.MaxPathLength
	}
	if o.FrameSkip <= 0 {
		o.FrameSkip = d.FrameSkip
	}
	if o.RenderMode == "" {
		o.RenderMode = d.RenderMode
	}
	if o.CameraName == "" {
		o.CameraName = d.CameraName
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Env is a Sawyer manipulation environment. Env embeds the Evaluator
// of its variant, so that rewards of arbitrary observations can be
// computed against the current episode.
//
// The Env struct satisfies the environment.Environment interface. An
// Env is not safe for concurrent use.
type Env struct {
	*Evaluator
	id     uuid.UUID
	sim    simulator.Simulator
	opts   Options
	logger *slog.Logger

	sampler     *environment.RejectionSampler
	taskSampler *environment.RejectionSampler
	enders      environment.Enders

	partiallyObservable bool
	obsSpec             environment.Spec

	pathLength      int
	prevFrame       frame
	currentTimeStep ts.TimeStep
	lastStable      *mat.VecDense
}

// New returns a new Env of variant v driving sim, together with the
// first step of its first episode
func New(v *Variant, sim simulator.Simulator, opts Options) (*Env, ts.TimeStep,
	error) {
	opts = opts.withDefaults()
	if v == nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: nil variant")
	}
	v = v.withBounds(opts.HandBounds, opts.ObjBounds, opts.GoalBounds)
	if err := v.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	sampler, err := environment.NewRejectionSampler(v.boxes(), v.Constraint,
		opts.SamplerMaxTries, opts.Seed)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	taskSampler, err := environment.NewRejectionSampler(v.boxes(),
		v.Constraint, opts.SamplerMaxTries, opts.Seed+1)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	id := uuid.New()
	e := &Env{
		Evaluator:           NewEvaluator(v),
		id:                  id,
		sim:                 sim,
		opts:                opts,
		logger:              opts.Logger.With("env_id", id.String(), "task", v.Name),
		sampler:             sampler,
		taskSampler:         taskSampler,
		partiallyObservable: opts.PartiallyObservable,
	}
	e.obsSpec = e.observationSpec()

	if opts.TerminateOnSuccess {
		e.enders = append(e.enders,
			environment.NewInfoEnder(InfoSuccess, 1.0, ts.TerminalStateReached))
	}
	if opts.TerminateOnObjectLost {
		e.enders = append(e.enders,
			environment.NewBoxLimit(arena, objectPosIdx, ts.OutOfBounds))
	}
	e.enders = append(e.enders, environment.NewStepLimit(opts.MaxPathLength))

	e.logger.Info("created environment", "max_path_length",
		opts.MaxPathLength, "frame_skip", opts.FrameSkip, "seed", opts.Seed)

	step, err := e.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return e, step, nil
}

// ID returns the unique identifier of the environment
func (e *Env) ID() uuid.UUID {
	return e.id
}

// Reset resets the environment to a new episode, placing a new task
// instance
func (e *Env) Reset() (ts.TimeStep, error) {
	e.configure(nil)
	v := e.Variant()

	if err := e.sim.Reset(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	initTCP, err := e.settleHand(v.HandInit)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	rv, err := e.sampler.Sample()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	placement, err := v.Place(v, e.sim, rv)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	if err := e.sim.Forward(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	e.configure(&TaskConfig{
		ObjInitPos:      placement.ObjInit,
		ObjInitAngle:    v.ObjInitAngle,
		HasObjInitAngle: v.HasObjInitAngle,
		TargetPos:       placement.Target,
		HandInitPos:     v.HandInit,
		InitTCP:         initTCP,
		InPlaceMargin:   v.inPlaceDistance(placement.ObjInit, placement.Target),
		RandVec:         rv,
	})
	e.pathLength = 0

	if err := e.observeContacts(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	f, err := e.frame()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	e.prevFrame = f
	obs := buildObservation(f, f, placement.Target, e.partiallyObservable,
		e.obsSpec)
	e.lastStable = obs

	step := ts.New(ts.First, 0, e.opts.Discount, obs, 0)
	e.currentTimeStep = step
	e.logger.Debug("reset", "obj_init", placement.ObjInit, "target",
		placement.Target)
	return step, nil
}

// settleHand drives the hand to pos with the gripper open, returning
// the tool centre point it settled at
func (e *Env) settleHand(pos r3.Vec) (r3.Vec, error) {
	for i := 0; i < settleSteps; i++ {
		if err := e.sim.SetMocapPos(mocapBody, pos); err != nil {
			return r3.Vec{}, fmt.Errorf("settleHand: %w", err)
		}
		if err := e.sim.SetMocapQuat(mocapBody, handQuat); err != nil {
			return r3.Vec{}, fmt.Errorf("settleHand: %w", err)
		}
		if err := e.sim.Step([]float64{-1, 1}, e.opts.FrameSkip); err != nil {
			return r3.Vec{}, fmt.Errorf("settleHand: %w", err)
		}
	}
	return e.tcp()
}

// Step takes one environmental step given some action. Step panics if
// the environment was never reset or if the action is malformed.
//
// If the simulator becomes unstable, the episode is truncated and the
// last stable observation is returned with a reward of 0.
func (e *Env) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if e.config == nil {
		panic("step: environment must be reset before stepping")
	}
	if action == nil || action.Len() != ActionDim {
		panic(fmt.Sprintf("step: action must have %v elements", ActionDim))
	}
	if e.pathLength >= e.opts.MaxPathLength {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w (%v steps)",
			ErrMaxPathLength, e.opts.MaxPathLength)
	}

	clipped := e.clipAction(action)
	if err := e.moveHand(clipped); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}

	effort := clipped.AtVec(ActionDim - 1)
	err := e.sim.Step([]float64{effort, -effort}, e.opts.FrameSkip)
	e.pathLength++
	number := e.currentTimeStep.Number + 1

	if errors.Is(err, simulator.ErrUnstable) {
		e.logger.Warn("simulator unstable, truncating episode",
			"step", number, "error", err)
		t := ts.New(ts.Last, 0, e.opts.Discount,
			mat.VecDenseCopyOf(e.lastStable), number)
		t.SetEnd(ts.SimulatorFailure)
		t.Info = failureInfo()
		e.currentTimeStep = t
		return t, true, nil
	} else if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}

	if err := e.observeContacts(); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}
	f, err := e.frame()
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}
	obs := buildObservation(f, e.prevFrame, e.config.TargetPos,
		e.partiallyObservable, e.obsSpec)
	e.prevFrame = f
	e.lastStable = obs

	reward, info := e.Evaluate(obs, clipped)
	t := ts.New(ts.Mid, reward, e.opts.Discount, obs, number)
	t.Info = info
	done := e.enders.End(&t)
	if t.Truncated() {
		e.logger.Debug("episode truncated", "step", number)
	}
	e.currentTimeStep = t

	return t, done, nil
}

// failureInfo returns the diagnostics of a step the simulator failed
func failureInfo() ts.Info {
	return ts.Info{
		InfoSuccess:        0,
		InfoNearObject:     0,
		InfoGraspSuccess:   0,
		InfoGraspReward:    0,
		InfoInPlaceReward:  0,
		InfoObjToTarget:    0,
		InfoUnscaledReward: 0,
	}
}

// clipAction returns a copy of the argument action which is clipped to
// be within the action bounds of the environment.
func (e *Env) clipAction(action *mat.VecDense) *mat.VecDense {
	spec := e.ActionSpec()
	clipped := mat.VecDenseCopyOf(action)
	for i := 0; i < clipped.Len(); i++ {
		clipped.SetVec(i, floatutils.Clip(clipped.AtVec(i),
			spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i)))
	}
	return clipped
}

// moveHand displaces the mocap by the position component of action,
// keeping it within the hand workspace
func (e *Env) moveHand(action *mat.VecDense) error {
	pos, err := e.sim.MocapPos(mocapBody)
	if err != nil {
		return fmt.Errorf("moveHand: %w", err)
	}
	delta := r3.Scale(actionScale, vec(action.RawVector().Data, 0))
	pos = e.Variant().HandBounds.Clamp(r3.Add(pos, delta))

	if err := e.sim.SetMocapPos(mocapBody, pos); err != nil {
		return fmt.Errorf("moveHand: %w", err)
	}
	if err := e.sim.SetMocapQuat(mocapBody, handQuat); err != nil {
		return fmt.Errorf("moveHand: %w", err)
	}
	return nil
}

// tcp returns the tool centre point, midway between the end effectors
func (e *Env) tcp() (r3.Vec, error) {
	left, err := e.sim.SitePos(leftEffector)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("tcp: %w", err)
	}
	right, err := e.sim.SitePos(rightEffector)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("tcp: %w", err)
	}
	return r3.Scale(0.5, r3.Add(left, right)), nil
}

// frame reads the current frame of an observation from the simulator
func (e *Env) frame() (frame, error) {
	v := e.Variant()

	hand, err := e.tcp()
	if err != nil {
		return frame{}, fmt.Errorf("frame: %w", err)
	}
	left, err := e.sim.BodyCOM(leftClawBody)
	if err != nil {
		return frame{}, fmt.Errorf("frame: %w", err)
	}
	right, err := e.sim.BodyCOM(rightClawBody)
	if err != nil {
		return frame{}, fmt.Errorf("frame: %w", err)
	}
	pos, err := v.ObjectPos.Pos(e.sim)
	if err != nil {
		return frame{}, fmt.Errorf("frame: %w", err)
	}
	q, err := v.ObjectQuat.Quat(e.sim)
	if err != nil {
		return frame{}, fmt.Errorf("frame: %w", err)
	}

	return frame{
		hand:       hand,
		gripper:    gripperDistance(right, left),
		objectPos:  pos,
		objectQuat: q,
	}, nil
}

// observeContacts records the state of the gripper pads for the
// Evaluator
func (e *Env) observeContacts() error {
	v := e.Variant()

	left, err := e.sim.BodyCOM(leftPadBody)
	if err != nil {
		return fmt.Errorf("observeContacts: %w", err)
	}
	right, err := e.sim.BodyCOM(rightPadBody)
	if err != nil {
		return fmt.Errorf("observeContacts: %w", err)
	}

	touching := true
	for _, pad := range []string{leftPadGeom, rightPadGeom} {
		force, err := e.sim.ContactForce(pad, v.TouchGeom)
		if err != nil {
			return fmt.Errorf("observeContacts: %w", err)
		}
		touching = touching && force > 0
	}

	e.observeContact(Contact{LeftPad: left, RightPad: right,
		Touching: touching})
	return nil
}

// SetTask fixes the task instance placed by every following reset and
// whether the goal is observable. The current episode is unaffected.
func (e *Env) SetTask(t Task) error {
	v := e.Variant()
	if t.EnvName != v.Name {
		return fmt.Errorf("setTask: %w: have %q, want %q", ErrWrongTask,
			t.EnvName, v.Name)
	}
	if err := e.sampler.Freeze(t.RandVec); err != nil {
		return fmt.Errorf("setTask: %w", err)
	}
	e.partiallyObservable = t.PartiallyObservable
	e.obsSpec = e.observationSpec()

	e.logger.Info("set task", "rand_vec", t.RandVec, "partially_observable",
		t.PartiallyObservable)
	return nil
}

// ClearTask returns the environment to drawing a new task instance at
// every reset
func (e *Env) ClearTask() {
	e.sampler.Unfreeze()
	e.logger.Info("cleared task")
}

// SampleTask draws a new task for the environment without affecting
// the task instances drawn by resets
func (e *Env) SampleTask() (Task, error) {
	rv, err := e.taskSampler.Sample()
	if err != nil {
		return Task{}, fmt.Errorf("sampleTask: %w", err)
	}
	return Task{
		EnvName:             e.Variant().Name,
		RandVec:             rv,
		PartiallyObservable: e.partiallyObservable,
	}, nil
}

// Render renders the current state of the simulator with the
// configured render mode and camera
func (e *Env) Render() (image.Image, error) {
	img, err := e.sim.Render(e.opts.RenderMode, e.opts.CameraName,
		e.opts.Width, e.opts.Height)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return img, nil
}

// Close releases the simulator
func (e *Env) Close() error {
	return e.sim.Close()
}

// CurrentTimeStep returns the current time step
func (e *Env) CurrentTimeStep() ts.TimeStep {
	return e.currentTimeStep
}

// PathLength returns the number of steps taken in the current episode
func (e *Env) PathLength() int {
	return e.pathLength
}

// ObservationSpec returns the observation specification of the
// environment
func (e *Env) ObservationSpec() environment.Spec {
	return e.obsSpec
}

func (e *Env) observationSpec() environment.Spec {
	low, high := observationBounds(e.Variant().HandBounds,
		e.partiallyObservable)
	return environment.NewBoxSpec(environment.Observation, low, high)
}

// ActionSpec returns the action specification of the environment
func (e *Env) ActionSpec() environment.Spec {
	low := make([]float64, ActionDim)
	high := make([]float64, ActionDim)
	for i := range low {
		low[i], high[i] = -1, 1
	}
	return environment.NewBoxSpec(environment.Action, low, high)
}

// RewardSpec returns the reward specification of the environment
func (e *Env) RewardSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Reward, []float64{0},
		[]float64{SuccessReward})
}

// DiscountSpec returns the discount specification of the environment
func (e *Env) DiscountSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Discount, []float64{0},
		[]float64{1})
}

var _ environment.Environment = (*Env)(nil)
