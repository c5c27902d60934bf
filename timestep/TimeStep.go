// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes the reason an episode ended. Only timesteps with
// StepType Last have a meaningful EndType.
type EndType int

const (
	// Unset is the EndType of a TimeStep which did not end an episode
	Unset EndType = iota

	// TerminalStateReached means the task was solved
	TerminalStateReached

	// Timeout means the episode hit its step limit
	Timeout

	// SimulatorFailure means the simulator became unstable and the
	// episode was cut short at the last stable state
	SimulatorFailure

	// OutOfBounds means some part of the state left the region the
	// task can be solved in
	OutOfBounds
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	case SimulatorFailure:
		return "SimulatorFailure"
	case OutOfBounds:
		return "OutOfBounds"
	default:
		return "Unset"
	}
}

// Info holds diagnostic values reported alongside a TimeStep, keyed by
// name
type Info map[string]float64

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	Reward      float64
	Discount    float64
	Observation *mat.VecDense
	Number      int
	Info        Info
	endType     EndType
}

// New returns a new TimeStep. The TimeStep has no Info until one is
// attached.
func New(t StepType, r, d float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{
		StepType:    t,
		Reward:      r,
		Discount:    d,
		Observation: o,
		Number:      n,
	}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd sets the reason the episode ended. SetEnd panics if the
// TimeStep is not the last in its episode.
func (t *TimeStep) SetEnd(e EndType) {
	if !t.Last() {
		panic(fmt.Sprintf("setEnd: cannot set end type %v on a %v step",
			e, t.StepType))
	}
	t.endType = e
}

// EndType returns the reason the episode ended
func (t *TimeStep) EndType() EndType {
	return t.endType
}

// Truncated returns whether the episode was cut short rather than
// solved
func (t *TimeStep) Truncated() bool {
	return t.Last() && (t.endType == Timeout || t.endType == SimulatorFailure)
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}
