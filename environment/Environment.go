// Package environment outlines the interfaces and structs needed to
// implement concrete environments, along with the task-instance
// samplers and episode enders shared between them
package environment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/gomanip/timestep"
)

// Ender determines when episodes should end. If an episode should end,
// End modifies the argument TimeStep so that its StepType is
// timestep.Last and sets the appropriate EndType.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Evaluator computes the reward and diagnostics of a transition from
// the observation following an action and the action itself
type Evaluator interface {
	Evaluate(obs, action mat.Vector) (float64, ts.Info)
}

// Environment implements a simulated environment, which includes a
// task to complete
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
