package environment

import (
	ts "github.com/samuelfneumann/gomanip/timestep"
)

// FunctionEnder ends an episode whenever a function of a TimeStep
// returns true.
type FunctionEnder struct {
	end     func(*ts.TimeStep) bool
	endType ts.EndType
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes with
// end type endType when f returns true.
func NewFunctionEnder(f func(*ts.TimeStep) bool, endType ts.EndType) *FunctionEnder {
	return &FunctionEnder{f, endType}
}

// NewInfoEnder returns a FunctionEnder which ends episodes with end
// type endType when the TimeStep's info value for key is at least
// threshold
func NewInfoEnder(key string, threshold float64,
	endType ts.EndType) *FunctionEnder {
	return NewFunctionEnder(func(t *ts.TimeStep) bool {
		value, ok := t.Info[key]
		return ok && value >= threshold
	}, endType)
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode temrination. If the episode
// should be ended, End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is the appropriate ending
// type.
func (f *FunctionEnder) End(t *ts.TimeStep) bool {
	if f.end(t) {
		t.StepType = ts.Last
		t.SetEnd(f.endType)
		return true
	}
	return false
}

// Enders combines multiple Enders, ending an episode when the first
// of them does
type Enders []Ender

// End calls End on each Ender in order, stopping at the first which
// ends the episode
func (e Enders) End(t *ts.TimeStep) bool {
	for _, ender := range e {
		if ender.End(t) {
			return true
		}
	}
	return false
}
