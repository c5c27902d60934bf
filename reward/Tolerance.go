// Package reward implements the shaping primitives shared by all
// manipulation tasks: bounded tolerance potentials, the Hamacher
// product used as a fuzzy AND, and the gripper caging sub-reward.
//
// All functions in this package are pure. Arguments that fall outside
// of a function's domain are programmer errors and cause a panic.
package reward

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"
)

// DefaultValueAtMargin is the value a tolerance potential takes at a
// distance of exactly margin outside of its bounds
const DefaultValueAtMargin = 0.1

// Tolerance returns 1 when x lies within bounds and decays towards 0 as
// x moves away from bounds. At a distance of margin outside of bounds
// the potential has value DefaultValueAtMargin. If margin is 0, the
// potential is 1 inside bounds and 0 everywhere else.
func Tolerance(x float64, bounds r1.Interval, margin float64,
	sigmoid Sigmoid) float64 {
	return ToleranceAt(x, bounds, margin, sigmoid, DefaultValueAtMargin)
}

// ToleranceAt is like Tolerance, but the value at the margin is given
// explicitly.
func ToleranceAt(x float64, bounds r1.Interval, margin float64,
	sigmoid Sigmoid, valueAtMargin float64) float64 {
	if bounds.Min > bounds.Max {
		panic(fmt.Sprintf("tolerance: lower bound %v must be <= upper "+
			"bound %v", bounds.Min, bounds.Max))
	}
	if margin < 0 {
		panic(fmt.Sprintf("tolerance: margin must be non-negative, "+
			"have(%v)", margin))
	}
	if err := sigmoid.validate(valueAtMargin); err != nil {
		panic(fmt.Sprintf("tolerance: %v", err))
	}

	if bounds.Min <= x && x <= bounds.Max {
		return 1.0
	}
	if margin == 0 {
		return 0.0
	}

	var d float64
	if x < bounds.Min {
		d = (bounds.Min - x) / margin
	} else {
		d = (x - bounds.Max) / margin
	}
	return sigmoid.eval(d, valueAtMargin)
}
