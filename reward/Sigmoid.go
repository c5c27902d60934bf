package reward

import (
	"fmt"
	"math"
)

// Sigmoid names the shape a tolerance potential decays with outside
// of its bounds.
type Sigmoid string

const (
	Gaussian    Sigmoid = "gaussian"
	Hyperbolic  Sigmoid = "hyperbolic"
	LongTail    Sigmoid = "long_tail"
	Reciprocal  Sigmoid = "reciprocal"
	Cosine      Sigmoid = "cosine"
	Linear      Sigmoid = "linear"
	Quadratic   Sigmoid = "quadratic"
	TanhSquared Sigmoid = "tanh_squared"
)

// finiteSupport returns whether the sigmoid reaches exactly zero at a
// finite distance, in which case a value of 0 at the margin is legal.
func (s Sigmoid) finiteSupport() bool {
	return s == Cosine || s == Linear || s == Quadratic
}

// validate checks that valueAtMargin is legal for the sigmoid
func (s Sigmoid) validate(valueAtMargin float64) error {
	switch s {
	case Gaussian, Hyperbolic, LongTail, Reciprocal, Cosine, Linear,
		Quadratic, TanhSquared:
	default:
		return fmt.Errorf("unknown sigmoid %q", string(s))
	}

	if s.finiteSupport() {
		if !(0 <= valueAtMargin && valueAtMargin < 1) {
			return fmt.Errorf("value at margin %v must be in [0, 1) for "+
				"sigmoid %v", valueAtMargin, s)
		}
		return nil
	}
	if !(0 < valueAtMargin && valueAtMargin < 1) {
		return fmt.Errorf("value at margin %v must be in (0, 1) for "+
			"sigmoid %v", valueAtMargin, s)
	}
	return nil
}

// eval evaluates the sigmoid at a non-negative, margin-normalized
// distance x. The sigmoid is scaled so that eval(1) == valueAtMargin.
func (s Sigmoid) eval(x, valueAtMargin float64) float64 {
	switch s {
	case Gaussian:
		scale := math.Sqrt(-2 * math.Log(valueAtMargin))
		return math.Exp(-0.5 * (x * scale) * (x * scale))

	case Hyperbolic:
		scale := math.Acosh(1 / valueAtMargin)
		return 1 / math.Cosh(x*scale)

	case LongTail:
		scale := math.Sqrt(1/valueAtMargin - 1)
		return 1 / ((x*scale)*(x*scale) + 1)

	case Reciprocal:
		scale := 1/valueAtMargin - 1
		return 1 / (math.Abs(x)*scale + 1)

	case Cosine:
		scale := math.Acos(2*valueAtMargin-1) / math.Pi
		scaled := x * scale
		if math.Abs(scaled) < 1 {
			return (1 + math.Cos(math.Pi*scaled)) / 2
		}
		return 0.0

	case Linear:
		scaled := x * (1 - valueAtMargin)
		if math.Abs(scaled) < 1 {
			return 1 - scaled
		}
		return 0.0

	case Quadratic:
		scaled := x * math.Sqrt(1-valueAtMargin)
		if math.Abs(scaled) < 1 {
			return 1 - scaled*scaled
		}
		return 0.0

	case TanhSquared:
		scale := math.Atanh(math.Sqrt(1 - valueAtMargin))
		t := math.Tanh(x * scale)
		return 1 - t*t
	}

	panic(fmt.Sprintf("eval: unknown sigmoid %q", string(s)))
}
