package environment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

// Constraint restricts the vectors a RejectionSampler may return
type Constraint interface {
	Accept(v []float64) bool
}

// FeasibilityChecker is implemented by Constraints which can decide,
// without sampling, whether any vector within some bounds is
// accepted with positive probability
type FeasibilityChecker interface {
	Feasible(bounds []r1.Interval) bool
}

// ConstraintFunc adapts a function to the Constraint interface
type ConstraintFunc func(v []float64) bool

// Accept calls f(v)
func (f ConstraintFunc) Accept(v []float64) bool {
	return f(v)
}

// MinSeparation accepts vectors whose segments v[A:A+Dims] and
// v[B:B+Dims] are at least Min apart in Euclidean distance
type MinSeparation struct {
	A, B int
	Dims int
	Min  float64
}

// NewMinSeparation returns a new MinSeparation constraint
func NewMinSeparation(a, b, dims int, min float64) MinSeparation {
	if a < 0 || b < 0 || dims <= 0 {
		panic(fmt.Sprintf("newMinSeparation: invalid segments a=%v b=%v "+
			"dims=%v", a, b, dims))
	}
	return MinSeparation{A: a, B: b, Dims: dims, Min: min}
}

// Accept returns whether the two segments of v are far enough apart
func (m MinSeparation) Accept(v []float64) bool {
	if m.A+m.Dims > len(v) || m.B+m.Dims > len(v) {
		panic(fmt.Sprintf("accept: vector of length %v too short for "+
			"segments at %v and %v of length %v", len(v), m.A, m.B, m.Dims))
	}
	return floats.Distance(v[m.A:m.A+m.Dims], v[m.B:m.B+m.Dims], 2) >= m.Min
}

// Feasible returns whether two segments drawn uniformly within bounds
// can be more than Min apart. The largest separation along each axis
// is attained at opposite corners of the two segments' boxes.
func (m MinSeparation) Feasible(bounds []r1.Interval) bool {
	if m.Min <= 0 {
		return true
	}
	if m.A+m.Dims > len(bounds) || m.B+m.Dims > len(bounds) {
		return false
	}

	sq := 0.0
	for i := 0; i < m.Dims; i++ {
		a, b := bounds[m.A+i], bounds[m.B+i]
		d := math.Max(a.Max-b.Min, b.Max-a.Min)
		sq += d * d
	}
	return math.Sqrt(sq) > m.Min
}
