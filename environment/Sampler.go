package environment

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// DefaultMaxTries is the number of draws a RejectionSampler makes
// before reporting that its constraint cannot be satisfied
const DefaultMaxTries = 1000

// RejectionSampler draws task-instance vectors uniformly from the
// concatenation of several bounding boxes, rejecting draws which fail
// a constraint. Box i occupies elements [3i, 3i+3) of each draw.
//
// A RejectionSampler can be frozen to a fixed vector, after which it
// returns that vector on every call to Sample until unfrozen.
type RejectionSampler struct {
	boxes      []BoundingBox
	bounds     []r1.Interval
	constraint Constraint
	maxTries   int
	seed       uint64
	rand       *distmv.Uniform
	frozen     []float64
}

// NewRejectionSampler returns a new RejectionSampler over boxes. If c
// is nil, every draw is accepted. If maxTries is not positive,
// DefaultMaxTries is used.
//
// An error wrapping ErrUnsatisfiable is returned if the constraint
// cannot be satisfied within the boxes. Constraints implementing
// FeasibilityChecker are checked analytically, all others by probing
// up to maxTries draws from an independent source.
func NewRejectionSampler(boxes []BoundingBox, c Constraint, maxTries int,
	seed uint64) (*RejectionSampler, error) {
	if len(boxes) == 0 {
		return nil, fmt.Errorf("newRejectionSampler: at least one " +
			"bounding box is required")
	}
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}

	bounds := make([]r1.Interval, 0, 3*len(boxes))
	for i, box := range boxes {
		if err := box.Validate(); err != nil {
			return nil, fmt.Errorf("newRejectionSampler: box %v: %w", i, err)
		}
		bounds = append(bounds, box.Intervals()...)
	}

	s := &RejectionSampler{
		boxes:      boxes,
		bounds:     bounds,
		constraint: c,
		maxTries:   maxTries,
		seed:       seed,
		rand:       distmv.NewUniform(bounds, rand.NewSource(seed)),
	}

	if !s.feasible() {
		return nil, &SamplerError{
			Op:  "newRejectionSampler",
			Err: ErrUnsatisfiable,
		}
	}
	return s, nil
}

// feasible returns whether the sampler's constraint can be satisfied
func (s *RejectionSampler) feasible() bool {
	if s.constraint == nil {
		return true
	}
	if checker, ok := s.constraint.(FeasibilityChecker); ok {
		return checker.Feasible(s.bounds)
	}

	probe := distmv.NewUniform(s.bounds, rand.NewSource(s.seed+1))
	v := make([]float64, len(s.bounds))
	for i := 0; i < s.maxTries; i++ {
		if s.constraint.Accept(probe.Rand(v)) {
			return true
		}
	}
	return false
}

// Sample returns a new task-instance vector. If the sampler is frozen,
// a copy of the frozen vector is returned. Otherwise, up to maxTries
// draws are made and the first accepted draw returned; if none is
// accepted an error wrapping ErrUnsatisfiable is returned.
func (s *RejectionSampler) Sample() ([]float64, error) {
	if s.frozen != nil {
		return append([]float64(nil), s.frozen...), nil
	}

	for i := 0; i < s.maxTries; i++ {
		v := s.rand.Rand(nil)
		if s.constraint == nil || s.constraint.Accept(v) {
			return v, nil
		}
	}
	return nil, &SamplerError{Op: "sample", Err: ErrUnsatisfiable}
}

// Freeze fixes the vector returned by Sample. The vector must have the
// sampler's dimension, lie within its boxes and satisfy its
// constraint.
func (s *RejectionSampler) Freeze(v []float64) error {
	if len(v) != len(s.bounds) {
		return &SamplerError{
			Op: "freeze",
			Err: fmt.Errorf("%w: have length %v, want %v", ErrFrozenInvalid,
				len(v), len(s.bounds)),
		}
	}
	for i, b := range s.bounds {
		if v[i] < b.Min || v[i] > b.Max {
			return &SamplerError{
				Op: "freeze",
				Err: fmt.Errorf("%w: element %v = %v not in [%v, %v]",
					ErrFrozenInvalid, i, v[i], b.Min, b.Max),
			}
		}
	}
	if s.constraint != nil && !s.constraint.Accept(v) {
		return &SamplerError{
			Op:  "freeze",
			Err: fmt.Errorf("%w: constraint rejects %v", ErrFrozenInvalid, v),
		}
	}

	s.frozen = append([]float64(nil), v...)
	return nil
}

// Unfreeze returns the sampler to drawing fresh vectors
func (s *RejectionSampler) Unfreeze() {
	s.frozen = nil
}

// Frozen returns whether the sampler is frozen
func (s *RejectionSampler) Frozen() bool {
	return s.frozen != nil
}

// Dim returns the length of sampled vectors
func (s *RejectionSampler) Dim() int {
	return len(s.bounds)
}

// Bounds returns the per-element sampling intervals
func (s *RejectionSampler) Bounds() []r1.Interval {
	return append([]r1.Interval(nil), s.bounds...)
}

// Boxes returns the boxes the sampler draws from
func (s *RejectionSampler) Boxes() []BoundingBox {
	return append([]BoundingBox(nil), s.boxes...)
}
