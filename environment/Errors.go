package environment

import "errors"

// SamplerError implements errors unique to sampling task instances
type SamplerError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *SamplerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *SamplerError) Unwrap() error {
	return e.Err
}

// ErrUnsatisfiable is reported when no draw within the sampling bounds
// satisfies a sampler's constraint
var ErrUnsatisfiable = errors.New("constraint unsatisfiable within bounds")

// ErrFrozenInvalid is reported when a frozen task vector does not lie
// within the sampling bounds or violates the sampler's constraint
var ErrFrozenInvalid = errors.New("frozen vector outside of task space")

// IsUnsatisfiable returns whether or not an error reports that a
// sampler could not produce a draw satisfying its constraint.
func IsUnsatisfiable(err error) bool {
	return errors.Is(err, ErrUnsatisfiable)
}

// IsFrozenInvalid returns whether or not an error reports that a
// vector could not be frozen into a sampler.
func IsFrozenInvalid(err error) bool {
	return errors.Is(err, ErrFrozenInvalid)
}
