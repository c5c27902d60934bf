package environment

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	ts "github.com/samuelfneumann/gomanip/timestep"
)

// IntervalLimit implements the Ender interface to end episodes
// whenever a single feature in an observation leaves some interval
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
	endType   ts.EndType
}

// NewIntervalLimit creates and returns a new interval limit, which
// ends episodes once observation feature obsIndices[i] leaves
// limits[i]. The endType argument determines what the episode end
// should be considered as.
func NewIntervalLimit(limits []r1.Interval, obsIndices []int,
	endType ts.EndType) *IntervalLimit {
	if len(limits) != len(obsIndices) {
		panic(fmt.Sprintf("newIntervalLimit: limits should have same "+
			"length as observation indices, have(%v, %v)", len(limits),
			len(obsIndices)))
	}
	return &IntervalLimit{limits, obsIndices, endType}
}

// NewBoxLimit returns an IntervalLimit which ends episodes once the
// 3-vector of the observation starting at index leaves box
func NewBoxLimit(box BoundingBox, index int,
	endType ts.EndType) *IntervalLimit {
	return NewIntervalLimit(box.Intervals(), []int{index, index + 1,
		index + 2}, endType)
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is the appropriate ending
// type.
func (i *IntervalLimit) End(t *ts.TimeStep) bool {
	for index, featureIndex := range i.indices {
		interval := i.intervals[index]
		feature := t.Observation.AtVec(featureIndex)

		if feature > interval.Max || feature < interval.Min {
			t.StepType = ts.Last
			t.SetEnd(i.endType)
			return true
		}
	}
	return false
}
