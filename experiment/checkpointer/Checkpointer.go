// Package checkpointer implements Checkpointers, which periodically
// save the data tracked during an experiment so that long experiments
// can be inspected before they finish
package checkpointer

import (
	"github.com/samuelfneumann/gomanip/experiment/tracker"
	ts "github.com/samuelfneumann/gomanip/timestep"
)

// Checkpointer checkpoints the data of a tracker.Tracker based on the
// timestep.TimeSteps of an experiment
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}

// save saves the data currently recorded by t to filename
func save(t tracker.Tracker, filename string) error {
	return tracker.Save(filename, t.Data())
}
