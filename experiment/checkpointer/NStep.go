package checkpointer

import (
	"fmt"

	"github.com/samuelfneumann/gomanip/experiment/tracker"
	ts "github.com/samuelfneumann/gomanip/timestep"
)

// nStep implements checkpointing every N steps of an experiment
type nStep struct {
	interval int
	steps    int
	tracker  tracker.Tracker

	// filename returns the name of the file to save the next checkpoint
	// in.
	//
	// If each checkpoint should be saved in a separate file with each
	// file having an incremented number as a suffix (e.g. file1.bin,
	// file2.bin, ..., fileK.bin), then use FilenameEnumerator.
	// Otherwise, if the filename does not matter, use FileTimer. For
	// example:
	//
	// n := NewNStep(10, tracker, FileTimer("filename", ".bin"))
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints the data of t every
// n steps, counting steps across episodes. The first step of an episode
// is not counted, since no action led to it.
func NewNStep(n int, t tracker.Tracker, filename func() string) Checkpointer {
	if n <= 0 {
		panic(fmt.Sprintf("newNStep: interval must be positive, have(%v)", n))
	}
	return &nStep{
		interval: n,
		tracker:  t,
		filename: filename,
	}
}

// Checkpoint saves the data of the tracked Tracker if the interval has
// elapsed since the last checkpoint
func (n *nStep) Checkpoint(t ts.TimeStep) error {
	if t.First() {
		return nil
	}
	n.steps++
	if n.steps%n.interval != 0 {
		return nil
	}
	if err := save(n.tracker, n.filename()); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
