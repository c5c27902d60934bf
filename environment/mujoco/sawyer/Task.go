package sawyer

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongTask is returned when setting a task created for another
	// environment
	ErrWrongTask = errors.New("task belongs to another environment")

	// ErrMaxPathLength is returned when stepping an episode past its
	// maximum length
	ErrMaxPathLength = errors.New("maximum path length exceeded")
)

// Task describes a single task instance. Setting a Task on an
// environment fixes the task-instance vector every following reset
// places.
type Task struct {
	EnvName             string    `json:"env_name" yaml:"env_name"`
	RandVec             []float64 `json:"rand_vec" yaml:"rand_vec"`
	PartiallyObservable bool      `json:"partially_observable" yaml:"partially_observable"`
}

// String implements the fmt.Stringer interface
func (t Task) String() string {
	return fmt.Sprintf("Task{%v: %v, partially observable: %v}", t.EnvName,
		t.RandVec, t.PartiallyObservable)
}
