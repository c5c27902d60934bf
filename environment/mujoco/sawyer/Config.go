package sawyer

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// TaskConfig is the configuration of a single episode: where the
// object and the target were placed and where the hand started. A
// TaskConfig is created by every reset and never modified afterwards.
type TaskConfig struct {
	ObjInitPos r3.Vec

	// ObjInitAngle is the initial yaw of the object, if the task
	// defines one
	ObjInitAngle    float64
	HasObjInitAngle bool

	TargetPos   r3.Vec
	HandInitPos r3.Vec

	// InitTCP is the tool centre point once the hand settled at
	// HandInitPos
	InitTCP r3.Vec

	// InPlaceMargin is the distance between the object's initial
	// position and the target, the margin of the in-place reward
	InPlaceMargin float64

	// RandVec is the task-instance vector the configuration was
	// placed from
	RandVec []float64
}

// copy returns a deep copy of the configuration
func (c *TaskConfig) copy() *TaskConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.RandVec = append([]float64(nil), c.RandVec...)
	return &out
}
