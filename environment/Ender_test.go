package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	ts "github.com/samuelfneumann/gomanip/timestep"
)

func TestStepLimit(t *testing.T) {
	limit := NewStepLimit(3)
	assert.Equal(t, 3, limit.Limit())

	step := ts.New(ts.Mid, 0, 1, nil, 2)
	assert.False(t, limit.End(&step))
	assert.True(t, step.Mid())

	step = ts.New(ts.Mid, 0, 1, nil, 3)
	assert.True(t, limit.End(&step))
	assert.True(t, step.Last())
	assert.Equal(t, ts.Timeout, step.EndType())

	assert.Panics(t, func() { NewStepLimit(0) })
}

func TestEnders(t *testing.T) {
	enders := Enders{
		NewInfoEnder("success", 1, ts.TerminalStateReached),
		NewStepLimit(5),
	}

	step := ts.New(ts.Mid, 0, 1, nil, 5)
	step.Info = ts.Info{"success": 1}
	assert.True(t, enders.End(&step))
	assert.Equal(t, ts.TerminalStateReached, step.EndType())
	assert.False(t, step.Truncated())

	step = ts.New(ts.Mid, 0, 1, nil, 5)
	step.Info = ts.Info{"success": 0}
	assert.True(t, enders.End(&step))
	assert.True(t, step.Truncated())

	step = ts.New(ts.Mid, 0, 1, nil, 1)
	assert.False(t, enders.End(&step))
}

func TestIntervalLimit(t *testing.T) {
	box := NewBoundingBox(r3.Vec{X: -1, Y: 0, Z: 0}, r3.Vec{X: 1, Y: 1, Z: 1})
	limit := NewBoxLimit(box, 1, ts.OutOfBounds)

	step := ts.New(ts.Mid, 0, 1, mat.NewVecDense(4, []float64{9, 0, 1, 0.5}),
		1)
	assert.False(t, limit.End(&step), "features outside the box are ignored")
	assert.True(t, step.Mid())

	step = ts.New(ts.Mid, 0, 1, mat.NewVecDense(4, []float64{0, 0, 1, -0.1}),
		1)
	assert.True(t, limit.End(&step))
	assert.True(t, step.Last())
	assert.Equal(t, ts.OutOfBounds, step.EndType())
	assert.False(t, step.Truncated())

	assert.Panics(t, func() {
		NewIntervalLimit(box.Intervals(), []int{0}, ts.OutOfBounds)
	})
}
