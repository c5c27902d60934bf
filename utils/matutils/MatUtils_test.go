package matutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestVecClip(t *testing.T) {
	v := mat.NewVecDense(3, []float64{-2, 0.3, 5})
	VecClip(v, -1, 1)
	assert.Equal(t, []float64{-1, 0.3, 1}, v.RawVector().Data)
}
