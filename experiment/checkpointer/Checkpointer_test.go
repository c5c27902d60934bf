package checkpointer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gomanip/experiment/tracker"
	ts "github.com/samuelfneumann/gomanip/timestep"
)

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator(0, "data/return", ".bin")
	assert.Equal(t, "data/return1.bin", next())
	assert.Equal(t, "data/return2.bin", next())
}

func TestFileTimer(t *testing.T) {
	name := FileTimer("return", ".bin")()
	assert.True(t, strings.HasPrefix(name, "return-"))
	assert.True(t, strings.HasSuffix(name, ".bin"))
}

func TestNStep(t *testing.T) {
	dir := t.TempDir()
	r := tracker.NewReturn("")
	c := NewNStep(2, r, FilenameEnumerator(0, filepath.Join(dir, "return"),
		".bin"))

	obs := mat.NewVecDense(1, nil)
	steps := []ts.TimeStep{
		ts.New(ts.First, 0, 1, obs, 0),
		ts.New(ts.Mid, 1, 1, obs, 1),
		ts.New(ts.Last, 2, 1, obs, 2),
		ts.New(ts.First, 0, 1, obs, 0),
		ts.New(ts.Mid, 1, 1, obs, 1),
	}
	for _, step := range steps {
		r.Track(step)
		require.NoError(t, c.Checkpoint(step))
	}

	// Only the second of three counted steps is checkpointed
	data, err := tracker.LoadData(filepath.Join(dir, "return1.bin"))
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, data)

	_, err = os.Stat(filepath.Join(dir, "return2.bin"))
	assert.True(t, os.IsNotExist(err))

	assert.Panics(t, func() { NewNStep(0, r, FileTimer("x", ".bin")) })
}
