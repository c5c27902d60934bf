package tracker

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/gomanip/timestep"
)

// episode returns the steps of an episode with the argument rewards,
// the first of which is the reward of the first step, and diagnostics
func episode(rewards []float64, info []ts.Info) []ts.TimeStep {
	steps := make([]ts.TimeStep, len(rewards))
	for i, r := range rewards {
		kind := ts.Mid
		if i == 0 {
			kind = ts.First
		} else if i == len(rewards)-1 {
			kind = ts.Last
		}
		steps[i] = ts.New(kind, r, 1, mat.NewVecDense(1, nil), i)
		if info != nil {
			steps[i].Info = info[i]
		}
	}
	return steps
}

func trackAll(t Tracker, episodes ...[]ts.TimeStep) {
	for _, ep := range episodes {
		for _, step := range ep {
			t.Track(step)
		}
	}
}

func TestReturn(t *testing.T) {
	r := NewReturn("")
	trackAll(r,
		episode([]float64{0, 1, 2, 3}, nil),
		episode([]float64{0, 10}, nil),
		episode([]float64{0, 5}, nil)[:1], // Unfinished
	)
	assert.Equal(t, []float64{6, 10}, r.Data())

	assert.Panics(t, func() {
		r.Track(ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, nil), 5))
	})
}

func TestEpisodeLength(t *testing.T) {
	e := NewEpisodeLength("")
	trackAll(e,
		episode([]float64{0, 1, 2, 3}, nil),
		episode([]float64{0, 10}, nil),
	)
	assert.Equal(t, []float64{3, 1}, e.Data())
}

func TestInfo(t *testing.T) {
	info := []ts.Info{
		{"success": 1, "grasp_reward": 100}, // Ignored, first step
		{"success": 0, "grasp_reward": 0.2},
		{"grasp_reward": 0.4},
		{"success": 1, "grasp_reward": 0.6},
	}
	failed := []ts.Info{{}, {"success": 0}, {"success": 0}}

	tests := []struct {
		name    string
		tracker *Info
		want    []float64
	}{
		{"success", NewSuccess(""), []float64{1, 0}},
		{"mean", NewInfo("grasp_reward", Mean, ""), []float64{0.4,
			math.NaN()}},
		{"final", NewInfo("grasp_reward", Final, ""), []float64{0.6,
			math.NaN()}},
		{"max", NewInfo("grasp_reward", Max, ""), []float64{0.6,
			math.Inf(-1)}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			trackAll(test.tracker,
				episode([]float64{0, 0, 0, 0}, info),
				episode([]float64{0, 0, 0}, failed),
			)
			data := test.tracker.Data()
			require.Len(t, data, len(test.want))
			for i := range data {
				if math.IsNaN(test.want[i]) {
					assert.True(t, math.IsNaN(data[i]))
					continue
				}
				assert.InDelta(t, test.want[i], data[i], 1e-12)
			}
		})
	}

	assert.Panics(t, func() { NewInfo("success", Reduction(7), "") })
	assert.Equal(t, "Max", Max.String())
}

func TestSaveLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	r := NewReturn(filename)
	trackAll(r, episode([]float64{0, 1, 2}, nil), episode([]float64{0, 4},
		nil))
	require.NoError(t, r.Save())

	data, err := LoadData(filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, data)

	_, err = LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
	assert.Error(t, Save(filepath.Join(t.TempDir(), "no", "such.bin"), data))
}
