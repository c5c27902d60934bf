package tracker

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	ts "github.com/samuelfneumann/gomanip/timestep"
)

// Reduction summarises the values a diagnostic took over an episode
type Reduction int

const (
	Mean Reduction = iota
	Max
	Final
)

// String implements the fmt.Stringer interface
func (r Reduction) String() string {
	switch r {
	case Mean:
		return "Mean"
	case Max:
		return "Max"
	case Final:
		return "Final"
	}
	return fmt.Sprintf("Reduction(%d)", int(r))
}

// Info tracks a diagnostic of the TimeSteps of each episode and saves
// its per-episode reduction. The diagnostic of the first step of an
// episode is ignored, since no transition led to it.
//
// Steps missing the diagnostic are skipped. An episode none of whose
// steps carry the diagnostic records -Inf under Max and NaN otherwise.
type Info struct {
	key       string
	reduction Reduction
	current   []float64
	episodes  []float64
	filename  string
}

// NewInfo returns a new Info Tracker of the diagnostic key which will
// save its data at the specified location filename
func NewInfo(key string, reduction Reduction, filename string) *Info {
	switch reduction {
	case Mean, Max, Final:
	default:
		panic(fmt.Sprintf("newInfo: unknown reduction %v", reduction))
	}
	return &Info{key: key, reduction: reduction, filename: filename}
}

// NewSuccess returns a Tracker which records 1 for every episode in
// which a step succeeded and 0 otherwise
func NewSuccess(filename string) *Info {
	return NewInfo("success", Max, filename)
}

// Track caches the diagnostic of the timestep, reducing the diagnostics
// of the episode once the episode finishes
func (i *Info) Track(t ts.TimeStep) {
	if !t.First() {
		if value, ok := t.Info[i.key]; ok {
			i.current = append(i.current, value)
		}
	}
	if !t.Last() {
		return
	}

	i.episodes = append(i.episodes, i.reduce())
	i.current = i.current[:0]
}

// reduce reduces the diagnostics of the current episode
func (i *Info) reduce() float64 {
	switch i.reduction {
	case Max:
		if len(i.current) == 0 {
			return math.Inf(-1)
		}
		return floats.Max(i.current)
	case Final:
		if len(i.current) == 0 {
			return math.NaN()
		}
		return i.current[len(i.current)-1]
	}
	return stat.Mean(i.current, nil)
}

// Data returns the per-episode reductions tracked so far
func (i *Info) Data() []float64 {
	return append([]float64(nil), i.episodes...)
}

// Save saves the data tracked by the Info Tracker to disk
func (i *Info) Save() error {
	return Save(i.filename, i.episodes)
}
