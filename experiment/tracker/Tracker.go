// Package tracker implements Trackers, which track and save data in an
// experiment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/gomanip/timestep"
)

// Interface Tracker keeps track of experiment data and saves the data
// after the experiment has finished. Trackers record one value per
// finished episode. An episode must finish for a Tracker to record its
// data: if the last episode in an experiment does not finish, nothing
// is recorded for it.
type Tracker interface {
	Track(t ts.TimeStep)

	// Data returns the values recorded so far, one per finished episode
	Data() []float64

	// Save saves the recorded data to disk
	Save() error
}

// Save saves data to filename so that it can be loaded with LoadData
func Save(filename string, data []float64) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %w", err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %w", err)
	}
	return file.Close()
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %w", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %w", err)
	}
	return data, nil
}
