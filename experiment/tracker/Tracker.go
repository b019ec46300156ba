// Package tracker implements functionality for tracking and saving
// data generated during training
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/gorlkit/ddpg/timestep"
)

// Tracker tracks data from training runs and saves it to disk.
// Trackers cache the data they track and only write it to disk when
// Save is called.
type Tracker interface {
	// Track caches the data of a single timestep
	Track(t ts.TimeStep)

	// Save writes all cached data to disk
	Save() error
}

// LoadData reads the data saved by a Tracker from disk
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaddata: could not open file: %v", err)
	}
	defer file.Close()

	var data []float64
	dec := gob.NewDecoder(file)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loaddata: could not decode data: %v", err)
	}

	return data, nil
}
