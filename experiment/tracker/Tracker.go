// Package tracker implements Trackers, which track and save data
// generated during an experiment
package tracker

import (
	"encoding/gob"
	"log"
	"os"

	ts "github.com/samuelfneumann/goskip/timestep"
)

// Interface Tracker keeps track of experiment data and saves the data
// after the experiment has finished. An experiment sends every
// environmental timestep to each of its Trackers through the Track()
// method, and each Tracker decides which data from the timestep it
// caches. The Save() method writes all cached data to disk, usually
// once the experiment has finished.
type Tracker interface {
	Track(t ts.TimeStep)
	Save()
}

// saveData gob-encodes data to the file at filename, creating or
// truncating the file
func saveData(filename string, data []float64) {
	file, err := os.Create(filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(data); err != nil {
		log.Fatalf("could not encode tracked data: %v", err)
	}
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) []float64 {
	// Open file
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	// Create the decoder and the variable to store the data in
	dec := gob.NewDecoder(file)
	var data []float64

	// Decode the data
	err = dec.Decode(&data)
	if err != nil {
		log.Fatalf("could not decode data: %v", err)
	}

	return data
}
