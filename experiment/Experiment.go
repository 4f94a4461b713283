// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/goskip/agent"
	"github.com/samuelfneumann/goskip/environment/envconfig"
	"github.com/samuelfneumann/goskip/experiment/checkpointer"
	"github.com/samuelfneumann/goskip/experiment/tracker"
	ts "github.com/samuelfneumann/goskip/timestep"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments track environment TimeSteps, caching data from each
// TimeStep in RAM to be later saved to disk. The Save() function
// will then take all cached data and save it to disk. This is usually
// performed after an experiment has been run. The Run() method will
// run all episodes until the maximum timestep limit is reached, or
// some other ending condition is reached. The RunEpisode() function
// will run a single episode.
//
// In order to save data, Experiments use Trackers. Trackers determine
// which data generated during the experiment is saved. Experiments
// send each TimeStep to Trackers using the Tracker's Track() method.
// The Tracker then determines which data from the TimeStep it caches
// and saves. New Trackers can be registered with an Experiment through
// the constructor or through an Experiment's Register() function.
type Experiment interface {
	Run() error

	// RunEpisode runs a single episode, returning whether the
	// experiment's step limit was reached
	RunEpisode() (bool, error)

	// Tracks the current timestep by sending it to each Tracker
	track(ts.TimeStep)

	// Save all tracked data to disk
	Save()

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// Saves the current state of the experiment's agent
	checkpoint(ts.TimeStep) error
}

type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type
	MaxSteps  uint
	EnvConf   envconfig.Config
	AgentConf agent.TypedConfigList
}

// CreateExp creates the Experiment described by the Config, using the
// agent configuration at index i of the Config's agent configuration
// list.
func (c Config) CreateExp(i int, seed uint64, t []tracker.Tracker,
	check []checkpointer.Checkpointer) (Experiment, error) {
	env, _, err := c.EnvConf.CreateEnv(seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create "+
			"environment: %v", err)
	}

	a, err := c.AgentConf.At(i).CreateAgent(env, seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %v", err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, a, c.MaxSteps, t, check), nil
	}

	return nil, fmt.Errorf("createExp: no such experiment type %v", c.Type)
}
