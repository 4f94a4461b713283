package experiment

import (
	"fmt"

	"github.com/aunum/log"
	"github.com/samuelfneumann/goskip/agent"
	env "github.com/samuelfneumann/goskip/environment"
	"github.com/samuelfneumann/goskip/experiment/checkpointer"
	"github.com/samuelfneumann/goskip/experiment/tracker"
	ts "github.com/samuelfneumann/goskip/timestep"
	"github.com/samuelfneumann/progressbar"
)

// progressWidth is the character width of the progress bar displayed
// while an experiment runs
const progressWidth int = 40

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps      uint
	currentSteps  uint
	episodes      int
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	progress      *progressbar.ManualProgressBar
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many decision steps the experiment is run for. For environments which
// repeat actions over multiple frames, an experiment of steps decision
// steps consumes more than steps environmental frames. The t parameter
// holds the Trackers which determine what data is saved, and the check
// parameter holds the Checkpointers which periodically save the agent.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t []tracker.Tracker, check []checkpointer.Checkpointer) *Online {
	return &Online{
		Environment:   e,
		Agent:         a,
		maxSteps:      steps,
		trackers:      t,
		checkpointers: check,
	}
}

// Register registers a tracker.Tracker with the Experiment so that
// data generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment, returning
// whether the experiment's decision step limit was reached. Episodes
// which reach the step limit before finishing are left unfinished.
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return true, fmt.Errorf("runEpisode: could not reset "+
			"environment: %v", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		return true, fmt.Errorf("runEpisode: %v", err)
	}
	o.track(step)

	// Run the episode until it finishes or the step limit is reached
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++
		if o.progress != nil {
			o.progress.Increment()
		}

		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return true, fmt.Errorf("runEpisode: could not step "+
				"environment: %v", err)
		}

		// Cache the environmental step in each Tracker and
		// Checkpointer
		o.track(step)
		if err := o.checkpoint(step); err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
		if err := o.Agent.Step(); err != nil {
			return true, fmt.Errorf("runEpisode: %v", err)
		}
	}

	o.Agent.EndEpisode()
	o.episodes++

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps, displaying a
// progress bar on the terminal
func (o *Online) Run() error {
	log.Infof("Starting online experiment: %v decision steps", o.maxSteps)

	o.progress = progressbar.NewManual(progressWidth,
		int(o.maxSteps))
	o.progress.Display()

	ended := false
	for !ended {
		var err error
		ended, err = o.RunEpisode()
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}

		o.progress.Display()
	}
	fmt.Println()

	log.Successf("Online experiment finished: %v decision steps over %v "+
		"episodes", o.currentSteps, o.episodes)

	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint saves the experiment's agent with each Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return fmt.Errorf("checkpoint: could not save agent: %v", err)
		}
	}

	return nil
}
