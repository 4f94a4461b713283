package tracker

import (
	"fmt"

	ts "github.com/samuelfneumann/goskip/timestep"
)

// Return tracks and saves the episodic return in an experiment. When
// an environment returns a TimeStep, this Tracker extracts the reward
// and accumulates the return for each episode in the experiment.
//
// Note: If an environment is wrapped by some environment wrapper
// which modifies rewards, then this Tracker tracks the modified
// rewards returned by the wrapping environment. For example, when an
// experiment is run on a wrappers.Skip environment, this Tracker
// tracks the rewards summed over each repeated action, which equal
// the per-frame rewards of the wrapped environment in total.
//
// Note: An episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// return will not be saved.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) Tracker {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track tracks the reward seen on a timestep. By calling this method
// on every timestep, the Tracker stores the cumulative reward for each
// episode as the episodic return. When a new episode starts, this
// method automatically detects this and starts accumulating the
// rewards for the new episode separately from the rewards seen on
// previous episodes.
//
// Timestep numbers must increase within an episode. Environments which
// repeat actions for multiple frames may increase the timestep number
// by more than one per step. Track panics if a timestep arrives out of
// order, since that means an episode boundary was missed.
func (r *Return) Track(step ts.TimeStep) {
	if step.Number <= r.lastTimeStep {
		panic(fmt.Sprintf("track: timestep %v arrived after timestep %v: "+
			"an episode boundary was missed", step.Number, r.lastTimeStep))
	}

	r.currentReturn += step.Reward

	if step.Last() {
		// Episode has ended, cache the return and begin tracking the
		// return of the next episode
		r.episodeReturns = append(r.episodeReturns, r.currentReturn)
		r.currentReturn = 0.0
		r.lastTimeStep = -1
	} else {
		r.lastTimeStep = step.Number
	}
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() {
	saveData(r.filename, r.episodeReturns)
}
