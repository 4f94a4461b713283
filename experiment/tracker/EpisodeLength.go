package tracker

import (
	ts "github.com/samuelfneumann/goskip/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment. Lengths are measured in environmental frames: for
// environments which repeat an action over multiple frames, every
// executed frame counts towards the episode length, so the recorded
// length is at least as large as the number of decisions the agent
// made in the episode.
//
// Note: An episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// length will not be saved.
type EpisodeLength struct {
	currentFrames  int
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) Tracker {
	return &EpisodeLength{filename: filename}
}

// Track accumulates the frames consumed by each timestep in the
// current episode and caches the total once the last timestep of the
// episode is seen.
func (e *EpisodeLength) Track(t ts.TimeStep) {
	if t.First() {
		// No frames were executed to produce the starting observation
		e.currentFrames = 0
		return
	}

	e.currentFrames += t.Frames

	if t.Last() {
		e.episodeLengths = append(e.episodeLengths, float64(e.currentFrames))
		e.currentFrames = 0
	}
}

// Save saves the data tracked by the EpisodeLength Tracker to disk.
func (e *EpisodeLength) Save() {
	saveData(e.filename, e.episodeLengths)
}
