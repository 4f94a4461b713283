package tracker

import (
	ts "github.com/samuelfneumann/goskip/timestep"
)

// SkipCounter describes agents which count how many times each action
// repeat duration was selected during training. The returned slice is
// indexed by position in the agent's duration catalog.
type SkipCounter interface {
	SkipCounts() []int
}

// SkipCount saves the per-duration selection counts of an agent which
// selects action repeat durations. Unlike other Trackers, SkipCount
// reads no data from timesteps: the counts accumulate inside the
// agent itself, and SkipCount persists them when the experiment is
// saved. The saved data holds one count per duration catalog index.
type SkipCount struct {
	counter  SkipCounter
	filename string
}

// NewSkipCount returns a new SkipCount Tracker which will save the
// selection counts of counter at the specified location filename
func NewSkipCount(filename string, counter SkipCounter) Tracker {
	return &SkipCount{counter: counter, filename: filename}
}

// Track implements the Tracker interface. The timestep argument is
// ignored since selection counts accumulate inside the tracked agent.
func (s *SkipCount) Track(ts.TimeStep) {}

// Save saves the agent's current per-duration selection counts to
// disk.
func (s *SkipCount) Save() {
	counts := s.counter.SkipCounts()

	data := make([]float64, len(counts))
	for i, count := range counts {
		data[i] = float64(count)
	}

	saveData(s.filename, data)
}
