// Package checkpointer implements Checkpointers, which save the state
// of serializable objects periodically during an experiment
package checkpointer

import (
	ts "github.com/samuelfneumann/goskip/timestep"
)

// Serializable is an object whose current state can be saved to a file
type Serializable interface {
	Save(filename string) error
}

// Checkpointer checkpoints/saves Serializable objects based on
// timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}
