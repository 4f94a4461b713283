// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"github.com/samuelfneumann/goskip/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when and how episodes end
type Ender interface {
	// End takes the next timestep in an episode and modifies it
	// in-place to be an episode-ending timestep if the episode should
	// end, returning whether the episode was ended
	End(*timestep.TimeStep) bool
}

// Environment implements a simulated environment
type Environment interface {
	// Reset resets the environment between episodes, returning the
	// first timestep of the new episode
	Reset() (timestep.TimeStep, error)

	// Step takes one environmental step given an action, returning
	// the next timestep and whether that timestep is the last in the
	// episode
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	// CurrentTimeStep returns the last timestep generated by the
	// environment
	CurrentTimeStep() timestep.TimeStep

	ActionSpec() Spec
	ObservationSpec() Spec
	DiscountSpec() Spec
}

// Closer is an Environment holding external resources which must be
// released once the environment is no longer needed
type Closer interface {
	Environment
	Close() error
}

// RowColer is an Environment whose observations are laid out on a
// two-dimensional grid of known geometry
type RowColer interface {
	Environment
	Rows() int
	Cols() int
}
