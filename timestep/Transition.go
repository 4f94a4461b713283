package timestep

import (
	"gonum.org/v1/gonum/mat"
)

// Transition packages together a single transition of the
// agent-environment interaction: taking action A in state S, repeating
// it for the catalog entry at index Skip, and observing the reward and
// next state. Transitions are immutable once created and are owned by
// whichever buffer they are added to.
//
// Action is stored as a one-hot vector over the environment's discrete
// actions so that batches of transitions can be used directly to mask
// action values in a computational graph. Skip is an index into the
// repeat-duration catalog, not the number of frames the action was
// held for.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	NextState mat.Vector
	Terminal  bool
	Skip      int
}

// NewTransition returns the transition between timesteps step and
// nextStep, where the one-hot action was repeated for the duration at
// catalog index skip.
func NewTransition(step TimeStep, action mat.Vector, nextStep TimeStep,
	skip int) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		NextState: nextStep.Observation,
		Terminal:  nextStep.Last(),
		Skip:      skip,
	}
}
