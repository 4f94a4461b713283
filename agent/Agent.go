// Package agent defines an agent interface
package agent

import (
	"github.com/samuelfneumann/goskip/network"
	"github.com/samuelfneumann/goskip/timestep"
	"gonum.org/v1/gonum/mat"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns weights, and a Policy
// which chooses actions in each state. The Policy chooses which actions
// are taken, and the Learner uses these actions to update the Policy.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. For a given agent, the
// Policy and Learner should have pointers to the same weights so that
// any changes the learner makes to the weights are reflected in the
// actions the Policy chooses
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Selector chooses among a fixed number of discrete options based on
// the predictions generated by the last run of its network's
// computational graph.
//
// A Selector does not own a VM for its network. An external VM runs
// the network's computational graph, after which Select may be called
// to choose an option index. Selectors hold no exploration state of
// their own: the exploration rate is passed explicitly on each call,
// so that a single caller can own and anneal the rate for many
// selectors. The way to get an option from the Selector is summarized
// as:
//
//	Set up VM with selector's graph:	vm = NewVM(selector.Graph())
//	Get state observation vector:		obs
//	Set input to selector's network:	selector.SetInput(obs)
//	Predict the option scores:			vm.RunAll()
//	Select an option:					index = selector.Select(ε)
type Selector interface {
	network.NeuralNet

	// Select returns the index of the chosen option. The epsilon
	// parameter controls the probability of exploring.
	Select(epsilon float64) (int, error)
}
