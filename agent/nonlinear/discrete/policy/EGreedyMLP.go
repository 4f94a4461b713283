// Package policy implements selection rules over function
// approximators using Gorgonia. Policies in this package do not own
// VMs of their own. An external VM should be used to run the
// computational graph of each policy before an action is selected.
package policy

import (
	"fmt"
	"math/rand"

	"github.com/samuelfneumann/goskip/network"
	"github.com/samuelfneumann/goskip/utils/floatutils"
)

// MultiHeadEGreedyMLP implements an epsilon greedy policy over the
// action values produced by a neural network function approximator.
// Given an environment with N actions, the network must produce N
// outputs, each predicting the value of a distinct action.
//
// MultiHeadEGreedyMLP does not have a vm of its own. An external VM
// should be used to run the computational graph of the policy. The VM
// should always be run before selecting an action with the policy.
//
// For example, given an observation vector obs, we should first call
// the SetInput() function to set the input to the policy as this
// observation. Then, we can run the VM to get a prediction from the
// policy. The policy will predict N action values given N actions.
// At this point, the Select() function can be called which will look
// through these action values and select one based on the policy. The
// way to get an action from the policy is summarized as:
//
//	Set up VM with policy's graph:	vm = NewVM(policy.Graph())
//	Get state observation vector:	obs
//	Set input to policy's network:	policy.SetInput(obs)
//	Predict the action values:		vm.RunAll()
//	Select an action:				action, _ = policy.Select(ε)
//
// The policy holds no exploration rate of its own. The caller owns the
// exploration rate and passes it explicitly on each call to Select,
// together with an injected random number generator at construction
// time, so that action selection is deterministic given a fixed seed.
type MultiHeadEGreedyMLP struct {
	network.NeuralNet
	rng *rand.Rand
}

// NewMultiHeadEGreedyMLP creates and returns a new MultiHeadEGreedyMLP
// which selects actions based on the action values predicted by net.
// The network may be any function approximator with a single
// prediction head, such as an MLP or a convolutional network over
// stacked frames.
func NewMultiHeadEGreedyMLP(net network.NeuralNet,
	rng *rand.Rand) (*MultiHeadEGreedyMLP, error) {
	if net == nil {
		return nil, fmt.Errorf("newMultiHeadEGreedyMLP: no function " +
			"approximator to select actions with")
	}
	if heads := net.OutputLayers(); heads != 1 {
		msg := "newMultiHeadEGreedyMLP: egreedy policy expects function " +
			"approximator to output a single prediction node " +
			"\n\twant(1) \n\thave(%v)"
		return nil, fmt.Errorf(msg, heads)
	}
	if rng == nil {
		return nil, fmt.Errorf("newMultiHeadEGreedyMLP: no random " +
			"number generator to select actions with")
	}

	return &MultiHeadEGreedyMLP{NeuralNet: net, rng: rng}, nil
}

// Network returns the neural network function approximator that the
// policy uses.
func (e *MultiHeadEGreedyMLP) Network() network.NeuralNet {
	return e.NeuralNet
}

// Select returns the index of an action selected according to the
// action values generated from the last run of the policy's
// computational graph. With probability epsilon a random action index
// is returned. Otherwise, the index of a maximum valued action is
// returned, with ties broken randomly.
func (e *MultiHeadEGreedyMLP) Select(epsilon float64) (int, error) {
	out := e.Output()
	if out == nil || out[0] == nil {
		return 0, fmt.Errorf("select: vm must be run before selecting " +
			"an action")
	}

	// Get the action values from the last run of the computational
	// graph
	actionValues := out[0].Data().([]float64)

	// With probability epsilon return a random action
	if probability := e.rng.Float64(); probability < epsilon {
		return e.rng.Intn(len(actionValues)), nil
	}

	// Get the actions of maximum value
	_, maxIndices := floatutils.MaxSlice(actionValues)

	// If multiple actions have max value, return a random max-valued
	// action
	return maxIndices[e.rng.Intn(len(maxIndices))], nil
}
