// Package network implements neural network function approximators
// as Gorgonia computational graphs
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network whose forward pass has been
// added to a Gorgonia computational graph. A NeuralNet does not own a
// virtual machine: an external VM should run the network's graph, after
// which the predictions of the last run can be read with Output().
//
// A NeuralNet may have more than one output layer, each predicting
// Outputs() values for every input row. OutputLayers() returns the
// number of such layers, and Output() and Prediction() return one
// element per output layer.
type NeuralNet interface {
	// Graph returns the computational graph the network was built in
	Graph() *G.ExprGraph

	// Clone clones the network into a fresh graph, copying weights
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network into a fresh graph with a new
	// input batch size, copying weights
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of input rows per forward pass
	BatchSize() int

	// Features returns the number of features in a single input row
	Features() int

	// Outputs returns the number of values each output layer predicts
	// for a single input row
	Outputs() int

	// OutputLayers returns the number of output layers
	OutputLayers() int

	// SetInput sets the network input for the next run of the graph
	SetInput([]float64) error

	// Set overwrites the network's weights with those of another,
	// architecturally identical network
	Set(NeuralNet) error

	// Learnables returns the nodes of the graph holding the network's
	// trainable weights
	Learnables() G.Nodes

	// Model returns the trainable weights together with their
	// gradients, for use by a solver
	Model() []G.ValueGrad

	// Output returns the values predicted by the last run of the
	// network's graph, one G.Value per output layer
	Output() []G.Value

	// Prediction returns the graph nodes holding the network's
	// predictions, one per output layer
	Prediction() []*G.Node
}
