package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// multiHeadMLP implements a multi-layered perceptron with one output
// node per value that should be predicted, e.g. one action value per
// environmental action.
type multiHeadMLP struct {
	g      *G.ExprGraph
	layers []Layer
	input  *G.Node

	numOutputs int
	numInputs  int
	batchSize  int

	// Data needed for cloning
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMultiHeadMLP creates and returns a new multi-layered perceptron
// with outputs output nodes, populating the graph g with the network.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1: a final
// linear layer with a bias unit and no activation is always added so
// that the network predicts outputs values for any input. For index i,
// hiddenSizes[i] is the number of nodes in hidden layer i; biases[i]
// is true if hidden layer i has a bias unit; and activations[i] is the
// activation function of hidden layer i. The init parameter determines
// the weight initialization scheme.
//
// Setting hiddenSizes, biases, and activations to empty slices yields
// a linear network.
func NewMultiHeadMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if features < 1 {
		return nil, fmt.Errorf("newmultiheadmlp: features must be > 0 "+
			"but got %v", features)
	}
	if len(hiddenSizes) != len(activations) {
		msg := "newmultiheadmlp: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newmultiheadmlp: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	// A final linear layer ensures that the output heads are predicted
	// by the network
	sizes := make([]int, len(hiddenSizes), len(hiddenSizes)+1)
	copy(sizes, hiddenSizes)
	sizes = append(sizes, outputs)
	layerBiases := make([]bool, len(biases), len(biases)+1)
	copy(layerBiases, biases)
	layerBiases = append(layerBiases, true)
	layerActivations := make([]*Activation, len(activations),
		len(activations)+1)
	copy(layerActivations, activations)
	layerActivations = append(layerActivations, Identity())

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	layers := makeFCLayers(g, sizes, layerBiases, layerActivations, init,
		features, "", "")

	network := multiHeadMLP{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: sizes,
		biases:      layerBiases,
		activations: layerActivations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newmultiheadmlp: could not compute "+
			"forward pass: %v", err)
	}

	return &network, nil
}

// Graph returns the computational graph of the multiHeadMLP.
func (e *multiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones a multiHeadMLP
func (e *multiHeadMLP) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones a multiHeadMLP into a new graph with a new
// input batch size.
func (e *multiHeadMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()

	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	layers := make([]Layer, len(e.layers))
	for i := range e.layers {
		layers[i] = e.layers[i].CloneTo(graph)
	}

	network := multiHeadMLP{
		g:           graph,
		layers:      layers,
		input:       input,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute "+
			"forward pass: %v", err)
	}

	return &network, nil
}

// BatchSize returns the number of input rows per forward pass
func (e *multiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (e *multiHeadMLP) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *multiHeadMLP) Outputs() int {
	return e.numOutputs
}

// OutputLayers returns the number of output layers of the network
func (e *multiHeadMLP) OutputLayers() int {
	return len(e.Prediction())
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *multiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		msg := fmt.Sprintf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
		panic(msg)
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of a multiHeadMLP to be equal to the weights of
// another architecturally identical NeuralNet. Weight values are
// copied, so later updates to the source network leave the copies
// untouched.
func (e *multiHeadMLP) Set(source NeuralNet) error {
	return setWeights(e, source)
}

// Learnables returns the learnable nodes in a multiHeadMLP
func (e *multiHeadMLP) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = layerLearnables(e.layers)
	}
	return e.learnables
}

// Model returns the learnable nodes with their gradients.
func (e *multiHeadMLP) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = layerModel(e.Learnables())
	}
	return e.model
}

// fwd performs the forward pass of the multiHeadMLP on the input node
func (e *multiHeadMLP) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)

	return nil
}

// Output returns the output of the multiHeadMLP from the last run of
// its graph.
func (e *multiHeadMLP) Output() []G.Value {
	return []G.Value{e.predVal}
}

// Prediction returns the node of the computational graph that stores
// the output of the multiHeadMLP
func (e *multiHeadMLP) Prediction() []*G.Node {
	return []*G.Node{e.prediction}
}

// layerLearnables gathers the learnable weight nodes of a sequence of
// layers in a fixed order, so that two clones of the same architecture
// list their learnables identically.
func layerLearnables(layers []Layer) G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(layers))
	for i := range layers {
		learnables = append(learnables, layers[i].Weights())
		if bias := layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return learnables
}

// layerModel converts learnable nodes into the []G.ValueGrad expected
// by solvers.
func layerModel(learnables G.Nodes) []G.ValueGrad {
	model := make([]G.ValueGrad, 0, len(learnables))
	for _, node := range learnables {
		model = append(model, node)
	}
	return model
}

// setWeights overwrites dest's weights with copies of source's. The
// two networks must be architecturally identical so that their
// learnables pair up.
func setWeights(dest, source NeuralNet) error {
	sourceNodes := source.Learnables()
	destNodes := dest.Learnables()
	if len(sourceNodes) != len(destNodes) {
		return fmt.Errorf("setweights: differing number of learnables "+
			"\n\twant(%v) \n\thave(%v)", len(destNodes), len(sourceNodes))
	}

	for i, destLearnable := range destNodes {
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)
		err := G.Let(destLearnable, sourceWeights.Clone().(*tensor.Dense))
		if err != nil {
			return fmt.Errorf("setweights: could not set weights: %v", err)
		}
	}
	return nil
}
