package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Layer implements a single layer of a neural network, which adds its
// forward pass to a computational graph when fwd is called.
type Layer interface {
	fwd(x *G.Node) (*G.Node, error)

	// CloneTo clones the layer, its weights, and its activation to a
	// new computational graph
	CloneTo(g *G.ExprGraph) Layer

	Weights() *G.Node
	Bias() *G.Node
	Activation() *Activation
}

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newFCLayer adds the weights of a fully connected layer with in
// inputs and out outputs to the graph g. The bias parameter determines
// whether the layer has a bias unit. Weight nodes are named with the
// prefix and suffix so that layer names stay unique within a graph.
func newFCLayer(g *G.ExprGraph, in, out int, bias bool, act *Activation,
	init G.InitWFn, prefix, suffix string) *fcLayer {
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(in, out),
		G.WithName(fmt.Sprintf("%vFCWeights%v", prefix, suffix)),
		G.WithInit(init),
	)

	var biasNode *G.Node
	if bias {
		biasNode = G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, out),
			G.WithName(fmt.Sprintf("%vFCBias%v", prefix, suffix)),
			G.WithInit(G.Zeroes()),
		)
	}

	return &fcLayer{
		weights: weights,
		bias:    biasNode,
		act:     act,
	}
}

// makeFCLayers adds the weights of a sequence of fully connected
// layers to the graph g, returning the layers. The first layer takes
// features inputs, and layer i has sizes[i] outputs. For each layer i,
// biases[i] determines whether the layer has a bias unit and
// activations[i] is the layer's activation function.
func makeFCLayers(g *G.ExprGraph, sizes []int, biases []bool,
	activations []*Activation, init G.InitWFn, features int,
	prefix, suffix string) []Layer {
	layers := make([]Layer, len(sizes))

	in := features
	for i, out := range sizes {
		layers[i] = newFCLayer(g, in, out, biases[i], activations[i], init,
			fmt.Sprintf("%vL%d", prefix, i), suffix)
		in = out
	}
	return layers
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	if f.Weights() != nil {
		x = G.Must(G.Mul(x, f.Weights()))
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.Bias(), nil, []byte{0}))
	}
	if f.Activation() == nil || f.Activation().IsNil() {
		return x, nil
	}
	return f.Activation().fwd(x)
}

// CloneTo clones an fcLayer to a new computational graph
func (f *fcLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if f.Weights() != nil {
		newWeights = f.Weights().CloneTo(g)
	}
	if f.Bias() != nil {
		newBias = f.Bias().CloneTo(g)
	}

	return &fcLayer{
		weights: newWeights,
		bias:    newBias,
		act:     f.act,
	}
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}
