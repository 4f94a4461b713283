package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// convLayer implements a single 2D convolutional layer with square
// kernels, no padding, and unit dilation.
type convLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
	kernel  int
	stride  int
}

// newConvLayer adds the weights of a convolutional layer with in input
// channels and filters output channels to the graph g.
func newConvLayer(g *G.ExprGraph, in, filters, kernel, stride int,
	act *Activation, init G.InitWFn, prefix, suffix string) *convLayer {
	weights := G.NewTensor(
		g,
		tensor.Float64,
		4,
		G.WithShape(filters, in, kernel, kernel),
		G.WithName(fmt.Sprintf("%vConvWeights%v", prefix, suffix)),
		G.WithInit(init),
	)
	bias := G.NewTensor(
		g,
		tensor.Float64,
		4,
		G.WithShape(1, filters, 1, 1),
		G.WithName(fmt.Sprintf("%vConvBias%v", prefix, suffix)),
		G.WithInit(G.Zeroes()),
	)

	return &convLayer{
		weights: weights,
		bias:    bias,
		act:     act,
		kernel:  kernel,
		stride:  stride,
	}
}

// fwd adds the forward pass of the convLayer to the computational
// graph. The input x must have shape (batch, channels, rows, cols).
func (c *convLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Conv2d(
		x,
		c.weights,
		tensor.Shape{c.kernel, c.kernel},
		[]int{0, 0},
		[]int{c.stride, c.stride},
		[]int{1, 1},
	)
	if err != nil {
		return nil, fmt.Errorf("fwd: could not convolve: %v", err)
	}

	if c.bias != nil {
		// Broadcast the bias to the batch and spatial dimensions
		x, err = G.BroadcastAdd(x, c.bias, nil, []byte{0, 2, 3})
		if err != nil {
			return nil, fmt.Errorf("fwd: could not add bias: %v", err)
		}
	}

	if c.act == nil || c.act.IsNil() {
		return x, nil
	}
	return c.act.fwd(x)
}

// CloneTo clones a convLayer to a new computational graph
func (c *convLayer) CloneTo(g *G.ExprGraph) Layer {
	var newWeights, newBias *G.Node

	if c.weights != nil {
		newWeights = c.weights.CloneTo(g)
	}
	if c.bias != nil {
		newBias = c.bias.CloneTo(g)
	}

	return &convLayer{
		weights: newWeights,
		bias:    newBias,
		act:     c.act,
		kernel:  c.kernel,
		stride:  c.stride,
	}
}

func (c *convLayer) Activation() *Activation {
	return c.act
}

func (c *convLayer) Bias() *G.Node {
	return c.bias
}

func (c *convLayer) Weights() *G.Node {
	return c.weights
}

// convOut returns the spatial size of a convolution over an input of
// size in, matching the size computed by Gorgonia for an unpadded,
// undilated convolution.
func convOut(in, kernel, stride int) int {
	return (in-kernel)/stride + 1
}

// convMultiHead implements a neural network with a shared
// convolutional feature extractor followed by shared fully connected
// hidden layers and one linear output layer per head. All heads
// predict the same number of values.
//
// Inputs are flattened (channels, rows, cols) frames; the network
// reshapes them internally before convolving. With no convolutional
// layers, the network degenerates to a fully connected multi-head MLP
// over the flattened input.
type convMultiHead struct {
	g      *G.ExprGraph
	conv   []Layer
	hidden []Layer
	heads  []Layer
	input  *G.Node

	rows, cols, depth int
	flatSize          int
	numOutputs        int
	numHeads          int
	batchSize         int

	// Data needed for cloning
	filters, kernels, strides []int
	hiddenSizes               []int
	biases                    []bool
	activations               []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	predictions []*G.Node
	predVals    []G.Value
}

// NewConvMultiHead creates and returns a new convolutional neural
// network with len(heads) output layers, populating the graph g.
//
// Inputs are flattened stacks of depth single-channel frames of size
// rows x cols. The convolutional feature extractor is described by
// filters, kernels, and strides, where layer i has filters[i] output
// channels and a kernels[i] x kernels[i] kernel applied with stride
// strides[i]; every convolutional layer is followed by a ReLU. The
// extracted features feed shared fully connected hidden layers
// (hiddenSizes, biases, activations, as in NewMultiHeadMLP) and
// finally one linear layer per entry of heads, each predicting
// heads[i] values. All entries of heads must be equal.
func NewConvMultiHead(rows, cols, depth, batch int, heads []int,
	g *G.ExprGraph, filters, kernels, strides []int, hiddenSizes []int,
	biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if rows < 1 || cols < 1 || depth < 1 {
		return nil, fmt.Errorf("newconvmultihead: input dimensions must be "+
			"> 0 but got (%v x %v x %v)", depth, rows, cols)
	}
	if len(heads) < 1 {
		return nil, fmt.Errorf("newconvmultihead: at least one output head " +
			"is required")
	}
	for _, size := range heads {
		if size != heads[0] || size < 1 {
			return nil, fmt.Errorf("newconvmultihead: all heads must "+
				"predict the same positive number of values but got %v",
				heads)
		}
	}
	if len(filters) != len(kernels) || len(filters) != len(strides) {
		return nil, fmt.Errorf("newconvmultihead: filters, kernels, and "+
			"strides must have equal lengths \n\thave(%v, %v, %v)",
			len(filters), len(kernels), len(strides))
	}
	if len(hiddenSizes) != len(biases) ||
		len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newconvmultihead: hidden sizes, biases, "+
			"and activations must have equal lengths \n\thave(%v, %v, %v)",
			len(hiddenSizes), len(biases), len(activations))
	}

	// Construct the convolutional feature extractor, tracking the
	// spatial size of its output
	conv := make([]Layer, len(filters))
	outRows, outCols, channels := rows, cols, depth
	for i := range filters {
		if kernels[i] > outRows || kernels[i] > outCols {
			return nil, fmt.Errorf("newconvmultihead: layer %v kernel %v "+
				"exceeds input size (%v x %v)", i, kernels[i], outRows,
				outCols)
		}
		if strides[i] < 1 {
			return nil, fmt.Errorf("newconvmultihead: layer %v stride must "+
				"be > 0 but got %v", i, strides[i])
		}

		conv[i] = newConvLayer(g, channels, filters[i], kernels[i],
			strides[i], ReLU(), init, fmt.Sprintf("L%d", i), "")
		outRows = convOut(outRows, kernels[i], strides[i])
		outCols = convOut(outCols, kernels[i], strides[i])
		channels = filters[i]
	}
	flatSize := channels * outRows * outCols

	hidden := makeFCLayers(g, hiddenSizes, biases, activations, init,
		flatSize, "Hidden", "")

	hiddenOut := flatSize
	if len(hiddenSizes) > 0 {
		hiddenOut = hiddenSizes[len(hiddenSizes)-1]
	}

	headLayers := make([]Layer, len(heads))
	for i, size := range heads {
		headLayers[i] = newFCLayer(g, hiddenOut, size, true, Identity(),
			init, fmt.Sprintf("Head%d", i), "")
	}

	features := depth * rows * cols
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	network := convMultiHead{
		g:           g,
		conv:        conv,
		hidden:      hidden,
		heads:       headLayers,
		input:       input,
		rows:        rows,
		cols:        cols,
		depth:       depth,
		flatSize:    flatSize,
		numOutputs:  heads[0],
		numHeads:    len(heads),
		batchSize:   batch,
		filters:     filters,
		kernels:     kernels,
		strides:     strides,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newconvmultihead: could not compute "+
			"forward pass: %v", err)
	}

	return &network, nil
}

// Graph returns the computational graph of the convMultiHead
func (c *convMultiHead) Graph() *G.ExprGraph {
	return c.g
}

// Clone clones a convMultiHead
func (c *convMultiHead) Clone() (NeuralNet, error) {
	return c.CloneWithBatch(c.batchSize)
}

// CloneWithBatch clones a convMultiHead into a new graph with a new
// input batch size.
func (c *convMultiHead) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()

	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, c.depth*c.rows*c.cols),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	conv := make([]Layer, len(c.conv))
	for i := range c.conv {
		conv[i] = c.conv[i].CloneTo(graph)
	}
	hidden := make([]Layer, len(c.hidden))
	for i := range c.hidden {
		hidden[i] = c.hidden[i].CloneTo(graph)
	}
	heads := make([]Layer, len(c.heads))
	for i := range c.heads {
		heads[i] = c.heads[i].CloneTo(graph)
	}

	network := convMultiHead{
		g:           graph,
		conv:        conv,
		hidden:      hidden,
		heads:       heads,
		input:       input,
		rows:        c.rows,
		cols:        c.cols,
		depth:       c.depth,
		flatSize:    c.flatSize,
		numOutputs:  c.numOutputs,
		numHeads:    c.numHeads,
		batchSize:   batchSize,
		filters:     c.filters,
		kernels:     c.kernels,
		strides:     c.strides,
		hiddenSizes: c.hiddenSizes,
		biases:      c.biases,
		activations: c.activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute "+
			"forward pass: %v", err)
	}

	return &network, nil
}

// BatchSize returns the number of input rows per forward pass
func (c *convMultiHead) BatchSize() int {
	return c.batchSize
}

// Features returns the number of features in a single flattened input
// frame stack.
func (c *convMultiHead) Features() int {
	return c.depth * c.rows * c.cols
}

// Outputs returns the number of values each head predicts
func (c *convMultiHead) Outputs() int {
	return c.numOutputs
}

// OutputLayers returns the number of output heads
func (c *convMultiHead) OutputLayers() int {
	return c.numHeads
}

// SetInput sets the value of the input node before running the forward
// pass.
func (c *convMultiHead) SetInput(input []float64) error {
	if len(input) != c.Features()*c.batchSize {
		msg := fmt.Sprintf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", c.Features()*c.batchSize, len(input))
		panic(msg)
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(c.input.Shape()...),
	)
	return G.Let(c.input, inputTensor)
}

// Set sets the weights of a convMultiHead to be equal to the weights
// of another architecturally identical NeuralNet. Weight values are
// copied, so later updates to the source network leave the copies
// untouched.
func (c *convMultiHead) Set(source NeuralNet) error {
	return setWeights(c, source)
}

// Learnables returns the learnable nodes in a convMultiHead
func (c *convMultiHead) Learnables() G.Nodes {
	// Lazy instantiation
	if c.learnables == nil {
		layers := make([]Layer, 0,
			len(c.conv)+len(c.hidden)+len(c.heads))
		layers = append(layers, c.conv...)
		layers = append(layers, c.hidden...)
		layers = append(layers, c.heads...)
		c.learnables = layerLearnables(layers)
	}
	return c.learnables
}

// Model returns the learnable nodes with their gradients.
func (c *convMultiHead) Model() []G.ValueGrad {
	// Lazy instantiation
	if c.model == nil {
		c.model = layerModel(c.Learnables())
	}
	return c.model
}

// fwd performs the forward pass of the convMultiHead on the input node
func (c *convMultiHead) fwd(input *G.Node) error {
	x := input
	var err error

	if len(c.conv) > 0 {
		x, err = G.Reshape(input, tensor.Shape{c.batchSize, c.depth, c.rows,
			c.cols})
		if err != nil {
			return fmt.Errorf("fwd: could not stack input frames: %v", err)
		}

		for i, l := range c.conv {
			if x, err = l.fwd(x); err != nil {
				return fmt.Errorf("fwd: could not compute forward pass of "+
					"convolutional layer %v: %v", i, err)
			}
		}

		x, err = G.Reshape(x, tensor.Shape{c.batchSize, c.flatSize})
		if err != nil {
			return fmt.Errorf("fwd: could not flatten features: %v", err)
		}
	}

	for i, l := range c.hidden {
		if x, err = l.fwd(x); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"hidden layer %v: %v", i, err)
		}
	}

	c.predictions = make([]*G.Node, len(c.heads))
	c.predVals = make([]G.Value, len(c.heads))
	for i, head := range c.heads {
		pred, err := head.fwd(x)
		if err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"head %v: %v", i, err)
		}
		c.predictions[i] = pred
		G.Read(pred, &c.predVals[i])
	}

	return nil
}

// Output returns the values predicted by each head on the last run of
// the network's graph.
func (c *convMultiHead) Output() []G.Value {
	return c.predVals
}

// Prediction returns the nodes of the computational graph that store
// the output of each head.
func (c *convMultiHead) Prediction() []*G.Node {
	return c.predictions
}
