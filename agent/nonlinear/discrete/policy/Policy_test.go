package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	exprand "golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goskip/network"
)

// valueNet returns a linear single-head network whose action values
// for the input [1, 1, 1] equal values.
func valueNet(t *testing.T, g *G.ExprGraph, values []float64) network.NeuralNet {
	net, err := network.NewMultiHeadMLP(3, 1, len(values), g, []int{},
		[]bool{}, G.Zeroes(), []*network.Activation{})
	require.NoError(t, err)

	backing := make([]float64, 3*len(values))
	copy(backing, values)
	weights := tensor.New(
		tensor.WithShape(3, len(values)),
		tensor.WithBacking(backing),
	)
	require.NoError(t, G.Let(net.Learnables()[0], weights))

	return net
}

// TestEGreedySelectGreedy checks that with no exploration the policy
// always selects the maximum valued action.
func TestEGreedySelectGreedy(t *testing.T) {
	g := G.NewGraph()
	net := valueNet(t, g, []float64{1.0, 5.0, 3.0, 2.0})

	p, err := NewMultiHeadEGreedyMLP(net, rand.New(rand.NewSource(13)))
	require.NoError(t, err)

	vm := G.NewTapeMachine(p.Graph())
	defer vm.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, p.SetInput([]float64{1, 1, 1}))
		require.NoError(t, vm.RunAll())

		action, err := p.Select(0.0)
		require.NoError(t, err)
		require.Equal(t, 1, action)
		vm.Reset()
	}
}

// TestEGreedySelectExplores checks that with full exploration the
// policy selects more than one distinct action.
func TestEGreedySelectExplores(t *testing.T) {
	g := G.NewGraph()
	net := valueNet(t, g, []float64{1.0, 5.0, 3.0, 2.0})

	p, err := NewMultiHeadEGreedyMLP(net, rand.New(rand.NewSource(13)))
	require.NoError(t, err)

	vm := G.NewTapeMachine(p.Graph())
	defer vm.Close()

	selected := make(map[int]bool)
	for i := 0; i < 100; i++ {
		require.NoError(t, p.SetInput([]float64{1, 1, 1}))
		require.NoError(t, vm.RunAll())

		action, err := p.Select(1.0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, action, 0)
		require.Less(t, action, 4)
		selected[action] = true
		vm.Reset()
	}
	require.Greater(t, len(selected), 1)
}

// TestEGreedySelectRequiresRun ensures selecting an action before the
// VM has run is an error.
func TestEGreedySelectRequiresRun(t *testing.T) {
	g := G.NewGraph()
	net := valueNet(t, g, []float64{1.0, 2.0})

	p, err := NewMultiHeadEGreedyMLP(net, rand.New(rand.NewSource(13)))
	require.NoError(t, err)

	_, err = p.Select(0.0)
	require.Error(t, err)
}

// TestNewMultiHeadEGreedyMLPValidates ensures the policy rejects
// networks with more than one prediction head.
func TestNewMultiHeadEGreedyMLPValidates(t *testing.T) {
	g := G.NewGraph()
	twinHead, err := network.NewConvMultiHead(3, 1, 1, 1, []int{3, 3}, g,
		[]int{}, []int{}, []int{}, []int{}, []bool{}, G.Zeroes(),
		[]*network.Activation{})
	require.NoError(t, err)

	_, err = NewMultiHeadEGreedyMLP(twinHead, rand.New(rand.NewSource(13)))
	require.Error(t, err)

	single := valueNet(t, G.NewGraph(), []float64{1.0, 2.0})
	_, err = NewMultiHeadEGreedyMLP(single, nil)
	require.Error(t, err)
}

// banditNet returns a twin-head linear network whose logits and values
// for the input [1, 1, 1] equal the argument slices.
func banditNet(t *testing.T, g *G.ExprGraph, logits,
	values []float64) network.NeuralNet {
	require.Equal(t, len(logits), len(values))

	net, err := network.NewConvMultiHead(3, 1, 1, 1,
		[]int{len(logits), len(values)}, g, []int{}, []int{}, []int{},
		[]int{}, []bool{}, G.Zeroes(), []*network.Activation{})
	require.NoError(t, err)

	// Learnables are ordered logits head then values head, weights
	// before biases
	learnables := net.Learnables()
	require.Len(t, learnables, 4)

	for i, head := range [][]float64{logits, values} {
		backing := make([]float64, 3*len(head))
		copy(backing, head)
		weights := tensor.New(
			tensor.WithShape(3, len(head)),
			tensor.WithBacking(backing),
		)
		require.NoError(t, G.Let(learnables[2*i], weights))
	}

	return net
}

// TestSkipBanditSelectGreedy checks that with no exploration the
// bandit picks the duration of maximum estimated value, ignoring the
// logits head.
func TestSkipBanditSelectGreedy(t *testing.T) {
	g := G.NewGraph()
	net := banditNet(t, g, []float64{100.0, 0.0, 0.0},
		[]float64{0.0, 0.0, 5.0})

	b, err := NewSkipBandit(net, exprand.New(exprand.NewSource(13)))
	require.NoError(t, err)

	vm := G.NewTapeMachine(b.Graph())
	defer vm.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, b.SetInput([]float64{1, 1, 1}))
		require.NoError(t, vm.RunAll())

		skip, err := b.Select(0.0)
		require.NoError(t, err)
		require.Equal(t, 2, skip)
		vm.Reset()
	}
}

// TestSkipBanditSelectExplores checks that with full exploration the
// bandit samples from the softmax of its logits. The logits place
// essentially all probability mass on the first duration, so sampling
// must return it.
func TestSkipBanditSelectExplores(t *testing.T) {
	g := G.NewGraph()
	net := banditNet(t, g, []float64{100.0, 0.0, 0.0},
		[]float64{0.0, 0.0, 5.0})

	b, err := NewSkipBandit(net, exprand.New(exprand.NewSource(13)))
	require.NoError(t, err)

	vm := G.NewTapeMachine(b.Graph())
	defer vm.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, b.SetInput([]float64{1, 1, 1}))
		require.NoError(t, vm.RunAll())

		skip, err := b.Select(1.0)
		require.NoError(t, err)
		require.Equal(t, 0, skip)
		vm.Reset()
	}
}

// TestNewSkipBanditValidates ensures the bandit rejects networks
// without exactly two prediction heads.
func TestNewSkipBanditValidates(t *testing.T) {
	single := valueNet(t, G.NewGraph(), []float64{1.0, 2.0, 3.0})

	_, err := NewSkipBandit(single, exprand.New(exprand.NewSource(13)))
	require.Error(t, err)
}
