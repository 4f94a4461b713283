package policy

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/goskip/network"
	"github.com/samuelfneumann/goskip/utils/floatutils"
)

// SkipBandit implements the selection rule of a contextual bandit
// over action repeat durations. The bandit's network must produce two
// prediction heads over the same duration options: the first head
// outputs logits parameterizing a softmax distribution over durations,
// and the second head outputs a value estimate for each duration.
//
// Like MultiHeadEGreedyMLP, a SkipBandit does not have a vm of its
// own. An external VM should be used to run the computational graph of
// the bandit's network, after which Select() may be called to choose
// a duration index. Exploration samples from the softmax of the logits
// head, while exploitation greedily picks the duration of maximum
// estimated value. The caller owns the exploration rate and passes it
// explicitly on each call to Select.
type SkipBandit struct {
	network.NeuralNet
	rng *rand.Rand
}

// NewSkipBandit creates and returns a new SkipBandit which selects
// action repeat durations based on the predictions of net. The network
// must have exactly two prediction heads of equal size: duration
// logits and duration values.
func NewSkipBandit(net network.NeuralNet, rng *rand.Rand) (*SkipBandit,
	error) {
	if net == nil {
		return nil, fmt.Errorf("newSkipBandit: no function approximator " +
			"to select skips with")
	}
	if heads := net.OutputLayers(); heads != 2 {
		msg := "newSkipBandit: bandit expects function approximator to " +
			"output logits and value prediction nodes \n\twant(2) " +
			"\n\thave(%v)"
		return nil, fmt.Errorf(msg, heads)
	}
	if rng == nil {
		return nil, fmt.Errorf("newSkipBandit: no random number " +
			"generator to select skips with")
	}

	return &SkipBandit{NeuralNet: net, rng: rng}, nil
}

// Network returns the neural network function approximator that the
// bandit uses.
func (b *SkipBandit) Network() network.NeuralNet {
	return b.NeuralNet
}

// Select returns the index of a duration chosen according to the
// logits and values generated from the last run of the bandit's
// computational graph. With probability epsilon, a duration index is
// sampled from the softmax distribution over the bandit's logits.
// Otherwise, the index of a maximum valued duration is returned, with
// ties broken randomly.
func (b *SkipBandit) Select(epsilon float64) (int, error) {
	out := b.Output()
	if out == nil || out[0] == nil || out[1] == nil {
		return 0, fmt.Errorf("select: vm must be run before selecting " +
			"a skip")
	}

	// With probability epsilon sample a skip from the softmax
	// distribution over the bandit's logits
	if probability := b.rng.Float64(); probability < epsilon {
		probs := floatutils.Softmax(out[0].Data().([]float64))
		dist := distuv.NewCategorical(probs, b.rng)
		return int(dist.Rand()), nil
	}

	// Get the skips of maximum estimated value
	values := out[1].Data().([]float64)
	_, maxIndices := floatutils.MaxSlice(values)

	// If multiple skips have max value, return a random max-valued
	// skip
	return maxIndices[b.rng.Intn(len(maxIndices))], nil
}
