package skipq

import (
	"fmt"
	"reflect"

	"github.com/samuelfneumann/goskip/agent"
	env "github.com/samuelfneumann/goskip/environment"
	"github.com/samuelfneumann/goskip/initwfn"
	"github.com/samuelfneumann/goskip/network"
	"github.com/samuelfneumann/goskip/solver"
)

func init() {
	// Register ConfigList type so that it can be typed using
	// agent.TypedConfigList to help with serialization/deserialization.
	agent.Register(agent.EGreedySkipQConv, ConfigList{})
}

// ConfigList implements a list of Config's in a more efficient manner
// than simply using a slice of Config's.
type ConfigList struct {
	PolicyLayers [][]int                 // Hidden layer sizes in Q net
	Biases       [][]bool                // Whether each layer has a bias
	Activations  [][]*network.Activation // Activation of each layer
	Solver       []*solver.Solver        // Solver for Q net weights

	BanditLayers      [][]int                 // Hidden layer sizes in bandit
	BanditBiases      [][]bool                // Whether each layer has a bias
	BanditActivations [][]*network.Activation // Activation of each layer
	BanditSolver      []*solver.Solver        // Solver for bandit weights

	// Shared convolutional feature extractor description
	Filters [][]int
	Kernels [][]int
	Strides [][]int

	// Initialization algorithm for weights
	InitWFn []*initwfn.InitWFn

	// Exploration schedule shared by both selection rules
	Epsilon      []float64
	EpsilonMin   []float64
	EpsilonDecay []float64

	Gamma []float64 // Discount rate used in update targets

	// Experience replay parameters
	ReplayCapacity []int
	BatchSize      []int

	// Number of gradient steps between target network refreshes
	TargetUpdateInterval []int

	// Largest allowed global L2 norm of the gradients of an update
	MaxGradientNorm []float64
}

// NewConfigList returns a new ConfigList as an agent.TypedConfigList.
// Because the returned value is a TypedList, it can safely be JSON
// serialized and deserialized without specifying what the type of
// the ConfigList is.
func NewConfigList(
	PolicyLayers [][]int,
	Biases [][]bool,
	Activations [][]*network.Activation,
	Solver []*solver.Solver,
	BanditLayers [][]int,
	BanditBiases [][]bool,
	BanditActivations [][]*network.Activation,
	BanditSolver []*solver.Solver,
	Filters [][]int,
	Kernels [][]int,
	Strides [][]int,
	InitWFn []*initwfn.InitWFn,
	Epsilon []float64,
	EpsilonMin []float64,
	EpsilonDecay []float64,
	Gamma []float64,
	ReplayCapacity []int,
	BatchSize []int,
	TargetUpdateInterval []int,
	MaxGradientNorm []float64,
) agent.TypedConfigList {
	configs := ConfigList{
		PolicyLayers:         PolicyLayers,
		Biases:               Biases,
		Activations:          Activations,
		Solver:               Solver,
		BanditLayers:         BanditLayers,
		BanditBiases:         BanditBiases,
		BanditActivations:    BanditActivations,
		BanditSolver:         BanditSolver,
		Filters:              Filters,
		Kernels:              Kernels,
		Strides:              Strides,
		InitWFn:              InitWFn,
		Epsilon:              Epsilon,
		EpsilonMin:           EpsilonMin,
		EpsilonDecay:         EpsilonDecay,
		Gamma:                Gamma,
		ReplayCapacity:       ReplayCapacity,
		BatchSize:            BatchSize,
		TargetUpdateInterval: TargetUpdateInterval,
		MaxGradientNorm:      MaxGradientNorm,
	}

	return agent.NewTypedConfigList(configs)
}

// Type returns the type of Config stored in the list
func (c ConfigList) Type() agent.Type {
	return c.Config().Type()
}

// NumFields returns the number of settable fields in a Config
func (c ConfigList) NumFields() int {
	rValue := reflect.ValueOf(c)
	return rValue.NumField()
}

// Config returns an empty Config of the same type as that stored
// by the ConfigList
func (c ConfigList) Config() agent.Config {
	return Config{}
}

// Len returns the number of Config's in the list
func (c ConfigList) Len() int {
	return len(c.PolicyLayers) * len(c.Biases) * len(c.Activations) *
		len(c.Solver) * len(c.BanditLayers) * len(c.BanditBiases) *
		len(c.BanditActivations) * len(c.BanditSolver) * len(c.Filters) *
		len(c.Kernels) * len(c.Strides) * len(c.InitWFn) * len(c.Epsilon) *
		len(c.EpsilonMin) * len(c.EpsilonDecay) * len(c.Gamma) *
		len(c.ReplayCapacity) * len(c.BatchSize) *
		len(c.TargetUpdateInterval) * len(c.MaxGradientNorm)
}

// Config implements a configuration for a SkipQ agent
type Config struct {
	PolicyLayers []int                 // Hidden layer sizes in Q net
	Biases       []bool                // Whether each layer has a bias
	Activations  []*network.Activation // Activation of each layer
	Solver       *solver.Solver        // Solver for Q net weights

	BanditLayers      []int                 // Hidden layer sizes in bandit
	BanditBiases      []bool                // Whether each layer has a bias
	BanditActivations []*network.Activation // Activation of each layer
	BanditSolver      *solver.Solver        // Solver for bandit weights

	// Shared convolutional feature extractor description. Layer i has
	// Filters[i] output channels and a Kernels[i] x Kernels[i] kernel
	// applied with stride Strides[i].
	Filters []int
	Kernels []int
	Strides []int

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Exploration schedule shared by both selection rules
	Epsilon      float64
	EpsilonMin   float64
	EpsilonDecay float64

	Gamma float64 // Discount rate used in update targets

	// Experience replay parameters
	ReplayCapacity int
	BatchSize      int

	// Number of gradient steps between target network refreshes
	TargetUpdateInterval int

	// Largest allowed global L2 norm of the gradients of an update
	MaxGradientNorm float64
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.EGreedySkipQConv
}

// Validate checks a Config to ensure it is a valid configuration of a
// SkipQ agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("new: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}
	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("new: invalid number of activations\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Activations))
	}

	if len(c.BanditLayers) != len(c.BanditBiases) {
		return fmt.Errorf("new: invalid number of bandit biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.BanditLayers), len(c.BanditBiases))
	}
	if len(c.BanditLayers) != len(c.BanditActivations) {
		return fmt.Errorf("new: invalid number of bandit activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.BanditLayers),
			len(c.BanditActivations))
	}

	if len(c.Filters) != len(c.Kernels) || len(c.Filters) != len(c.Strides) {
		return fmt.Errorf("new: filters, kernels, and strides must have "+
			"equal lengths \n\thave(%v, %v, %v)", len(c.Filters),
			len(c.Kernels), len(c.Strides))
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("new: discount rate must be in [0, 1] \n\thave(%v)",
			c.Gamma)
	}

	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("new: target networks must be updated at positive "+
			"timestep intervals \n\twant(>0) \n\thave(%v)",
			c.TargetUpdateInterval)
	}

	if c.MaxGradientNorm <= 0 {
		return fmt.Errorf("new: max gradient norm must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.MaxGradientNorm)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*SkipQ)
	return ok
}

// CreateAgent creates a new SkipQ agent based on the configuration
func (c Config) CreateAgent(e env.Environment, s uint64) (agent.Agent,
	error) {
	skipEnv, ok := e.(Environment)
	if !ok {
		return nil, fmt.Errorf("createAgent: environment does not select " +
			"over a repeat-duration catalog")
	}

	return New(skipEnv, c, int64(s))
}
