package skipq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/goskip/agent"
	env "github.com/samuelfneumann/goskip/environment"
	"github.com/samuelfneumann/goskip/initwfn"
	"github.com/samuelfneumann/goskip/network"
	"github.com/samuelfneumann/goskip/solver"
)

// flatEnv hides the duration catalog of the environment it wraps so
// that it implements environment.Environment only.
type flatEnv struct {
	env.Environment
}

func testConfigList(t *testing.T) agent.TypedConfigList {
	init, err := initwfn.NewZeroes()
	require.NoError(t, err)

	qSolver, err := solver.NewVanilla(0.1, 2, -1)
	require.NoError(t, err)

	banditSolver, err := solver.NewVanilla(0.1, 2, -1)
	require.NoError(t, err)

	return NewConfigList(
		[][]int{{}},
		[][]bool{{}},
		[][]*network.Activation{{}},
		[]*solver.Solver{qSolver},
		[][]int{{}},
		[][]bool{{}},
		[][]*network.Activation{{}},
		[]*solver.Solver{banditSolver},
		[][]int{{}},
		[][]int{{}},
		[][]int{{}},
		[]*initwfn.InitWFn{init},
		[]float64{0.9, 0.5},
		[]float64{0.05},
		[]float64{0.5},
		[]float64{0.9},
		[]int{4},
		[]int{2},
		[]int{1},
		[]float64{1.0},
	)
}

// TestConfigType checks the registered type of SkipQ configurations.
func TestConfigType(t *testing.T) {
	config := Config{}
	require.Equal(t, agent.EGreedySkipQConv, config.Type())
	require.False(t, config.ValidAgent(nil))
}

// TestConfigListAt checks that individual Config's are materialized
// from the cross product of hyperparameter settings.
func TestConfigListAt(t *testing.T) {
	list := testConfigList(t)
	require.Equal(t, 2, list.Len())
	require.Equal(t, agent.EGreedySkipQConv, list.Type)

	first, ok := list.At(0).(Config)
	require.True(t, ok)
	require.Equal(t, 0.9, first.Epsilon)
	require.NoError(t, first.Validate())

	second, ok := list.At(1).(Config)
	require.True(t, ok)
	require.Equal(t, 0.5, second.Epsilon)

	// Settings with a single value are shared by every Config in the
	// list
	require.Equal(t, first.Gamma, second.Gamma)
	require.Equal(t, first.BatchSize, second.BatchSize)
	require.NotNil(t, second.Solver)
	require.NotNil(t, second.InitWFn)
}

// TestConfigListJSON checks that a typed list of SkipQ configurations
// survives JSON serialization.
func TestConfigListJSON(t *testing.T) {
	list := testConfigList(t)

	data, err := json.Marshal(list)
	require.NoError(t, err)

	var out agent.TypedConfigList
	require.NoError(t, json.Unmarshal(data, &out))

	require.Equal(t, agent.EGreedySkipQConv, out.Type)
	require.Equal(t, list.Len(), out.Len())

	config, ok := out.At(1).(Config)
	require.True(t, ok)
	require.Equal(t, 0.5, config.Epsilon)
	require.Equal(t, 0.9, config.Gamma)
	require.Equal(t, 2, config.BatchSize)
	require.NotNil(t, config.Solver)
	require.NotNil(t, config.InitWFn)
	require.NotNil(t, config.InitWFn.InitWFn())
	require.NoError(t, config.Validate())
}

// TestConfigValidate checks rejection of inconsistent configurations.
func TestConfigValidate(t *testing.T) {
	config := testAgentConfig(t, 1)
	config.Biases = []bool{true}
	require.Error(t, config.Validate())

	config = testAgentConfig(t, 1)
	config.BanditActivations = []*network.Activation{network.ReLU()}
	require.Error(t, config.Validate())

	config = testAgentConfig(t, 1)
	config.Kernels = []int{3}
	require.Error(t, config.Validate())

	config = testAgentConfig(t, 1)
	config.Gamma = 1.5
	require.Error(t, config.Validate())
}

// TestConfigCreateAgent checks that CreateAgent builds a SkipQ agent
// on environments selecting over a repeat-duration catalog, and
// rejects environments that do not.
func TestConfigCreateAgent(t *testing.T) {
	e := newFakeSkipEnv(t)
	config := testAgentConfig(t, 1)

	created, err := config.CreateAgent(e, 14)
	require.NoError(t, err)
	require.True(t, config.ValidAgent(created))

	closer, ok := created.(agent.Closer)
	require.True(t, ok)
	require.NoError(t, closer.Close())

	_, err = config.CreateAgent(flatEnv{e}, 14)
	require.Error(t, err)
}
