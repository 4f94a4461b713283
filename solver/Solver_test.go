package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNewSolvers ensures each solver constructor produces a usable
// wrapped Gorgonia solver with the expected type tag.
func TestNewSolvers(t *testing.T) {
	adam, err := NewDefaultAdam(0.001, 32)
	require.NoError(t, err)
	require.Equal(t, Adam, adam.Type)
	require.NotNil(t, adam.Solver)

	vanilla, err := NewVanilla(0.01, 16, -1.0)
	require.NoError(t, err)
	require.Equal(t, Vanilla, vanilla.Type)
	require.NotNil(t, vanilla.Solver)

	rmsprop, err := NewDefaultRMSProp(0.001, 32)
	require.NoError(t, err)
	require.Equal(t, RMSProp, rmsprop.Type)
	require.NotNil(t, rmsprop.Solver)
}

// TestNewRMSPropInvalidEta ensures that unsupported η values are
// rejected.
func TestNewRMSPropInvalidEta(t *testing.T) {
	_, err := NewRMSProp(0.001, 1e-8, 0.5, 0.999, 32, -1.0)
	require.Error(t, err)
}

// TestJSONRoundTrip ensures that a Solver can be marshalled to JSON
// and unmarshalled back into an equivalent Solver.
func TestJSONRoundTrip(t *testing.T) {
	src, err := NewAdam(0.0005, 1e-7, 0.85, 0.995, 64)
	require.NoError(t, err)

	data, err := json.Marshal(src)
	require.NoError(t, err)

	var dest Solver
	require.NoError(t, json.Unmarshal(data, &dest))

	require.Equal(t, Adam, dest.Type)
	require.Equal(t, src.Config.(AdamConfig), dest.Config)
	require.NotNil(t, dest.Solver)
}
