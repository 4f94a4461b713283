package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// TestConstantCreate ensures that the constant-fill initializers
// produce backing data of the right size and value.
func TestConstantCreate(t *testing.T) {
	zeroes, err := NewZeroes()
	require.NoError(t, err)

	data := zeroes.InitWFn()(tensor.Float64, 2, 3).([]float64)
	require.Len(t, data, 6)
	for _, v := range data {
		require.Equal(t, 0.0, v)
	}

	c, err := NewConstant(3.25)
	require.NoError(t, err)

	data = c.InitWFn()(tensor.Float64, 4).([]float64)
	require.Len(t, data, 4)
	for _, v := range data {
		require.Equal(t, 3.25, v)
	}
}

// TestJSONRoundTrip ensures that an InitWFn can be marshalled to JSON
// and unmarshalled back into an equivalent InitWFn.
func TestJSONRoundTrip(t *testing.T) {
	src, err := NewGlorotU(1.5)
	require.NoError(t, err)

	data, err := json.Marshal(src)
	require.NoError(t, err)

	var dest InitWFn
	require.NoError(t, json.Unmarshal(data, &dest))

	require.Equal(t, GlorotU, dest.Type)
	require.Equal(t, GlorotUConfig{Gain: 1.5}, dest.Config)
	require.NotNil(t, dest.InitWFn())
}

// TestJSONRoundTripGaussian ensures that initializer configurations
// with multiple fields survive a JSON round trip.
func TestJSONRoundTripGaussian(t *testing.T) {
	src, err := NewGaussian(0.5, 2.0)
	require.NoError(t, err)

	data, err := json.Marshal(src)
	require.NoError(t, err)

	var dest InitWFn
	require.NoError(t, json.Unmarshal(data, &dest))

	require.Equal(t, Gaussian, dest.Type)
	require.Equal(t, GaussianConfig{Mean: 0.5, StdDev: 2.0}, dest.Config)
}
