package skipq

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSkipQSaveWritesWeights checks that Save persists one weight
// slice per learnable of each learner, with the backing sizes of the
// learnables.
func TestSkipQSaveWritesWeights(t *testing.T) {
	agent, _ := newTestAgent(t, 1)
	defer agent.Close()

	filename := filepath.Join(t.TempDir(), "weights.bin")
	require.NoError(t, agent.Save(filename))

	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	var check checkpoint
	require.NoError(t, gob.NewDecoder(file).Decode(&check))

	require.Equal(t, len(agent.qTrain.Learnables()), len(check.Policy))
	require.Equal(t, len(agent.skipTrain.Learnables()), len(check.Bandit))

	for i, learnable := range agent.qTrain.Learnables() {
		require.Len(t, check.Policy[i], learnable.Shape().TotalSize())
	}
	for i, learnable := range agent.skipTrain.Learnables() {
		require.Len(t, check.Bandit[i], learnable.Shape().TotalSize())
	}
}
