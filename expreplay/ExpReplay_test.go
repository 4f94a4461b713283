package expreplay

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goskip/timestep"
)

// transitionWith returns a transition whose state entries all equal
// id, so that sampled rows can be traced back to the transition they
// came from.
func transitionWith(id float64, features, actions int) timestep.Transition {
	state := make([]float64, features)
	nextState := make([]float64, features)
	for i := range state {
		state[i] = id
		nextState[i] = id + 0.5
	}

	action := make([]float64, actions)
	action[0] = 1.0

	return timestep.Transition{
		State:     mat.NewVecDense(features, state),
		Action:    mat.NewVecDense(actions, action),
		Reward:    id,
		NextState: mat.NewVecDense(features, nextState),
		Terminal:  false,
		Skip:      int(id) % 3,
	}
}

// storedIDs samples every stored transition and returns the set of
// state ids found.
func storedIDs(t *testing.T, c ExperienceReplayer, features int) map[float64]int {
	state, _, _, _, _, _, err := c.Sample()
	require.NoError(t, err)

	ids := make(map[float64]int)
	for i := 0; i < c.BatchSize(); i++ {
		ids[state[i*features]]++
	}
	return ids
}

// TestFIFOEviction appends past capacity and checks that exactly the
// most recent transitions are retained, oldest evicted first.
func TestFIFOEviction(t *testing.T) {
	const features, actions = 4, 2

	// Sample size equal to capacity so that Sample() reveals the full
	// contents.
	buffer, err := New(3, 3, features, actions, 42)
	require.NoError(t, err)

	// A=1, B=2, C=3, D=4
	for id := 1.0; id <= 4.0; id++ {
		require.NoError(t, buffer.Add(transitionWith(id, features, actions)))
	}
	require.Equal(t, 3, buffer.Capacity())

	ids := storedIDs(t, buffer, features)
	require.Len(t, ids, 3)
	require.Contains(t, ids, 2.0)
	require.Contains(t, ids, 3.0)
	require.Contains(t, ids, 4.0)
	require.NotContains(t, ids, 1.0)

	// One more append should now evict B, the oldest remaining
	require.NoError(t, buffer.Add(transitionWith(5.0, features, actions)))
	ids = storedIDs(t, buffer, features)
	require.NotContains(t, ids, 2.0)
	require.Contains(t, ids, 5.0)
}

// TestSampleDistinct checks that a sampled batch holds distinct
// transitions drawn from the current contents.
func TestSampleDistinct(t *testing.T) {
	const features, actions = 3, 2

	buffer, err := New(10, 5, features, actions, 42)
	require.NoError(t, err)

	for id := 1.0; id <= 8.0; id++ {
		require.NoError(t, buffer.Add(transitionWith(id, features, actions)))
	}

	for trial := 0; trial < 25; trial++ {
		state, action, reward, terminal, nextState, skip, err := buffer.Sample()
		require.NoError(t, err)
		require.Len(t, state, 5*features)
		require.Len(t, action, 5*actions)
		require.Len(t, reward, 5)
		require.Len(t, terminal, 5)
		require.Len(t, nextState, 5*features)
		require.Len(t, skip, 5)

		seen := make(map[float64]bool)
		for i := 0; i < 5; i++ {
			id := state[i*features]
			require.False(t, seen[id], "transition %v sampled twice", id)
			require.GreaterOrEqual(t, id, 1.0)
			require.LessOrEqual(t, id, 8.0)
			seen[id] = true

			// Rows must stay aligned across the returned slices
			require.Equal(t, id, reward[i])
			require.Equal(t, id+0.5, nextState[i*features])
			require.Equal(t, int(id)%3, skip[i])
		}
	}

	// Sampling must not have altered the stored count
	require.Equal(t, 8, buffer.Capacity())
}

// TestSampleEmpty ensures sampling an empty buffer fails fast with a
// recognizable error.
func TestSampleEmpty(t *testing.T) {
	buffer, err := New(4, 2, 3, 2, 42)
	require.NoError(t, err)

	_, _, _, _, _, _, err = buffer.Sample()
	require.Error(t, err)
	require.True(t, IsEmptyBuffer(err))
	require.False(t, IsInsufficientSamples(err))
}

// TestSampleInsufficient ensures sampling fails fast, rather than
// returning a short batch, while the stored count is below the batch
// size.
func TestSampleInsufficient(t *testing.T) {
	const features, actions = 3, 2

	buffer, err := New(8, 4, features, actions, 42)
	require.NoError(t, err)

	for id := 1.0; id <= 3.0; id++ {
		require.NoError(t, buffer.Add(transitionWith(id, features, actions)))

		_, _, _, _, _, _, err := buffer.Sample()
		require.Error(t, err)
		require.True(t, IsInsufficientSamples(err))
		require.False(t, IsEmptyBuffer(err))
	}

	// The fourth add reaches the batch size and sampling succeeds
	require.NoError(t, buffer.Add(transitionWith(4.0, features, actions)))
	_, _, _, _, _, _, err = buffer.Sample()
	require.NoError(t, err)
}

// TestAddValidatesSizes ensures transitions with mismatched vector
// sizes are rejected.
func TestAddValidatesSizes(t *testing.T) {
	buffer, err := New(4, 2, 3, 2, 42)
	require.NoError(t, err)

	wrongState := transitionWith(1.0, 5, 2)
	require.Error(t, buffer.Add(wrongState))

	wrongAction := transitionWith(1.0, 3, 4)
	require.Error(t, buffer.Add(wrongAction))
}

// TestNewValidates ensures invalid constructions are rejected.
func TestNewValidates(t *testing.T) {
	_, err := New(0, 1, 3, 2, 42)
	require.Error(t, err)

	_, err = New(4, 0, 3, 2, 42)
	require.Error(t, err)

	_, err = New(4, 5, 3, 2, 42)
	require.Error(t, err, "batch size above capacity must be rejected")

	_, err = New(4, 2, 0, 2, 42)
	require.Error(t, err)

	_, err = New(4, 2, 3, 0, 42)
	require.Error(t, err)
}

// TestTerminalStored checks that the terminal flag round-trips as a
// 0/1 indicator.
func TestTerminalStored(t *testing.T) {
	const features, actions = 2, 2

	buffer, err := New(2, 2, features, actions, 42)
	require.NoError(t, err)

	terminal := transitionWith(1.0, features, actions)
	terminal.Terminal = true
	require.NoError(t, buffer.Add(terminal))
	require.NoError(t, buffer.Add(transitionWith(2.0, features, actions)))

	state, _, _, terminals, _, _, err := buffer.Sample()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		if state[i*features] == 1.0 {
			require.Equal(t, 1.0, terminals[i])
		} else {
			require.Equal(t, 0.0, terminals[i])
		}
	}
}
