package catch

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/goskip/timestep"
)

// columnStarter starts every episode with the ball in a fixed column
type columnStarter struct {
	col float64
}

func (c columnStarter) Start() mat.Vector {
	return mat.NewVecDense(1, []float64{c.col})
}

// channels returns the red, green, and blue channels of the pixel at
// cell (row, col) of an observation rendered with a cell size of 1.
func channels(obs mat.Vector, cols, row, col int) (float64, float64,
	float64) {
	i := 3 * (row*cols + col)

	return obs.AtVec(i), obs.AtVec(i + 1), obs.AtVec(i + 2)
}

// TestCatchReset checks the rendered starting state: the ball in the
// starter's column on the top row, the paddle in the centre of the
// bottom row, and an empty background.
func TestCatchReset(t *testing.T) {
	catch, err := New(columnStarter{0}, 5, 5, 1, 0.99)
	require.NoError(t, err)

	step, err := catch.Reset()
	require.NoError(t, err)
	require.True(t, step.First())
	require.Equal(t, 5*5*3, step.Observation.Len())

	// Ball at (0, 0) is white
	r, g, b := channels(step.Observation, 5, 0, 0)
	require.Equal(t, []float64{255, 255, 255}, []float64{r, g, b})

	// Paddle at (4, 2) is yellow
	r, g, b = channels(step.Observation, 5, 4, 2)
	require.Equal(t, []float64{255, 255, 0}, []float64{r, g, b})

	// Background is black
	r, g, b = channels(step.Observation, 5, 2, 2)
	require.Equal(t, []float64{0, 0, 0}, []float64{r, g, b})
}

// TestCatchCaught checks that steering the paddle underneath the ball
// ends the episode with a reward of +1.
func TestCatchCaught(t *testing.T) {
	catch, err := New(columnStarter{0}, 3, 3, 1, 0.99)
	require.NoError(t, err)

	_, err = catch.Reset()
	require.NoError(t, err)

	step, done, err := catch.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, 0.0, step.Reward)

	// Ball has fallen to (1, 0)
	r, g, b := channels(step.Observation, 3, 1, 0)
	require.Equal(t, []float64{255, 255, 255}, []float64{r, g, b})

	step, done, err = catch.Step(mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	require.True(t, done)
	require.True(t, step.Last())
	require.Equal(t, CaughtReward, step.Reward)
	require.Equal(t, 2, step.Number)
}

// TestCatchMissed checks that an episode where the paddle is not under
// the ball when it lands ends with a reward of -1.
func TestCatchMissed(t *testing.T) {
	catch, err := New(columnStarter{0}, 3, 3, 1, 0.99)
	require.NoError(t, err)

	_, err = catch.Reset()
	require.NoError(t, err)

	_, _, err = catch.Step(mat.NewVecDense(1, []float64{2}))
	require.NoError(t, err)

	step, done, err := catch.Step(mat.NewVecDense(1, []float64{2}))
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, MissedPenalty, step.Reward)
}

// TestCatchPaddleStaysOnField checks that actions cannot move the
// paddle off the playing field.
func TestCatchPaddleStaysOnField(t *testing.T) {
	catch, err := New(columnStarter{2}, 5, 3, 1, 0.99)
	require.NoError(t, err)

	_, err = catch.Reset()
	require.NoError(t, err)

	// Paddle starts in column 1; repeated left actions pin it to
	// column 0
	left := mat.NewVecDense(1, []float64{0})
	var step ts.TimeStep
	for i := 0; i < 3; i++ {
		step, _, err = catch.Step(left)
		require.NoError(t, err)
	}

	r, g, b := channels(step.Observation, 3, 4, 0)
	require.Equal(t, []float64{255, 255, 0}, []float64{r, g, b})

	r, g, b = channels(step.Observation, 3, 4, 1)
	require.Equal(t, []float64{0, 0, 0}, []float64{r, g, b})
}

// TestCatchCellSize checks that each cell is rendered as a square
// block of cellSize x cellSize pixels.
func TestCatchCellSize(t *testing.T) {
	catch, err := New(columnStarter{0}, 3, 3, 2, 0.99)
	require.NoError(t, err)

	require.Equal(t, 6, catch.Rows())
	require.Equal(t, 6, catch.Cols())

	step, err := catch.Reset()
	require.NoError(t, err)
	require.Equal(t, 6*6*3, step.Observation.Len())

	// All four pixels of the ball's cell are white
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			r, g, b := channels(step.Observation, 6, y, x)
			require.Equal(t, []float64{255, 255, 255}, []float64{r, g, b})
		}
	}

	// The neighbouring cell is empty
	r, g, b := channels(step.Observation, 6, 0, 2)
	require.Equal(t, []float64{0, 0, 0}, []float64{r, g, b})
}

// TestCatchDeterministicUnderSeed checks that two environments with
// the same seed generate identical episodes.
func TestCatchDeterministicUnderSeed(t *testing.T) {
	catch1, err := NewDefault(0.99, 42)
	require.NoError(t, err)
	catch2, err := NewDefault(0.99, 42)
	require.NoError(t, err)

	for episode := 0; episode < 3; episode++ {
		step1, err := catch1.Reset()
		require.NoError(t, err)
		step2, err := catch2.Reset()
		require.NoError(t, err)

		require.True(t, mat.Equal(step1.Observation, step2.Observation))
	}
}

// TestCatchSpecs checks the action and observation specifications.
func TestCatchSpecs(t *testing.T) {
	catch, err := NewDefault(0.99, 14)
	require.NoError(t, err)

	actionSpec := catch.ActionSpec()
	require.Equal(t, 1, actionSpec.Shape.Len())
	require.Equal(t, 0.0, actionSpec.LowerBound.AtVec(0))
	require.Equal(t, 2.0, actionSpec.UpperBound.AtVec(0))

	obsSpec := catch.ObservationSpec()
	require.Equal(t, catch.Rows()*catch.Cols()*3, obsSpec.Shape.Len())
	require.Equal(t, MaxPixel, obsSpec.UpperBound.AtVec(0))
}

// TestCatchIllegalAction checks that out-of-range actions are rejected.
func TestCatchIllegalAction(t *testing.T) {
	catch, err := NewDefault(0.99, 14)
	require.NoError(t, err)

	_, err = catch.Reset()
	require.NoError(t, err)

	_, _, err = catch.Step(mat.NewVecDense(1, []float64{5}))
	require.Error(t, err)
}
