package pong

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goskip/environment"
	ts "github.com/samuelfneumann/goskip/timestep"
)

// serveStarter serves every episode with a fixed ball angle and height
type serveStarter struct {
	angle  float64
	height float64
}

func (s serveStarter) Start() mat.Vector {
	return mat.NewVecDense(2, []float64{s.angle, s.height})
}

// straightServe returns a Pong environment that serves the ball
// horizontally at the paddle's starting height.
func straightServe(t *testing.T, episodeSteps int) *Pong {
	height := ViewportH / Scale / 2.0

	pong, err := New(serveStarter{0.0, height},
		env.NewStepLimit(episodeSteps), 0.99)
	require.NoError(t, err)

	return pong
}

var (
	down = mat.NewVecDense(1, []float64{0})
	stay = mat.NewVecDense(1, []float64{1})
	up   = mat.NewVecDense(1, []float64{2})
)

// TestPongReset checks the starting state of the court.
func TestPongReset(t *testing.T) {
	pong := straightServe(t, 1000)

	step, err := pong.Reset()
	require.NoError(t, err)
	require.True(t, step.First())
	require.Equal(t, 64*64*3, step.Observation.Len())

	// The ball is rendered at the centre of the court
	i := 3 * (32*64 + 32)
	require.Equal(t, 255.0, step.Observation.AtVec(i))
}

// TestPongBallAdvances checks that a horizontal serve moves the ball
// toward the paddle at constant height.
func TestPongBallAdvances(t *testing.T) {
	pong := straightServe(t, 1000)

	_, err := pong.Reset()
	require.NoError(t, err)

	startPos := pong.Ball().GetPosition()
	lastX := startPos.X
	for i := 0; i < 10; i++ {
		_, done, err := pong.Step(stay)
		require.NoError(t, err)
		require.False(t, done)

		pos := pong.Ball().GetPosition()
		require.Greater(t, pos.X, lastX)
		require.InDelta(t, startPos.Y, pos.Y, 1e-6)
		lastX = pos.X
	}
}

// TestPongPaddleMoves checks paddle motion and its court bounds.
func TestPongPaddleMoves(t *testing.T) {
	pong := straightServe(t, 1000)

	_, err := pong.Reset()
	require.NoError(t, err)
	startY := pong.Paddle().GetPosition().Y

	_, _, err = pong.Step(up)
	require.NoError(t, err)
	require.Greater(t, pong.Paddle().GetPosition().Y, startY)

	_, _, err = pong.Step(down)
	require.NoError(t, err)
	require.InDelta(t, startY, pong.Paddle().GetPosition().Y, 1e-6)

	// The paddle cannot leave the court
	for i := 0; i < 200; i++ {
		_, done, err := pong.Step(up)
		require.NoError(t, err)
		if done {
			break
		}
	}
	maxY := ViewportH/Scale - PaddleHalfHeight
	require.LessOrEqual(t, pong.Paddle().GetPosition().Y, maxY+1e-9)
}

// TestPongRebound checks that the paddle rebounds a straight serve for
// a reward of +1 without ending the episode.
func TestPongRebound(t *testing.T) {
	pong := straightServe(t, 1000)

	_, err := pong.Reset()
	require.NoError(t, err)

	rebounded := false
	for i := 0; i < 100; i++ {
		step, done, err := pong.Step(stay)
		require.NoError(t, err)
		require.False(t, done)

		if step.Reward != 0 {
			require.Equal(t, HitReward, step.Reward)
			rebounded = true
			break
		}
	}
	require.True(t, rebounded)

	// The rebound reversed the ball's horizontal direction
	require.Less(t, pong.Ball().GetLinearVelocity().X, 0.0)
}

// TestPongMissEndsEpisode checks that the episode ends with a reward
// of -1 when the ball gets past the paddle.
func TestPongMissEndsEpisode(t *testing.T) {
	pong := straightServe(t, 1000)

	_, err := pong.Reset()
	require.NoError(t, err)

	// Moving the paddle to the top of the court lets the straight
	// serve through
	var step ts.TimeStep
	done := false
	for i := 0; i < 100 && !done; i++ {
		step, done, err = pong.Step(up)
		require.NoError(t, err)
	}

	require.True(t, done)
	require.True(t, step.Last())
	require.Equal(t, MissPenalty, step.Reward)
}

// TestPongStepLimit checks that the environment Ender bounds episode
// length.
func TestPongStepLimit(t *testing.T) {
	pong := straightServe(t, 5)

	_, err := pong.Reset()
	require.NoError(t, err)

	var step ts.TimeStep
	done := false
	steps := 0
	for !done {
		step, done, err = pong.Step(stay)
		require.NoError(t, err)
		steps++
		require.LessOrEqual(t, steps, 5)
	}

	require.True(t, step.Last())
	require.Equal(t, 5, step.Number)
}

// TestPongSpecs checks the action and observation specifications.
func TestPongSpecs(t *testing.T) {
	pong, err := NewDefault(0.99, 1000, 42)
	require.NoError(t, err)

	actionSpec := pong.ActionSpec()
	require.Equal(t, 1, actionSpec.Shape.Len())
	require.Equal(t, 0.0, actionSpec.LowerBound.AtVec(0))
	require.Equal(t, 2.0, actionSpec.UpperBound.AtVec(0))

	require.Equal(t, 64, pong.Rows())
	require.Equal(t, 64, pong.Cols())
	require.Equal(t, 64*64*3, pong.ObservationSpec().Shape.Len())
}
