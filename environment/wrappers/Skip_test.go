package wrappers

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goskip/environment"
	"github.com/samuelfneumann/goskip/skips"
)

// skipOver returns a Skip wrapping a fresh fakeEnv, together with the
// base environment. The base environment's red channel encodes
// 100*frame + pixel so that frames are distinguishable in the stacked
// observation.
func skipOver(t *testing.T, rows, cols, terminalAt, numSkips,
	stackSize int) (*Skip, *fakeEnv) {
	base := newFakeEnv(rows, cols, terminalAt)
	base.red = func(step, pixel int) float64 {
		return float64(100*step + pixel)
	}

	catalog, err := skips.New(numSkips)
	require.NoError(t, err)

	wrapper, err := NewSkip(base, catalog, stackSize)
	require.NoError(t, err)

	return wrapper, base
}

// frameAt returns the red channel of pixel p of frame window w within
// a stacked observation of rows x cols RGB frames.
func frameAt(obs mat.Vector, rows, cols, w, p int) float64 {
	frameSize := rows * cols * 3
	return obs.AtVec(w*frameSize + 3*p)
}

// TestSkipResetFillsHistory checks that after Reset the stacked
// observation holds identical copies of the first frame.
func TestSkipResetFillsHistory(t *testing.T) {
	wrapper, _ := skipOver(t, 2, 2, 0, 3, 4)

	step, err := wrapper.Reset()
	require.NoError(t, err)
	require.True(t, step.First())
	require.Equal(t, 4*2*2*3, step.Observation.Len())

	// Frame 0's red channel equals the pixel index
	for w := 0; w < 4; w++ {
		for p := 0; p < 4; p++ {
			require.Equal(t, float64(p),
				frameAt(step.Observation, 2, 2, w, p))
		}
	}
}

// TestSkipWindowChronological checks that after several steps the
// stacked observation holds the most recent frames in chronological
// order, oldest first.
func TestSkipWindowChronological(t *testing.T) {
	wrapper, _ := skipOver(t, 2, 2, 0, 1, 4)

	_, err := wrapper.Reset()
	require.NoError(t, err)

	action := mat.NewVecDense(1, []float64{0})
	var last mat.Vector
	for i := 0; i < 5; i++ {
		step, done, err := wrapper.StepSkip(action, 0)
		require.NoError(t, err)
		require.False(t, done)
		last = step.Observation
	}

	// After 5 single-frame steps the window is frames 2, 3, 4, 5
	for w := 0; w < 4; w++ {
		require.Equal(t, float64(100*(w+2)), frameAt(last, 2, 2, w, 0))
	}
}

// TestSkipRepeatAccumulates checks that a repeated action accumulates
// the rewards of its inner frames and reports how many frames ran.
func TestSkipRepeatAccumulates(t *testing.T) {
	wrapper, base := skipOver(t, 2, 2, 0, 3, 4)

	_, err := wrapper.Reset()
	require.NoError(t, err)

	// Skip index 2 of the catalog [1, 2, 4] runs 4 frames
	action := mat.NewVecDense(1, []float64{1})
	step, done, err := wrapper.StepSkip(action, 2)
	require.NoError(t, err)
	require.False(t, done)

	require.Equal(t, 4.0, step.Reward)
	require.Equal(t, 4, step.Frames)
	require.Equal(t, 4, base.stepCount)
	require.Equal(t, 4, step.Number)

	// The window holds frames 1 through 4
	for w := 0; w < 4; w++ {
		require.Equal(t, float64(100*(w+1)),
			frameAt(step.Observation, 2, 2, w, 0))
	}
}

// TestSkipEarlyTermination checks that no frames execute after the
// episode terminates partway through a repeated action, and that the
// accumulated reward covers only the frames that ran.
func TestSkipEarlyTermination(t *testing.T) {
	wrapper, base := skipOver(t, 2, 2, 2, 5, 4)

	_, err := wrapper.Reset()
	require.NoError(t, err)

	// Skip index 3 of the full catalog requests 8 frames, but the
	// environment terminates on frame 2
	action := mat.NewVecDense(1, []float64{0})
	step, done, err := wrapper.StepSkip(action, 3)
	require.NoError(t, err)

	require.True(t, done)
	require.True(t, step.Last())
	require.Equal(t, 2.0, step.Reward)
	require.Equal(t, 2, step.Frames)
	require.Equal(t, 2, base.stepCount)
}

// TestSkipStepDecodesAction checks that the Environment interface's
// Step decodes 2-dimensional [action, skip index] actions.
func TestSkipStepDecodesAction(t *testing.T) {
	wrapper, base := skipOver(t, 2, 2, 0, 2, 4)

	_, err := wrapper.Reset()
	require.NoError(t, err)

	// Skip index 1 of the catalog [1, 2] runs 2 frames of action 1
	step, done, err := wrapper.Step(mat.NewVecDense(2, []float64{1, 1}))
	require.NoError(t, err)
	require.False(t, done)
	require.Equal(t, 2, step.Frames)
	require.Equal(t, 1.0, base.lastAction)

	// Actions without a skip dimension are rejected
	_, _, err = wrapper.Step(mat.NewVecDense(1, []float64{1}))
	require.Error(t, err)
}

// TestSkipActionSpec checks that the wrapper extends the wrapped
// action space by a skip index dimension.
func TestSkipActionSpec(t *testing.T) {
	wrapper, _ := skipOver(t, 2, 2, 0, 2, 4)

	spec := wrapper.ActionSpec()
	require.Equal(t, environment.Discrete, spec.Cardinality)
	require.Equal(t, 2, spec.Shape.Len())
	require.Equal(t, 0.0, spec.LowerBound.AtVec(0))
	require.Equal(t, 0.0, spec.LowerBound.AtVec(1))
	require.Equal(t, 2.0, spec.UpperBound.AtVec(0))
	require.Equal(t, 1.0, spec.UpperBound.AtVec(1))
}

// TestSkipComposesWithPreprocess checks geometry threading through a
// Preprocess then Skip wrapper chain.
func TestSkipComposesWithPreprocess(t *testing.T) {
	base := newFakeEnv(8, 8, 0)

	processed, err := NewPreprocess(base, 2, 2)
	require.NoError(t, err)

	catalog, err := skips.New(3)
	require.NoError(t, err)

	wrapper, err := NewSkip(processed, catalog, 4)
	require.NoError(t, err)

	require.Equal(t, 2, wrapper.Rows())
	require.Equal(t, 2, wrapper.Cols())
	require.Equal(t, 4, wrapper.StackSize())
	require.Equal(t, catalog, wrapper.Skips())
	require.Equal(t, 4*2*2, wrapper.ObservationSpec().Shape.Len())

	step, err := wrapper.Reset()
	require.NoError(t, err)
	require.Equal(t, 16, step.Observation.Len())
}

// TestNewSkipValidates ensures invalid wrapper configurations are
// rejected.
func TestNewSkipValidates(t *testing.T) {
	catalog, err := skips.New(3)
	require.NoError(t, err)

	_, err = NewSkip(nil, catalog, 4)
	require.Error(t, err)

	_, err = NewSkip(newFakeEnv(2, 2, 0), nil, 4)
	require.Error(t, err)

	_, err = NewSkip(newFakeEnv(2, 2, 0), catalog, 0)
	require.Error(t, err)
}
