package checkpointer

import (
	"fmt"
	"strings"
	"testing"

	ts "github.com/samuelfneumann/goskip/timestep"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// recorder is a Serializable which records the filenames it was asked
// to save to
type recorder struct {
	saves []string
	err   error
}

func (r *recorder) Save(filename string) error {
	if r.err != nil {
		return r.err
	}
	r.saves = append(r.saves, filename)
	return nil
}

// step constructs a timestep consuming the given number of frames
func step(stepType ts.StepType, number, frames int) ts.TimeStep {
	t := ts.New(stepType, 0, 1.0, mat.NewVecDense(1, nil), number)
	t.Frames = frames
	return t
}

func TestNStepCheckpointsEveryNFrames(t *testing.T) {
	object := &recorder{}
	check := NewNStep(4, object, FilenameEnumerator(0, "agent", ".bin"))

	require.NoError(t, check.Checkpoint(step(ts.First, 0, 1)))
	require.NoError(t, check.Checkpoint(step(ts.Mid, 2, 2)))
	require.Empty(t, object.saves)

	// 4 frames have elapsed
	require.NoError(t, check.Checkpoint(step(ts.Mid, 4, 2)))
	require.Equal(t, []string{"agent1.bin"}, object.saves)

	// Frame counting starts over and spans episode boundaries
	require.NoError(t, check.Checkpoint(step(ts.Last, 5, 1)))
	require.NoError(t, check.Checkpoint(step(ts.First, 0, 1)))
	require.NoError(t, check.Checkpoint(step(ts.Mid, 8, 8)))
	require.Equal(t, []string{"agent1.bin", "agent2.bin"}, object.saves)
}

func TestNStepReturnsSaveError(t *testing.T) {
	object := &recorder{err: fmt.Errorf("disk full")}
	check := NewNStep(1, object, FilenameEnumerator(0, "agent", ".bin"))

	require.Error(t, check.Checkpoint(step(ts.Mid, 1, 1)))
}

func TestFilenameEnumerator(t *testing.T) {
	filename := FilenameEnumerator(0, "data/agent", ".bin")

	require.Equal(t, "data/agent1.bin", filename())
	require.Equal(t, "data/agent2.bin", filename())
	require.Equal(t, "data/agent3.bin", filename())
}

func TestFileTimer(t *testing.T) {
	filename := FileTimer("agent", ".bin")

	name := filename()
	require.True(t, strings.HasPrefix(name, "agent-"))
	require.True(t, strings.HasSuffix(name, ".bin"))
	require.Greater(t, len(name), len("agent-.bin"))
}
