package wrappers

import (
	"fmt"

	"github.com/gammazero/deque"
	env "github.com/samuelfneumann/goskip/environment"
	"github.com/samuelfneumann/goskip/skips"
	ts "github.com/samuelfneumann/goskip/timestep"
	"gonum.org/v1/gonum/mat"
)

// DefaultStackSize is the conventional number of consecutive frames
// stacked into a single observation
const DefaultStackSize int = 4

// Skip wraps an environment with action repetition and frame history.
//
// The wrapper extends the wrapped environment's action space by a
// second dimension which selects an action repeat duration from a
// skips.Catalog. A Skip environment therefore takes 2-dimensional
// actions [action, skip index]: the action is fed to the wrapped
// environment for the number of consecutive frames given by the
// catalog duration at the skip index. Rewards earned over the repeated
// frames are summed into the returned timestep, and the timestep's
// Frames field records the number of frames actually executed, which
// is smaller than the requested duration when the episode terminates
// mid-repeat. No further frames execute after a terminal frame.
//
// Observations of a Skip environment are the last stackSize processed
// frames of the wrapped environment, concatenated in chronological
// order (oldest frame first). After Reset, the frame history holds
// stackSize copies of the first frame, so that the observation always
// has a fixed size. The frame history advances by one frame per frame
// executed, regardless of the repeat duration, so the observation
// after a step reflects the most recent frames only.
//
// Skip itself implements the environment.Environment interface and is
// therefore itself an environment.
type Skip struct {
	env.RowColer
	catalog     *skips.Catalog
	stackSize   int
	frameSize   int
	numActions  int
	history     *deque.Deque[[]float64]
	currentStep ts.TimeStep
}

// NewSkip returns a new Skip environment, wrapping an existing
// environment with action repetition from the duration catalog and a
// frame history of the last stackSize frames. The wrapped environment
// must have 1-dimensional discrete actions enumerated from 0.
func NewSkip(e env.RowColer, catalog *skips.Catalog,
	stackSize int) (*Skip, error) {
	if e == nil {
		return nil, fmt.Errorf("newSkip: no environment to wrap")
	}
	if catalog == nil {
		return nil, fmt.Errorf("newSkip: no duration catalog")
	}
	if stackSize < 1 {
		return nil, fmt.Errorf("newSkip: frame history must hold at "+
			"least one frame \n\thave(%v)", stackSize)
	}

	actionSpec := e.ActionSpec()
	if actionSpec.Cardinality != env.Discrete {
		return nil, fmt.Errorf("newSkip: cannot repeat non-discrete actions")
	}
	if actionSpec.LowerBound.Len() > 1 {
		return nil, fmt.Errorf("newSkip: actions must be 1-dimensional")
	}
	if actionSpec.LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("newSkip: actions must be enumerated " +
			"starting from 0")
	}
	numActions := int(actionSpec.UpperBound.AtVec(0)) + 1

	return &Skip{
		RowColer:   e,
		catalog:    catalog,
		stackSize:  stackSize,
		frameSize:  e.ObservationSpec().Shape.Len(),
		numActions: numActions,
		history:    deque.New[[]float64](stackSize),
	}, nil
}

// Skips returns the duration catalog that the wrapper repeats actions
// from
func (s *Skip) Skips() *skips.Catalog {
	return s.catalog
}

// StackSize returns the number of frames concatenated into a single
// observation
func (s *Skip) StackSize() int {
	return s.stackSize
}

// push appends a frame to the history, evicting the oldest frame once
// the history is full
func (s *Skip) push(obs mat.Vector) {
	frame := make([]float64, obs.Len())
	for i := range frame {
		frame[i] = obs.AtVec(i)
	}

	if s.history.Len() == s.stackSize {
		s.history.PopFront()
	}
	s.history.PushBack(frame)
}

// stackedObs concatenates the frame history into a single observation
// vector, oldest frame first
func (s *Skip) stackedObs() *mat.VecDense {
	stacked := make([]float64, s.stackSize*s.frameSize)
	for i := 0; i < s.history.Len(); i++ {
		copy(stacked[i*s.frameSize:(i+1)*s.frameSize], s.history.At(i))
	}

	return mat.NewVecDense(len(stacked), stacked)
}

// Reset resets the environment and fills the frame history with
// stackSize copies of the first frame
func (s *Skip) Reset() (ts.TimeStep, error) {
	step, err := s.RowColer.Reset()
	if err != nil {
		return ts.TimeStep{}, err
	}

	s.history.Clear()
	for i := 0; i < s.stackSize; i++ {
		s.push(step.Observation)
	}

	step.Observation = s.stackedObs()
	s.currentStep = step

	return step, nil
}

// StepSkip repeats action in the wrapped environment for the number of
// frames at index skip of the duration catalog. The returned timestep
// carries the stacked frame history as its observation, the sum of the
// rewards earned over the repeated frames, and the number of frames
// actually executed. If the episode terminates partway through the
// repeat, no further frames execute. Errors of the wrapped environment
// are surfaced unmodified.
func (s *Skip) StepSkip(action *mat.VecDense, skip int) (ts.TimeStep, bool,
	error) {
	duration := s.catalog.Value(skip)

	var step ts.TimeStep
	var last bool
	var err error

	totalReward := 0.0
	frames := 0
	for i := 0; i < duration; i++ {
		step, last, err = s.RowColer.Step(action)
		if err != nil {
			return ts.TimeStep{}, true, err
		}

		totalReward += step.Reward
		frames++
		s.push(step.Observation)

		if last {
			break
		}
	}

	step.Observation = s.stackedObs()
	step.Reward = totalReward
	step.Frames = frames
	s.currentStep = step

	return step, last, nil
}

// Step takes one environmental step given a 2-dimensional action
// [action, skip index], repeating the action for the catalog duration
// at the skip index
func (s *Skip) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if action.Len() != 2 {
		return ts.TimeStep{}, true, fmt.Errorf("step: expected an action "+
			"and a skip index \n\twant(2 dimensions) \n\thave(%v)",
			action.Len())
	}

	baseAction := mat.NewVecDense(1, []float64{action.AtVec(0)})
	return s.StepSkip(baseAction, int(action.AtVec(1)))
}

// CurrentTimeStep returns the current timestep of the environment
func (s *Skip) CurrentTimeStep() ts.TimeStep {
	return s.currentStep
}

// ActionSpec returns the action specification of the environment. The
// first action dimension selects among the wrapped environment's
// actions, and the second selects a skip index into the duration
// catalog.
func (s *Skip) ActionSpec() env.Spec {
	shape := mat.NewVecDense(2, nil)
	lowerBound := mat.NewVecDense(2, nil)
	upperBound := mat.NewVecDense(2, []float64{
		float64(s.numActions - 1),
		float64(s.catalog.Len() - 1),
	})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (s *Skip) ObservationSpec() env.Spec {
	inner := s.RowColer.ObservationSpec()

	length := s.stackSize * s.frameSize
	shape := mat.NewVecDense(length, nil)

	lower := make([]float64, length)
	upper := make([]float64, length)
	for i := range lower {
		lower[i] = inner.LowerBound.AtVec(i % s.frameSize)
		upper[i] = inner.UpperBound.AtVec(i % s.frameSize)
	}

	return env.NewSpec(shape, env.Observation, mat.NewVecDense(length, lower),
		mat.NewVecDense(length, upper), env.Continuous)
}

func (s *Skip) String() string {
	return fmt.Sprintf("Skip: %v x %v", s.catalog, s.RowColer)
}
