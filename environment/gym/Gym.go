// Package gym provides access to OpenAI Gym environments.
//
// All environments in the Classic Control and MuJoCo suites can be
// used, along with pixel-observation environments such as the Atari
// suite. All environments only work with their default tasks and
// episode cutoffs. Once GoGym implements functionality for chaning the
// episode cutoffs, this package will also be changed.
//
// This is made possible through the Go bindings for OpenAI Gym,
// found at https://github.com/samuelfneumann/GoGym.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goskip/environment"
	ts "github.com/samuelfneumann/goskip/timestep"
)

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
	discount    float64
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite.
func New(name string, discount float64, seed uint64) (*GymEnv, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment: %v", err)
	}

	goGymEnv.Seed(int(seed))

	return &GymEnv{
		Environment: goGymEnv,
		discount:    discount,
	}, nil
}

// Step takes a single environmental step
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, obs, g.CurrentTimeStep().Number+1)
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	low, high, shape, cardinality := convertSpace(g.ObservationSpace())

	return env.NewSpec(shape, env.Observation, low, high, cardinality)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	low, high, shape, cardinality := convertSpace(g.ActionSpace())

	return env.NewSpec(shape, env.Action, low, high, cardinality)
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, low, low, env.Continuous)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}

// convertSpace converts a GoGym space to the bounds, shape, and
// cardinality of an environment specification
func convertSpace(space gogym.Space) (low, high, shape *mat.VecDense,
	cardinality env.Cardinality) {
	switch space.(type) {
	case *gogym.BoxSpace:
		cardinality = env.Continuous
	case *gogym.DiscreteSpace:
		cardinality = env.Discrete
	default:
		panic("convertSpace: invalid space type, package gym supports " +
			"only GoGym's BoxSpace or DiscreteSpace")
	}

	low = space.Low()[0]
	high = space.High()[0]
	shape = mat.NewVecDense(low.Len(), nil)

	return
}

// PixelGymEnv implements access to an OpenAI Gym environment whose
// observations are images, such as the Atari suite. Observations hold
// the rows of the image in sequence, with each pixel's red, green, and
// blue channels interleaved.
type PixelGymEnv struct {
	*GymEnv
	rows int
	cols int
}

// NewPixel returns a new PixelGymEnv with the given name, which must
// be a legal name of an image-observation environment from the OpenAI
// Gym suite. The rows and cols arguments give the dimensions of the
// environment's image observations in pixels.
func NewPixel(name string, rows, cols int, discount float64,
	seed uint64) (*PixelGymEnv, error) {
	gymEnv, err := New(name, discount, seed)
	if err != nil {
		return nil, err
	}

	features := gymEnv.ObservationSpec().Shape.Len()
	if features != rows*cols*3 {
		return nil, fmt.Errorf("newPixel: environment observations are "+
			"not %v x %v RGB images \n\twant(%v features) \n\thave(%v "+
			"features)", rows, cols, rows*cols*3, features)
	}

	return &PixelGymEnv{
		GymEnv: gymEnv,
		rows:   rows,
		cols:   cols,
	}, nil
}

// Rows returns the number of pixel rows in observations
func (p *PixelGymEnv) Rows() int {
	return p.rows
}

// Cols returns the number of pixel columns in observations
func (p *PixelGymEnv) Cols() int {
	return p.cols
}
