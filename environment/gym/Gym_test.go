package gym_test

import (
	"os"
	"testing"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goskip/environment/gym"
	ts "github.com/samuelfneumann/goskip/timestep"
)

// requireGym skips tests that need a working OpenAI Gym installation
// unless one was advertised through the environment
func requireGym(t *testing.T) {
	if os.Getenv("GOGYM_TEST") == "" {
		t.Skip("set GOGYM_TEST to run tests against an OpenAI Gym " +
			"installation")
	}
}

func TestNew(t *testing.T) {
	requireGym(t)

	envs := []string{
		// Classic Control
		"MountainCarContinuous-v0",
		"MountainCar-v0",
		"Pendulum-v0",
		"CartPole-v0",
		"Acrobot-v1",
	}

	for _, envName := range envs {
		// Create GymEnv
		env, err := gym.New(envName, 0.99, 123)
		if err != nil {
			t.Errorf("env %v: %v", envName, err)
			continue
		}

		step, err := env.Reset()
		if err != nil {
			t.Errorf("env %v: %v", envName, err)
		} else if (step == ts.TimeStep{}) {
			t.Error("reset: start timestep should be non-nil")
		}

		// Take a bunch of steps in the environment to ensure it works
		size := env.ActionSpec().LowerBound.Len()
		for i := 0; i < 15; i++ {
			next, done, err := env.Step(mat.NewVecDense(size, nil))
			if err != nil {
				t.Errorf("env %v: %v", envName, err)
			} else if (next == ts.TimeStep{}) {
				t.Errorf("step: timestep %v should be non-nil", i)
			}

			if done {
				next, err := env.Reset()
				if err != nil {
					t.Errorf("env %v: %v", envName, err)
				} else if (next == ts.TimeStep{}) {
					t.Error("reset: start timestep should be non-nil")
				}
			}
		}

		// Check that the spec functions work
		env.ObservationSpec()
		env.ActionSpec()
		env.DiscountSpec()

		// Close the environment
		env.Close()
	}
	// Close the package
	gogym.Close()
}

// TestNewPixel ensures that pixel environments report their image
// geometry and validate it against the observation vector's length.
func TestNewPixel(t *testing.T) {
	requireGym(t)

	env, err := gym.NewPixel("Pong-v0", 210, 160, 0.99, 123)
	if err != nil {
		t.Fatalf("newPixel: %v", err)
	}
	defer gogym.Close()
	defer env.Close()

	if env.Rows() != 210 || env.Cols() != 160 {
		t.Errorf("newPixel: wrong geometry \n\twant(210 x 160) "+
			"\n\thave(%v x %v)", env.Rows(), env.Cols())
	}

	step, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}

	want := 210 * 160 * 3
	if step.Observation.Len() != want {
		t.Errorf("reset: wrong observation length \n\twant(%v) "+
			"\n\thave(%v)", want, step.Observation.Len())
	}

	// Image environments should never report discrete observations
	if env.ObservationSpec().Cardinality != "Continuous" {
		t.Error("observationSpec: pixel observations should be continuous")
	}
}
