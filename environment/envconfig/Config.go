// Package envconfig provides configuration structs for configuring
// pixel environments wrapped for action repetition. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/goskip/environment"
	"github.com/samuelfneumann/goskip/environment/catch"
	"github.com/samuelfneumann/goskip/environment/gym"
	"github.com/samuelfneumann/goskip/environment/pong"
	"github.com/samuelfneumann/goskip/environment/wrappers"
	"github.com/samuelfneumann/goskip/skips"
	ts "github.com/samuelfneumann/goskip/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Catch EnvName = "Catch"
	Pong  EnvName = "Pong"
	Gym   EnvName = "Gym"
)

// Config implements a specific configuration of a specific pixel
// environment, wrapped so that agents choose an action together with
// an action repeat duration. Environments created from a Config
// convert raw RGB frames to grayscale intensities in [0, 1],
// downsample them until they no longer exceed TargetRows x TargetCols,
// and stack the last StackSize processed frames into each observation.
// The created environment takes 2-dimensional actions
// [action, skip index], where the skip index selects a repeat duration
// from a catalog of NumSkips durations.
type Config struct {
	Environment EnvName
	Discount    float64

	// GymName holds the OpenAI Gym environment ID and GymRows x
	// GymCols its frame geometry. Used only when Environment == Gym.
	GymName string
	GymRows int
	GymCols int

	// EpisodeCutoff bounds episode length in frames. Used only when
	// Environment == Pong.
	EpisodeCutoff int

	TargetRows int
	TargetCols int
	StackSize  int
	NumSkips   int
}

// NewCatch returns a Config describing the Catch environment wrapped
// for action repetition
func NewCatch(discount float64, targetRows, targetCols, stackSize,
	numSkips int) Config {
	return Config{
		Environment: Catch,
		Discount:    discount,
		TargetRows:  targetRows,
		TargetCols:  targetCols,
		StackSize:   stackSize,
		NumSkips:    numSkips,
	}
}

// NewPong returns a Config describing the Pong environment wrapped for
// action repetition, with episodes cut off after episodeCutoff frames
func NewPong(discount float64, episodeCutoff, targetRows, targetCols,
	stackSize, numSkips int) Config {
	return Config{
		Environment:   Pong,
		Discount:      discount,
		EpisodeCutoff: episodeCutoff,
		TargetRows:    targetRows,
		TargetCols:    targetCols,
		StackSize:     stackSize,
		NumSkips:      numSkips,
	}
}

// NewGym returns a Config describing an OpenAI Gym environment with
// name gymName and rows x cols RGB frames, wrapped for action
// repetition
func NewGym(gymName string, rows, cols int, discount float64, targetRows,
	targetCols, stackSize, numSkips int) Config {
	return Config{
		Environment: Gym,
		Discount:    discount,
		GymName:     gymName,
		GymRows:     rows,
		GymCols:     cols,
		TargetRows:  targetRows,
		TargetCols:  targetCols,
		StackSize:   stackSize,
		NumSkips:    numSkips,
	}
}

// CreateEnv returns the wrapped environment described by the Config as
// well as the first timestep of the environment. The returned
// environment processes and stacks frames and repeats actions from its
// duration catalog.
func (c Config) CreateEnv(seed uint64) (env.Environment, ts.TimeStep,
	error) {
	base, err := c.createBase(seed)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createEnv: could not create "+
			"environment: %v", err)
	}

	processed, err := wrappers.NewPreprocess(base, c.TargetRows, c.TargetCols)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createEnv: could not "+
			"preprocess frames: %v", err)
	}

	catalog, err := skips.New(c.NumSkips)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createEnv: could not create "+
			"duration catalog: %v", err)
	}

	wrapped, err := wrappers.NewSkip(processed, catalog, c.StackSize)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createEnv: could not wrap "+
			"environment: %v", err)
	}

	first, err := wrapped.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createEnv: could not reset "+
			"environment: %v", err)
	}

	return wrapped, first, nil
}

// createBase returns the configured pixel environment before any
// wrapping
func (c Config) createBase(seed uint64) (env.RowColer, error) {
	switch c.Environment {
	case Catch:
		return catch.NewDefault(c.Discount, seed)

	case Pong:
		return pong.NewDefault(c.Discount, c.EpisodeCutoff, seed)

	case Gym:
		return gym.NewPixel(c.GymName, c.GymRows, c.GymCols, c.Discount,
			seed)
	}

	return nil, fmt.Errorf("createBase: no such environment %v",
		c.Environment)
}
