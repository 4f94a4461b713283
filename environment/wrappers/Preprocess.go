package wrappers

import (
	"fmt"

	env "github.com/samuelfneumann/goskip/environment"
	ts "github.com/samuelfneumann/goskip/timestep"
	"gonum.org/v1/gonum/mat"
)

// Weights for converting RGB pixels to luminance values
const (
	redWeight   float64 = 0.299
	greenWeight float64 = 0.587
	blueWeight  float64 = 0.114
)

// maxPixelValue is the largest raw intensity an environment may report
// for a single colour channel
const maxPixelValue float64 = 255.0

// Preprocess wraps a pixel-based environment and converts its raw RGB
// observations into small grayscale frames suitable for function
// approximation. Observations of the wrapped environment must be
// row-major frames of interleaved RGB intensities in [0, 255], with
// the grid geometry reported by the wrapped environment's Rows() and
// Cols() methods.
//
// Each observation is processed in three stages. First, RGB pixels
// are converted to luminance values. Next, every other row and column
// of the frame is dropped, repeatedly, for as long as the frame still
// exceeds the target resolution in either dimension. Finally, pixel
// intensities are scaled into [0, 1]. Note that the resulting frame
// geometry is a consequence of the repeated halving and so need not
// equal the target resolution exactly; the Rows() and Cols() methods
// of the wrapper report the actual processed geometry.
//
// Preprocess itself implements the environment.Environment interface
// and is therefore itself an environment.
type Preprocess struct {
	env.RowColer
	currentStep ts.TimeStep

	rawRows, rawCols       int
	targetRows, targetCols int
	rows, cols             int // geometry after downsampling
}

// NewPreprocess returns a new Preprocess environment, wrapping an
// existing pixel-based environment. Processed frames are repeatedly
// downsampled until they no longer exceed targetRows x targetCols.
func NewPreprocess(e env.RowColer, targetRows,
	targetCols int) (*Preprocess, error) {
	if e == nil {
		return nil, fmt.Errorf("newPreprocess: no environment to wrap")
	}
	if targetRows < 1 || targetCols < 1 {
		return nil, fmt.Errorf("newPreprocess: target resolution must be "+
			"positive \n\thave(%v x %v)", targetRows, targetCols)
	}

	rawRows, rawCols := e.Rows(), e.Cols()
	expected := rawRows * rawCols * 3
	if obs := e.ObservationSpec().Shape.Len(); obs != expected {
		return nil, fmt.Errorf("newPreprocess: wrapped environment must "+
			"produce RGB observations \n\twant(%v features) \n\thave(%v)",
			expected, obs)
	}

	// Compute the processed frame geometry
	rows, cols := rawRows, rawCols
	for rows > targetRows || cols > targetCols {
		rows = (rows + 1) / 2
		cols = (cols + 1) / 2
	}

	return &Preprocess{
		RowColer:   e,
		rawRows:    rawRows,
		rawCols:    rawCols,
		targetRows: targetRows,
		targetCols: targetCols,
		rows:       rows,
		cols:       cols,
	}, nil
}

// process converts a raw RGB observation into a downsampled grayscale
// frame with intensities in [0, 1]
func (p *Preprocess) process(raw mat.Vector) (*mat.VecDense, error) {
	if raw.Len() != p.rawRows*p.rawCols*3 {
		return nil, fmt.Errorf("process: invalid frame size \n\twant(%v) "+
			"\n\thave(%v)", p.rawRows*p.rawCols*3, raw.Len())
	}

	// Convert interleaved RGB pixels to luminance values
	gray := make([]float64, p.rawRows*p.rawCols)
	for i := range gray {
		gray[i] = redWeight*raw.AtVec(3*i) +
			greenWeight*raw.AtVec(3*i+1) +
			blueWeight*raw.AtVec(3*i+2)
	}

	// Drop every other row and column of the frame, repeatedly, until
	// the frame no longer exceeds the target resolution
	rows, cols := p.rawRows, p.rawCols
	for rows > p.targetRows || cols > p.targetCols {
		newRows, newCols := (rows+1)/2, (cols+1)/2

		smaller := make([]float64, newRows*newCols)
		for r := 0; r < newRows; r++ {
			for c := 0; c < newCols; c++ {
				smaller[r*newCols+c] = gray[(2*r)*cols+(2*c)]
			}
		}

		gray = smaller
		rows, cols = newRows, newCols
	}

	// Scale pixel intensities to [0, 1]
	for i := range gray {
		gray[i] /= maxPixelValue
	}

	return mat.NewVecDense(len(gray), gray), nil
}

// Reset resets the environment to some starting state
func (p *Preprocess) Reset() (ts.TimeStep, error) {
	step, err := p.RowColer.Reset()
	if err != nil {
		return ts.TimeStep{}, err
	}

	obs, err := p.process(step.Observation)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not process "+
			"observation: %v", err)
	}

	step.Observation = obs
	p.currentStep = step

	return step, nil
}

// Step takes one environmental step given action a and returns the
// next state as a timestep.TimeStep and a bool indicating whether or
// not the episode has ended
func (p *Preprocess) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	step, last, err := p.RowColer.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, err
	}

	obs, err := p.process(step.Observation)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not process "+
			"observation: %v", err)
	}

	step.Observation = obs
	p.currentStep = step

	return step, last, nil
}

// CurrentTimeStep returns the current timestep of the environment
func (p *Preprocess) CurrentTimeStep() ts.TimeStep {
	return p.currentStep
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Preprocess) ObservationSpec() env.Spec {
	length := p.rows * p.cols
	shape := mat.NewVecDense(length, nil)
	lowerBound := mat.NewVecDense(length, nil)

	upper := make([]float64, length)
	for i := range upper {
		upper[i] = 1.0
	}
	upperBound := mat.NewVecDense(length, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// Rows returns the number of rows in processed frames
func (p *Preprocess) Rows() int {
	return p.rows
}

// Cols returns the number of columns in processed frames
func (p *Preprocess) Cols() int {
	return p.cols
}

func (p *Preprocess) String() string {
	return fmt.Sprintf("Preprocess: %v", p.RowColer)
}
