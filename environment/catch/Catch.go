// Package catch implements the Catch pixel environment
package catch

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/goskip/environment"
	ts "github.com/samuelfneumann/goskip/timestep"
	"github.com/samuelfneumann/goskip/utils/floatutils"
)

const (
	// Default playing field geometry
	DefaultRows     int = 10
	DefaultCols     int = 5
	DefaultCellSize int = 8

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2

	// Rewards
	CaughtReward  float64 = 1.0
	MissedPenalty float64 = -1.0

	// Largest pixel channel value in rendered observations
	MaxPixel float64 = 255.0
)

// Catch implements the classic Catch pixel environment. A ball drops
// from the top of a grid, falling one row at a time, and the agent
// controls a paddle along the bottom row. The agent must move the
// paddle underneath the ball before it reaches the bottom of the grid.
// Episodes end when the ball reaches the bottom row, with a reward of
// +1 if the paddle caught the ball and -1 otherwise. All other steps
// have a reward of 0.
//
// State observations are rendered images of the playing field. Each
// grid cell is drawn as a CellSize x CellSize block of pixels, and the
// observation vector holds the rows of the image in sequence, with
// each pixel's red, green, and blue channels interleaved. Channel
// values are in [0, 255].
//
// Actions are discrete and move the paddle along the bottom row:
//
//	Action	Meaning
//	  0		Move left
//	  1		Do nothing
//	  2		Move right
//
// Actions that would move the paddle off the playing field leave the
// paddle where it is.
type Catch struct {
	env.Starter
	rows     int
	cols     int
	cellSize int

	ballRow   int
	ballCol   int
	paddleCol int

	backgroundColour color.Color
	ballColour       color.Color
	paddleColour     color.Color

	discount    float64
	currentStep ts.TimeStep
}

// New constructs a new Catch environment with a playing field of the
// given number of rows and columns of cells, each rendered as a
// cellSize x cellSize block of pixels. The starter determines the
// column in which the ball appears when an episode begins.
func New(starter env.Starter, rows, cols, cellSize int,
	discount float64) (*Catch, error) {
	if rows < 2 {
		return nil, fmt.Errorf("new: rows must be at least 2 \n\twant(>= 2) "+
			"\n\thave(%v)", rows)
	}
	if cols < 1 {
		return nil, fmt.Errorf("new: cols must be at least 1 \n\twant(>= 1) "+
			"\n\thave(%v)", cols)
	}
	if cellSize < 1 {
		return nil, fmt.Errorf("new: cellSize must be at least 1 "+
			"\n\twant(>= 1) \n\thave(%v)", cellSize)
	}

	catch := Catch{
		Starter:          starter,
		rows:             rows,
		cols:             cols,
		cellSize:         cellSize,
		backgroundColour: color.RGBA{R: 0, G: 0, B: 0, A: 255},
		ballColour:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		paddleColour:     color.RGBA{R: 255, G: 255, B: 0, A: 255},
		discount:         discount,
	}

	return &catch, nil
}

// NewDefault constructs a new Catch environment with the default
// playing field geometry and a uniform random ball column.
func NewDefault(discount float64, seed uint64) (*Catch, error) {
	starter := env.NewUniformStarter([]r1.Interval{
		{Min: 0, Max: float64(DefaultCols)},
	}, seed)

	return New(starter, DefaultRows, DefaultCols, DefaultCellSize, discount)
}

// Reset resets the environment, placing the ball in the column drawn
// from the environment Starter and the paddle in the centre column
func (c *Catch) Reset() (ts.TimeStep, error) {
	start := c.Start()
	ballCol := int(math.Floor(start.AtVec(0)))
	if ballCol < 0 || ballCol >= c.cols {
		return ts.TimeStep{}, fmt.Errorf("reset: illegal ball column "+
			"\n\twant(∈ [0, %v)) \n\thave(%v)", c.cols, ballCol)
	}

	c.ballRow = 0
	c.ballCol = ballCol
	c.paddleCol = c.cols / 2

	startStep := ts.New(ts.First, 0, c.discount, c.render(), 0)
	c.currentStep = startStep

	return startStep, nil
}

// Step takes one environmental step given action a and returns the
// next state as a timestep.TimeStep and a bool indicating whether or
// not the episode has ended
func (c *Catch) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	intAction := int(a.AtVec(0))
	if intAction < MinDiscreteAction || intAction > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v "+
			"∉ [%v, %v]", intAction, MinDiscreteAction, MaxDiscreteAction)
	}

	// Actions 0, 1, 2 move the paddle -1, 0, +1 columns
	paddleCol := float64(c.paddleCol + intAction - 1)
	bounds := r1.Interval{Min: 0, Max: float64(c.cols - 1)}
	c.paddleCol = int(floatutils.ClipInterval(paddleCol, bounds))

	c.ballRow++

	reward := 0.0
	stepType := ts.Mid
	if c.ballRow >= c.rows-1 {
		stepType = ts.Last
		if c.ballCol == c.paddleCol {
			reward = CaughtReward
		} else {
			reward = MissedPenalty
		}
	}

	nextStep := ts.New(stepType, reward, c.discount, c.render(),
		c.currentStep.Number+1)
	c.currentStep = nextStep

	return nextStep, nextStep.Last(), nil
}

// render draws the playing field and returns it as an observation
// vector of interleaved red, green, and blue pixel channels
func (c *Catch) render() *mat.VecDense {
	rows, cols := c.Rows(), c.Cols()
	cell := float64(c.cellSize)

	dc := gg.NewContext(cols, rows)
	dc.SetColor(c.backgroundColour)
	dc.Clear()

	// Ball
	dc.DrawRectangle(float64(c.ballCol)*cell, float64(c.ballRow)*cell,
		cell, cell)
	dc.SetColor(c.ballColour)
	dc.Fill()

	// Paddle
	dc.DrawRectangle(float64(c.paddleCol)*cell, float64(c.rows-1)*cell,
		cell, cell)
	dc.SetColor(c.paddleColour)
	dc.Fill()

	img := dc.Image()
	data := make([]float64, rows*cols*3)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, g, b, _ := img.At(x, y).RGBA()

			i := 3 * (y*cols + x)
			data[i] = float64(r >> 8)
			data[i+1] = float64(g >> 8)
			data[i+2] = float64(b >> 8)
		}
	}

	return mat.NewVecDense(len(data), data)
}

// CurrentTimeStep returns the last timestep of the environment
func (c *Catch) CurrentTimeStep() ts.TimeStep {
	return c.currentStep
}

// Rows returns the number of pixel rows in rendered observations
func (c *Catch) Rows() int {
	return c.rows * c.cellSize
}

// Cols returns the number of pixel columns in rendered observations
func (c *Catch) Cols() int {
	return c.cols * c.cellSize
}

// ActionSpec returns the action specification of the environment
func (c *Catch) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Catch) ObservationSpec() env.Spec {
	length := c.Rows() * c.Cols() * 3
	shape := mat.NewVecDense(length, nil)
	lowerBound := mat.NewVecDense(length, nil)

	upper := make([]float64, length)
	for i := range upper {
		upper[i] = MaxPixel
	}
	upperBound := mat.NewVecDense(length, upper)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (c *Catch) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{c.discount})

	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

func (c *Catch) String() string {
	msg := "Catch  |  Ball: (%v, %v)  |  Paddle: (%v, %v)"

	return fmt.Sprintf(msg, c.ballRow, c.ballCol, c.rows-1, c.paddleCol)
}
