// Package pong implements a single-paddle rebound game with simulated
// physics
package pong

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/goskip/environment"
	ts "github.com/samuelfneumann/goskip/timestep"
	"github.com/samuelfneumann/goskip/utils/floatutils"
)

const (
	FPS float64 = 50

	// Scale between box2d world coordinates and pixels
	Scale     float64 = 8.0
	ViewportW float64 = 64
	ViewportH float64 = 64

	// Ball
	BallRadius float64 = 0.375
	BallSpeed  float64 = 6.0

	// Paddle
	PaddleHalfWidth  float64 = 0.1875
	PaddleHalfHeight float64 = 1.0
	PaddleSpeed      float64 = 5.0

	// Bounds on the angle of the ball's starting velocity, measured
	// from the positive x-axis
	MinStartAngle float64 = -math.Pi / 4.0
	MaxStartAngle float64 = math.Pi / 4.0

	// Discrete actions
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 2

	// Rewards
	HitReward   float64 = 1.0
	MissPenalty float64 = -1.0

	// Largest pixel channel value in rendered observations
	MaxPixel float64 = 255.0
)

// contactDetector records contacts between the ball and the paddle
type contactDetector struct {
	env *Pong
}

func newContactDetector(e *Pong) *contactDetector {
	return &contactDetector{e}
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	bodyA := contact.GetFixtureA().GetBody()
	bodyB := contact.GetFixtureB().GetBody()

	ballInvolved := bodyA == c.env.ball || bodyB == c.env.ball
	paddleInvolved := bodyA == c.env.paddle || bodyB == c.env.paddle
	if ballInvolved && paddleInvolved {
		c.env.paddleHit = true
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}

// Pong implements a single-player version of the Pong video game. A
// ball bounces around a walled court that is open on the right side,
// where the agent controls a vertically moving paddle. The agent must
// keep rebounding the ball off the paddle. Every rebound results in a
// reward of +1. If the ball gets past the paddle, the episode ends
// with a reward of -1. Episodes are also ended by the environment
// Ender, usually after a step limit.
//
// State observations are rendered images of the court. The observation
// vector holds the rows of the image in sequence, with each pixel's
// red, green, and blue channels interleaved. Channel values are in
// [0, 255].
//
// Actions are discrete and move the paddle vertically:
//
//	Action	Meaning
//	  0		Move down
//	  1		Do nothing
//	  2		Move up
//
// The environment Starter provides two starting state variables: the
// angle of the ball's starting velocity, measured from the positive
// x-axis, and the ball's starting height.
type Pong struct {
	env.Starter
	ender env.Ender

	world  box2d.B2World
	walls  []*box2d.B2Body
	ball   *box2d.B2Body
	paddle *box2d.B2Body

	paddleHit bool

	backgroundColour color.Color
	ballColour       color.Color
	paddleColour     color.Color

	discount    float64
	currentStep ts.TimeStep
}

// New constructs a new Pong environment. The starter provides the
// angle of the ball's starting velocity and the ball's starting
// height, and the ender bounds episode length.
func New(starter env.Starter, ender env.Ender,
	discount float64) (*Pong, error) {
	if starter == nil {
		return nil, fmt.Errorf("new: no starter provided")
	}
	if ender == nil {
		return nil, fmt.Errorf("new: no ender provided")
	}

	pong := Pong{
		Starter:          starter,
		ender:            ender,
		backgroundColour: color.RGBA{R: 0, G: 0, B: 0, A: 255},
		ballColour:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		paddleColour:     color.RGBA{R: 255, G: 255, B: 0, A: 255},
		discount:         discount,
	}

	return &pong, nil
}

// NewDefault constructs a new Pong environment with a uniform random
// starting ball angle and height and an episode step limit
func NewDefault(discount float64, episodeSteps int,
	seed uint64) (*Pong, error) {
	height := ViewportH / Scale

	starter := env.NewUniformStarter([]r1.Interval{
		{Min: MinStartAngle, Max: MaxStartAngle},
		{Min: 1.0, Max: height - 1.0},
	}, seed)

	return New(starter, env.NewStepLimit(episodeSteps), discount)
}

// Reset resets the environment, rebuilding the court and serving the
// ball with the angle and height drawn from the environment Starter
func (p *Pong) Reset() (ts.TimeStep, error) {
	start := p.Start()
	if start.Len() != 2 {
		return ts.TimeStep{}, fmt.Errorf("reset: starting state must have "+
			"2 dimensions \n\twant(2) \n\thave(%v)", start.Len())
	}

	angle := start.AtVec(0)
	if angle < MinStartAngle || angle > MaxStartAngle {
		return ts.TimeStep{}, fmt.Errorf("reset: starting angle out of "+
			"bounds \n\twant(∈ [%v, %v]) \n\thave(%v)", MinStartAngle,
			MaxStartAngle, angle)
	}

	width := ViewportW / Scale
	height := ViewportH / Scale

	ballY := start.AtVec(1)
	if ballY < BallRadius || ballY > height-BallRadius {
		return ts.TimeStep{}, fmt.Errorf("reset: starting height out of "+
			"bounds \n\twant(∈ [%v, %v]) \n\thave(%v)", BallRadius,
			height-BallRadius, ballY)
	}

	// A fresh world drops all bodies from the previous episode
	p.world = box2d.MakeB2World(box2d.B2Vec2{X: 0.0, Y: 0.0})
	p.world.SetContactListener(newContactDetector(p))
	p.paddleHit = false

	// Walls on the top, bottom, and left of the court. The right side
	// is open, guarded only by the paddle.
	p.walls = make([]*box2d.B2Body, 3)
	for i := 0; i < 3; i++ {
		wallDef := box2d.NewB2BodyDef()
		wallDef.Type = 0 // Static body
		p.walls[i] = p.world.CreateBody(wallDef)

		wallShape := box2d.NewB2EdgeShape()
		if i == 0 {
			wallShape.Set(box2d.MakeB2Vec2(0.0, 0.0),
				box2d.MakeB2Vec2(width, 0.0))
		} else if i == 1 {
			wallShape.Set(box2d.MakeB2Vec2(0.0, height),
				box2d.MakeB2Vec2(width, height))
		} else {
			wallShape.Set(box2d.MakeB2Vec2(0.0, 0.0),
				box2d.MakeB2Vec2(0.0, height))
		}

		wallFix := box2d.MakeB2FixtureDef()
		wallFix.Shape = wallShape
		wallFix.Friction = 0.0
		wallFix.Restitution = 1.0
		p.walls[i].CreateFixtureFromDef(&wallFix)
	}

	// Paddle
	paddleDef := box2d.NewB2BodyDef()
	paddleDef.Type = 1 // Kinematic body
	paddleDef.Position = box2d.MakeB2Vec2(width-2.0*PaddleHalfWidth,
		height/2.0)
	p.paddle = p.world.CreateBody(paddleDef)

	paddleShape := box2d.NewB2PolygonShape()
	paddleShape.SetAsBox(PaddleHalfWidth, PaddleHalfHeight)

	paddleFix := box2d.MakeB2FixtureDef()
	paddleFix.Shape = paddleShape
	paddleFix.Friction = 0.0
	paddleFix.Restitution = 1.0
	p.paddle.CreateFixtureFromDef(&paddleFix)

	// Ball
	ballDef := box2d.NewB2BodyDef()
	ballDef.Type = 2 // Dynamic body
	ballDef.Position = box2d.MakeB2Vec2(width/2.0, ballY)
	p.ball = p.world.CreateBody(ballDef)

	ballShape := box2d.NewB2CircleShape()
	ballShape.M_radius = BallRadius

	ballFix := box2d.MakeB2FixtureDef()
	ballFix.Shape = ballShape
	ballFix.Density = 1.0
	ballFix.Friction = 0.0
	ballFix.Restitution = 1.0
	p.ball.CreateFixtureFromDef(&ballFix)

	// Serve toward the paddle
	p.ball.SetLinearVelocity(box2d.MakeB2Vec2(
		BallSpeed*math.Cos(angle),
		BallSpeed*math.Sin(angle),
	))

	startStep := ts.New(ts.First, 0, p.discount, p.render(), 0)
	p.currentStep = startStep

	return startStep, nil
}

// Step takes one environmental step given action a and returns the
// next state as a timestep.TimeStep and a bool indicating whether or
// not the episode has ended
func (p *Pong) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	intAction := int(a.AtVec(0))
	if intAction < MinDiscreteAction || intAction > MaxDiscreteAction {
		return ts.TimeStep{}, true, fmt.Errorf("step: illegal action %v "+
			"∉ [%v, %v]", intAction, MinDiscreteAction, MaxDiscreteAction)
	}

	// Actions 0, 1, 2 move the paddle down, nowhere, and up
	vy := float64(intAction-1) * PaddleSpeed
	p.paddle.SetLinearVelocity(box2d.MakeB2Vec2(0.0, vy))

	p.paddleHit = false
	p.world.Step(1.0/FPS, 6*int(Scale), 2*int(Scale))

	height := ViewportH / Scale

	// Keep the paddle on the court
	paddleBounds := r1.Interval{
		Min: PaddleHalfHeight,
		Max: height - PaddleHalfHeight,
	}
	paddlePos := p.paddle.GetPosition()
	clippedY := floatutils.ClipInterval(paddlePos.Y, paddleBounds)
	if clippedY != paddlePos.Y {
		p.paddle.SetTransform(box2d.MakeB2Vec2(paddlePos.X, clippedY), 0.0)
		p.paddle.SetLinearVelocity(box2d.MakeB2Vec2(0.0, 0.0))
	}

	// Collisions bleed a little speed, so restore the serve speed
	vel := p.ball.GetLinearVelocity()
	speed := math.Hypot(vel.X, vel.Y)
	if speed > 0 {
		p.ball.SetLinearVelocity(box2d.MakeB2Vec2(
			vel.X*BallSpeed/speed,
			vel.Y*BallSpeed/speed,
		))
	}

	reward := 0.0
	if p.paddleHit {
		reward = HitReward
	}

	stepType := ts.Mid
	if p.missed() {
		stepType = ts.Last
		reward = MissPenalty
	}

	nextStep := ts.New(stepType, reward, p.discount, p.render(),
		p.currentStep.Number+1)
	p.ender.End(&nextStep)

	p.currentStep = nextStep

	return nextStep, nextStep.Last(), nil
}

// missed returns whether the ball got past the paddle
func (p *Pong) missed() bool {
	return p.ball.GetPosition().X-BallRadius > p.paddle.GetPosition().X
}

// Ball returns the ball's physics body
func (p *Pong) Ball() *box2d.B2Body {
	return p.ball
}

// Paddle returns the paddle's physics body
func (p *Pong) Paddle() *box2d.B2Body {
	return p.paddle
}

// render draws the court and returns it as an observation vector of
// interleaved red, green, and blue pixel channels
func (p *Pong) render() *mat.VecDense {
	rows, cols := p.Rows(), p.Cols()

	dc := gg.NewContext(cols, rows)
	dc.SetColor(p.backgroundColour)
	dc.Clear()

	// Ball
	ballPos := worldToPixelCoord([2]float64{
		p.ball.GetPosition().X,
		p.ball.GetPosition().Y,
	})
	dc.DrawCircle(ballPos[0], ballPos[1], BallRadius*Scale)
	dc.SetColor(p.ballColour)
	dc.Fill()

	// Paddle
	paddleCorner := worldToPixelCoord([2]float64{
		p.paddle.GetPosition().X - PaddleHalfWidth,
		p.paddle.GetPosition().Y + PaddleHalfHeight,
	})
	dc.DrawRectangle(paddleCorner[0], paddleCorner[1],
		2.0*PaddleHalfWidth*Scale, 2.0*PaddleHalfHeight*Scale)
	dc.SetColor(p.paddleColour)
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

// worldToPixelCoord converts box2d world coordinates to pixel
// coordinates
func worldToPixelCoord(coords [2]float64) [2]float64 {
	x, y := coords[0], coords[1]

	pixelX := Scale * x
	pixelY := ViewportH - Scale*y

	return [2]float64{pixelX, pixelY}
}

// CurrentTimeStep returns the last timestep of the environment
func (p *Pong) CurrentTimeStep() ts.TimeStep {
	return p.currentStep
}

// Rows returns the number of pixel rows in rendered observations
func (p *Pong) Rows() int {
	return int(ViewportH)
}

// Cols returns the number of pixel columns in rendered observations
func (p *Pong) Cols() int {
	return int(ViewportW)
}

// ActionSpec returns the action specification of the environment
func (p *Pong) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Pong) ObservationSpec() env.Spec {
	length := p.Rows() * p.Cols() * 3
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
func (p *Pong) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{p.discount})

	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

func (p *Pong) String() string {
	msg := "Pong  |  Ball: (%.2f, %.2f)  |  Paddle: %.2f"

	ballPos := p.ball.GetPosition()

	return fmt.Sprintf(msg, ballPos.X, ballPos.Y, p.paddle.GetPosition().Y)
}
