// Package skipq implements deep Q-learning augmented with a contextual
// bandit over action-repeat durations. On every decision point the
// agent selects both an environmental action and the number of
// consecutive frames to hold that action for, with the duration drawn
// from a skips.Catalog.
package skipq

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goskip/agent"
	"github.com/samuelfneumann/goskip/agent/nonlinear/discrete/policy"
	env "github.com/samuelfneumann/goskip/environment"
	"github.com/samuelfneumann/goskip/expreplay"
	"github.com/samuelfneumann/goskip/network"
	"github.com/samuelfneumann/goskip/skips"
	"github.com/samuelfneumann/goskip/solver"
	ts "github.com/samuelfneumann/goskip/timestep"
	"github.com/samuelfneumann/goskip/utils/floatutils"
)

// Environment is the interface of environments that a SkipQ agent can
// learn in. Such environments take 2-dimensional actions
// [action, skip index] and stack consecutive frames into observations,
// as produced by wrapping a pixel environment in a wrappers.Skip.
type Environment interface {
	env.RowColer

	// StackSize returns the number of frames stacked into a single
	// observation
	StackSize() int

	// Skips returns the catalog of repeat durations that the
	// environment repeats actions from
	Skips() *skips.Catalog
}

// SkipQ implements deep Q-learning with an adaptive action repetition
// scheme. Two selection rules act at every decision point: an epsilon
// greedy rule over the action values of a deep Q network chooses the
// environmental action, and a contextual bandit chooses how many
// consecutive frames to repeat that action for, from a fixed catalog
// of durations.
//
// The Q network is trained on uniformly sampled batches of transitions
// with a target network providing the update target. The bandit is
// trained on the same batches: its softmax head follows a policy
// gradient weighted by the TD errors of the Q update, and its value
// head regresses onto a one-step bootstrapped duration value. Both
// networks share the same convolutional architecture over stacked
// frames but hold separate weights.
type SkipQ struct {
	// Selection rules over single observations
	qBehaviour      *policy.MultiHeadEGreedyMLP // Epsilon greedy actions
	qBehaviourVM    G.VM
	skipBehaviour   *policy.SkipBandit // Bandit over repeat durations
	skipBehaviourVM G.VM

	// Q network whose weights are adapted, taking batches of inputs
	qTrain   network.NeuralNet
	qTrainVM G.VM
	qSolver  *solver.Solver

	// Network that provides the Q update target for a batch of inputs
	qTarget   network.NeuralNet
	qTargetVM G.VM

	// Bandit network whose weights are adapted, taking batches of
	// inputs
	skipTrain   network.NeuralNet
	skipTrainVM G.VM
	skipSolver  *solver.Solver

	// Copy of the bandit network that predicts the duration values of
	// next states for the bandit's value target
	skipNext   network.NeuralNet
	skipNextVM G.VM

	// nextStateActionValues is the input node in the graph of qTrain
	// that is given the action values of the next state. For update:
	//
	// Q(s, a) <- Q(s, a) + α * (r + γⁱ * max[Q(s', a')] - Q(s, a)) ∇Q(s, a)
	//
	// nextStateActionValues provides Q(s', a') for all a' in s' and is
	// computed by qTarget.
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node
	selectedActions       *G.Node // Actions taken at the previous states

	// tdErrors holds the TD error of each transition in the last batch
	// that qTrainVM ran, read out of the graph so that the bandit
	// update can use the errors without gradients flowing between the
	// two networks
	tdErrors *G.Value

	// Costs of the latest update, read out of the train graphs for
	// diagnostics
	qCost          *G.Value
	skipCost       *G.Value
	lastQLoss      float64
	lastBanditLoss float64

	// Input nodes in the graph of skipTrain
	chosenSkips  *G.Node // One-hot durations chosen at previous states
	skipTdErrors *G.Node // TD errors of the Q update
	valueTargets *G.Node // Bootstrapped duration value targets

	// Variables to track target network updates
	targetUpdateInterval int // Gradient steps between target updates
	gradientSteps        int

	// epsilon is shared by both selection rules and decays after each
	// completed update
	epsilon *agent.DecaySchedule

	// Largest allowed global norm of the gradients of an update
	maxGradNorm float64

	catalog    *skips.Catalog
	numActions int
	numSkips   int

	replay expreplay.ExperienceReplayer
	gamma  float64

	// Keep track of the previous state to add to the replay buffer
	prevStep ts.TimeStep

	// skipCounts records how often each repeat duration has been
	// selected during training
	skipCounts []int

	batchSize int
	eval      bool // Whether or not in evaluation mode
}

// New creates and returns a new SkipQ agent
func New(e Environment, config Config, seed int64) (*SkipQ, error) {
	// Ensure environment has discrete actions
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("new: cannot use non-discrete actions")
	}

	// Ensure actions are (action, skip index) pairs
	if e.ActionSpec().LowerBound.Len() != 2 {
		return nil, fmt.Errorf("new: actions must be 2-dimensional "+
			"\n\thave(%v)", e.ActionSpec().LowerBound.Len())
	}

	// Ensure actions are enumerated from 0
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 ||
		e.ActionSpec().LowerBound.AtVec(1) != 0.0 {
		return nil, fmt.Errorf("new: actions must be enumerated starting " +
			"from 0")
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	numSkips := int(e.ActionSpec().UpperBound.AtVec(1)) + 1
	if numSkips != e.Skips().Len() {
		return nil, fmt.Errorf("new: action spec inconsistent with "+
			"duration catalog \n\twant(%v) \n\thave(%v)", e.Skips().Len(),
			numSkips)
	}

	// Ensure the configuration is valid
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	// Observations must be stacks of single-channel frames
	rows := e.Rows()
	cols := e.Cols()
	depth := e.StackSize()
	features := e.ObservationSpec().Shape.Len()
	if features != rows*cols*depth {
		return nil, fmt.Errorf("new: observations must be %v stacked "+
			"(%v x %v) frames \n\twant(%v) \n\thave(%v)", depth, rows, cols,
			rows*cols*depth, features)
	}

	batchSize := config.BatchSize

	// Q network for selecting environmental actions
	g := G.NewGraph()
	qBehaviourNet, err := network.NewConvMultiHead(rows, cols, depth, 1,
		[]int{numActions}, g, config.Filters, config.Kernels, config.Strides,
		config.PolicyLayers, config.Biases, config.InitWFn.InitWFn(),
		config.Activations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create Q network: %v", err)
	}
	qBehaviour, err := policy.NewMultiHeadEGreedyMLP(qBehaviourNet,
		rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, fmt.Errorf("new: could not create action selection "+
			"rule: %v", err)
	}
	qBehaviourVM := G.NewTapeMachine(g)

	// Create the Q network which learns the weights
	qTrain, err := qBehaviourNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning network: %v",
			err)
	}
	gTrain := qTrain.Graph()

	// Create nodes to compute the update target:
	// r + γⁱ * max[Q(s', a')], where i is the catalog index of the
	// transition's repeat duration
	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	rewards := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("reward"))
	discounts := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("discount"))

	// Compute the update target
	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// Action selected in the previous state. This is needed to compute
	// the loss using the correct action value since the network
	// outputs N action values, one for each environmental action
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batchSize, numActions),
	)
	selectedActionsValue := G.Must(G.HadamardProd(qTrain.Prediction()[0],
		selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Compute the Mean Squared TD error, reading the per-transition
	// TD errors out of the graph for the bandit update
	tdErrorsNode := G.Must(G.Sub(updateTarget, selectedActionsValue))
	var tdErrors G.Value
	G.Read(tdErrorsNode, &tdErrors)

	losses := G.Must(G.Square(tdErrorsNode))
	cost := G.Must(G.Mean(losses))
	var qCost G.Value
	G.Read(cost, &qCost)

	// Compute the gradient with respect to the Mean Squared TD error
	_, err = G.Grad(cost, qTrain.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute Q gradient: %v", err)
	}

	// Compile the qTrain graph into a VM
	qTrainVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(qTrain.Learnables()...),
	)

	// Create the network which provides the Q update target
	qTarget, err := qBehaviourNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}
	qTargetVM := G.NewTapeMachine(qTarget.Graph())

	// Bandit network for selecting repeat durations: one head for the
	// softmax logits over durations, one head for duration values
	gSkip := G.NewGraph()
	skipBehaviourNet, err := network.NewConvMultiHead(rows, cols, depth, 1,
		[]int{numSkips, numSkips}, gSkip, config.Filters, config.Kernels,
		config.Strides, config.BanditLayers, config.BanditBiases,
		config.InitWFn.InitWFn(), config.BanditActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create bandit network: %v",
			err)
	}
	skipBehaviour, err := policy.NewSkipBandit(skipBehaviourNet,
		exprand.New(exprand.NewSource(uint64(seed))))
	if err != nil {
		return nil, fmt.Errorf("new: could not create duration selection "+
			"rule: %v", err)
	}
	skipBehaviourVM := G.NewTapeMachine(gSkip)

	// Create the bandit network which learns the weights
	skipTrain, err := skipBehaviourNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning bandit "+
			"network: %v", err)
	}
	gSkipTrain := skipTrain.Graph()

	chosenSkips := G.NewMatrix(gSkipTrain, tensor.Float64,
		G.WithShape(batchSize, numSkips), G.WithName("chosenSkips"))
	skipTdErrors := G.NewVector(gSkipTrain, tensor.Float64,
		G.WithShape(batchSize), G.WithName("skipTdErrors"))
	valueTargets := G.NewVector(gSkipTrain, tensor.Float64,
		G.WithShape(batchSize), G.WithName("skipValueTargets"))

	logits := skipTrain.Prediction()[0]
	values := skipTrain.Prediction()[1]

	// Log probability of the chosen durations under the softmax of the
	// bandit's logits
	logProbs := G.Must(G.SoftMax(logits, 1))
	logProbs = G.Must(G.Log(logProbs))
	chosenLogProb := G.Must(G.HadamardProd(logProbs, chosenSkips))
	chosenLogProb = G.Must(G.Sum(chosenLogProb, 1))

	// Policy gradient loss weighted by the TD errors of the Q update
	policyLoss := G.Must(G.HadamardProd(chosenLogProb, skipTdErrors))
	policyLoss = G.Must(G.Mean(policyLoss))
	policyLoss = G.Must(G.Neg(policyLoss))

	// Mean squared error of the chosen duration's value against the
	// bootstrapped duration value target
	chosenValue := G.Must(G.HadamardProd(values, chosenSkips))
	chosenValue = G.Must(G.Sum(chosenValue, 1))
	valueLoss := G.Must(G.Sub(chosenValue, valueTargets))
	valueLoss = G.Must(G.Square(valueLoss))
	valueLoss = G.Must(G.Mean(valueLoss))

	half := G.NewConstant(0.5)
	skipCost := G.Must(G.Mul(half, valueLoss))
	skipCost = G.Must(G.Add(policyLoss, skipCost))
	var banditCost G.Value
	G.Read(skipCost, &banditCost)

	// Compute the gradient of both bandit heads in a single update
	_, err = G.Grad(skipCost, skipTrain.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute bandit gradient: %v",
			err)
	}

	// Compile the skipTrain graph into a VM
	skipTrainVM := G.NewTapeMachine(
		gSkipTrain,
		G.BindDualValues(skipTrain.Learnables()...),
	)

	// Create the bandit network copy which predicts the duration
	// values of next states
	skipNext, err := skipBehaviourNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create bandit target "+
			"network: %v", err)
	}
	skipNextVM := G.NewTapeMachine(skipNext.Graph())

	// Create the experience replay buffer. The replay buffer stores
	// actions selected as one-hot vectors
	replay, err := expreplay.New(config.ReplayCapacity, config.BatchSize,
		features, numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	// Exploration schedule shared by both selection rules
	epsilon, err := agent.NewDecaySchedule(config.Epsilon, config.EpsilonMin,
		config.EpsilonDecay)
	if err != nil {
		return nil, fmt.Errorf("new: could not create exploration "+
			"schedule: %v", err)
	}

	return &SkipQ{
		qBehaviour:      qBehaviour,
		qBehaviourVM:    qBehaviourVM,
		skipBehaviour:   skipBehaviour,
		skipBehaviourVM: skipBehaviourVM,

		qTrain:   qTrain,
		qTrainVM: qTrainVM,
		qSolver:  config.Solver,

		qTarget:   qTarget,
		qTargetVM: qTargetVM,

		skipTrain:   skipTrain,
		skipTrainVM: skipTrainVM,
		skipSolver:  config.BanditSolver,

		skipNext:   skipNext,
		skipNextVM: skipNextVM,

		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,
		discounts:             discounts,
		selectedActions:       selectedActions,
		tdErrors:              &tdErrors,
		qCost:                 &qCost,
		skipCost:              &banditCost,

		chosenSkips:  chosenSkips,
		skipTdErrors: skipTdErrors,
		valueTargets: valueTargets,

		targetUpdateInterval: config.TargetUpdateInterval,
		gradientSteps:        0,
		epsilon:              epsilon,
		maxGradNorm:          config.MaxGradientNorm,
		catalog:              e.Skips(),
		numActions:           numActions,
		numSkips:             numSkips,
		replay:               replay,
		gamma:                config.Gamma,
		prevStep:             ts.TimeStep{},
		skipCounts:           make([]int, numSkips),
		batchSize:            batchSize,
		eval:                 false,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *SkipQ) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n", t.Number)
	}

	d.prevStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep, adding the transition from the previously observed
// timestep to the replay buffer. The action is the 2-dimensional
// (action, skip index) vector that led to nextStep.
func (d *SkipQ) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 2 {
		return fmt.Errorf("observe: actions must be (action, skip index) "+
			"pairs \n\twant(2) \n\thave(%v)", action.Len())
	}

	a := int(action.AtVec(0))
	if a < 0 || a >= d.numActions {
		return fmt.Errorf("observe: no action %v \n\twant(in [0, %v))", a,
			d.numActions)
	}

	skip := int(action.AtVec(1))
	if skip < 0 || skip >= d.numSkips {
		return fmt.Errorf("observe: no duration at catalog index %v "+
			"\n\twant(in [0, %v))", skip, d.numSkips)
	}

	// Add to replay buffer, storing the action as a one-hot vector and
	// the repeat duration as its catalog index
	oneHotAction := mat.NewVecDense(d.numActions, nil)
	oneHotAction.SetVec(a, 1.0)

	transition := ts.NewTransition(d.prevStep, oneHotAction, nextStep, skip)
	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: could not add to replay buffer: %v", err)
	}

	d.prevStep = nextStep
	return nil
}

// Step updates the weights of the agent's Q and bandit networks on a
// batch of transitions sampled from the replay buffer. If the buffer
// does not yet hold enough transitions to fill a batch, no update is
// performed and the exploration rate is left unchanged.
func (d *SkipQ) Step() error {
	// Don't update if replay buffer is empty or has insufficient
	// samples to sample
	S, A, R, terminal, NextS, skip, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("step: could not sample from replay buffer: %v",
			err)
	}

	// Previous action one-hot vectors
	prevActions := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(A),
	)
	if err := G.Let(d.selectedActions, prevActions); err != nil {
		return fmt.Errorf("step: could not set selected actions: %v", err)
	}

	// Predict the action values in state S
	if err := d.qTrain.SetInput(S); err != nil {
		return fmt.Errorf("step: could not set trainNet input: %v", err)
	}

	// Predict the action values in the next state NextS
	if err := d.qTarget.SetInput(NextS); err != nil {
		return fmt.Errorf("step: could not set target net input: %v", err)
	}

	// Compute the next state-action values
	if err := d.qTargetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run target net: %v", err)
	}

	// Set the action values for the actions in the next state
	if err := G.Let(d.nextStateActionValues,
		d.qTarget.Output()[0]); err != nil {
		return fmt.Errorf("step: could not set next state-action "+
			"values: %v", err)
	}

	// Set the rewards for the sampled transitions
	rewardTensor := tensor.New(tensor.WithBacking(R),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.rewards, rewardTensor); err != nil {
		return fmt.Errorf("step: could not set rewards: %v", err)
	}

	// Discount each bootstrap by γⁱ, where i is the catalog index of
	// the transition's repeat duration rather than the repeated frame
	// count, so a repeat of 16 frames is discounted as γ⁴. Bootstraps
	// are cut at terminal next states.
	// TODO: decide whether the exponent should be the frame count
	// instead.
	discount := make([]float64, d.batchSize)
	for i := range discount {
		discount[i] = math.Pow(d.gamma, float64(skip[i])) * (1 - terminal[i])
	}
	discountTensor := tensor.New(tensor.WithBacking(discount),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.discounts, discountTensor); err != nil {
		return fmt.Errorf("step: could not set discounts: %v", err)
	}

	d.qTargetVM.Reset()

	// Run the Q learning step
	if err := d.qTrainVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run Q update: %v", err)
	}

	// The TD errors of this batch drive the bandit's policy gradient.
	// Copy them out before the next run of qTrainVM overwrites them.
	tdErrors := make([]float64, d.batchSize)
	copy(tdErrors, (*d.tdErrors).Data().([]float64))
	d.lastQLoss = (*d.qCost).Data().(float64)

	if err := solver.ClipGlobalNorm(d.qTrain.Model(),
		d.maxGradNorm); err != nil {
		return fmt.Errorf("step: could not clip Q gradient: %v", err)
	}
	if err := d.qSolver.Step(d.qTrain.Model()); err != nil {
		return fmt.Errorf("step: could not step Q solver: %v", err)
	}
	d.qTrainVM.Reset()

	// Predict the duration values of the next states with the current
	// bandit weights
	if err := d.skipNext.Set(d.skipTrain); err != nil {
		return fmt.Errorf("step: could not set bandit target weights: %v",
			err)
	}
	if err := d.skipNext.SetInput(NextS); err != nil {
		return fmt.Errorf("step: could not set bandit target input: %v", err)
	}
	if err := d.skipNextVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run bandit target net: %v", err)
	}
	nextValues := d.skipNext.Output()[1].Data().([]float64)

	// The duration value target bootstraps off the maximum duration
	// value of the next state. The bootstrap is not cut at terminal
	// next states and is discounted by a single power of γ regardless
	// of the repeat duration.
	valueTarget := make([]float64, d.batchSize)
	for i := range valueTarget {
		next := nextValues[i*d.numSkips : (i+1)*d.numSkips]
		valueTarget[i] = R[i] + d.gamma*floatutils.Max(next...)
	}
	d.skipNextVM.Reset()

	// One-hot vectors of the durations chosen at the sampled states
	oneHotSkips := make([]float64, d.batchSize*d.numSkips)
	for i, s := range skip {
		oneHotSkips[i*d.numSkips+s] = 1.0
	}

	chosenSkips := tensor.New(
		tensor.WithShape(d.batchSize, d.numSkips),
		tensor.WithBacking(oneHotSkips),
	)
	if err := G.Let(d.chosenSkips, chosenSkips); err != nil {
		return fmt.Errorf("step: could not set chosen durations: %v", err)
	}

	tdErrorTensor := tensor.New(tensor.WithBacking(tdErrors),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.skipTdErrors, tdErrorTensor); err != nil {
		return fmt.Errorf("step: could not set TD errors: %v", err)
	}

	valueTargetTensor := tensor.New(tensor.WithBacking(valueTarget),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.valueTargets, valueTargetTensor); err != nil {
		return fmt.Errorf("step: could not set duration value targets: %v",
			err)
	}

	// Run the bandit learning step
	if err := d.skipTrain.SetInput(S); err != nil {
		return fmt.Errorf("step: could not set bandit input: %v", err)
	}
	if err := d.skipTrainVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run bandit update: %v", err)
	}
	d.lastBanditLoss = (*d.skipCost).Data().(float64)
	if err := solver.ClipGlobalNorm(d.skipTrain.Model(),
		d.maxGradNorm); err != nil {
		return fmt.Errorf("step: could not clip bandit gradient: %v", err)
	}
	if err := d.skipSolver.Step(d.skipTrain.Model()); err != nil {
		return fmt.Errorf("step: could not step bandit solver: %v", err)
	}
	d.skipTrainVM.Reset()
	d.gradientSteps++

	// Update the target network by setting its weights to the newly
	// learned weights
	if d.gradientSteps%d.targetUpdateInterval == 0 {
		if err := d.qTarget.Set(d.qTrain); err != nil {
			return fmt.Errorf("step: could not update target network: %v",
				err)
		}
	}

	// Update the selection rules with the newly learned weights
	if err := d.qBehaviour.Set(d.qTrain); err != nil {
		return fmt.Errorf("step: could not update action selection "+
			"weights: %v", err)
	}
	if err := d.skipBehaviour.Set(d.skipTrain); err != nil {
		return fmt.Errorf("step: could not update duration selection "+
			"weights: %v", err)
	}

	// The exploration rate decays only after completed updates so that
	// steps taken before the buffer can fill a batch do not consume
	// the exploration budget
	d.epsilon.Decay()

	return nil
}

// SelectAction runs the necessary VMs and then returns a 2-dimensional
// action vector (action, skip index), where the action is selected by
// the epsilon greedy rule over the Q network's action values and the
// skip index is selected by the bandit. Both selection rules share a
// single exploration rate and explore independently of each other. In
// evaluation mode both act greedily.
func (d *SkipQ) SelectAction(t ts.TimeStep) *mat.VecDense {
	obs := make([]float64, t.Observation.Len())
	for i := range obs {
		obs[i] = t.Observation.AtVec(i)
	}

	epsilon := d.epsilon.Value()
	if d.eval {
		epsilon = 0.0
	}

	if err := d.qBehaviour.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	if err := d.qBehaviourVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	action, err := d.qBehaviour.Select(epsilon)
	if err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	d.qBehaviourVM.Reset()

	if err := d.skipBehaviour.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	if err := d.skipBehaviourVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	skip, err := d.skipBehaviour.Select(epsilon)
	if err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	d.skipBehaviourVM.Reset()

	if !d.eval {
		d.skipCounts[skip]++
	}

	return mat.NewVecDense(2, []float64{float64(action), float64(skip)})
}

// Epsilon returns the current value of the agent's exploration rate
func (d *SkipQ) Epsilon() float64 {
	return d.epsilon.Value()
}

// Losses returns the Q network loss and the bandit loss of the latest
// completed update. Both are 0 until the first update runs.
func (d *SkipQ) Losses() (qLoss, banditLoss float64) {
	return d.lastQLoss, d.lastBanditLoss
}

// SkipCounts returns how often each repeat duration has been selected
// during training, indexed by catalog index
func (d *SkipQ) SkipCounts() []int {
	counts := make([]int, len(d.skipCounts))
	copy(counts, d.skipCounts)
	return counts
}

// Eval sets the agent into evaluation mode
func (d *SkipQ) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *SkipQ) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *SkipQ) IsEval() bool {
	return d.eval
}

// EndEpisode performs cleanup at the end of an episode
func (d *SkipQ) EndEpisode() {}

// Close closes the VMs that run the agent's computational graphs
func (d *SkipQ) Close() error {
	vms := []G.VM{
		d.qBehaviourVM,
		d.skipBehaviourVM,
		d.qTrainVM,
		d.qTargetVM,
		d.skipTrainVM,
		d.skipNextVM,
	}

	var firstErr error
	for _, vm := range vms {
		if err := vm.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
