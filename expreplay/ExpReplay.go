// Package expreplay implements experience replay buffers of transitions
package expreplay

import (
	"fmt"
	"math/rand"

	"github.com/samuelfneumann/goskip/timestep"
)

// ExperienceReplayer implements a bounded experience replay buffer.
// Once the buffer is filled to its maximum capacity, each added
// transition evicts the oldest stored transition.
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer, returning
	// the batch as flattened state, one-hot action, reward, terminal
	// indicator, and next state slices, together with the repeat
	// catalog index of each sampled transition
	Sample() (state, action, reward, terminal, nextState []float64,
		skip []int, err error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// cache implements a concrete ExperienceReplayer as a pre-allocated
// arena indexed by a write cursor modulo the maximum capacity. Adding
// past capacity overwrites the slot of the oldest transition, so
// eviction is O(1) and no per-add allocation occurs.
type cache struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	terminalCache  []float64
	nextStateCache []float64
	skipCache      []int

	// insertPos is the next slot to write to. Slots are reused in
	// insertion order, which makes eviction strictly oldest-first.
	insertPos int
	full      bool

	batchSize   int
	maxCapacity int
	featureSize int
	actionSize  int

	rng *rand.Rand
}

// New creates and returns a new ExperienceReplayer with a fixed
// maximum capacity. The featureSize and actionSize parameters define
// the lengths of the flattened state and one-hot action vectors of
// every stored transition. Sampling returns batchSize transitions
// drawn uniformly at random without replacement, using a random number
// generator seeded by seed.
//
// Pixel observations should be flattened before adding to the buffer.
func New(capacity, batchSize, featureSize, actionSize int,
	seed int64) (ExperienceReplayer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be > 0 but got %v",
			capacity)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("new: batch size must be > 0 but got %v",
			batchSize)
	}
	if batchSize > capacity {
		return nil, fmt.Errorf("new: batch size must be <= capacity "+
			"\n\twant(<= %v) \n\thave(%v)", capacity, batchSize)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: feature size must be > 0 but got %v",
			featureSize)
	}
	if actionSize < 1 {
		return nil, fmt.Errorf("new: action size must be > 0 but got %v",
			actionSize)
	}

	c := &cache{
		stateCache:     make([]float64, capacity*featureSize),
		actionCache:    make([]float64, capacity*actionSize),
		rewardCache:    make([]float64, capacity),
		terminalCache:  make([]float64, capacity),
		nextStateCache: make([]float64, capacity*featureSize),
		skipCache:      make([]int, capacity),
		batchSize:      batchSize,
		maxCapacity:    capacity,
		featureSize:    featureSize,
		actionSize:     actionSize,
		rng:            rand.New(rand.NewSource(seed)),
	}
	return c, nil
}

// Capacity returns the current number of samples in the cache
func (c *cache) Capacity() int {
	if c.full {
		return c.maxCapacity
	}
	return c.insertPos
}

// MaxCapacity returns the maximum number of samples the cache may hold
func (c *cache) MaxCapacity() int {
	return c.maxCapacity
}

// BatchSize returns the number of samples returned by Sample()
func (c *cache) BatchSize() int {
	return c.batchSize
}

// Add adds a transition to the cache, overwriting the oldest stored
// transition when the cache is at maximum capacity
func (c *cache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)\n\thave(%v)",
			c.featureSize, t.State.Len())
	}
	if t.Action.Len() != c.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)\n\thave(%v)",
			c.actionSize, t.Action.Len())
	}

	index := c.insertPos

	stateInd := index * c.featureSize
	for i := 0; i < c.featureSize; i++ {
		c.stateCache[stateInd+i] = t.State.AtVec(i)
		c.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	actionInd := index * c.actionSize
	for i := 0; i < c.actionSize; i++ {
		c.actionCache[actionInd+i] = t.Action.AtVec(i)
	}

	c.rewardCache[index] = t.Reward
	if t.Terminal {
		c.terminalCache[index] = 1.0
	} else {
		c.terminalCache[index] = 0.0
	}
	c.skipCache[index] = t.Skip

	c.insertPos++
	if c.insertPos >= c.maxCapacity {
		c.insertPos = 0
		c.full = true
	}

	return nil
}

// Sample samples and returns a batch of transitions from the cache.
// Sampling is uniform without replacement over the currently stored
// transitions and does not modify the cache. Sample returns an error
// if the cache is empty or holds fewer transitions than the batch
// size; it never returns a short batch.
func (c *cache) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, []int, error) {
	if c.Capacity() == 0 {
		return nil, nil, nil, nil, nil, nil,
			&ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if c.Capacity() < c.batchSize {
		return nil, nil, nil, nil, nil, nil,
			&ExpReplayError{Op: "sample", Err: errInsufficientSamples}
	}

	indices := c.rng.Perm(c.Capacity())[:c.batchSize]

	state := make([]float64, c.batchSize*c.featureSize)
	action := make([]float64, c.batchSize*c.actionSize)
	reward := make([]float64, c.batchSize)
	terminal := make([]float64, c.batchSize)
	nextState := make([]float64, c.batchSize*c.featureSize)
	skip := make([]int, c.batchSize)

	for i, index := range indices {
		stateInd := index * c.featureSize
		copy(state[i*c.featureSize:(i+1)*c.featureSize],
			c.stateCache[stateInd:stateInd+c.featureSize])
		copy(nextState[i*c.featureSize:(i+1)*c.featureSize],
			c.nextStateCache[stateInd:stateInd+c.featureSize])

		actionInd := index * c.actionSize
		copy(action[i*c.actionSize:(i+1)*c.actionSize],
			c.actionCache[actionInd:actionInd+c.actionSize])

		reward[i] = c.rewardCache[index]
		terminal[i] = c.terminalCache[index]
		skip[i] = c.skipCache[index]
	}

	return state, action, reward, terminal, nextState, skip, nil
}
