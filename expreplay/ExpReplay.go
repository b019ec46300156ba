// Package expreplay implements fixed-capacity experience replay for
// off-policy learning. Transitions are evicted first-in-first-out once
// the buffer is full and sampled uniformly at random without
// replacement.
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/gorlkit/ddpg/timestep"
)

// Buffer implements an experience replay buffer
type Buffer interface {
	// Add adds a transition to the buffer, evicting the oldest
	// transition first if the buffer is at maximum capacity
	Add(t timestep.Transition) error

	// Sample samples a batch of transitions from the buffer and
	// returns the batch as five parallel slices: states, actions,
	// rewards, next states, and terminal flags (1.0 if the transition
	// ended its episode, 0.0 otherwise). State and action slices are
	// in row major order. Sampling does not mutate the buffer.
	Sample() ([]float64, []float64, []float64, []float64, []float64, error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// Config implements a specific configuration of a replay Buffer
type Config struct {
	MaxCapacity int
	MinCapacity int
	BatchSize   int
}

// Create creates and returns the Buffer described by the Config
func (c Config) Create(featureSize, actionSize int,
	seed uint64) (Buffer, error) {
	return New(c.MinCapacity, c.MaxCapacity, c.BatchSize, featureSize,
		actionSize, seed)
}

// ringBuffer implements a concrete Buffer. Transitions are stored in
// flat parallel caches indexed by insertion position. Once the buffer
// fills, the insertion position wraps and the oldest transition is
// overwritten.
type ringBuffer struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	nextStateCache []float64
	doneCache      []float64

	insertPos int
	isFull    bool

	rng *rand.Rand

	minCapacity int
	maxCapacity int
	batchSize   int
	featureSize int
	actionSize  int
}

// New creates and returns a new Buffer. The featureSize and actionSize
// parameters define the lengths of the state and action vectors stored
// in the buffer. The minCapacity parameter determines how many
// transitions must be in the buffer before sampling is allowed, and
// the maxCapacity parameter bounds the number of stored transitions.
func New(minCapacity, maxCapacity, batchSize, featureSize, actionSize int,
	seed uint64) (Buffer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("new: batchSize must be >= 1")
	}
	if maxCapacity < batchSize {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > max "+
			"buffer capacity (%v)", batchSize, maxCapacity)
	}
	if minCapacity < batchSize {
		minCapacity = batchSize
	}

	source := rand.NewSource(seed)

	return &ringBuffer{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),
		doneCache:      make([]float64, maxCapacity),

		insertPos: 0,
		isFull:    false,

		rng: rand.New(source),

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		batchSize:   batchSize,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the ringBuffer
func (r *ringBuffer) String() string {
	baseStr := "Capacity: %v \nInsert Position: %v \nStates: %v " +
		"\nActions: %v \nRewards: %v \nNext States: %v \nDones: %v"
	return fmt.Sprintf(baseStr, r.Capacity(), r.insertPos, r.stateCache,
		r.actionCache, r.rewardCache, r.nextStateCache, r.doneCache)
}

// BatchSize returns the number of samples returned by Sample()
func (r *ringBuffer) BatchSize() int {
	return r.batchSize
}

// Capacity returns the current number of transitions in the buffer
func (r *ringBuffer) Capacity() int {
	if r.isFull {
		return r.maxCapacity
	}
	return r.insertPos
}

// MaxCapacity returns the maximum number of transitions that are
// allowed in the buffer
func (r *ringBuffer) MaxCapacity() int {
	return r.maxCapacity
}

// MinCapacity returns the minimum number of transitions required in
// the buffer before sampling is allowed
func (r *ringBuffer) MinCapacity() int {
	return r.minCapacity
}

// Add adds a transition to the buffer, overwriting the oldest stored
// transition when the buffer is at maximum capacity
func (r *ringBuffer) Add(t timestep.Transition) error {
	if t.State.Len() != r.featureSize || t.NextState.Len() != r.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)\n\thave(%v)",
			r.featureSize, t.State.Len())
	}
	if t.Action.Len() != r.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)\n\thave(%v)",
			r.actionSize, t.Action.Len())
	}

	index := r.insertPos

	stateInd := index * r.featureSize
	copy(r.stateCache[stateInd:stateInd+r.featureSize],
		t.State.RawVector().Data)
	copy(r.nextStateCache[stateInd:stateInd+r.featureSize],
		t.NextState.RawVector().Data)

	actionInd := index * r.actionSize
	copy(r.actionCache[actionInd:actionInd+r.actionSize],
		t.Action.RawVector().Data)

	r.rewardCache[index] = t.Reward
	if t.Done {
		r.doneCache[index] = 1.0
	} else {
		r.doneCache[index] = 0.0
	}

	r.insertPos++
	if r.insertPos == r.maxCapacity {
		r.insertPos = 0
		r.isFull = true
	}
	return nil
}

// Sample samples and returns a batch of transitions from the buffer
func (r *ringBuffer) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, error) {
	if r.Capacity() == 0 {
		err := &BufferError{
			Op:  "sample",
			Err: errEmptyBuffer,
		}
		return nil, nil, nil, nil, nil, err
	}
	if r.Capacity() < r.minCapacity {
		err := &BufferError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, err
	}

	// Draw batchSize distinct indices uniformly at random
	indices := r.rng.Perm(r.Capacity())[:r.batchSize]

	stateBatch := make([]float64, r.batchSize*r.featureSize)
	nextStateBatch := make([]float64, r.batchSize*r.featureSize)
	for i, index := range indices {
		batchStartInd := i * r.featureSize
		expStartInd := index * r.featureSize
		copy(stateBatch[batchStartInd:batchStartInd+r.featureSize],
			r.stateCache[expStartInd:expStartInd+r.featureSize],
		)
		copy(nextStateBatch[batchStartInd:batchStartInd+r.featureSize],
			r.nextStateCache[expStartInd:expStartInd+r.featureSize],
		)
	}

	actionBatch := make([]float64, r.batchSize*r.actionSize)
	for i, index := range indices {
		batchStartInd := i * r.actionSize
		expStartInd := index * r.actionSize
		copy(actionBatch[batchStartInd:batchStartInd+r.actionSize],
			r.actionCache[expStartInd:expStartInd+r.actionSize],
		)
	}

	rewardBatch := make([]float64, r.batchSize)
	doneBatch := make([]float64, r.batchSize)
	for i, index := range indices {
		rewardBatch[i] = r.rewardCache[index]
		doneBatch[i] = r.doneCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, nextStateBatch, doneBatch,
		nil
}
