// Package noise implements exploration noise processes for continuous
// action agents
package noise

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gorlkit/ddpg/utils/floatutils"
)

// Process perturbs actions for exploration. Sample takes the greedy
// action chosen by a policy and the index of the current step within
// its episode, and returns the perturbed action that should be taken
// in the environment. Reset resets the internal state of the process
// and should be called at the start of each episode.
type Process interface {
	Reset()
	Sample(action *mat.VecDense, step int) *mat.VecDense
}

// OrnsteinUhlenbeck implements a temporally correlated noise process.
// The process state drifts toward the mean mu at rate theta and is
// perturbed by Gaussian increments scaled by sigma. The scale sigma is
// linearly annealed from maxSigma to minSigma as the step index passed
// to Sample approaches decayPeriod, so that exploration diminishes as
// an episode progresses. Perturbed actions are clipped to the action
// bounds.
//
// OrnsteinUhlenbeck implements the Process interface
type OrnsteinUhlenbeck struct {
	mu          float64
	theta       float64
	maxSigma    float64
	minSigma    float64
	decayPeriod int
	bounds      r1.Interval

	state *mat.VecDense
	dist  distuv.Normal
}

// NewOrnsteinUhlenbeck creates and returns a new OrnsteinUhlenbeck
// noise process for actions of dimension actionDims that are legal
// within bounds
func NewOrnsteinUhlenbeck(actionDims int, bounds r1.Interval, mu, theta,
	maxSigma, minSigma float64, decayPeriod int,
	seed uint64) (*OrnsteinUhlenbeck, error) {
	if actionDims < 1 {
		return nil, fmt.Errorf("newornsteinuhlenbeck: actions must have "+
			"at least 1 dimension, got %v", actionDims)
	}
	if decayPeriod < 1 {
		return nil, fmt.Errorf("newornsteinuhlenbeck: decay period must "+
			"be positive, got %v", decayPeriod)
	}
	if minSigma > maxSigma {
		return nil, fmt.Errorf("newornsteinuhlenbeck: min sigma (%v) "+
			"cannot exceed max sigma (%v)", minSigma, maxSigma)
	}

	source := rand.NewSource(seed)
	dist := distuv.Normal{Mu: 0.0, Sigma: 1.0, Src: source}

	ou := &OrnsteinUhlenbeck{
		mu:          mu,
		theta:       theta,
		maxSigma:    maxSigma,
		minSigma:    minSigma,
		decayPeriod: decayPeriod,
		bounds:      bounds,
		state:       mat.NewVecDense(actionDims, nil),
		dist:        dist,
	}
	ou.Reset()

	return ou, nil
}

// Reset resets the internal state of the process to the mean
func (o *OrnsteinUhlenbeck) Reset() {
	for i := 0; i < o.state.Len(); i++ {
		o.state.SetVec(i, o.mu)
	}
}

// Sample perturbs the argument action with the next noise value of the
// process and returns the perturbed action, clipped to the legal
// action bounds. The step argument is the index of the current step
// within its episode and controls the annealing of the noise scale.
func (o *OrnsteinUhlenbeck) Sample(action *mat.VecDense,
	step int) *mat.VecDense {
	if action.Len() != o.state.Len() {
		panic(fmt.Sprintf("sample: action must have %v dimensions, got %v",
			o.state.Len(), action.Len()))
	}

	o.evolve(step)

	perturbed := mat.NewVecDense(action.Len(), nil)
	perturbed.AddVec(action, o.state)
	for i := 0; i < perturbed.Len(); i++ {
		perturbed.SetVec(i, floatutils.ClipInterval(perturbed.AtVec(i),
			o.bounds))
	}

	return perturbed
}

// evolve advances the noise process state by one step
func (o *OrnsteinUhlenbeck) evolve(step int) {
	sigma := o.sigma(step)
	for i := 0; i < o.state.Len(); i++ {
		x := o.state.AtVec(i)
		dx := o.theta*(o.mu-x) + sigma*o.dist.Rand()
		o.state.SetVec(i, x+dx)
	}
}

// sigma returns the annealed noise scale for the given environmental
// step
func (o *OrnsteinUhlenbeck) sigma(step int) float64 {
	progress := float64(step) / float64(o.decayPeriod)
	progress = floatutils.Clip(progress, 0.0, 1.0)

	return o.maxSigma - (o.maxSigma-o.minSigma)*progress
}
