// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gorlkit/ddpg/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines whether an episode should end on the current
// timestep. Enders bound episodes that would otherwise not terminate.
type Ender interface {
	// End determines whether or not the current episode should be
	// ended, returning a boolean to indicate episode termination. If
	// the episode should be ended, End will modify the timestep so
	// that its step type is timestep.Last.
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking an action in a state,
	// leading to the next state
	GetReward(state, action, nextState mat.Vector) float64

	// AtGoal returns whether or not the argument state is the Task's
	// goal state
	AtGoal(state mat.Matrix) bool

	// Min returns the minimum possible reward of the Task
	Min() float64

	// Max returns the maximum possible reward of the Task
	Max() float64
}

// Environment implements a simulated environment that an agent
// interacts with
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first timestep of the new episode
	Reset() timestep.TimeStep

	// Step takes one environmental step given an action and returns
	// the next timestep and whether or not the episode has ended
	Step(action *mat.VecDense) (timestep.TimeStep, bool)

	// DiscountSpec returns the discount specification of the
	// environment
	DiscountSpec() Spec

	// ObservationSpec returns the observation specification of the
	// environment
	ObservationSpec() Spec

	// ActionSpec returns the action specification of the environment
	ActionSpec() Spec

	// Close performs cleanup of any resources the environment holds
	Close() error
}
