// Package agent implements functionality for agents and policies to
// learn from and act in environments
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gorlkit/ddpg/timestep"
)

// Agent determines the implementation details of an agent or algorithm
//
// An Agent is composed of a Learner, which learns from environmental
// interaction, and a Policy which determines how the agent acts in the
// environment
type Agent interface {
	Learner
	Policy
}

// Learner implements the algorithmic improvement of an Agent's Policy
type Learner interface {
	// Step performs a single learning step if one is due on the
	// current timestep. Agents may learn on an interval of
	// environmental steps, in which case Step is a no-op on the steps
	// in between.
	Step() error

	// ObserveFirst records the first timestep of an episode
	ObserveFirst(t timestep.TimeStep) error

	// Observe records an action taken in the environment and the
	// timestep the action led to
	Observe(action mat.Vector, nextStep timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy determines how an Agent selects actions
type Policy interface {
	// SelectAction returns the action to take on the argument timestep
	SelectAction(t timestep.TimeStep) *mat.VecDense

	// Eval sets the policy to evaluation mode
	Eval()

	// Train sets the policy to training mode
	Train()

	// IsEval returns whether the policy is in evaluation mode
	IsEval() bool
}

// Saver is implemented by agents that can persist their learned
// parameters to disk
type Saver interface {
	// Save persists the agent's learned parameters in the argument
	// directory
	Save(dir string) error
}
