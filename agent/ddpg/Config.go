// Package ddpg implements the deep deterministic policy gradient
// algorithm for continuous action spaces.
//
// The agent maintains a deterministic policy network (the actor) and
// an action value network (the critic), each with a slowly moving
// target copy. Transitions are recorded in an experience replay
// buffer, and on a fixed interval of environmental steps a batch is
// sampled to update the critic toward one-step bootstrapped targets
// and the actor along the critic's action gradient. Target copies
// track the learned networks through Polyak averaging.
package ddpg

import (
	"fmt"

	"github.com/gorlkit/ddpg/expreplay"
	"github.com/gorlkit/ddpg/initwfn"
	"github.com/gorlkit/ddpg/network"
	"github.com/gorlkit/ddpg/solver"
)

// Config implements a configuration of the DDPG agent
type Config struct {
	// Policy network architecture
	ActorLayers      []int
	ActorBiases      []bool
	ActorActivations []*network.Activation

	// Action value network architecture
	CriticLayers      []int
	CriticBiases      []bool
	CriticActivations []*network.Activation

	ActorSolver  *solver.Solver
	CriticSolver *solver.Solver
	InitWFn      *initwfn.InitWFn

	ExpReplay expreplay.Config

	// Tau is the Polyak averaging constant for target network updates
	Tau float64

	// Gamma is the discount factor applied to bootstrapped targets
	Gamma float64

	// UpdateEvery is the interval of environmental steps on which the
	// networks learn
	UpdateEvery int
}

// BatchSize returns the batch size of the agent constructed with the
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.BatchSize
}

// Validate ensures the Config is valid, returning an error describing
// the first problem found
func (c Config) Validate() error {
	if len(c.ActorLayers) != len(c.ActorBiases) {
		return fmt.Errorf("actor network must have a bias flag per "+
			"layer \n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorBiases))
	}
	if len(c.ActorLayers) != len(c.ActorActivations) {
		return fmt.Errorf("actor network must have an activation per "+
			"layer \n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorActivations))
	}

	if len(c.CriticLayers) != len(c.CriticBiases) {
		return fmt.Errorf("critic network must have a bias flag per "+
			"layer \n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticBiases))
	}
	if len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("critic network must have an activation per "+
			"layer \n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticActivations))
	}

	if c.ActorSolver == nil {
		return fmt.Errorf("no solver provided for actor network")
	}
	if c.CriticSolver == nil {
		return fmt.Errorf("no solver provided for critic network")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("no weight initializer provided")
	}

	if c.Gamma < 0.0 || c.Gamma > 1.0 {
		return fmt.Errorf("discount must be in [0, 1], got %v", c.Gamma)
	}
	if c.Tau <= 0.0 || c.Tau > 1.0 {
		return fmt.Errorf("target move rate must be in (0, 1], got %v", c.Tau)
	}
	if c.UpdateEvery < 1 {
		return fmt.Errorf("update interval must be positive, got %v",
			c.UpdateEvery)
	}
	if c.ExpReplay.BatchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %v",
			c.ExpReplay.BatchSize)
	}

	return nil
}
