package ddpg

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/gorlkit/ddpg/environment"
	"github.com/gorlkit/ddpg/expreplay"
	"github.com/gorlkit/ddpg/network"
	"github.com/gorlkit/ddpg/timestep"
)

// Filenames under which Save persists the learned networks
const (
	actorFile  string = "actor.bin"
	criticFile string = "critic.bin"
)

// DDPG implements the deep deterministic policy gradient algorithm.
//
// DDPG runs three copies of the actor. The behaviour actor acts in the
// environment with a batch size of 1. The train actor learns on
// sampled batches and shares a computational graph with a replica of
// the critic so that the policy gradient can flow from the critic's
// prediction back through the actor's proposed actions. The target
// actor provides the actions for bootstrapped critic targets and
// tracks the train actor through Polyak averaging. The critic
// similarly has a learned copy and a target copy, each on its own
// graph. The critic replica on the actor's graph is synchronized with
// the learned critic before each policy update and its weights are
// never adjusted by a solver.
type DDPG struct {
	behaviourActor network.NeuralNet
	behaviourVM    G.VM

	trainActor  network.NeuralNet
	actorCritic network.NeuralNet
	actorVM     G.VM
	actorSolver G.Solver

	trainCritic   network.NeuralNet
	criticTargets *G.Node
	criticVM      G.VM
	criticSolver  G.Solver

	targetActor    network.NeuralNet
	targetActorVM  G.VM
	targetCritic   network.NeuralNet
	targetCriticVM G.VM

	replay     expreplay.Buffer
	prevStep   timestep.TimeStep
	actionDims int

	tau         float64
	gamma       float64
	updateEvery int

	stepsSinceLearn int
	gradientSteps   int
	eval            bool
}

// New creates and returns a new DDPG agent acting in the argument
// environment
func New(env environment.Environment, c Config, seed uint64) (*DDPG, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid configuration: %v", err)
	}

	features := env.ObservationSpec().Shape.Len()
	actionDims := env.ActionSpec().Shape.Len()
	batchSize := c.BatchSize()
	init := c.InitWFn.InitWFn()

	// Learned critic with its bootstrapped update target
	criticGraph := G.NewGraph()
	trainCritic, err := network.NewActionValueMLP(features, actionDims,
		batchSize, criticGraph, c.CriticLayers, c.CriticBiases, init,
		c.CriticActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}

	criticTargets := G.NewMatrix(
		criticGraph,
		tensor.Float64,
		G.WithShape(batchSize, 1),
		G.WithName("updateTarget"),
		G.WithInit(G.Zeroes()),
	)

	criticError := G.Must(G.Sub(criticTargets, trainCritic.Prediction()))
	criticLoss := G.Must(G.Mean(G.Must(G.Square(criticError))))
	if _, err := G.Grad(criticLoss, trainCritic.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute critic gradient: %v",
			err)
	}
	criticVM := G.NewTapeMachine(criticGraph,
		G.BindDualValues(trainCritic.Learnables()...))

	// Learned actor, sharing a graph with a replica of the critic so
	// that the policy gradient flows through the proposed actions
	actorGraph := G.NewGraph()
	trainActor, err := network.NewMLP(features, batchSize, actionDims,
		actorGraph, c.ActorLayers, c.ActorBiases, init, c.ActorActivations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create actor: %v", err)
	}

	actorCritic, err := network.NewMLPFromInputs(
		[]*G.Node{trainActor.Inputs()[0], trainActor.Prediction()},
		[]int{features, actionDims},
		1,
		actorGraph,
		c.CriticLayers,
		c.CriticBiases,
		init,
		c.CriticActivations,
		"Critic",
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic replica: %v", err)
	}
	if err := actorCritic.Set(trainCritic); err != nil {
		return nil, fmt.Errorf("new: could not sync critic replica: %v", err)
	}

	// Maximize the critic's estimate of the actor's actions. The
	// gradient is taken with respect to the actor's weights only, so
	// the replica's weights stay fixed during the policy update.
	actorLoss := G.Must(G.Neg(G.Must(G.Mean(actorCritic.Prediction()))))
	if _, err := G.Grad(actorLoss, trainActor.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute actor gradient: %v",
			err)
	}
	actorVM := G.NewTapeMachine(actorGraph,
		G.BindDualValues(trainActor.Learnables()...))

	// Behaviour and target copies start with the learned weights
	behaviourActor, err := trainActor.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour actor: %v",
			err)
	}
	behaviourVM := G.NewTapeMachine(behaviourActor.Graph())

	targetActor, err := trainActor.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target actor: %v", err)
	}
	targetActorVM := G.NewTapeMachine(targetActor.Graph())

	targetCritic, err := trainCritic.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target critic: %v", err)
	}
	targetCriticVM := G.NewTapeMachine(targetCritic.Graph())

	replay, err := c.ExpReplay.Create(features, actionDims, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v", err)
	}

	return &DDPG{
		behaviourActor: behaviourActor,
		behaviourVM:    behaviourVM,

		trainActor:  trainActor,
		actorCritic: actorCritic,
		actorVM:     actorVM,
		actorSolver: c.ActorSolver.Solver,

		trainCritic:   trainCritic,
		criticTargets: criticTargets,
		criticVM:      criticVM,
		criticSolver:  c.CriticSolver.Solver,

		targetActor:    targetActor,
		targetActorVM:  targetActorVM,
		targetCritic:   targetCritic,
		targetCriticVM: targetCriticVM,

		replay:     replay,
		actionDims: actionDims,

		tau:         c.Tau,
		gamma:       c.Gamma,
		updateEvery: c.UpdateEvery,
	}, nil
}

// SelectAction runs the behaviour policy on the observation of the
// argument timestep and returns the greedy action
func (d *DDPG) SelectAction(t timestep.TimeStep) *mat.VecDense {
	obs := t.Observation.RawVector().Data
	if err := d.behaviourActor.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: could not set input: %v", err))
	}
	if err := d.behaviourVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: could not run policy: %v", err))
	}

	actionData := d.behaviourActor.Output().Data().([]float64)
	action := make([]float64, d.actionDims)
	copy(action, actionData)
	d.behaviourVM.Reset()

	return mat.NewVecDense(d.actionDims, action)
}

// ObserveFirst records the first timestep of an episode
func (d *DDPG) ObserveFirst(t timestep.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %v)\n", t)
	}
	d.prevStep = t

	return nil
}

// Observe records an action taken in the environment and the timestep
// the action led to
func (d *DDPG) Observe(action mat.Vector, nextStep timestep.TimeStep) error {
	if d.eval {
		d.prevStep = nextStep
		return nil
	}

	transition := timestep.NewTransition(d.prevStep,
		mat.VecDenseCopyOf(action), nextStep)
	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: could not add to replay buffer: %v", err)
	}
	d.prevStep = nextStep

	return nil
}

// Step performs a learning step if one is due on the current
// environmental step. Learning happens on every updateEvery'th call
// and only once more transitions have been recorded than fit in a
// single batch.
func (d *DDPG) Step() error {
	if d.eval {
		return nil
	}

	d.stepsSinceLearn = (d.stepsSinceLearn + 1) % d.updateEvery
	if d.stepsSinceLearn != 0 {
		return nil
	}
	if d.replay.Capacity() <= d.replay.BatchSize() {
		return nil
	}

	return d.learn()
}

// learn updates the critic toward one-step bootstrapped targets,
// updates the actor along the critic's action gradient, and moves the
// target networks toward the learned networks
func (d *DDPG) learn() error {
	states, actions, rewards, nextStates, dones, err := d.replay.Sample()
	if err != nil {
		return fmt.Errorf("learn: could not sample experience: %v", err)
	}

	// Actions the target policy would take in the next states
	nextActions, err := d.runTargetActor(nextStates)
	if err != nil {
		return err
	}

	// Target critic's estimate of the value of those actions
	nextQ, err := d.runTargetCritic(nextStates, nextActions)
	if err != nil {
		return err
	}

	targets := bootstrapTargets(rewards, nextQ, dones, d.gamma)

	// Critic update
	if err := d.trainCritic.SetInputs(states, actions); err != nil {
		return fmt.Errorf("learn: could not set critic input: %v", err)
	}
	targetsTensor := tensor.New(
		tensor.WithBacking(targets),
		tensor.WithShape(d.replay.BatchSize(), 1),
	)
	if err := G.Let(d.criticTargets, targetsTensor); err != nil {
		return fmt.Errorf("learn: could not set critic target: %v", err)
	}
	if err := d.criticVM.RunAll(); err != nil {
		return fmt.Errorf("learn: could not run critic update: %v", err)
	}
	if err := d.criticSolver.Step(d.trainCritic.Model()); err != nil {
		return fmt.Errorf("learn: could not step critic solver: %v", err)
	}
	d.criticVM.Reset()

	// Actor update against the freshly updated critic
	if err := d.actorCritic.Set(d.trainCritic); err != nil {
		return fmt.Errorf("learn: could not sync critic replica: %v", err)
	}
	if err := d.trainActor.SetInput(states); err != nil {
		return fmt.Errorf("learn: could not set actor input: %v", err)
	}
	if err := d.actorVM.RunAll(); err != nil {
		return fmt.Errorf("learn: could not run actor update: %v", err)
	}
	if err := d.actorSolver.Step(d.trainActor.Model()); err != nil {
		return fmt.Errorf("learn: could not step actor solver: %v", err)
	}
	d.actorVM.Reset()

	// Move targets toward the learned networks
	if err := d.targetActor.Polyak(d.trainActor, d.tau); err != nil {
		return fmt.Errorf("learn: could not update target actor: %v", err)
	}
	if err := d.targetCritic.Polyak(d.trainCritic, d.tau); err != nil {
		return fmt.Errorf("learn: could not update target critic: %v", err)
	}

	// Act with the updated policy
	if err := d.behaviourActor.Set(d.trainActor); err != nil {
		return fmt.Errorf("learn: could not update behaviour actor: %v", err)
	}

	d.gradientSteps++
	return nil
}

// runTargetActor runs the target actor on a batch of states and
// returns the predicted actions in row major order
func (d *DDPG) runTargetActor(states []float64) ([]float64, error) {
	if err := d.targetActor.SetInput(states); err != nil {
		return nil, fmt.Errorf("learn: could not set target actor input: %v",
			err)
	}
	if err := d.targetActorVM.RunAll(); err != nil {
		return nil, fmt.Errorf("learn: could not run target actor: %v", err)
	}

	out := d.targetActor.Output().Data().([]float64)
	actions := make([]float64, len(out))
	copy(actions, out)
	d.targetActorVM.Reset()

	return actions, nil
}

// runTargetCritic runs the target critic on a batch of states and
// actions and returns the predicted action values
func (d *DDPG) runTargetCritic(states, actions []float64) ([]float64, error) {
	if err := d.targetCritic.SetInputs(states, actions); err != nil {
		return nil, fmt.Errorf("learn: could not set target critic input: %v",
			err)
	}
	if err := d.targetCriticVM.RunAll(); err != nil {
		return nil, fmt.Errorf("learn: could not run target critic: %v", err)
	}

	out := d.targetCritic.Output().Data().([]float64)
	values := make([]float64, len(out))
	copy(values, out)
	d.targetCriticVM.Reset()

	return values, nil
}

// bootstrapTargets computes the one-step bootstrapped critic targets
// R + γ·Q'(S', μ'(S')) for a batch of transitions. Transitions that
// ended their episode do not bootstrap.
func bootstrapTargets(rewards, nextQ, dones []float64,
	gamma float64) []float64 {
	targets := make([]float64, len(rewards))
	for i := range targets {
		targets[i] = rewards[i] + gamma*nextQ[i]*(1.0-dones[i])
	}

	return targets
}

// EndEpisode performs cleanup at the end of an episode
func (d *DDPG) EndEpisode() {}

// Eval sets the agent to evaluation mode, in which acting does not
// record transitions and learning is suspended
func (d *DDPG) Eval() {
	d.eval = true
}

// Train sets the agent to training mode
func (d *DDPG) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DDPG) IsEval() bool {
	return d.eval
}

// GradientSteps returns the number of gradient updates the agent has
// performed so far
func (d *DDPG) GradientSteps() int {
	return d.gradientSteps
}

// Save persists the learned actor and critic in the argument directory
func (d *DDPG) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save: could not create directory: %v", err)
	}

	err := network.Save(filepath.Join(dir, actorFile), d.trainActor)
	if err != nil {
		return fmt.Errorf("save: could not save actor: %v", err)
	}

	err = network.Save(filepath.Join(dir, criticFile), d.trainCritic)
	if err != nil {
		return fmt.Errorf("save: could not save critic: %v", err)
	}

	return nil
}

// Load restores previously saved actor and critic weights from the
// argument directory into the agent's learned, behaviour, and target
// networks
func (d *DDPG) Load(dir string) error {
	actor, err := network.Load(filepath.Join(dir, actorFile))
	if err != nil {
		return fmt.Errorf("load: could not load actor: %v", err)
	}
	critic, err := network.Load(filepath.Join(dir, criticFile))
	if err != nil {
		return fmt.Errorf("load: could not load critic: %v", err)
	}

	if err := d.trainActor.Set(actor); err != nil {
		return fmt.Errorf("load: could not restore actor: %v", err)
	}
	if err := d.behaviourActor.Set(actor); err != nil {
		return fmt.Errorf("load: could not restore behaviour actor: %v", err)
	}
	if err := d.targetActor.Set(actor); err != nil {
		return fmt.Errorf("load: could not restore target actor: %v", err)
	}

	if err := d.trainCritic.Set(critic); err != nil {
		return fmt.Errorf("load: could not restore critic: %v", err)
	}
	if err := d.actorCritic.Set(critic); err != nil {
		return fmt.Errorf("load: could not restore critic replica: %v", err)
	}
	if err := d.targetCritic.Set(critic); err != nil {
		return fmt.Errorf("load: could not restore target critic: %v", err)
	}

	return nil
}
