package ddpg

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/gorlkit/ddpg/environment"
	"github.com/gorlkit/ddpg/environment/classiccontrol/pendulum"
	"github.com/gorlkit/ddpg/expreplay"
	"github.com/gorlkit/ddpg/initwfn"
	"github.com/gorlkit/ddpg/network"
	"github.com/gorlkit/ddpg/solver"
)

func TestBootstrapTargets(t *testing.T) {
	const gamma = 0.9

	rewards := []float64{1.0, -1.0, 0.5, 2.0}
	nextQ := []float64{10.0, 10.0, -4.0, 8.0}

	t.Run("terminal transitions do not bootstrap", func(t *testing.T) {
		dones := []float64{1.0, 1.0, 1.0, 1.0}
		targets := bootstrapTargets(rewards, nextQ, dones, gamma)

		for i := range targets {
			if targets[i] != rewards[i] {
				t.Errorf("terminal target %v should equal the reward "+
					"\n\twant(%v)\n\thave(%v)", i, rewards[i], targets[i])
			}
		}
	})

	t.Run("non-terminal transitions bootstrap", func(t *testing.T) {
		dones := []float64{0.0, 0.0, 0.0, 0.0}
		targets := bootstrapTargets(rewards, nextQ, dones, gamma)

		for i := range targets {
			expected := rewards[i] + gamma*nextQ[i]
			if math.Abs(targets[i]-expected) > 1e-14 {
				t.Errorf("wrong target %v \n\twant(%v)\n\thave(%v)", i,
					expected, targets[i])
			}
		}
	})

	t.Run("mixed batch", func(t *testing.T) {
		dones := []float64{0.0, 1.0, 0.0, 1.0}
		targets := bootstrapTargets(rewards, nextQ, dones, gamma)

		for i := range targets {
			expected := rewards[i] + gamma*nextQ[i]*(1.0-dones[i])
			if math.Abs(targets[i]-expected) > 1e-14 {
				t.Errorf("wrong target %v \n\twant(%v)\n\thave(%v)", i,
					expected, targets[i])
			}
		}
	})
}

// testConfig returns a valid, small configuration for testing
func testConfig(t *testing.T, batchSize int) Config {
	t.Helper()

	actorSolver, err := solver.NewDefaultAdam(1e-3, batchSize)
	if err != nil {
		t.Fatalf("could not create actor solver: %v", err)
	}
	criticSolver, err := solver.NewDefaultAdam(1e-3, batchSize)
	if err != nil {
		t.Fatalf("could not create critic solver: %v", err)
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatalf("could not create weight initializer: %v", err)
	}

	return Config{
		ActorLayers:      []int{4},
		ActorBiases:      []bool{true},
		ActorActivations: []*network.Activation{network.ReLU()},

		CriticLayers:      []int{4},
		CriticBiases:      []bool{true},
		CriticActivations: []*network.Activation{network.ReLU()},

		ActorSolver:  actorSolver,
		CriticSolver: criticSolver,
		InitWFn:      init,

		ExpReplay: expreplay.Config{
			MaxCapacity: 100,
			MinCapacity: 1,
			BatchSize:   batchSize,
		},

		Tau:         0.05,
		Gamma:       0.99,
		UpdateEvery: 1,
	}
}

func TestConfigValidate(t *testing.T) {
	valid := testConfig(t, 2)
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid configuration rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing actor bias flag", func(c *Config) {
			c.ActorBiases = nil
		}},
		{"missing actor activation", func(c *Config) {
			c.ActorActivations = nil
		}},
		{"missing critic bias flag", func(c *Config) {
			c.CriticBiases = nil
		}},
		{"missing critic activation", func(c *Config) {
			c.CriticActivations = nil
		}},
		{"no actor solver", func(c *Config) {
			c.ActorSolver = nil
		}},
		{"no critic solver", func(c *Config) {
			c.CriticSolver = nil
		}},
		{"no weight initializer", func(c *Config) {
			c.InitWFn = nil
		}},
		{"negative discount", func(c *Config) {
			c.Gamma = -0.1
		}},
		{"discount above 1", func(c *Config) {
			c.Gamma = 1.1
		}},
		{"zero target move rate", func(c *Config) {
			c.Tau = 0.0
		}},
		{"zero update interval", func(c *Config) {
			c.UpdateEvery = 0
		}},
		{"zero batch size", func(c *Config) {
			c.ExpReplay.BatchSize = 0
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := testConfig(t, 2)
			test.mutate(&config)
			if err := config.Validate(); err == nil {
				t.Error("invalid configuration accepted")
			}
		})
	}
}

// newTestEnv returns a small pendulum environment for testing
func newTestEnv(t *testing.T) environment.Environment {
	t.Helper()

	bounds := r1.Interval{Min: 0.0, Max: 0.0}
	s := environment.NewUniformStarter([]r1.Interval{bounds, bounds}, 14)
	task := pendulum.NewSwingUp(s, 50)
	p, _ := pendulum.New(task, 0.99)

	return p
}

func TestNoLearningUntilBufferExceedsBatch(t *testing.T) {
	const batchSize = 4

	env := newTestEnv(t)
	agent, err := New(env, testConfig(t, batchSize), 14)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	step := env.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}

	// The agent learns every step, but only once the replay buffer
	// holds strictly more transitions than a single batch
	for i := 0; i < batchSize; i++ {
		action := agent.SelectAction(step)
		step, _ = env.Step(action)
		if err := agent.Observe(action, step); err != nil {
			t.Fatalf("could not observe step %v: %v", i, err)
		}
		if err := agent.Step(); err != nil {
			t.Fatalf("could not step agent: %v", err)
		}
	}

	if agent.GradientSteps() != 0 {
		t.Fatalf("agent learned with only %v transitions stored \n\twant(0 "+
			"gradient steps)\n\thave(%v)", batchSize, agent.GradientSteps())
	}

	// One more transition tips the buffer past the batch size
	action := agent.SelectAction(step)
	step, _ = env.Step(action)
	if err := agent.Observe(action, step); err != nil {
		t.Fatalf("could not observe step: %v", err)
	}
	if err := agent.Step(); err != nil {
		t.Fatalf("could not step agent: %v", err)
	}

	if agent.GradientSteps() != 1 {
		t.Errorf("agent should learn once the buffer exceeds the batch "+
			"size \n\twant(1 gradient step)\n\thave(%v)",
			agent.GradientSteps())
	}
}

func TestLearningInterval(t *testing.T) {
	const (
		batchSize   = 2
		updateEvery = 3
	)

	env := newTestEnv(t)
	config := testConfig(t, batchSize)
	config.UpdateEvery = updateEvery

	agent, err := New(env, config, 14)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	step := env.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}

	totalSteps := 12
	for i := 0; i < totalSteps; i++ {
		action := agent.SelectAction(step)
		step, _ = env.Step(action)
		if err := agent.Observe(action, step); err != nil {
			t.Fatalf("could not observe step %v: %v", i, err)
		}
		if err := agent.Step(); err != nil {
			t.Fatalf("could not step agent: %v", err)
		}
	}

	// Learning is due on steps 3, 6, 9, and 12. On step 3 only 3
	// transitions are stored, which exceeds the batch size, so all
	// four learning steps happen.
	if agent.GradientSteps() != 4 {
		t.Errorf("wrong number of gradient steps \n\twant(%v)\n\thave(%v)",
			4, agent.GradientSteps())
	}
}

func TestEvalModeSuspendsLearning(t *testing.T) {
	const batchSize = 2

	env := newTestEnv(t)
	agent, err := New(env, testConfig(t, batchSize), 14)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	agent.Eval()
	if !agent.IsEval() {
		t.Fatal("agent should be in evaluation mode")
	}

	step := env.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}

	for i := 0; i < 10; i++ {
		action := agent.SelectAction(step)
		step, _ = env.Step(action)
		if err := agent.Observe(action, step); err != nil {
			t.Fatalf("could not observe step %v: %v", i, err)
		}
		if err := agent.Step(); err != nil {
			t.Fatalf("could not step agent: %v", err)
		}
	}

	if agent.GradientSteps() != 0 {
		t.Errorf("agent learned in evaluation mode \n\twant(0 gradient "+
			"steps)\n\thave(%v)", agent.GradientSteps())
	}

	agent.Train()
	if agent.IsEval() {
		t.Error("agent should be back in training mode")
	}
}

func TestSelectActionShape(t *testing.T) {
	env := newTestEnv(t)
	agent, err := New(env, testConfig(t, 2), 14)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	step := env.Reset()
	action := agent.SelectAction(step)

	if action.Len() != env.ActionSpec().Shape.Len() {
		t.Errorf("wrong action dimensions \n\twant(%v)\n\thave(%v)",
			env.ActionSpec().Shape.Len(), action.Len())
	}
}

func TestSaveLoad(t *testing.T) {
	env := newTestEnv(t)
	agent, err := New(env, testConfig(t, 2), 14)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}

	dir := t.TempDir()
	if err := agent.Save(dir); err != nil {
		t.Fatalf("could not save agent: %v", err)
	}

	restored, err := New(env, testConfig(t, 2), 15)
	if err != nil {
		t.Fatalf("could not create second agent: %v", err)
	}
	if err := restored.Load(dir); err != nil {
		t.Fatalf("could not load agent: %v", err)
	}

	// Both agents act identically once the saved weights are restored
	step := env.Reset()
	want := agent.SelectAction(step)
	have := restored.SelectAction(step)

	for i := 0; i < want.Len(); i++ {
		if math.Abs(want.AtVec(i)-have.AtVec(i)) > 1e-14 {
			t.Errorf("restored agent selects a different action "+
				"\n\twant(%v)\n\thave(%v)", want.AtVec(i), have.AtVec(i))
		}
	}
}
