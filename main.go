package main

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/gorlkit/ddpg/agent/ddpg"
	"github.com/gorlkit/ddpg/environment"
	"github.com/gorlkit/ddpg/environment/classiccontrol/pendulum"
	"github.com/gorlkit/ddpg/experiment"
	"github.com/gorlkit/ddpg/experiment/tracker"
	"github.com/gorlkit/ddpg/expreplay"
	"github.com/gorlkit/ddpg/initwfn"
	"github.com/gorlkit/ddpg/network"
	"github.com/gorlkit/ddpg/noise"
	"github.com/gorlkit/ddpg/solver"
)

func main() {
	var seed uint64 = 192382

	// Create the environment
	angleBounds := r1.Interval{Min: -pendulum.AngleBound,
		Max: pendulum.AngleBound}
	speedBounds := r1.Interval{Min: -1.0, Max: 1.0}

	s := environment.NewUniformStarter([]r1.Interval{angleBounds,
		speedBounds}, seed)
	task := pendulum.NewSwingUp(s, 200)
	p, _ := pendulum.New(task, 0.99)

	// Create the solvers and weight initializer
	actorSolver, err := solver.NewDefaultAdam(1e-4, 64)
	if err != nil {
		log.Fatal(err)
	}
	criticSolver, err := solver.NewDefaultAdam(1e-3, 64)
	if err != nil {
		log.Fatal(err)
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		log.Fatal(err)
	}

	// Create the learning algorithm
	config := ddpg.Config{
		ActorLayers:      []int{128, 128},
		ActorBiases:      []bool{true, true},
		ActorActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},

		CriticLayers:      []int{128, 128},
		CriticBiases:      []bool{true, true},
		CriticActivations: []*network.Activation{network.ReLU(),
			network.ReLU()},

		ActorSolver:  actorSolver,
		CriticSolver: criticSolver,
		InitWFn:      init,

		ExpReplay: expreplay.Config{
			MaxCapacity: 100_000,
			MinCapacity: 64,
			BatchSize:   64,
		},

		Tau:         0.001,
		Gamma:       0.99,
		UpdateEvery: 4,
	}
	agent, err := ddpg.New(p, config, seed)
	if err != nil {
		log.Fatal(err)
	}

	// Create the exploration noise process
	actionBounds := r1.Interval{Min: pendulum.MinAction,
		Max: pendulum.MaxAction}
	exploration, err := noise.NewOrnsteinUhlenbeck(pendulum.ActionDims,
		actionBounds, 0.0, 0.15, 0.3, 0.3, 100_000, seed)
	if err != nil {
		log.Fatal(err)
	}

	// Experiment
	returns := tracker.NewReturn("./data.bin")
	expConfig := experiment.EpisodicConfig{
		MaxEpisodes:  2000,
		WindowSize:   100,
		TargetReturn: 150.0,
		SaveDir:      "./checkpoint",
		ShowProgress: true,
	}
	e, err := experiment.NewEpisodic(p, agent, exploration, expConfig,
		returns)
	if err != nil {
		log.Fatal(err)
	}

	scores, solved, err := e.Run()
	if err != nil {
		log.Fatal(err)
	}
	if err := e.Save(); err != nil {
		log.Fatal(err)
	}

	if solved {
		fmt.Printf("solved in %v episodes\n", len(scores))
	} else {
		fmt.Printf("not solved after %v episodes\n", len(scores))
	}

	data, err := tracker.LoadData("./data.bin")
	if err != nil {
		log.Fatal(err)
	}
	if len(data) >= 10 {
		fmt.Println(data[len(data)-10:])
	}
}
