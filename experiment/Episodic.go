// Package experiment implements functionality for running experiments
package experiment

import (
	"fmt"
	"os"

	"github.com/gorlkit/ddpg/agent"
	env "github.com/gorlkit/ddpg/environment"
	"github.com/gorlkit/ddpg/experiment/tracker"
	"github.com/gorlkit/ddpg/noise"
	ts "github.com/gorlkit/ddpg/timestep"
	"github.com/gorlkit/ddpg/utils/floatutils"
	"github.com/gorlkit/ddpg/utils/progressbar"
)

// EpisodicConfig implements a configuration of an Episodic experiment
type EpisodicConfig struct {
	// MaxEpisodes is the maximum number of episodes to train for
	MaxEpisodes int

	// WindowSize is the number of recent episodes whose mean return is
	// tested against TargetReturn
	WindowSize int

	// TargetReturn is the mean return over the last WindowSize episodes
	// at which the environment is considered solved. The window must be
	// full before the mean is tested, so a run never stops before
	// WindowSize episodes have completed.
	TargetReturn float64

	// SaveDir is the directory in which the agent's learned parameters
	// are saved when the environment is solved. If SaveDir is the empty
	// string, nothing is saved.
	SaveDir string

	// ShowProgress determines whether a progress bar is drawn to
	// standard output during the run
	ShowProgress bool
}

// Validate ensures the EpisodicConfig is valid
func (c EpisodicConfig) Validate() error {
	if c.MaxEpisodes < 1 {
		return fmt.Errorf("maximum episodes must be positive, got %v",
			c.MaxEpisodes)
	}
	if c.WindowSize < 1 {
		return fmt.Errorf("window size must be positive, got %v",
			c.WindowSize)
	}
	return nil
}

// Episodic is an experiment that runs an agent on an environment for
// full episodes until either a maximum number of episodes has elapsed
// or the mean return over a recent window of episodes reaches a target
// value. When the target is reached, the agent's learned parameters
// are saved if the agent supports saving.
type Episodic struct {
	env.Environment
	agent.Agent
	exploration noise.Process
	config      EpisodicConfig

	trackers []tracker.Tracker
}

// NewEpisodic creates and returns a new Episodic experiment. The
// exploration parameter perturbs the agent's actions during training
// and may be nil, in which case the agent acts greedily. The trackers
// parameter determines what data generated during the run is saved.
func NewEpisodic(e env.Environment, a agent.Agent, exploration noise.Process,
	c EpisodicConfig, trackers ...tracker.Tracker) (*Episodic, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newepisodic: invalid configuration: %v", err)
	}

	return &Episodic{
		Environment: e,
		Agent:       a,
		exploration: exploration,
		config:      c,
		trackers:    trackers,
	}, nil
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the run can be tracked and saved
func (e *Episodic) Register(t tracker.Tracker) {
	e.trackers = append(e.trackers, t)
}

// RunEpisode runs a single episode and returns its return
func (e *Episodic) RunEpisode() (float64, error) {
	step := e.Environment.Reset()
	if e.exploration != nil {
		e.exploration.Reset()
	}
	if err := e.Agent.ObserveFirst(step); err != nil {
		return 0, fmt.Errorf("runepisode: %v", err)
	}
	e.track(step)

	score := 0.0
	for stepNum := 0; !step.Last(); stepNum++ {
		action := e.Agent.SelectAction(step)
		if e.exploration != nil && !e.Agent.IsEval() {
			action = e.exploration.Sample(action, stepNum)
		}

		step, _ = e.Environment.Step(action)
		score += step.Reward
		e.track(step)

		if err := e.Agent.Observe(action, step); err != nil {
			return 0, fmt.Errorf("runepisode: %v", err)
		}
		if err := e.Agent.Step(); err != nil {
			return 0, fmt.Errorf("runepisode: %v", err)
		}
	}
	e.Agent.EndEpisode()

	return score, nil
}

// Run runs the experiment until the environment is solved or the
// maximum number of episodes has elapsed. The returns of all completed
// episodes are returned, along with a flag indicating whether the
// target return was reached.
func (e *Episodic) Run() ([]float64, bool, error) {
	windowSize := e.config.WindowSize
	window := make([]float64, 0, windowSize)
	windowPos := 0

	var pbar *progressbar.ProgressBar
	if e.config.ShowProgress {
		pbar = progressbar.New(os.Stdout, 65, e.config.MaxEpisodes)
	}

	scores := make([]float64, 0, e.config.MaxEpisodes)
	solved := false

	for episode := 1; episode <= e.config.MaxEpisodes; episode++ {
		score, err := e.RunEpisode()
		if err != nil {
			return scores, false, fmt.Errorf("run: episode %v failed: %v",
				episode, err)
		}
		scores = append(scores, score)

		if len(window) < windowSize {
			window = append(window, score)
		} else {
			window[windowPos] = score
			windowPos = (windowPos + 1) % windowSize
		}
		mean := floatutils.Mean(window...)

		if pbar != nil {
			pbar.Increment(fmt.Sprintf("episode %v | mean return %.2f",
				episode, mean))
		}

		// The mean is only meaningful once a full window of episodes
		// has completed
		if len(window) == windowSize && mean >= e.config.TargetReturn {
			solved = true
			break
		}
	}

	if pbar != nil {
		pbar.Close()
	}

	if solved && e.config.SaveDir != "" {
		if saver, ok := e.Agent.(agent.Saver); ok {
			if err := saver.Save(e.config.SaveDir); err != nil {
				return scores, solved, fmt.Errorf("run: could not save "+
					"agent: %v", err)
			}
		}
	}

	return scores, solved, nil
}

// Save saves all the data cached by the experiment's Trackers to disk
func (e *Episodic) Save() error {
	for _, t := range e.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each
// Tracker
func (e *Episodic) track(t ts.TimeStep) {
	for _, tr := range e.trackers {
		tr.Track(t)
	}
}
