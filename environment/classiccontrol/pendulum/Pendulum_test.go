package pendulum

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// fixedStarter always starts episodes from the same state
type fixedStarter struct {
	state []float64
}

func (f fixedStarter) Start() *mat.VecDense {
	state := make([]float64, len(f.state))
	copy(state, f.state)
	return mat.NewVecDense(len(state), state)
}

func TestBalancedPendulumStaysUp(t *testing.T) {
	task := NewSwingUp(fixedStarter{[]float64{0.0, 0.0}}, 10)
	p, firstStep := New(task, 0.99)

	if !firstStep.First() {
		t.Error("first timestep should have step type First")
	}

	// A perfectly balanced pendulum with no applied torque stays
	// upright, since the gravitational pull vanishes at the top
	step, _ := p.Step(mat.NewVecDense(1, []float64{0.0}))
	if math.Abs(step.Observation.AtVec(0)) > 1e-10 ||
		math.Abs(step.Observation.AtVec(1)) > 1e-10 {
		t.Errorf("balanced pendulum moved \n\twant([0 0])\n\thave(%v)",
			step.Observation)
	}
	if math.Abs(step.Reward-1.0) > 1e-10 {
		t.Errorf("wrong reward at the goal state \n\twant(%v)\n\thave(%v)",
			1.0, step.Reward)
	}
}

func TestTorqueIsClipped(t *testing.T) {
	start := []float64{0.5, 0.0}

	task1 := NewSwingUp(fixedStarter{start}, 10)
	p1, _ := New(task1, 0.99)
	task2 := NewSwingUp(fixedStarter{start}, 10)
	p2, _ := New(task2, 0.99)

	// An action far outside the torque bounds behaves exactly like the
	// maximum legal torque
	step1, _ := p1.Step(mat.NewVecDense(1, []float64{100.0}))
	step2, _ := p2.Step(mat.NewVecDense(1, []float64{TorqueBound}))

	for i := 0; i < step1.Observation.Len(); i++ {
		if step1.Observation.AtVec(i) != step2.Observation.AtVec(i) {
			t.Errorf("oversized torque not clipped \n\twant(%v)\n\thave(%v)",
				step2.Observation, step1.Observation)
		}
	}
}

func TestAngularVelocityIsClipped(t *testing.T) {
	task := NewSwingUp(fixedStarter{[]float64{math.Pi - 0.01, SpeedBound}}, 1000)
	p, _ := New(task, 0.99)

	// Driving the falling pendulum keeps its speed at the bound
	for i := 0; i < 100; i++ {
		step, _ := p.Step(mat.NewVecDense(1, []float64{TorqueBound}))
		thdot := step.Observation.AtVec(1)
		if thdot < -SpeedBound || thdot > SpeedBound {
			t.Fatalf("angular velocity outside bounds at step %v: %v", i,
				thdot)
		}
	}
}

func TestAngleStaysNormalized(t *testing.T) {
	task := NewSwingUp(fixedStarter{[]float64{0.0, SpeedBound}}, 1000)
	p, _ := New(task, 0.99)

	// A spinning pendulum wraps its angle instead of accumulating it
	for i := 0; i < 200; i++ {
		step, _ := p.Step(mat.NewVecDense(1, []float64{TorqueBound}))
		th := step.Observation.AtVec(0)
		if th < -AngleBound || th > AngleBound {
			t.Fatalf("angle outside bounds at step %v: %v", i, th)
		}
	}
}

func TestEpisodeEndsAtStepLimit(t *testing.T) {
	const maxSteps = 5

	task := NewSwingUp(fixedStarter{[]float64{0.0, 0.0}}, maxSteps)
	p, _ := New(task, 0.99)

	action := mat.NewVecDense(1, []float64{0.0})
	for i := 1; i < maxSteps; i++ {
		step, done := p.Step(action)
		if done || step.Last() {
			t.Fatalf("episode ended early at step %v", i)
		}
	}

	step, done := p.Step(action)
	if !done || !step.Last() {
		t.Error("episode should end at the step limit")
	}

	// Resetting starts a fresh episode
	first := p.Reset()
	if !first.First() || first.Number != 0 {
		t.Errorf("reset should return the first step of a new episode, "+
			"got %v", first)
	}
}

func TestRewardIsAngleCosine(t *testing.T) {
	task := NewSwingUp(fixedStarter{[]float64{1.0, 0.0}}, 100)
	p, _ := New(task, 0.99)

	step, _ := p.Step(mat.NewVecDense(1, []float64{0.0}))

	expected := math.Cos(step.Observation.AtVec(0))
	if math.Abs(step.Reward-expected) > 1e-14 {
		t.Errorf("wrong reward \n\twant(%v)\n\thave(%v)", expected,
			step.Reward)
	}
}

func TestNormalizeAngle(t *testing.T) {
	bounds := r1.Interval{Min: -AngleBound, Max: AngleBound}

	tests := []struct {
		angle    float64
		expected float64
	}{
		{0.0, 0.0},
		{math.Pi / 2, math.Pi / 2},
		{-math.Pi / 2, -math.Pi / 2},
		{math.Pi + 0.5, -math.Pi + 0.5},
		{-math.Pi - 0.5, math.Pi - 0.5},
	}

	for _, test := range tests {
		have := normalizeAngle(test.angle, bounds)
		if math.Abs(have-test.expected) > 1e-14 {
			t.Errorf("wrong normalized angle for %v \n\twant(%v)"+
				"\n\thave(%v)", test.angle, test.expected, have)
		}
	}
}
