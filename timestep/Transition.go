package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together a single environmental transition
// (S, A, R, S', done). Once constructed, a Transition is never
// modified, and vectors placed in a Transition should not be mutated
// by callers afterward.
type Transition struct {
	State     *mat.VecDense
	Action    *mat.VecDense
	Reward    float64
	NextState *mat.VecDense
	Done      bool
}

// NewTransition packages an environmental transition from the step the
// action was taken in and the step that the action led to. The reward
// of the transition is the reward for taking the action, which is
// recorded on the next step.
func NewTransition(step TimeStep, action *mat.VecDense,
	nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		NextState: nextStep.Observation,
		Done:      nextStep.Last(),
	}
}
