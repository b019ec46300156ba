package noise

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestSampleStaysWithinBounds(t *testing.T) {
	bounds := r1.Interval{Min: -2.0, Max: 2.0}
	process, err := NewOrnsteinUhlenbeck(1, bounds, 0.0, 0.15, 5.0, 5.0,
		1000, 14)
	if err != nil {
		t.Fatalf("could not create noise process: %v", err)
	}

	// With a large noise scale, unclipped samples would regularly
	// escape the action bounds
	action := mat.NewVecDense(1, []float64{0.0})
	for i := 0; i < 1000; i++ {
		sampled := process.Sample(action, i)
		if sampled.AtVec(0) < bounds.Min || sampled.AtVec(0) > bounds.Max {
			t.Fatalf("sample %v outside action bounds: %v", i,
				sampled.AtVec(0))
		}
	}
}

func TestZeroScaleLeavesActionUnchanged(t *testing.T) {
	bounds := r1.Interval{Min: -2.0, Max: 2.0}
	process, err := NewOrnsteinUhlenbeck(2, bounds, 0.0, 0.15, 0.0, 0.0,
		1000, 14)
	if err != nil {
		t.Fatalf("could not create noise process: %v", err)
	}

	// With zero noise scale the process state never leaves the mean,
	// so actions pass through untouched
	action := mat.NewVecDense(2, []float64{0.5, -1.0})
	for i := 0; i < 10; i++ {
		sampled := process.Sample(action, i)
		if sampled.AtVec(0) != 0.5 || sampled.AtVec(1) != -1.0 {
			t.Fatalf("zero-scale noise changed the action \n\twant(%v)"+
				"\n\thave(%v)", action, sampled)
		}
	}
}

func TestSampleDoesNotMutateArgument(t *testing.T) {
	bounds := r1.Interval{Min: -2.0, Max: 2.0}
	process, err := NewOrnsteinUhlenbeck(1, bounds, 0.0, 0.15, 0.3, 0.3,
		1000, 14)
	if err != nil {
		t.Fatalf("could not create noise process: %v", err)
	}

	action := mat.NewVecDense(1, []float64{1.0})
	process.Sample(action, 0)

	if action.AtVec(0) != 1.0 {
		t.Errorf("sampling mutated the argument action \n\twant(%v)"+
			"\n\thave(%v)", 1.0, action.AtVec(0))
	}
}

func TestScaleAnneals(t *testing.T) {
	process, err := NewOrnsteinUhlenbeck(1, r1.Interval{Min: -1, Max: 1},
		0.0, 0.15, 0.4, 0.1, 100, 14)
	if err != nil {
		t.Fatalf("could not create noise process: %v", err)
	}

	tests := []struct {
		step     int
		expected float64
	}{
		{0, 0.4},
		{50, 0.25},
		{100, 0.1},
		{1000, 0.1}, // never anneals below the minimum
	}

	for _, test := range tests {
		if have := process.sigma(test.step); math.Abs(have-test.expected) >
			1e-14 {
			t.Errorf("wrong noise scale at step %v \n\twant(%v)\n\thave(%v)",
				test.step, test.expected, have)
		}
	}
}

func TestNewInvalidArguments(t *testing.T) {
	bounds := r1.Interval{Min: -1.0, Max: 1.0}

	if _, err := NewOrnsteinUhlenbeck(0, bounds, 0, 0.15, 0.3, 0.3, 100,
		14); err == nil {
		t.Error("expected error for non-positive action dimensions")
	}
	if _, err := NewOrnsteinUhlenbeck(1, bounds, 0, 0.15, 0.3, 0.3, 0,
		14); err == nil {
		t.Error("expected error for non-positive decay period")
	}
	if _, err := NewOrnsteinUhlenbeck(1, bounds, 0, 0.15, 0.1, 0.3, 100,
		14); err == nil {
		t.Error("expected error for min sigma above max sigma")
	}
}
