package solver

import (
	"encoding/json"
	"testing"
)

func TestSolverJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		create func() (*Solver, error)
	}{
		{"Adam", func() (*Solver, error) {
			return NewAdam(0.01, 1e-8, 0.9, 0.999, 32)
		}},
		{"Vanilla", func() (*Solver, error) {
			return NewVanilla(0.1, 16)
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			original, err := test.create()
			if err != nil {
				t.Fatalf("could not create solver: %v", err)
			}

			data, err := json.Marshal(original)
			if err != nil {
				t.Fatalf("could not marshal solver: %v", err)
			}

			var restored Solver
			if err := json.Unmarshal(data, &restored); err != nil {
				t.Fatalf("could not unmarshal solver: %v", err)
			}

			if restored.Type != original.Type {
				t.Errorf("wrong solver type \n\twant(%v)\n\thave(%v)",
					original.Type, restored.Type)
			}
			if restored.Config != original.Config {
				t.Errorf("wrong solver configuration \n\twant(%v)"+
					"\n\thave(%v)", original.Config, restored.Config)
			}
			if restored.Solver == nil {
				t.Error("unmarshalling should create the wrapped solver")
			}
		})
	}
}

func TestNewSolverRejectsMismatchedType(t *testing.T) {
	if _, err := newSolver(Adam, VanillaConfig{StepSize: 0.1}); err == nil {
		t.Error("expected error for mismatched solver type and config")
	}
}
