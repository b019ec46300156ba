package initwfn

import (
	"encoding/json"
	"testing"
)

func TestInitWFnJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		create func() (*InitWFn, error)
	}{
		{"GlorotU", func() (*InitWFn, error) { return NewGlorotU(1.0) }},
		{"Zeroes", NewZeroes},
		{"Ones", NewOnes},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			original, err := test.create()
			if err != nil {
				t.Fatalf("could not create weight initializer: %v", err)
			}

			data, err := json.Marshal(original)
			if err != nil {
				t.Fatalf("could not marshal weight initializer: %v", err)
			}

			var restored InitWFn
			if err := json.Unmarshal(data, &restored); err != nil {
				t.Fatalf("could not unmarshal weight initializer: %v", err)
			}

			if restored.Type != original.Type {
				t.Errorf("wrong initializer type \n\twant(%v)\n\thave(%v)",
					original.Type, restored.Type)
			}
			if restored.Config != original.Config {
				t.Errorf("wrong initializer configuration \n\twant(%v)"+
					"\n\thave(%v)", original.Config, restored.Config)
			}
			if restored.InitWFn() == nil {
				t.Error("unmarshalling should create the wrapped InitWFn")
			}
		})
	}
}
