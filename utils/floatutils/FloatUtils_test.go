package floatutils

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	tests := []struct {
		value    float64
		min      float64
		max      float64
		expected float64
	}{
		{0.5, -1.0, 1.0, 0.5},
		{2.0, -1.0, 1.0, 1.0},
		{-2.0, -1.0, 1.0, -1.0},
		{-1.0, -1.0, 1.0, -1.0},
		{1.0, -1.0, 1.0, 1.0},
	}

	for _, test := range tests {
		if have := Clip(test.value, test.min, test.max); have != test.expected {
			t.Errorf("wrong clipped value for %v \n\twant(%v)\n\thave(%v)",
				test.value, test.expected, have)
		}

		interval := r1.Interval{Min: test.min, Max: test.max}
		if have := ClipInterval(test.value, interval); have != test.expected {
			t.Errorf("wrong interval-clipped value for %v \n\twant(%v)"+
				"\n\thave(%v)", test.value, test.expected, have)
		}
	}
}

func TestMinMaxMean(t *testing.T) {
	floats := []float64{3.0, -1.0, 2.0, 0.0}

	if have := Min(floats...); have != -1.0 {
		t.Errorf("wrong minimum \n\twant(%v)\n\thave(%v)", -1.0, have)
	}
	if have := Max(floats...); have != 3.0 {
		t.Errorf("wrong maximum \n\twant(%v)\n\thave(%v)", 3.0, have)
	}
	if have := Mean(floats...); have != 1.0 {
		t.Errorf("wrong mean \n\twant(%v)\n\thave(%v)", 1.0, have)
	}
}
