package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnusedRatio(t *testing.T) {
	assert.Equal(t, 0.25, UnusedRatio(4, 3))
	assert.Equal(t, 0.0, UnusedRatio(5, 5))
	assert.Equal(t, 0.0, UnusedRatio(0, 0))
}

func TestMinMax(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected []float64
	}{
		{name: "empty", input: nil, expected: []float64{}},
		{name: "spread", input: []float64{2, 4, 6}, expected: []float64{0, 0.5, 1}},
		{name: "all equal", input: []float64{3, 3}, expected: []float64{1, 1}},
		{name: "single", input: []float64{7}, expected: []float64{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MinMax(tt.input))
		})
	}
}

func TestInstanceScores(t *testing.T) {
	scores := InstanceScores([]float64{0, 0.5}, []float64{10, 20})
	assert.Equal(t, []float64{1, 1}, scores)

	// Identical instances: unused normalizes to one, value to one
	scores = InstanceScores([]float64{0.1, 0.1}, []float64{5, 5})
	assert.Equal(t, []float64{1, 1}, scores)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestGap(t *testing.T) {
	assert.Equal(t, 0.0, Gap(0, 0))
	assert.Equal(t, 0.25, Gap(8, 6))
	assert.Equal(t, 0.0, Gap(8, 9))
}
