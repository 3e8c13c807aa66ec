package exact

import (
	"testing"

	"github.com/jonathan/knapsack-search/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve_SimpleCase(t *testing.T) {
	in := types.InstanceInput{
		Weights:  []float64{2, 3, 4, 5},
		Values:   []float64{3, 4, 5, 6},
		Capacity: 5,
	}

	res, err := Solve(in)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Items)
	assert.Equal(t, 7.0, res.TotalValue)
	assert.Equal(t, 5.0, res.TotalWeight)
}

func TestSolve_OptimalSelection(t *testing.T) {
	// Greedy by density takes item 0 and is stuck at 10; the optimum is {1, 2}
	in := types.InstanceInput{
		Weights:  []float64{6, 5, 5},
		Values:   []float64{10, 7, 7},
		Capacity: 10,
	}

	res, err := Solve(in)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, res.Items)
	assert.Equal(t, 14.0, res.TotalValue)
	assert.Equal(t, 10.0, res.TotalWeight)
}

func TestSolve_ZeroWeightItems(t *testing.T) {
	in := types.InstanceInput{
		Weights:  []float64{0, 0, 3},
		Values:   []float64{5, 7, 1},
		Capacity: 0,
	}

	res, err := Solve(in)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Items)
	assert.Equal(t, 12.0, res.TotalValue)
}

func TestSolve_Empty(t *testing.T) {
	res, err := Solve(types.InstanceInput{Capacity: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 0.0, res.TotalValue)
}

func TestSolve_NothingFits(t *testing.T) {
	in := types.InstanceInput{
		Weights:  []float64{11, 12},
		Values:   []float64{5, 6},
		Capacity: 10,
	}

	res, err := Solve(in)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestSolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   types.InstanceInput
		wantErr error
	}{
		{
			name:    "fractional weight",
			input:   types.InstanceInput{Weights: []float64{1.5}, Values: []float64{1}, Capacity: 3},
			wantErr: ErrNonIntegral,
		},
		{
			name:    "fractional capacity",
			input:   types.InstanceInput{Weights: []float64{1}, Values: []float64{1}, Capacity: 2.5},
			wantErr: ErrNonIntegral,
		},
		{
			name:    "negative weight",
			input:   types.InstanceInput{Weights: []float64{-1}, Values: []float64{1}, Capacity: 2},
			wantErr: ErrNonIntegral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSolve_LengthMismatch(t *testing.T) {
	_, err := Solve(types.InstanceInput{Weights: []float64{1, 2}, Values: []float64{1}, Capacity: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "differ in length")
}

func TestSolveWithLimit_TooLarge(t *testing.T) {
	in := types.InstanceInput{
		Weights:  []float64{1, 2, 3},
		Values:   []float64{1, 2, 3},
		Capacity: 1000,
	}

	_, err := SolveWithLimit(in, 100)
	assert.ErrorIs(t, err, ErrTooLarge)

	res, err := SolveWithLimit(in, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, res.Items)
}

func TestBacktrack(t *testing.T) {
	table := newDPTable(3, 5)
	table.mark(2, 5)
	table.mark(0, 2)

	selected := backtrack(table, []int{2, 1, 3}, 5)
	assert.Equal(t, []int{0, 2}, selected)
}

func TestBacktrack_NoSelection(t *testing.T) {
	table := newDPTable(2, 4)
	assert.Empty(t, backtrack(table, []int{1, 1}, 4))
}
