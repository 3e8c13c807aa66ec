// Package exact provides an exact dynamic-programming solver for integral
// 0/1 knapsack instances. It serves as the optimality baseline for the
// heuristic strategies.
package exact

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/jonathan/knapsack-search/internal/types"
)

// DefaultMaxCells bounds items × (capacity+1) for Solve
const DefaultMaxCells = 200_000_000

var (
	// ErrTooLarge is returned when the DP table would exceed the cell limit
	ErrTooLarge = errors.New("instance too large for exact solver")
	// ErrNonIntegral is returned when a weight or the capacity is not a non-negative whole number
	ErrNonIntegral = errors.New("exact solver requires non-negative integral weights and capacity")
)

// dpTable holds the best value per capacity and, per item, the capacities at
// which taking the item improved on skipping it.
type dpTable struct {
	best []float64
	take [][]uint64
}

func newDPTable(items, capacity int) *dpTable {
	words := capacity/64 + 1
	take := make([][]uint64, items)
	for i := range take {
		take[i] = make([]uint64, words)
	}
	return &dpTable{
		best: make([]float64, capacity+1),
		take: take,
	}
}

func (t *dpTable) mark(item, c int) {
	t.take[item][c/64] |= 1 << (uint(c) % 64)
}

func (t *dpTable) taken(item, c int) bool {
	return t.take[item][c/64]&(1<<(uint(c)%64)) != 0
}

// Solve returns an optimal selection using DefaultMaxCells
func Solve(in types.InstanceInput) (types.Result, error) {
	return SolveWithLimit(in, DefaultMaxCells)
}

// SolveWithLimit returns an optimal selection, refusing instances whose DP
// table would hold more than maxCells cells (0 = no limit).
func SolveWithLimit(in types.InstanceInput, maxCells int64) (types.Result, error) {
	start := time.Now()

	weights, capacity, err := integralInput(in)
	if err != nil {
		return types.Result{}, err
	}
	n := len(weights)
	if maxCells > 0 && int64(n)*int64(capacity+1) > maxCells {
		return types.Result{}, fmt.Errorf("%w: %d items x capacity %d", ErrTooLarge, n, capacity)
	}

	table := newDPTable(n, capacity)
	for i := 0; i < n; i++ {
		w, v := weights[i], in.Values[i]
		if v <= 0 || w > capacity {
			continue
		}
		for c := capacity; c >= w; c-- {
			if candidate := table.best[c-w] + v; candidate > table.best[c] {
				table.best[c] = candidate
				table.mark(i, c)
			}
		}
	}

	selected := backtrack(table, weights, capacity)
	res := types.Result{Items: selected}
	res.TotalWeight, res.TotalValue = res.Totals(in)
	res.SolveTime = time.Since(start).Seconds()
	return res, nil
}

// backtrack reconstructs the selection by walking the items in reverse
func backtrack(table *dpTable, weights []int, capacity int) []int {
	selected := []int{}
	c := capacity
	for i := len(weights) - 1; i >= 0; i-- {
		if table.taken(i, c) {
			selected = append(selected, i)
			c -= weights[i]
		}
	}
	slices.Reverse(selected)
	return selected
}

// integralInput validates the instance and converts weights and capacity to ints
func integralInput(in types.InstanceInput) ([]int, int, error) {
	if len(in.Weights) != len(in.Values) {
		return nil, 0, fmt.Errorf("weights and values differ in length: %d != %d", len(in.Weights), len(in.Values))
	}
	capacity, ok := toInt(in.Capacity)
	if !ok {
		return nil, 0, fmt.Errorf("%w: capacity %g", ErrNonIntegral, in.Capacity)
	}
	weights := make([]int, len(in.Weights))
	for i, w := range in.Weights {
		wi, ok := toInt(w)
		if !ok {
			return nil, 0, fmt.Errorf("%w: weight %d is %g", ErrNonIntegral, i, w)
		}
		weights[i] = wi
	}
	for i, v := range in.Values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, fmt.Errorf("value %d must be finite and non-negative, got %g", i, v)
		}
	}
	return weights, capacity, nil
}

func toInt(x float64) (int, bool) {
	if x < 0 || math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) || x > math.MaxInt32 {
		return 0, false
	}
	return int(x), true
}
