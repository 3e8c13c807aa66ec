package selection

import (
	"github.com/jonathan/knapsack-search/internal/types"
)

// Construct builds the initial feasible solution with a single walk over the
// density order, admitting every item that still fits.
//
// Zero-weight items with positive value rank first and always fit, so they
// are always part of the constructed solution. The result is feasible but
// not necessarily locally optimal.
func Construct(inst *types.Instance, idx *DensityIndex) *SolutionState {
	state := NewSolutionState(inst)
	for _, id := range idx.order {
		item := inst.Items[id]
		if state.totalWeight+item.Weight <= inst.Capacity {
			state.include(id)
		}
	}
	return state
}
