package selection

import (
	"cmp"
	"slices"

	"github.com/jonathan/knapsack-search/internal/types"
)

// DensityIndex is the fixed ranking of all items used by the constructor,
// the refill step and tie-breaks. It is read-only once built.
type DensityIndex struct {
	order   []int
	rank    []int
	density []float64
}

// NewDensityIndex ranks items by density descending, then value descending,
// then id ascending.
func NewDensityIndex(inst *types.Instance) *DensityIndex {
	n := inst.N()
	idx := &DensityIndex{
		order:   make([]int, n),
		rank:    make([]int, n),
		density: make([]float64, n),
	}
	for i, item := range inst.Items {
		idx.order[i] = i
		idx.density[i] = item.Density()
	}

	slices.SortStableFunc(idx.order, func(a, b int) int {
		if c := cmp.Compare(idx.density[b], idx.density[a]); c != 0 {
			return c
		}
		if c := cmp.Compare(inst.Items[b].Value, inst.Items[a].Value); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	for pos, id := range idx.order {
		idx.rank[id] = pos
	}
	return idx
}

// Order returns a copy of the ranked item ids
func (d *DensityIndex) Order() []int {
	return slices.Clone(d.order)
}

// Rank returns the position of id in the order (0 = best)
func (d *DensityIndex) Rank(id int) int {
	return d.rank[id]
}

// Density returns the cached density of id
func (d *DensityIndex) Density(id int) float64 {
	return d.density[id]
}

// Len returns the number of ranked items
func (d *DensityIndex) Len() int {
	return len(d.order)
}
