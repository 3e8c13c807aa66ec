package selection

import (
	"fmt"
	"math"

	"github.com/jonathan/knapsack-search/internal/types"
)

// consistencyTolerance bounds the drift allowed between the running totals
// and a full recomputation, relative to the magnitude of the total.
const consistencyTolerance = 1e-9

// SolutionState is the mutable working solution of one solve.
//
// Selected and unselected are complements of a single membership vector, so
// every item is in exactly one of them. Totals are maintained incrementally
// and never exceed capacity.
type SolutionState struct {
	inst        *types.Instance
	selected    []bool
	count       int
	totalWeight float64
	totalValue  float64
}

// NewSolutionState returns an empty state for inst
func NewSolutionState(inst *types.Instance) *SolutionState {
	return &SolutionState{
		inst:     inst,
		selected: make([]bool, inst.N()),
	}
}

// Instance returns the instance this state belongs to
func (s *SolutionState) Instance() *types.Instance { return s.inst }

// TotalWeight returns the summed weight of the selected items
func (s *SolutionState) TotalWeight() float64 { return s.totalWeight }

// TotalValue returns the summed value of the selected items
func (s *SolutionState) TotalValue() float64 { return s.totalValue }

// Len returns the number of selected items
func (s *SolutionState) Len() int { return s.count }

// Slack returns the unused capacity
func (s *SolutionState) Slack() float64 { return s.inst.Capacity - s.totalWeight }

// IsSelected reports whether id is in the solution
func (s *SolutionState) IsSelected(id int) bool {
	return id >= 0 && id < len(s.selected) && s.selected[id]
}

// Selected returns the selected ids in ascending order
func (s *SolutionState) Selected() []int {
	ids := make([]int, 0, s.count)
	for id, in := range s.selected {
		if in {
			ids = append(ids, id)
		}
	}
	return ids
}

// Unselected returns the unselected ids in ascending order
func (s *SolutionState) Unselected() []int {
	ids := make([]int, 0, len(s.selected)-s.count)
	for id, in := range s.selected {
		if !in {
			ids = append(ids, id)
		}
	}
	return ids
}

// removable returns the selected ids that may leave the solution. Free items
// (zero weight, positive value) never do.
func (s *SolutionState) removable() []int {
	ids := make([]int, 0, s.count)
	for id, in := range s.selected {
		if in && !s.inst.Items[id].Free() {
			ids = append(ids, id)
		}
	}
	return ids
}

// fits reports whether adding delta to the current weight stays within capacity
func (s *SolutionState) fits(delta float64) bool {
	return s.totalWeight+delta <= s.inst.Capacity
}

func (s *SolutionState) include(id int) {
	item := s.inst.Items[id]
	s.selected[id] = true
	s.count++
	s.totalWeight += item.Weight
	s.totalValue += item.Value
}

func (s *SolutionState) exclude(id int) {
	item := s.inst.Items[id]
	s.selected[id] = false
	s.count--
	s.totalWeight -= item.Weight
	s.totalValue -= item.Value
}

// Apply performs m atomically. A move that references unknown ids, removes
// an unselected item, adds a selected item or would exceed capacity is
// rejected and the state is left untouched.
func (s *SolutionState) Apply(m Move) error {
	n := len(s.selected)
	seen := make(map[int]struct{}, len(m.Remove)+len(m.Add))

	newWeight := s.totalWeight
	for _, id := range m.Remove {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: remove id %d out of range", ErrInvalidMove, id)
		}
		if !s.selected[id] {
			return fmt.Errorf("%w: remove id %d is not selected", ErrInvalidMove, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidMove, id)
		}
		seen[id] = struct{}{}
		newWeight -= s.inst.Items[id].Weight
	}
	for _, id := range m.Add {
		if id < 0 || id >= n {
			return fmt.Errorf("%w: add id %d out of range", ErrInvalidMove, id)
		}
		if s.selected[id] {
			return fmt.Errorf("%w: add id %d is already selected", ErrInvalidMove, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidMove, id)
		}
		seen[id] = struct{}{}
		newWeight += s.inst.Items[id].Weight
	}

	if newWeight > s.inst.Capacity {
		return fmt.Errorf("%w: %s would reach weight %g > %g",
			ErrInfeasibleMove, m.Kind, newWeight, s.inst.Capacity)
	}

	for _, id := range m.Remove {
		s.exclude(id)
	}
	for _, id := range m.Add {
		s.include(id)
	}
	return nil
}

// Verify recomputes the totals from scratch and checks them against the
// running totals and the capacity.
func (s *SolutionState) Verify() error {
	if len(s.selected) != s.inst.N() {
		return fmt.Errorf("membership vector has %d entries for %d items", len(s.selected), s.inst.N())
	}

	weight, value := 0.0, 0.0
	count := 0
	for id, in := range s.selected {
		if in {
			weight += s.inst.Items[id].Weight
			value += s.inst.Items[id].Value
			count++
		}
	}

	if count != s.count {
		return fmt.Errorf("selected count %d, recomputed %d", s.count, count)
	}
	if !closeEnough(weight, s.totalWeight) {
		return fmt.Errorf("total weight %g, recomputed %g", s.totalWeight, weight)
	}
	if !closeEnough(value, s.totalValue) {
		return fmt.Errorf("total value %g, recomputed %g", s.totalValue, value)
	}
	if s.totalWeight > s.inst.Capacity {
		return fmt.Errorf("total weight %g exceeds capacity %g", s.totalWeight, s.inst.Capacity)
	}
	return nil
}

// Result converts the state into the wire result. SolveTime is left to the caller.
func (s *SolutionState) Result() types.Result {
	return types.Result{
		Items:       s.Selected(),
		TotalValue:  s.totalValue,
		TotalWeight: s.totalWeight,
	}
}

func closeEnough(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= consistencyTolerance*scale
}
