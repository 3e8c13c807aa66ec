package selection

import (
	"fmt"
	"slices"
	"strings"
)

// OperatorKind names one neighborhood of the search
type OperatorKind int

const (
	// FreeInsertion adds every unselected zero-weight item with positive value
	FreeInsertion OperatorKind = iota
	// SingleAdd adds the most valuable unselected item that fits
	SingleAdd
	// OneForOne swaps one selected item for one unselected item
	OneForOne
	// OneForK removes one selected item and refills the freed room in density order
	OneForK
	// TwoForOne removes two selected items and adds one unselected item
	TwoForOne
)

var operatorNames = []string{
	FreeInsertion: "free_insertion",
	SingleAdd:     "single_add",
	OneForOne:     "one_for_one",
	OneForK:       "one_for_k",
	TwoForOne:     "two_for_one",
}

func (k OperatorKind) String() string {
	if k < 0 || int(k) >= len(operatorNames) {
		return fmt.Sprintf("operator(%d)", int(k))
	}
	return operatorNames[k]
}

// ParseOperatorKind maps an operator name back to its kind
func ParseOperatorKind(name string) (OperatorKind, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for i, n := range operatorNames {
		if n == name {
			return OperatorKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q (valid: %s)", name, strings.Join(operatorNames, ", "))
}

// DefaultOperators returns the full operator list in priority order
func DefaultOperators() []OperatorKind {
	return []OperatorKind{FreeInsertion, SingleAdd, OneForOne, OneForK, TwoForOne}
}

// Move is a candidate change to a solution: Remove leaves, then Add enters.
type Move struct {
	Kind        OperatorKind
	Remove      []int
	Add         []int
	Gain        float64
	DeltaWeight float64
}

// FindBest returns the best improving move of this neighborhood for state,
// or false when the neighborhood holds none. The state is not modified.
func (k OperatorKind) FindBest(state *SolutionState, idx *DensityIndex) (Move, bool) {
	switch k {
	case FreeInsertion:
		return findFreeInsertion(state)
	case SingleAdd:
		return findSingleAdd(state, idx)
	case OneForOne:
		return findOneForOne(state, idx)
	case OneForK:
		return findOneForK(state, idx)
	case TwoForOne:
		return findTwoForOne(state, idx)
	default:
		return Move{}, false
	}
}

func findFreeInsertion(state *SolutionState) (Move, bool) {
	items := state.inst.Items
	move := Move{Kind: FreeInsertion}
	for _, id := range state.Unselected() {
		if items[id].Free() {
			move.Add = append(move.Add, id)
			move.Gain += items[id].Value
		}
	}
	return move, len(move.Add) > 0
}

func findSingleAdd(state *SolutionState, idx *DensityIndex) (Move, bool) {
	items := state.inst.Items
	best := -1
	for _, u := range state.Unselected() {
		item := items[u]
		if item.Value <= 0 || !state.fits(item.Weight) {
			continue
		}
		if best < 0 || item.Value > items[best].Value ||
			(item.Value == items[best].Value && idx.rank[u] < idx.rank[best]) {
			best = u
		}
	}
	if best < 0 {
		return Move{}, false
	}
	return Move{
		Kind:        SingleAdd,
		Add:         []int{best},
		Gain:        items[best].Value,
		DeltaWeight: items[best].Weight,
	}, true
}

// swapCandidate is a scored (s, u) exchange considered by OneForOne
type swapCandidate struct {
	s, u  int
	gain  float64
	delta float64
}

// better reports whether c beats o: gain, then smaller weight change, then
// denser u, then sparser s, then rank of u, then id of s.
func (c swapCandidate) better(o swapCandidate, idx *DensityIndex) bool {
	if c.gain != o.gain {
		return c.gain > o.gain
	}
	if c.delta != o.delta {
		return c.delta < o.delta
	}
	if du, dou := idx.density[c.u], idx.density[o.u]; du != dou {
		return du > dou
	}
	if ds, dos := idx.density[c.s], idx.density[o.s]; ds != dos {
		return ds < dos
	}
	if c.u != o.u {
		return idx.rank[c.u] < idx.rank[o.u]
	}
	return c.s < o.s
}

func findOneForOne(state *SolutionState, idx *DensityIndex) (Move, bool) {
	items := state.inst.Items
	capacity := state.inst.Capacity
	unselected := state.Unselected()

	var best swapCandidate
	found := false
	for _, s := range state.removable() {
		base := state.totalWeight - items[s].Weight
		for _, u := range unselected {
			gain := items[u].Value - items[s].Value
			if gain <= 0 || base+items[u].Weight > capacity {
				continue
			}
			cand := swapCandidate{s: s, u: u, gain: gain, delta: items[u].Weight - items[s].Weight}
			if !found || cand.better(best, idx) {
				best = cand
				found = true
			}
		}
	}
	if !found {
		return Move{}, false
	}
	return Move{
		Kind:        OneForOne,
		Remove:      []int{best.s},
		Add:         []int{best.u},
		Gain:        best.gain,
		DeltaWeight: best.delta,
	}, true
}

func findOneForK(state *SolutionState, idx *DensityIndex) (Move, bool) {
	items := state.inst.Items

	// Refill candidates: unselected, valuable, in density order
	candidates := make([]int, 0, len(items)-state.count)
	for _, id := range idx.order {
		if !state.selected[id] && items[id].Value > 0 {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return Move{}, false
	}

	var best Move
	found := false
	for _, s := range state.removable() {
		available := state.inst.Capacity - (state.totalWeight - items[s].Weight)

		var filled []int
		filledWeight, filledValue := 0.0, 0.0
		for _, u := range candidates {
			if filledWeight+items[u].Weight <= available {
				filled = append(filled, u)
				filledWeight += items[u].Weight
				filledValue += items[u].Value
			}
		}

		gain := filledValue - items[s].Value
		if len(filled) == 0 || gain <= 0 {
			continue
		}
		if !found || gain > best.Gain {
			best = Move{
				Kind:        OneForK,
				Remove:      []int{s},
				Add:         filled,
				Gain:        gain,
				DeltaWeight: filledWeight - items[s].Weight,
			}
			found = true
		}
	}
	return best, found
}

func findTwoForOne(state *SolutionState, idx *DensityIndex) (Move, bool) {
	items := state.inst.Items
	capacity := state.inst.Capacity

	byValue := state.Unselected()
	slices.SortFunc(byValue, func(a, b int) int {
		if items[a].Value != items[b].Value {
			if items[a].Value > items[b].Value {
				return -1
			}
			return 1
		}
		return idx.rank[a] - idx.rank[b]
	})

	removable := state.removable()
	var best Move
	found := false
	for i, s1 := range removable {
		for _, s2 := range removable[i+1:] {
			removedValue := items[s1].Value + items[s2].Value
			removedWeight := items[s1].Weight + items[s2].Weight
			base := state.totalWeight - items[s1].Weight - items[s2].Weight

			// byValue is sorted, so the first feasible u is the best for this pair
			for _, u := range byValue {
				if items[u].Value <= removedValue {
					break
				}
				if base+items[u].Weight > capacity {
					continue
				}
				gain := items[u].Value - removedValue
				if !found || gain > best.Gain {
					best = Move{
						Kind:        TwoForOne,
						Remove:      []int{s1, s2},
						Add:         []int{u},
						Gain:        gain,
						DeltaWeight: items[u].Weight - removedWeight,
					}
					found = true
				}
				break
			}
		}
	}
	return best, found
}
