// Package types provides type definitions for structured data used throughout the knapsack-search system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "math"

// Item is a single knapsack item. Items are passed by value and never mutated.
type Item struct {
	ID     int     `json:"id"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// Density returns the value-per-unit-weight ranking key of the item.
// Zero-weight items rank at +Inf when they carry value and at 0 otherwise.
func (it Item) Density() float64 {
	if it.Weight > 0 {
		return it.Value / it.Weight
	}
	if it.Value > 0 {
		return math.Inf(1)
	}
	return 0
}

// Free reports whether the item can be selected without consuming capacity
// while strictly increasing value.
func (it Item) Free() bool {
	return it.Weight == 0 && it.Value > 0
}

// Instance is a validated 0/1 knapsack problem. Item ids are 0..n-1 and match
// their position in Items.
type Instance struct {
	Items    []Item  `json:"items"`
	Capacity float64 `json:"capacity"`
}

// N returns the number of items in the instance
func (in *Instance) N() int {
	return len(in.Items)
}

// InstanceInput is the wire form of a problem instance as exchanged with the harness
type InstanceInput struct {
	Weights  []float64 `json:"weights"`
	Values   []float64 `json:"values"`
	Capacity float64   `json:"capacity"`
}

// ToInstance builds an Instance from the wire form. It does not validate;
// callers are expected to reject malformed input first.
func (in InstanceInput) ToInstance() *Instance {
	n := min(len(in.Weights), len(in.Values))
	items := make([]Item, n)
	for i := range n {
		items[i] = Item{ID: i, Weight: in.Weights[i], Value: in.Values[i]}
	}
	return &Instance{Items: items, Capacity: in.Capacity}
}

// TotalWeight returns the sum of all item weights
func (in InstanceInput) TotalWeight() float64 {
	total := 0.0
	for _, w := range in.Weights {
		total += w
	}
	return total
}

// TotalValue returns the sum of all item values
func (in InstanceInput) TotalValue() float64 {
	total := 0.0
	for _, v := range in.Values {
		total += v
	}
	return total
}
