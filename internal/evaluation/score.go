package evaluation

import (
	"math"
	"slices"
)

// UnusedRatio returns the share of capacity left empty, 0 when capacity is 0
func UnusedRatio(capacity, totalWeight float64) float64 {
	if capacity == 0 {
		return 0
	}
	return (capacity - totalWeight) / capacity
}

// MinMax rescales xs to [0, 1]. When every value is equal the result is all ones.
func MinMax(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}

	lo, hi := slices.Min(xs), slices.Max(xs)
	for i, x := range xs {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = (x - lo) / (hi - lo)
	}
	return out
}

// InstanceScores combines normalized unused capacity and normalized value:
// score = (1 - minmax(unused)) + minmax(value).
func InstanceScores(unused, values []float64) []float64 {
	nu := MinMax(unused)
	nv := MinMax(values)
	scores := make([]float64, len(unused))
	for i := range scores {
		scores[i] = (1 - nu[i]) + nv[i]
	}
	return scores
}

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Gap returns the relative distance of value from the optimum
func Gap(optimal, value float64) float64 {
	if optimal == 0 {
		return 0
	}
	return math.Max(0, (optimal-value)/optimal)
}
