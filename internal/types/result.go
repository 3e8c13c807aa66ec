package types

// Result is the outcome of solving a single instance.
// Items holds the selected ids in ascending order.
type Result struct {
	Items       []int   `json:"items"`
	TotalValue  float64 `json:"total_value"`
	TotalWeight float64 `json:"total_weight"`
	SolveTime   float64 `json:"solve_time"` // seconds
	Error       string  `json:"error,omitempty"`
}

// Failed reports whether the result carries an error
func (r *Result) Failed() bool {
	return r.Error != ""
}

// ErrorResult returns an empty result carrying only the error message
func ErrorResult(message string, solveTime float64) Result {
	return Result{
		Items:     []int{},
		SolveTime: solveTime,
		Error:     message,
	}
}

// Totals recomputes the weight and value sums of the selected items against the given input.
// Ids outside the input range are ignored.
func (r *Result) Totals(in InstanceInput) (weight, value float64) {
	for _, id := range r.Items {
		if id < 0 || id >= len(in.Weights) || id >= len(in.Values) {
			continue
		}
		weight += in.Weights[id]
		value += in.Values[id]
	}
	return weight, value
}
