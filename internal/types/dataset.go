package types

// Sample is one generated problem instance together with its generation metadata
type Sample struct {
	ID          int       `json:"id"`
	NumItems    int       `json:"num_items"`
	Capacity    float64   `json:"capacity"`
	TotalWeight float64   `json:"total_weight"`
	Weights     []float64 `json:"weights"`
	Values      []float64 `json:"values"`
}

// Input returns the sample in the wire form accepted by solvers
func (s *Sample) Input() InstanceInput {
	return InstanceInput{
		Weights:  s.Weights,
		Values:   s.Values,
		Capacity: s.Capacity,
	}
}

// Dataset is a named collection of samples (wrapper for schema)
type Dataset struct {
	Name    string   `json:"name"`
	Seed    uint64   `json:"seed"`
	Samples []Sample `json:"samples"`
}
