package selection

import (
	"fmt"
	"math"
	"time"

	"github.com/jonathan/knapsack-search/internal/types"
)

// Solver runs the full construct-then-search pipeline on one instance at a
// time. A Solver is read-only after creation and safe for concurrent use;
// every call owns its own state.
type Solver struct {
	opts Options
}

// NewSolver creates a solver with the given options
func NewSolver(opts Options) *Solver {
	return &Solver{opts: opts}
}

// Options returns a copy of the solver configuration
func (s *Solver) Options() Options {
	return s.opts
}

// Solve solves one instance with the default options
func Solve(in types.InstanceInput) types.Result {
	return NewSolver(DefaultOptions()).Solve(in)
}

// Solve solves one instance. Failures are reported in Result.Error, never
// returned or panicked.
func (s *Solver) Solve(in types.InstanceInput) types.Result {
	res, _ := s.Run(in)
	return res
}

// Run solves one instance and also returns search statistics
func (s *Solver) Run(in types.InstanceInput) (res types.Result, stats Stats) {
	start := time.Now()
	logger := s.opts.logger()

	defer func() {
		if r := recover(); r != nil {
			err := &Error{Kind: InternalFailure, Message: "solver panicked", Cause: fmt.Errorf("%v", r)}
			logger.Warn("solve failed", "error", err, "items", len(in.Weights))
			res = types.ErrorResult(err.Error(), time.Since(start).Seconds())
			stats = Stats{Termination: TerminationFailed}
		}
	}()

	// 1. Validate input
	if err := ValidateInput(in); err != nil {
		logger.Warn("rejected instance", "error", err)
		return types.ErrorResult(err.Error(), time.Since(start).Seconds()), Stats{Termination: TerminationRejected}
	}

	// 2. Solve
	inst := in.ToInstance()
	state, stats, err := s.solve(inst)
	if err != nil {
		failure := &Error{Kind: InternalFailure, Message: "search failed", Cause: err}
		logger.Warn("solve failed", "error", failure, "items", inst.N())
		return types.ErrorResult(failure.Error(), time.Since(start).Seconds()), stats
	}

	// 3. Check invariants before handing the solution out
	if err := state.Verify(); err != nil {
		failure := &Error{Kind: InternalFailure, Message: "invariant violated", Cause: err}
		logger.Warn("solve failed", "error", failure, "items", inst.N())
		stats.Termination = TerminationFailed
		return types.ErrorResult(failure.Error(), time.Since(start).Seconds()), stats
	}

	res = state.Result()
	res.SolveTime = time.Since(start).Seconds()
	logger.Debug("solved instance",
		"items", inst.N(),
		"selected", len(res.Items),
		"value", res.TotalValue,
		"weight", res.TotalWeight,
		"capacity", inst.Capacity,
		"passes", stats.Passes,
		"termination", stats.Termination,
	)
	return res, stats
}

func (s *Solver) solve(inst *types.Instance) (*SolutionState, Stats, error) {
	if inst.Capacity == 0 {
		// Only free items can be packed
		state := NewSolutionState(inst)
		stats := Stats{Moves: map[string]int{}, Termination: TerminationZeroCapacity}
		if move, ok := FreeInsertion.FindBest(state, nil); ok {
			if err := state.Apply(move); err != nil {
				return state, stats, err
			}
			stats.Moves[FreeInsertion.String()]++
		}
		stats.FinalValue = state.totalValue
		return state, stats, nil
	}

	idx := NewDensityIndex(inst)
	state := Construct(inst, idx)
	stats, err := Search(state, idx, s.opts)
	return state, stats, err
}

// ValidateInput checks an instance before it is solved
func ValidateInput(in types.InstanceInput) error {
	if len(in.Weights) != len(in.Values) {
		return &Error{
			Kind:    MalformedInput,
			Message: fmt.Sprintf("weights and values differ in length: %d != %d", len(in.Weights), len(in.Values)),
		}
	}
	if !finiteNonNegative(in.Capacity) {
		return &Error{Kind: MalformedInput, Message: fmt.Sprintf("capacity must be finite and non-negative, got %g", in.Capacity)}
	}
	for i, w := range in.Weights {
		if !finiteNonNegative(w) {
			return &Error{Kind: MalformedInput, Message: fmt.Sprintf("weight %d must be finite and non-negative, got %g", i, w)}
		}
	}
	for i, v := range in.Values {
		if !finiteNonNegative(v) {
			return &Error{Kind: MalformedInput, Message: fmt.Sprintf("value %d must be finite and non-negative, got %g", i, v)}
		}
	}
	return nil
}

func finiteNonNegative(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0
}
