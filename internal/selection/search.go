package selection

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultOneForKMaxItems disables OneForK above this many items
	DefaultOneForKMaxItems = 5000
	// DefaultTwoForOneMaxItems disables TwoForOne above this many items
	DefaultTwoForOneMaxItems = 400
)

// Termination records why the search stopped
type Termination string

const (
	TerminationLocalOptimum Termination = "local_optimum"
	TerminationPassBudget   Termination = "pass_budget"
	TerminationTimeBudget   Termination = "time_budget"
	TerminationZeroCapacity Termination = "zero_capacity"
	TerminationRejected     Termination = "rejected"
	TerminationFailed       Termination = "failed"

	// TerminationConstructionOnly means no operator was active, so the
	// greedy construction is the result
	TerminationConstructionOnly Termination = "construction_only"
)

// Options configures the search. The zero value runs no operators; use
// DefaultOptions as the starting point.
type Options struct {
	// Operators are tried in order on every pass
	Operators []OperatorKind
	// MaxPasses stops the search after this many applied moves (0 = unlimited)
	MaxPasses int
	// OneForKMaxItems disables OneForK when the instance is larger (0 = never)
	OneForKMaxItems int
	// TwoForOneMaxItems disables TwoForOne when the instance is larger (0 = never)
	TwoForOneMaxItems int
	// TimeBudget is checked between passes (0 = none)
	TimeBudget time.Duration
	// OnMove, when set, observes every applied move and the state after it
	OnMove func(Move, *SolutionState)
	// Logger receives debug and warning output; slog.Default() when nil
	Logger *slog.Logger
}

// DefaultOptions returns the full operator list with the standard size cutoffs
func DefaultOptions() Options {
	return Options{
		Operators:         DefaultOperators(),
		OneForKMaxItems:   DefaultOneForKMaxItems,
		TwoForOneMaxItems: DefaultTwoForOneMaxItems,
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// activeOperators filters the operator list by the instance size cutoffs
func (o Options) activeOperators(n int) (active, disabled []OperatorKind) {
	for _, op := range o.Operators {
		switch {
		case op == OneForK && o.OneForKMaxItems > 0 && n > o.OneForKMaxItems:
			disabled = append(disabled, op)
		case op == TwoForOne && o.TwoForOneMaxItems > 0 && n > o.TwoForOneMaxItems:
			disabled = append(disabled, op)
		default:
			active = append(active, op)
		}
	}
	return active, disabled
}

// Stats summarizes one search run
type Stats struct {
	Passes       int            `json:"passes"`
	Moves        map[string]int `json:"moves"`
	Disabled     []string       `json:"disabled,omitempty"`
	Rejected     int            `json:"rejected"`
	InitialValue float64        `json:"initial_value"`
	FinalValue   float64        `json:"final_value"`
	Termination  Termination    `json:"termination"`
}

// TotalMoves returns the number of applied moves over all operators
func (s Stats) TotalMoves() int {
	total := 0
	for _, n := range s.Moves {
		total += n
	}
	return total
}

// Search improves state in place until no operator finds an improving move
// or a budget runs out.
//
// Each pass applies the best move of the first operator that has one and
// then starts over from the first operator.
func Search(state *SolutionState, idx *DensityIndex, opts Options) (Stats, error) {
	active, disabled := opts.activeOperators(state.inst.N())
	stats := Stats{
		Moves:        make(map[string]int, len(active)),
		InitialValue: state.totalValue,
	}
	for _, op := range disabled {
		stats.Disabled = append(stats.Disabled, op.String())
	}

	if len(active) == 0 {
		stats.FinalValue = state.totalValue
		stats.Termination = TerminationConstructionOnly
		return stats, nil
	}

	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = time.Now().Add(opts.TimeBudget)
	}

	for {
		if opts.MaxPasses > 0 && stats.TotalMoves() >= opts.MaxPasses {
			stats.Termination = TerminationPassBudget
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			stats.Termination = TerminationTimeBudget
			break
		}

		stats.Passes++
		applied, err := runPass(state, idx, active, &stats, opts)
		if err != nil {
			stats.FinalValue = state.totalValue
			stats.Termination = TerminationFailed
			return stats, err
		}
		if !applied {
			stats.Termination = TerminationLocalOptimum
			break
		}
	}

	stats.FinalValue = state.totalValue
	return stats, nil
}

// runPass tries the operators in order and applies the first improving move
func runPass(state *SolutionState, idx *DensityIndex, ops []OperatorKind, stats *Stats, opts Options) (bool, error) {
	for _, op := range ops {
		move, ok := op.FindBest(state, idx)
		if !ok {
			continue
		}

		before := state.totalValue
		if err := state.Apply(move); err != nil {
			if errors.Is(err, ErrInfeasibleMove) {
				// Rounding put the move just over capacity; treat the neighborhood as exhausted
				stats.Rejected++
				opts.logger().Debug("move rejected", "operator", op.String(), "error", err)
				continue
			}
			return false, fmt.Errorf("failed to apply %s move: %w", op, err)
		}
		if state.totalValue <= before {
			if err := state.Apply(inverse(move)); err != nil {
				return false, fmt.Errorf("failed to revert %s move: %w", op, err)
			}
			stats.Rejected++
			continue
		}

		stats.Moves[op.String()]++
		if opts.OnMove != nil {
			opts.OnMove(move, state)
		}
		return true, nil
	}
	return false, nil
}

func inverse(m Move) Move {
	return Move{
		Kind:        m.Kind,
		Remove:      m.Add,
		Add:         m.Remove,
		Gain:        -m.Gain,
		DeltaWeight: -m.DeltaWeight,
	}
}
