// Package strategy provides the named solving strategies that the evaluation
// harness, the tournament pipeline and the HTTP API can run.
package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/knapsack-search/internal/exact"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/types"
)

// Strategy solves a single knapsack instance. Failures are reported in
// Result.Error; implementations must not panic.
type Strategy interface {
	Name() string
	Description() string
	Solve(in types.InstanceInput) types.Result
}

// StatsRunner is implemented by strategies backed by the local-search engine
type StatsRunner interface {
	Run(in types.InstanceInput) (types.Result, selection.Stats)
}

// Definition describes a registered strategy
type Definition struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Operators   []string `json:"operators,omitempty"`
	Exact       bool     `json:"exact,omitempty"`
}

// engineStrategy runs the local-search engine with a fixed operator list
type engineStrategy struct {
	name        string
	description string
	solver      *selection.Solver
}

// NewEngine creates a strategy running the engine with opts
func NewEngine(name, description string, opts selection.Options) Strategy {
	return &engineStrategy{
		name:        name,
		description: description,
		solver:      selection.NewSolver(opts),
	}
}

func (s *engineStrategy) Name() string        { return s.name }
func (s *engineStrategy) Description() string { return s.description }

func (s *engineStrategy) Solve(in types.InstanceInput) types.Result {
	return s.solver.Solve(in)
}

func (s *engineStrategy) Run(in types.InstanceInput) (types.Result, selection.Stats) {
	return s.solver.Run(in)
}

// Operators returns the operator names the engine runs, in priority order
func (s *engineStrategy) Operators() []string {
	ops := s.solver.Options().Operators
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.String()
	}
	return names
}

// exactStrategy solves integral instances optimally with dynamic programming
type exactStrategy struct {
	maxCells int64
}

// NewExact creates the dynamic-programming baseline strategy
func NewExact(maxCells int64) Strategy {
	return &exactStrategy{maxCells: maxCells}
}

func (s *exactStrategy) Name() string { return "exact" }

func (s *exactStrategy) Description() string {
	return "Exact dynamic programming over capacity (integral weights only)"
}

func (s *exactStrategy) Solve(in types.InstanceInput) types.Result {
	start := time.Now()
	if err := selection.ValidateInput(in); err != nil {
		return types.ErrorResult(err.Error(), time.Since(start).Seconds())
	}
	res, err := exact.SolveWithLimit(in, s.maxCells)
	if err != nil {
		return types.ErrorResult(fmt.Sprintf("exact solver: %v", err), time.Since(start).Seconds())
	}
	return res
}

// Unsupported reports whether err means the exact solver declined the instance
// rather than failed on it.
func Unsupported(err error) bool {
	return errors.Is(err, exact.ErrTooLarge) || errors.Is(err, exact.ErrNonIntegral)
}
