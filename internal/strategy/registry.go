package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/jonathan/knapsack-search/internal/exact"
	"github.com/jonathan/knapsack-search/internal/selection"
)

// Names of the built-in strategies
const (
	NameGreedy      = "greedy"
	NameDropFill    = "drop-fill"
	NameSwap        = "swap"
	NameLocalSearch = "local-search"
	NameExact       = "exact"
)

// UnknownStrategyError is returned when a strategy name is not registered
type UnknownStrategyError struct {
	Name      string
	Available []string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("unknown strategy: %s (available: %v)", e.Name, e.Available)
}

// DuplicateStrategyError is returned when a name is registered twice
type DuplicateStrategyError struct {
	Name string
}

func (e *DuplicateStrategyError) Error() string {
	return fmt.Sprintf("strategy already registered: %s", e.Name)
}

// Registry holds strategies by name, preserving registration order
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]Strategy
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Strategy)}
}

// Register adds a strategy. Names must be unique and non-empty.
func (r *Registry) Register(s Strategy) error {
	name := s.Name()
	if name == "" {
		return fmt.Errorf("strategy name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return &DuplicateStrategyError{Name: name}
	}
	r.byName[name] = s
	r.order = append(r.order, name)
	return nil
}

// Get returns the strategy registered under name
func (r *Registry) Get(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byName[name]
	if !ok {
		available := make([]string, len(r.order))
		copy(available, r.order)
		sort.Strings(available)
		return nil, &UnknownStrategyError{Name: name, Available: available}
	}
	return s, nil
}

// Names returns the registered names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Definitions describes every registered strategy in registration order
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		s := r.byName[name]
		def := Definition{Name: name, Description: s.Description()}
		if ops, ok := s.(interface{ Operators() []string }); ok {
			def.Operators = ops.Operators()
		}
		if _, ok := s.(*exactStrategy); ok {
			def.Exact = true
		}
		defs = append(defs, def)
	}
	return defs
}

// Default returns a registry with the built-in strategies. base supplies the
// budgets and logger. The fixed strategies override the operator list;
// local-search keeps base.Operators when set.
func Default(base selection.Options) *Registry {
	r := NewRegistry()

	fullOps := selection.DefaultOperators()
	if len(base.Operators) > 0 {
		fullOps = base.Operators
	}

	withOps := func(ops ...selection.OperatorKind) selection.Options {
		opts := base
		opts.Operators = ops
		return opts
	}

	// Registration of fixed names into an empty registry cannot fail
	for _, s := range []Strategy{
		NewEngine(NameGreedy, "Density-ordered greedy construction without local search", withOps()),
		NewEngine(NameDropFill, "Greedy followed by drop-one/refill-k exchanges",
			withOps(selection.FreeInsertion, selection.OneForK)),
		NewEngine(NameSwap, "Greedy followed by single additions and 1-for-1 swaps",
			withOps(selection.FreeInsertion, selection.SingleAdd, selection.OneForOne)),
		NewEngine(NameLocalSearch, "Greedy followed by the full neighborhood search",
			withOps(fullOps...)),
		NewExact(exact.DefaultMaxCells),
	} {
		_ = r.Register(s)
	}
	return r
}
