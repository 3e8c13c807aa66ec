// Package generator produces seeded synthetic knapsack datasets.
package generator

import (
	"fmt"
	"math/rand/v2"

	"github.com/jonathan/knapsack-search/internal/types"
)

// Config controls the distribution of generated instances. Weights and
// values are uniform integers in [Min, Max]; capacity is a uniform integer
// between the two ratios of the total weight.
type Config struct {
	MinWeight        int     `json:"min_weight" validate:"gte=0"`
	MaxWeight        int     `json:"max_weight" validate:"gtefield=MinWeight"`
	MinValue         int     `json:"min_value" validate:"gte=0"`
	MaxValue         int     `json:"max_value" validate:"gtefield=MinValue"`
	MinCapacityRatio float64 `json:"min_capacity_ratio" validate:"gte=0,lte=1"`
	MaxCapacityRatio float64 `json:"max_capacity_ratio" validate:"gtefield=MinCapacityRatio,lte=1"`
	Seed             uint64  `json:"seed"`
}

// DefaultBatchConfig is the distribution used for uniform batches
func DefaultBatchConfig() Config {
	return Config{
		MinWeight:        1,
		MaxWeight:        50,
		MinValue:         1,
		MaxValue:         50,
		MinCapacityRatio: 0.4,
		MaxCapacityRatio: 0.7,
	}
}

// DefaultSeriesConfig is the distribution used for size series
func DefaultSeriesConfig() Config {
	return Config{
		MinWeight:        10,
		MaxWeight:        50,
		MinValue:         10,
		MaxValue:         50,
		MinCapacityRatio: 0.4,
		MaxCapacityRatio: 0.8,
	}
}

// Validate checks the ranges of the configuration
func (c Config) Validate() error {
	if c.MinWeight < 0 || c.MaxWeight < c.MinWeight {
		return fmt.Errorf("invalid weight range [%d, %d]", c.MinWeight, c.MaxWeight)
	}
	if c.MinValue < 0 || c.MaxValue < c.MinValue {
		return fmt.Errorf("invalid value range [%d, %d]", c.MinValue, c.MaxValue)
	}
	if c.MinCapacityRatio < 0 || c.MaxCapacityRatio > 1 || c.MaxCapacityRatio < c.MinCapacityRatio {
		return fmt.Errorf("invalid capacity ratio range [%g, %g]", c.MinCapacityRatio, c.MaxCapacityRatio)
	}
	return nil
}

// Generator draws samples from a seeded source. It is not safe for concurrent use.
type Generator struct {
	cfg    Config
	rng    *rand.Rand
	nextID int
}

// New creates a generator for cfg
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Sample draws one instance with numItems items
func (g *Generator) Sample(numItems int) types.Sample {
	weights := make([]float64, numItems)
	values := make([]float64, numItems)
	total := 0
	for i := range numItems {
		w := g.between(g.cfg.MinWeight, g.cfg.MaxWeight)
		weights[i] = float64(w)
		values[i] = float64(g.between(g.cfg.MinValue, g.cfg.MaxValue))
		total += w
	}

	lo := int(g.cfg.MinCapacityRatio * float64(total))
	hi := int(g.cfg.MaxCapacityRatio * float64(total))
	sample := types.Sample{
		ID:          g.nextID,
		NumItems:    numItems,
		Capacity:    float64(g.between(lo, hi)),
		TotalWeight: float64(total),
		Weights:     weights,
		Values:      values,
	}
	g.nextID++
	return sample
}

// Batches draws count samples of itemsPer items each
func (g *Generator) Batches(count, itemsPer int) ([]types.Sample, error) {
	if count < 0 || itemsPer < 0 {
		return nil, fmt.Errorf("batch count and size must be non-negative, got %d x %d", count, itemsPer)
	}
	samples := make([]types.Sample, 0, count)
	for range count {
		samples = append(samples, g.Sample(itemsPer))
	}
	return samples, nil
}

// Series draws one sample per size from minItems to maxItems inclusive in steps of step
func (g *Generator) Series(minItems, maxItems, step int) ([]types.Sample, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d", step)
	}
	if minItems < 0 || maxItems < minItems {
		return nil, fmt.Errorf("invalid size range [%d, %d]", minItems, maxItems)
	}
	samples := make([]types.Sample, 0, (maxItems-minItems)/step+1)
	for n := minItems; n <= maxItems; n += step {
		samples = append(samples, g.Sample(n))
	}
	return samples, nil
}

// between returns a uniform integer in [lo, hi]
func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}
