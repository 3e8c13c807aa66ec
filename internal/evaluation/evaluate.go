// Package evaluation scores a strategy over a dataset of instances under a
// batch deadline.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/knapsack-search/internal/exact"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/strategy"
	"github.com/jonathan/knapsack-search/internal/types"
)

// DefaultTimeout is the batch deadline when Options.Timeout is zero
const DefaultTimeout = 120 * time.Second

// capacityTolerance absorbs rounding when checking reported weights
const capacityTolerance = 1e-9

// Status is the outcome of an evaluation
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusError   Status = "error"
)

// Observer receives every solved instance. Implementations must be safe for
// concurrent use; stats is nil for strategies that do not report them.
type Observer interface {
	ObserveSolve(strategy string, res types.Result, stats *selection.Stats)
}

// Options configures an evaluation
type Options struct {
	Timeout          time.Duration
	Concurrency      int
	Baseline         bool
	BaselineMaxCells int64
	Dataset          string
	// RunID is used for the report when set, so callers can register the
	// run before it finishes
	RunID uuid.UUID
	// ScoreFailures scores a failed instance as an empty selection instead
	// of failing the whole report
	ScoreFailures bool
	Observer         Observer
	Logger           *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.BaselineMaxCells <= 0 {
		o.BaselineMaxCells = exact.DefaultMaxCells
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// InstanceScore is the per-instance part of a report
type InstanceScore struct {
	SampleID     int      `json:"sample_id"`
	NumItems     int      `json:"num_items"`
	Capacity     float64  `json:"capacity"`
	TotalValue   float64  `json:"total_value"`
	TotalWeight  float64  `json:"total_weight"`
	UnusedRatio  float64  `json:"unused_ratio"`
	Efficiency   float64  `json:"efficiency"`
	SolveTime    float64  `json:"solve_time"`
	Score        float64  `json:"score"`
	OptimalValue *float64 `json:"optimal_value,omitempty"`
	Gap          *float64 `json:"gap,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Report is the outcome of evaluating one strategy over a dataset
type Report struct {
	RunID       uuid.UUID       `json:"run_id"`
	Strategy    string          `json:"strategy"`
	Dataset     string          `json:"dataset,omitempty"`
	Status      Status          `json:"status"`
	Score       float64         `json:"score"`
	Instances   []InstanceScore `json:"instances"`
	Failed      int             `json:"failed"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Duration    float64         `json:"duration"` // seconds
}

// MeanGap returns the mean optimality gap over instances with a baseline
func (r *Report) MeanGap() (float64, bool) {
	var gaps []float64
	for _, inst := range r.Instances {
		if inst.Gap != nil {
			gaps = append(gaps, *inst.Gap)
		}
	}
	if len(gaps) == 0 {
		return 0, false
	}
	return Mean(gaps), true
}

// slot is written by exactly one worker and read only after all workers finished
type slot struct {
	result  types.Result
	optimal *float64
}

// Evaluate runs s over every sample and scores the results.
//
// When the batch deadline expires the report has StatusTimeout and score 0;
// workers still running are abandoned and only ever touch their own slot.
// An error is returned only when ctx itself is cancelled.
func Evaluate(ctx context.Context, s strategy.Strategy, samples []types.Sample, opts Options) (*Report, error) {
	if s == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	opts = opts.withDefaults()
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}

	report := &Report{
		RunID:     opts.RunID,
		Strategy:  s.Name(),
		Dataset:   opts.Dataset,
		StartedAt: time.Now(),
		Instances: []InstanceScore{},
	}

	evalCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	slots := make([]slot, len(samples))
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		var g errgroup.Group
		g.SetLimit(opts.Concurrency)
		for i := range samples {
			if evalCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				if evalCtx.Err() != nil {
					return nil
				}
				slots[i] = runOne(s, &samples[i], opts)
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-finished:
	case <-evalCtx.Done():
	}

	if evalCtx.Err() != nil {
		report.CompletedAt = time.Now()
		report.Duration = report.CompletedAt.Sub(report.StartedAt).Seconds()
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Status = StatusError
			report.Error = ctxErr.Error()
			return report, fmt.Errorf("evaluation cancelled: %w", ctxErr)
		}
		report.Status = StatusTimeout
		report.Error = fmt.Sprintf("evaluation exceeded %s", opts.Timeout)
		opts.Logger.Warn("evaluation timed out", "strategy", s.Name(), "timeout", opts.Timeout, "samples", len(samples))
		return report, nil
	}

	score(report, samples, slots, opts.ScoreFailures)
	report.CompletedAt = time.Now()
	report.Duration = report.CompletedAt.Sub(report.StartedAt).Seconds()
	opts.Logger.Info("evaluation completed",
		"strategy", s.Name(),
		"run_id", report.RunID,
		"status", report.Status,
		"score", report.Score,
		"samples", len(samples),
		"failed", report.Failed,
	)
	return report, nil
}

// runOne solves one sample, converting panics into failed results
func runOne(s strategy.Strategy, sample *types.Sample, opts Options) (out slot) {
	defer func() {
		if r := recover(); r != nil {
			out = slot{result: types.ErrorResult(fmt.Sprintf("strategy panicked: %v", r), 0)}
		}
	}()

	in := sample.Input()
	var stats *selection.Stats
	if runner, ok := s.(strategy.StatsRunner); ok {
		res, st := runner.Run(in)
		out.result, stats = res, &st
	} else {
		out.result = s.Solve(in)
	}
	if opts.Observer != nil {
		opts.Observer.ObserveSolve(s.Name(), out.result, stats)
	}

	if opts.Baseline {
		opt, err := exact.SolveWithLimit(in, opts.BaselineMaxCells)
		switch {
		case err == nil:
			out.optimal = &opt.TotalValue
		case strategy.Unsupported(err):
			opts.Logger.Debug("no exact baseline", "sample", sample.ID, "reason", err)
		default:
			opts.Logger.Warn("exact baseline failed", "sample", sample.ID, "error", err)
		}
	}
	return out
}

// errInfeasible marks a result whose selection does not fit the instance
var errInfeasible = errors.New("reported selection exceeds capacity")

// checkResult recomputes the totals of a successful result against its instance
func checkResult(sample *types.Sample, res *types.Result) error {
	seen := make(map[int]struct{}, len(res.Items))
	for _, id := range res.Items {
		if id < 0 || id >= len(sample.Weights) {
			return fmt.Errorf("item id %d out of range", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("item id %d selected twice", id)
		}
		seen[id] = struct{}{}
	}
	weight, _ := res.Totals(sample.Input())
	if weight > sample.Capacity*(1+capacityTolerance)+capacityTolerance {
		return fmt.Errorf("%w: %g > %g", errInfeasible, weight, sample.Capacity)
	}
	return nil
}

// score fills the per-instance and aggregate fields of report. With
// scoreFailures a failed instance counts as an empty selection.
func score(report *Report, samples []types.Sample, slots []slot, scoreFailures bool) {
	unused := make([]float64, len(samples))
	values := make([]float64, len(samples))

	for i := range samples {
		sample := &samples[i]
		res := slots[i].result
		inst := InstanceScore{
			SampleID:    sample.ID,
			NumItems:    len(sample.Weights),
			Capacity:    sample.Capacity,
			TotalValue:  res.TotalValue,
			TotalWeight: res.TotalWeight,
			SolveTime:   res.SolveTime,
			Error:       res.Error,
		}
		if inst.Error == "" {
			if err := checkResult(sample, &res); err != nil {
				inst.Error = err.Error()
			}
		}
		if inst.Error != "" {
			report.Failed++
			if scoreFailures {
				inst.TotalValue, inst.TotalWeight = 0, 0
			}
		}

		inst.UnusedRatio = UnusedRatio(sample.Capacity, inst.TotalWeight)
		inst.Efficiency = 1 - inst.UnusedRatio
		if opt := slots[i].optimal; opt != nil {
			gap := Gap(*opt, inst.TotalValue)
			inst.OptimalValue = opt
			inst.Gap = &gap
		}
		unused[i] = inst.UnusedRatio
		values[i] = inst.TotalValue
		report.Instances = append(report.Instances, inst)
	}

	if report.Failed > 0 && !scoreFailures {
		report.Status = StatusError
		report.Score = 0
		report.Error = fmt.Sprintf("%d of %d instances failed", report.Failed, len(samples))
		return
	}

	scores := InstanceScores(unused, values)
	for i := range report.Instances {
		report.Instances[i].Score = scores[i]
	}
	report.Status = StatusOK
	report.Score = Mean(scores)
}
