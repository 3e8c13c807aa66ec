// Package observability provides logging, metrics and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jonathan/knapsack-search/internal/evaluation"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/strategy"
	"github.com/jonathan/knapsack-search/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintResult outputs a solve result and, when available, the search statistics.
func (p *Printer) PrintResult(name string, in types.InstanceInput, res types.Result, stats *selection.Stats) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Strategy: %s\n", name))
	sb.WriteString(fmt.Sprintf("Items:    %d of %d selected\n", len(res.Items), len(in.Weights)))
	sb.WriteString(fmt.Sprintf("Value:    %g\n", res.TotalValue))
	sb.WriteString(fmt.Sprintf("Weight:   %g / %g\n", res.TotalWeight, in.Capacity))
	sb.WriteString(fmt.Sprintf("Time:     %.4fs", res.SolveTime))

	if res.Failed() {
		sb.WriteString(fmt.Sprintf("\n\n⚠ %s", res.Error))
	}

	if stats != nil {
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("Greedy:   %g -> %g\n", stats.InitialValue, stats.FinalValue))
		sb.WriteString(fmt.Sprintf("Stopped:  %s after %d passes\n", stats.Termination, stats.Passes))
		ops := make([]string, 0, len(stats.Moves))
		for op := range stats.Moves {
			ops = append(ops, op)
		}
		slices.Sort(ops)
		for _, op := range ops {
			sb.WriteString(fmt.Sprintf("  • %s: %d\n", op, stats.Moves[op]))
		}
		if len(stats.Disabled) > 0 {
			sb.WriteString(fmt.Sprintf("Disabled: %s\n", strings.Join(stats.Disabled, ", ")))
		}
		if stats.Rejected > 0 {
			sb.WriteString(fmt.Sprintf("Rejected: %d\n", stats.Rejected))
		}
	}

	p.printBox("SOLVE RESULT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs an evaluation report with the lowest-scoring instances.
func (p *Printer) PrintReport(report *evaluation.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Strategy: %s\n", report.Strategy))
	if report.Dataset != "" {
		sb.WriteString(fmt.Sprintf("Dataset:  %s\n", report.Dataset))
	}
	sb.WriteString(fmt.Sprintf("Status:   %s\n", report.Status))
	sb.WriteString(fmt.Sprintf("Score:    %.4f\n", report.Score))
	sb.WriteString(fmt.Sprintf("Duration: %.2fs\n", report.Duration))
	if gap, ok := report.MeanGap(); ok {
		sb.WriteString(fmt.Sprintf("Mean gap: %.4f\n", gap))
	}
	if report.Error != "" {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", report.Error))
	}

	if len(report.Instances) > 0 {
		worst := slices.Clone(report.Instances)
		slices.SortStableFunc(worst, func(a, b evaluation.InstanceScore) int {
			switch {
			case a.Score < b.Score:
				return -1
			case a.Score > b.Score:
				return 1
			}
			return 0
		})

		sb.WriteString(fmt.Sprintf("\nInstances: %d (%d failed)\n", len(report.Instances), report.Failed))
		count := min(len(worst), maxItemsToShow)
		for i := 0; i < count; i++ {
			inst := worst[i]
			sb.WriteString(fmt.Sprintf("  #%d  value %g  efficiency %.3f  score %.3f\n",
				inst.SampleID, inst.TotalValue, inst.Efficiency, inst.Score))
			if inst.Error != "" {
				sb.WriteString(fmt.Sprintf("      ⚠ %s\n", inst.Error))
			}
		}
		if len(worst) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(worst)-maxItemsToShow))
		}
	}

	p.printBox("EVALUATION REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStandings outputs reports ranked by score, failed runs last.
func (p *Printer) PrintStandings(reports []*evaluation.Report) {
	if len(reports) == 0 {
		return
	}

	ranked := slices.Clone(reports)
	slices.SortStableFunc(ranked, func(a, b *evaluation.Report) int {
		aOK, bOK := a.Status == evaluation.StatusOK, b.Status == evaluation.StatusOK
		switch {
		case aOK != bOK:
			if aOK {
				return -1
			}
			return 1
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	var sb strings.Builder
	for i, r := range ranked {
		sb.WriteString(fmt.Sprintf("#%d  %-14s %8.4f  %s\n", i+1, r.Strategy, r.Score, r.Status))
	}

	p.printBox("TOURNAMENT STANDINGS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStrategies outputs the registered strategies.
func (p *Printer) PrintStrategies(defs []strategy.Definition) {
	if len(defs) == 0 {
		return
	}

	var sb strings.Builder
	for i, d := range defs {
		sb.WriteString(fmt.Sprintf("%s\n", d.Name))
		sb.WriteString(fmt.Sprintf("  %s\n", d.Description))
		if len(d.Operators) > 0 {
			sb.WriteString(fmt.Sprintf("  [%s]\n", strings.Join(d.Operators, " ")))
		}
		if i < len(defs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("STRATEGIES", strings.TrimSuffix(sb.String(), "\n"))
}
