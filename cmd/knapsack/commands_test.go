package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/knapsack-search/internal/evaluation"
	"github.com/jonathan/knapsack-search/internal/generator"
	"github.com/jonathan/knapsack-search/internal/pipeline"
	"github.com/jonathan/knapsack-search/internal/results"
	"github.com/jonathan/knapsack-search/internal/strategy"
	"github.com/jonathan/knapsack-search/internal/types"
)

const instanceJSON = `{"weights":[6,5,5],"values":[10,7,7],"capacity":10}`

func TestStrategiesCommand(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	for _, name := range []string{strategy.NameGreedy, strategy.NameLocalSearch, strategy.NameExact} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "STRATEGIES")
}

func TestSolveCommand_Stdout(t *testing.T) {
	input := writeFile(t, "instance.json", instanceJSON)

	out, err := execute(t, "solve", "-i", input)
	require.NoError(t, err)

	var res types.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []int{1, 2}, res.Items)
	assert.Equal(t, 14.0, res.TotalValue)
	assert.Equal(t, 10.0, res.TotalWeight)
}

func TestSolveCommand_OutputFile(t *testing.T) {
	input := writeFile(t, "instance.json", instanceJSON)
	output := filepath.Join(t.TempDir(), "out", "result.json")

	out, err := execute(t, "solve", "-i", input, "-s", strategy.NameGreedy, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "SOLVE RESULT")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var res types.Result
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, []int{0}, res.Items)
}

func TestSolveCommand_Errors(t *testing.T) {
	t.Run("missing input flag", func(t *testing.T) {
		_, err := execute(t, "solve")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "input")
	})

	t.Run("schema violation", func(t *testing.T) {
		input := writeFile(t, "bad.json", `{"weights":[1],"values":[1]}`)
		_, err := execute(t, "solve", "-i", input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid instance")
	})

	t.Run("unknown strategy", func(t *testing.T) {
		input := writeFile(t, "instance.json", instanceJSON)
		_, err := execute(t, "solve", "-i", input, "-s", "annealing")
		var unknown *strategy.UnknownStrategyError
		require.ErrorAs(t, err, &unknown)
	})

	t.Run("mismatched lengths", func(t *testing.T) {
		input := writeFile(t, "mismatch.json", `{"weights":[1,2],"values":[1],"capacity":3}`)
		_, err := execute(t, "solve", "-i", input)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "solve failed")
	})
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()

	t.Run("batches", func(t *testing.T) {
		path := filepath.Join(dir, "batches.json")
		out, err := execute(t, "generate", "--batches", "3", "--items", "20", "--seed", "5", "-o", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 3 samples")

		ds, err := generator.LoadDataset(path)
		require.NoError(t, err)
		assert.Equal(t, "batches", ds.Name)
		assert.Equal(t, uint64(5), ds.Seed)
		require.Len(t, ds.Samples, 3)
		assert.Equal(t, 20, ds.Samples[0].NumItems)
	})

	t.Run("series", func(t *testing.T) {
		path := filepath.Join(dir, "series.json")
		_, err := execute(t, "generate", "--series", "--min", "10", "--max", "30", "--step", "10", "--name", "small", "-o", path)
		require.NoError(t, err)

		ds, err := generator.LoadDataset(path)
		require.NoError(t, err)
		assert.Equal(t, "small", ds.Name)
		require.Len(t, ds.Samples, 3)
		assert.Equal(t, 30, ds.Samples[2].NumItems)
	})

	t.Run("same seed same dataset", func(t *testing.T) {
		a := filepath.Join(dir, "a.json")
		b := filepath.Join(dir, "b.json")
		_, err := execute(t, "generate", "--batches", "2", "--items", "10", "--seed", "9", "-o", a)
		require.NoError(t, err)
		_, err = execute(t, "generate", "--batches", "2", "--items", "10", "--seed", "9", "-o", b)
		require.NoError(t, err)

		da, err := os.ReadFile(a)
		require.NoError(t, err)
		db, err := os.ReadFile(b)
		require.NoError(t, err)
		assert.Equal(t, string(da), string(db))
	})

	t.Run("invalid series", func(t *testing.T) {
		_, err := execute(t, "generate", "--series", "--min", "30", "--max", "10", "-o", filepath.Join(dir, "x.json"))
		assert.Error(t, err)
	})
}

// generateDataset writes a small seeded dataset for the evaluation tests
func generateDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	_, err := execute(t, "generate", "--batches", "4", "--items", "30", "--seed", "1", "-o", path)
	require.NoError(t, err)
	return path
}

func TestEvaluateCommand(t *testing.T) {
	dataset := generateDataset(t)
	outDir := t.TempDir()
	reportPath := filepath.Join(outDir, "report.json")

	out, err := execute(t, "evaluate", "-d", dataset, "--out-dir", outDir, "--baseline", "--report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "EVALUATION REPORT")
	assert.Contains(t, out, "Mean gap")

	_, err = os.Stat(filepath.Join(outDir, results.SummaryFile))
	assert.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report evaluation.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, evaluation.StatusOK, report.Status)
	assert.Equal(t, strategy.NameLocalSearch, report.Strategy)
	assert.Len(t, report.Instances, 4)
	assert.Greater(t, report.Score, 0.0)
}

func TestEvaluateCommand_MissingDataset(t *testing.T) {
	_, err := execute(t, "evaluate", "-d", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read dataset")
}

func TestEvaluateCommand_ScoreFailures(t *testing.T) {
	// The exact strategy rejects the fractional sample
	dataset := writeFile(t, "mixed.json", `{"name": "mixed", "samples": [
		{"id": 0, "capacity": 5, "weights": [2, 3], "values": [3, 4]},
		{"id": 1, "capacity": 3, "weights": [1.5], "values": [2]}
	]}`)

	_, err := execute(t, "evaluate", "-d", dataset, "-s", strategy.NameExact, "--out-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status error")

	reportPath := filepath.Join(t.TempDir(), "report.json")
	_, err = execute(t, "evaluate", "-d", dataset, "-s", strategy.NameExact,
		"--out-dir", t.TempDir(), "--score-failures", "--report", reportPath)
	require.NoError(t, err)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report evaluation.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, evaluation.StatusOK, report.Status)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0.0, report.Instances[1].TotalValue)
}

func TestTournamentCommand(t *testing.T) {
	dataset := generateDataset(t)
	outDir := t.TempDir()
	summaryPath := filepath.Join(outDir, "summary.json")

	out, err := execute(t, "tournament", "-d", dataset,
		"--strategies", strategy.NameGreedy+", "+strategy.NameLocalSearch,
		"--out-dir", outDir, "--summary", summaryPath)
	require.NoError(t, err)
	assert.Contains(t, out, "TOURNAMENT STANDINGS")
	assert.Contains(t, out, "Best: ")

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var summary pipeline.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	require.Len(t, summary.Scores, 2)
	assert.Equal(t, 1.0, summary.SuccessRate)
	assert.NotEmpty(t, summary.BestStrategy)
}

func TestTournamentCommand_UnknownStrategy(t *testing.T) {
	dataset := generateDataset(t)
	_, err := execute(t, "tournament", "-d", dataset, "--strategies", "nope", "--out-dir", t.TempDir())
	var unknown *strategy.UnknownStrategyError
	require.ErrorAs(t, err, &unknown)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	path := writeFile(t, "config.json", `{"port": 70000}`)
	_, err := execute(t, "strategies", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
