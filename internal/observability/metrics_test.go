package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/knapsack-search/internal/evaluation"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/types"
)

func TestMetrics_ObserveSolve(t *testing.T) {
	m := NewMetrics()

	stats := &selection.Stats{Moves: map[string]int{"single_add": 2, "one_for_one": 1}}
	m.ObserveSolve("local-search", types.Result{SolveTime: 0.01}, stats)
	m.ObserveSolve("local-search", types.ErrorResult("boom", 0), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolvesTotal.WithLabelValues("local-search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolvesTotal.WithLabelValues("local-search", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MovesTotal.WithLabelValues("single_add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MovesTotal.WithLabelValues("one_for_one")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SolveDuration))
}

func TestMetrics_ObserveReport(t *testing.T) {
	m := NewMetrics()
	m.ObserveReport(&evaluation.Report{Strategy: "swap", Score: 1.4})
	m.ObserveReport(&evaluation.Report{Strategy: "swap", Score: 1.7})
	assert.Equal(t, 1.7, testutil.ToFloat64(m.EvaluationScore.WithLabelValues("swap")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest(http.MethodPost, "/solve", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `http_requests_total{method="POST",path="/solve",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
