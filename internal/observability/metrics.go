package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/knapsack-search/internal/evaluation"
	"github.com/jonathan/knapsack-search/internal/selection"
	"github.com/jonathan/knapsack-search/internal/types"
)

// Metrics owns a prometheus registry with the solver and HTTP metrics.
// It implements evaluation.Observer.
type Metrics struct {
	registry *prometheus.Registry

	SolvesTotal       *prometheus.CounterVec   // by strategy, status
	SolveDuration     *prometheus.HistogramVec // by strategy
	MovesTotal        *prometheus.CounterVec   // by operator
	EvaluationScore   *prometheus.GaugeVec     // by strategy
	HTTPRequestsTotal *prometheus.CounterVec   // by method, path, status
}

// NewMetrics creates a registry with Go runtime and process collectors
// plus the knapsack metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.SolvesTotal = m.newCounterVec(prometheus.CounterOpts{
		Name: "knapsack_solves_total",
		Help: "Total number of solved instances",
	}, []string{"strategy", "status"})

	m.SolveDuration = m.newHistogramVec(prometheus.HistogramOpts{
		Name:    "knapsack_solve_duration_seconds",
		Help:    "Solve latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"strategy"})

	m.MovesTotal = m.newCounterVec(prometheus.CounterOpts{
		Name: "knapsack_moves_total",
		Help: "Total number of applied local search moves",
	}, []string{"operator"})

	m.EvaluationScore = m.newGaugeVec(prometheus.GaugeOpts{
		Name: "knapsack_evaluation_score",
		Help: "Score of the latest evaluation per strategy",
	}, []string{"strategy"})

	m.HTTPRequestsTotal = m.newCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	return m
}

func (m *Metrics) newCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labels)
	m.registry.MustRegister(cv)
	return cv
}

func (m *Metrics) newGaugeVec(opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labels)
	m.registry.MustRegister(gv)
	return gv
}

func (m *Metrics) newHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labels)
	m.registry.MustRegister(hv)
	return hv
}

// ObserveSolve records one solved instance
func (m *Metrics) ObserveSolve(strategy string, res types.Result, stats *selection.Stats) {
	status := "ok"
	if res.Failed() {
		status = "error"
	}
	m.SolvesTotal.WithLabelValues(strategy, status).Inc()
	m.SolveDuration.WithLabelValues(strategy).Observe(res.SolveTime)

	if stats != nil {
		for op, n := range stats.Moves {
			m.MovesTotal.WithLabelValues(op).Add(float64(n))
		}
	}
}

// ObserveReport records the score of a finished evaluation
func (m *Metrics) ObserveReport(report *evaluation.Report) {
	m.EvaluationScore.WithLabelValues(report.Strategy).Set(report.Score)
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ evaluation.Observer = (*Metrics)(nil)
