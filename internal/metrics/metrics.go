// Package metrics exposes Prometheus metrics for fetches and analysis passes.
package metrics

import (
	"net/http"
	"time"

	"MarketLens/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analysis service.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal  *prometheus.CounterVec // labels: source, result
	BarsFetched   prometheus.Counter
	AnalysisDur   prometheus.Histogram
	AnalysesTotal prometheus.Counter
	WarningsTotal prometheus.Counter
	SignalsTotal  *prometheus.CounterVec // labels: action
	NotifyTotal   *prometheus.CounterVec // labels: result
}

// NewMetrics creates the metrics on their own registry, so several instances
// can coexist (one per test).
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_fetches_total",
			Help: "Bar fetches by data source and result",
		}, []string{"source", "result"}),
		BarsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketlens_bars_fetched_total",
			Help: "Valid bars received from data sources",
		}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketlens_analysis_duration_seconds",
			Help:    "Latency of one indicator/pattern/signal pass",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketlens_analyses_total",
			Help: "Analysis passes run",
		}),
		WarningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketlens_analysis_warnings_total",
			Help: "Non-fatal stage failures during analysis",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_last_bar_signals_total",
			Help: "Composite signal of the last bar, per analysis pass",
		}, []string{"action"}),
		NotifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketlens_notifications_total",
			Help: "Push notifications by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.FetchesTotal,
		m.BarsFetched,
		m.AnalysisDur,
		m.AnalysesTotal,
		m.WarningsTotal,
		m.SignalsTotal,
		m.NotifyTotal,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(source string, bars int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FetchesTotal.WithLabelValues(source, result).Inc()
	m.BarsFetched.Add(float64(bars))
}

// ObserveAnalysis records one analysis pass.
func (m *Metrics) ObserveAnalysis(elapsed time.Duration, warnings int, last model.Signal) {
	m.AnalysesTotal.Inc()
	m.AnalysisDur.Observe(elapsed.Seconds())
	m.WarningsTotal.Add(float64(warnings))
	m.SignalsTotal.WithLabelValues(last.Action.String()).Inc()
}

// ObserveNotify records one push attempt.
func (m *Metrics) ObserveNotify(err error) {
	if err != nil {
		m.NotifyTotal.WithLabelValues("error").Inc()
		return
	}
	m.NotifyTotal.WithLabelValues("sent").Inc()
}
