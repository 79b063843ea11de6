package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Backtest outcome labels
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	backtestsTotal    *prometheus.CounterVec
	backtestDuration  prometheus.Histogram
	backtestPoints    prometheus.Histogram
	tradesTotal       *prometheus.CounterVec
	sweepCombinations prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{Registry: reg}

	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskon_backtests_total",
			Help: "Total number of backtests",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskon_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	r.backtestPoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "riskon_backtest_points",
			Help:    "Number of price points per backtest",
			Buckets: prometheus.ExponentialBuckets(16, 2, 10),
		},
	)
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "riskon_trades_total",
			Help: "Total number of trades segmented, by sample split",
		},
		[]string{"split"},
	)
	r.sweepCombinations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "riskon_sweep_combinations_total",
			Help: "Total number of parameter combinations evaluated by sweeps",
		},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.backtestPoints)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.sweepCombinations)

	return r
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64, points int) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
	if points > 0 {
		r.backtestPoints.Observe(float64(points))
	}
}

// RecordTrades adds trades counted on one split ("full", "train" or "test").
func (r *Registry) RecordTrades(split string, n int) {
	r.tradesTotal.WithLabelValues(split).Add(float64(n))
}

// RecordSweepCombinations records evaluated sweep combinations.
func (r *Registry) RecordSweepCombinations(n int) {
	r.sweepCombinations.Add(float64(n))
}

// WriteTextfile writes the current metrics in the node-exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
