// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Backtest metrics
	BacktestRuns     *prometheus.CounterVec
	BacktestDuration *prometheus.HistogramVec
	TradesSimulated  prometheus.Counter
	DaysSimulated    prometheus.Counter

	// Monte Carlo metrics
	MonteCarloRuns        *prometheus.CounterVec
	MonteCarloBatchRuns   prometheus.Histogram
	MonteCarloRunsPending prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ProgressSubscribers prometheus.Gauge

	// Health metrics
	LastSuccessfulBacktest prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "leap_portfolio_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Backtest metrics
		BacktestRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtests by mode and status",
		}, []string{"mode", "status"}),
		BacktestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds, including persistence",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"mode"}),
		TradesSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_total",
			Help:      "Total number of trades recorded by representative results",
		}),
		DaysSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "days_total",
			Help:      "Total number of simulated trading days in representative results",
		}),

		// Monte Carlo metrics
		MonteCarloRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "runs_total",
			Help:      "Total number of individual Monte Carlo runs by status",
		}, []string{"status"}),
		MonteCarloBatchRuns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "batch_runs",
			Help:      "Number of runs requested per Monte Carlo batch",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),
		MonteCarloRunsPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "montecarlo",
			Name:      "runs_pending",
			Help:      "Runs of in-flight batches not yet finished",
		}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// HTTP metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		ProgressSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "progress_subscribers",
			Help:      "Open websocket progress subscriptions",
		}),

		// Health metrics
		LastSuccessfulBacktest: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_backtest_timestamp",
			Help:      "Unix timestamp of last successful backtest",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBacktest records a finished backtest of the given mode.
func (m *Metrics) RecordBacktest(mode string, duration time.Duration, trades, days int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BacktestRuns.WithLabelValues(mode, status).Inc()
	m.BacktestDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err == nil {
		m.TradesSimulated.Add(float64(trades))
		m.DaysSimulated.Add(float64(days))
		m.LastSuccessfulBacktest.SetToCurrentTime()
	}
}

// RecordMonteCarloBatch records the size of a newly started batch.
func (m *Metrics) RecordMonteCarloBatch(runs int) {
	m.MonteCarloBatchRuns.Observe(float64(runs))
	m.MonteCarloRunsPending.Add(float64(runs))
}

// RecordMonteCarloRun records one finished Monte Carlo run.
func (m *Metrics) RecordMonteCarloRun(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.MonteCarloRuns.WithLabelValues(status).Inc()
	m.MonteCarloRunsPending.Dec()
}

// ReleasePending subtracts runs that were scheduled but never finished.
func (m *Metrics) ReleasePending(runs int) {
	if runs > 0 {
		m.MonteCarloRunsPending.Sub(float64(runs))
	}
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, code int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(route, http.StatusText(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordBacktest records a backtest on DefaultMetrics.
func RecordBacktest(mode string, duration time.Duration, trades, days int, err error) {
	DefaultMetrics.RecordBacktest(mode, duration, trades, days, err)
}

// RecordDBQuery records a database query on DefaultMetrics.
func RecordDBQuery(database, operation string, duration time.Duration, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, duration, err)
}
