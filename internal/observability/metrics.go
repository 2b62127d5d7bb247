// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	DecisionsTotal *prometheus.CounterVec
	FallbacksTotal *prometheus.CounterVec
	TradesExecuted *prometheus.CounterVec
	DaysSimulated  prometheus.Counter
	DataGapsTotal  prometheus.Counter
	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec

	// AI metrics
	DecisionLatency *prometheus.HistogramVec

	// Collector metrics
	BarsFetched        prometheus.Counter
	SentimentFetched   prometheus.Counter
	HeadlinesImported  prometheus.Counter
	CollectorErrors    *prometheus.CounterVec
	WSReconnects       prometheus.Counter
	LastSuccessfulSync prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "chronos"
	}

	return &Metrics{
		// Simulation metrics
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "decisions_total",
			Help:      "Total number of trade decisions by persona and source",
		}, []string{"persona", "source"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "fallbacks_total",
			Help:      "Total number of rule fallbacks by persona and reason",
		}, []string{"persona", "reason"}),
		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_executed_total",
			Help:      "Total number of executed ledger operations by persona and action",
		}, []string{"persona", "action"}),
		DaysSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "days_simulated_total",
			Help:      "Total number of simulated trading days",
		}),
		DataGapsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "data_gaps_total",
			Help:      "Total number of dates skipped for missing price data",
		}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by mode and status",
		}, []string{"mode", "status"}),
		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Simulation run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"mode"}),

		// AI metrics
		DecisionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ai",
			Name:      "decision_latency_seconds",
			Help:      "AI decision call latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"persona"}),

		// Collector metrics
		BarsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "bars_fetched_total",
			Help:      "Total number of daily bars fetched from the exchange",
		}),
		SentimentFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "sentiment_fetched_total",
			Help:      "Total number of Fear & Greed readings fetched",
		}),
		HeadlinesImported: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "headlines_imported_total",
			Help:      "Total number of news headlines imported",
		}),
		CollectorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "errors_total",
			Help:      "Total number of collector errors by source and type",
		}, []string{"source", "error_type"}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "ws_reconnects_total",
			Help:      "Total number of WebSocket stream reconnections",
		}),
		LastSuccessfulSync: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "last_successful_sync_timestamp",
			Help:      "Unix timestamp of last successful data sync",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful simulation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDecision increments the decisions counter for one persona and source.
func RecordDecision(persona, source string) {
	DefaultMetrics.DecisionsTotal.WithLabelValues(persona, source).Inc()
}

// RecordFallback records a rule fallback by reason (timeout or error).
func RecordFallback(persona, reason string) {
	DefaultMetrics.FallbacksTotal.WithLabelValues(persona, reason).Inc()
}

// RecordTrade increments the executed trades counter.
func RecordTrade(persona, action string) {
	DefaultMetrics.TradesExecuted.WithLabelValues(persona, action).Inc()
}

// RecordDaySimulated increments the simulated days counter.
func RecordDaySimulated() {
	DefaultMetrics.DaysSimulated.Inc()
}

// RecordDataGap increments the data gap counter.
func RecordDataGap() {
	DefaultMetrics.DataGapsTotal.Inc()
}

// RecordRun records a finished simulation run.
func RecordRun(mode, status string, durationSeconds float64) {
	DefaultMetrics.RunsTotal.WithLabelValues(mode, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(mode).Observe(durationSeconds)
}

// RecordDecisionLatency records one AI decision call latency.
func RecordDecisionLatency(persona string, seconds float64) {
	DefaultMetrics.DecisionLatency.WithLabelValues(persona).Observe(seconds)
}

// RecordBarsFetched adds n to the fetched bars counter.
func RecordBarsFetched(n int) {
	DefaultMetrics.BarsFetched.Add(float64(n))
}

// RecordSentimentFetched adds n to the fetched sentiment readings counter.
func RecordSentimentFetched(n int) {
	DefaultMetrics.SentimentFetched.Add(float64(n))
}

// RecordHeadlinesImported adds n to the imported headlines counter.
func RecordHeadlinesImported(n int) {
	DefaultMetrics.HeadlinesImported.Add(float64(n))
}

// RecordCollectorError records a collector error.
func RecordCollectorError(source, errorType string) {
	DefaultMetrics.CollectorErrors.WithLabelValues(source, errorType).Inc()
}

// RecordWSReconnect increments the stream reconnect counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// UpdateLastSuccessfulSync sets the last successful sync gauge.
func UpdateLastSuccessfulSync(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulSync.Set(float64(unixSeconds))
}

// UpdateLastSuccessfulRun sets the last successful run gauge.
func UpdateLastSuccessfulRun(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulRun.Set(float64(unixSeconds))
}
