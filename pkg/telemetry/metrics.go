package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the alignment engine. A
// disabled instance is a safe no-op.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	activeRuns    prometheus.Gauge

	// Iteration metrics
	iterationsCompleted prometheus.Counter
	iterationDuration   prometheus.Histogram

	// Constraint metrics
	constraintsEvaluated *prometheus.CounterVec
	constraintAngleError *prometheus.HistogramVec
	rotationsApplied     prometheus.Counter

	// Resolution metrics
	resolutionFailures *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	durationBuckets := cfg.DurationBuckets
	if len(durationBuckets) == 0 {
		durationBuckets = prometheus.DefBuckets
	}
	angleBuckets := cfg.AngleErrorBuckets
	if len(angleBuckets) == 0 {
		angleBuckets = prometheus.ExponentialBuckets(1e-5, 10, 7)
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total number of solver runs started",
		}),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of solver runs finished",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of solver runs in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"outcome"},
		),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Current number of live solver runs",
		}),

		iterationsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_completed_total",
			Help:      "Total number of completed solver iterations",
		}),
		iterationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "iteration_duration_seconds",
			Help:      "Duration of one full pass over the constraint list in seconds",
			Buckets:   durationBuckets,
		}),

		constraintsEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "constraints_evaluated_total",
				Help:      "Total number of constraint evaluations",
			},
			[]string{"kind", "status"},
		),
		constraintAngleError: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "constraint_angle_error_radians",
				Help:      "Measured angular error per constraint evaluation in radians",
				Buckets:   angleBuckets,
			},
			[]string{"kind"},
		),
		rotationsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_applied_total",
			Help:      "Total number of corrective rotations accepted by the host",
		}),

		resolutionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolution_failures_total",
				Help:      "Total number of direction resolution failures",
			},
			[]string{"selection_kind"},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.activeRuns,
		m.iterationsCompleted,
		m.iterationDuration,
		m.constraintsEvaluated,
		m.constraintAngleError,
		m.rotationsApplied,
		m.resolutionFailures,
	)

	return m, nil
}

// RecordRunStarted increments the counters for a newly started run.
func (m *Metrics) RecordRunStarted() {
	if m.runsStarted == nil {
		return
	}
	m.runsStarted.Inc()
	m.activeRuns.Inc()
}

// RecordRunCompleted records a finished run with its outcome and duration.
// outcome is "completed" or "aborted".
func (m *Metrics) RecordRunCompleted(outcome string, duration time.Duration) {
	if m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.activeRuns.Dec()
}

// RecordIteration records one completed pass over the constraint list.
func (m *Metrics) RecordIteration(duration time.Duration) {
	if m.iterationsCompleted == nil {
		return
	}
	m.iterationsCompleted.Inc()
	m.iterationDuration.Observe(duration.Seconds())
}

// RecordConstraintEvaluated records one constraint evaluation outcome.
func (m *Metrics) RecordConstraintEvaluated(kind, status string, angleError float64) {
	if m.constraintsEvaluated == nil {
		return
	}
	m.constraintsEvaluated.WithLabelValues(kind, status).Inc()
	m.constraintAngleError.WithLabelValues(kind).Observe(angleError)
}

// RecordRotationApplied counts a corrective rotation the host accepted.
func (m *Metrics) RecordRotationApplied() {
	if m.rotationsApplied == nil {
		return
	}
	m.rotationsApplied.Inc()
}

// RecordResolutionFailure counts a failed direction resolution.
func (m *Metrics) RecordResolutionFailure(selectionKind string) {
	if m.resolutionFailures == nil {
		return
	}
	m.resolutionFailures.WithLabelValues(selectionKind).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server exposing the metrics
// endpoint. It returns immediately; serving happens in the background.
func (m *Metrics) StartMetricsServer(log *Logger) error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped")
		}
	}()

	return nil
}
