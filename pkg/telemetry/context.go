package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/openalign/openalign/pkg/solver"
)

// Telemetry bundles logging, tracing, metrics and the event bus.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Events  *EventBus
	Config  *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}
	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}
	events, err := NewEventBus(cfg.Events)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Events:  events,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	return t.Logger.WithContext(ctx)
}

// FromTelemetryContext retrieves the telemetry instance from the
// context, or nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown gracefully shuts down all telemetry components.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if err := t.Events.Shutdown(ctx); err != nil {
		return err
	}
	return t.Tracer.Shutdown(ctx)
}

// StartMetricsServer starts the metrics HTTP server if enabled.
func (t *Telemetry) StartMetricsServer() error {
	return t.Metrics.StartMetricsServer(t.Logger)
}

// InstrumentOptions wraps a set of runner options with metric counters,
// a run-level trace span and the event bus. Existing hooks in opts are
// preserved and called after the instrumentation.
//
// The runner invokes all hooks from its single run goroutine, so the
// closure state here needs no locking.
func (t *Telemetry) InstrumentOptions(ctx context.Context, opts solver.Options) solver.Options {
	if opts.Events == nil {
		opts.Events = t.Events
	}

	var (
		runSpan       trace.Span
		iterTimer     *Timer
		prevEvaluated *solver.Constraint
	)

	flushConstraint := func() {
		if prevEvaluated == nil || prevEvaluated.LastResult == nil {
			prevEvaluated = nil
			return
		}
		res := prevEvaluated.LastResult
		t.Metrics.RecordConstraintEvaluated(string(prevEvaluated.Kind), string(res.Status), res.AngleError)
		if res.Status == solver.StatusResolutionFailed {
			t.Metrics.RecordResolutionFailure(string(res.Diagnostics.SourceA))
		}
		for range res.Rotations {
			t.Metrics.RecordRotationApplied()
		}
		prevEvaluated = nil
	}

	onStart := opts.OnStart
	opts.OnStart = func(state solver.RunState) {
		t.Metrics.RecordRunStarted()
		_, runSpan = t.Tracer.StartRunSpan(ctx, state.ID, 0, state.MaxIterations)
		if onStart != nil {
			onStart(state)
		}
	}

	onIterationStart := opts.OnIterationStart
	opts.OnIterationStart = func(iteration int) {
		iterTimer = NewTimer()
		if onIterationStart != nil {
			onIterationStart(iteration)
		}
	}

	onConstraintStart := opts.OnConstraintStart
	opts.OnConstraintStart = func(iteration int, c *solver.Constraint) {
		flushConstraint()
		prevEvaluated = c
		if onConstraintStart != nil {
			onConstraintStart(iteration, c)
		}
	}

	onIterationComplete := opts.OnIterationComplete
	opts.OnIterationComplete = func(iteration int, results []*solver.Result) {
		flushConstraint()
		if iterTimer != nil {
			t.Metrics.RecordIteration(iterTimer.Duration())
		}
		if onIterationComplete != nil {
			onIterationComplete(iteration, results)
		}
	}

	onComplete := opts.OnComplete
	opts.OnComplete = func(summary solver.RunSummary) {
		flushConstraint()
		outcome := "completed"
		if summary.Aborted {
			outcome = "aborted"
		}
		t.Metrics.RecordRunCompleted(outcome, summary.Duration)
		if runSpan != nil {
			runSpan.SetAttributes(
				attribute.String("run.outcome", outcome),
				attribute.Int("run.iterations_completed", summary.IterationsCompleted),
				attribute.Int("run.satisfied", summary.Satisfied),
				attribute.Int("run.blocked", summary.Blocked),
				attribute.Int("run.failed", summary.Failed),
			)
			RecordSuccess(runSpan)
			runSpan.End()
		}
		if onComplete != nil {
			onComplete(summary)
		}
	}

	return opts
}
