// Package telemetry provides observability instrumentation for the
// alignment engine: structured logging (zerolog), distributed tracing
// (OpenTelemetry), Prometheus metrics, and a solver event bus.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = version
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// # Instrumenting runs
//
// InstrumentOptions wraps runner hooks with metrics, a run span and the
// event bus, so the solver core stays free of telemetry concerns:
//
//	opts = tel.InstrumentOptions(ctx, opts)
//	handle, err := runner.Start(ctx, constraints, iterations, sctx, opts)
//
// # Event bus
//
// The EventBus implements solver.EventPublisher. Subscribers receive
// the run timeline, optionally filtered:
//
//	tel.Events.Subscribe(func(e solver.Event) {
//	    fmt.Println(e.Type, e.ConstraintID, e.Status)
//	}, telemetry.FilterByType(solver.EventConstraintEvaluated))
//
// # Key metrics
//
//   - openalign_runs_started_total / runs_completed_total{outcome}
//   - openalign_run_duration_seconds{outcome}
//   - openalign_iterations_completed_total, iteration_duration_seconds
//   - openalign_constraints_evaluated_total{kind,status}
//   - openalign_constraint_angle_error_radians{kind}
//   - openalign_rotations_applied_total
//   - openalign_resolution_failures_total{selection_kind}
//   - openalign_active_runs
//
// Metrics are exposed via HTTP at /metrics (default :9090).
package telemetry
