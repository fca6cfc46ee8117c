package solver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxIterationBudget caps the requested iteration count of a run.
const maxIterationBudget = 10000

// ErrNoHost is returned by Start when the solve context has no host.
var ErrNoHost = errors.New("solver: solve context has no host")

// Options configures one run.
type Options struct {
	// OnStart fires once before the first iteration.
	OnStart func(state RunState)

	// OnIterationStart fires at the top of each iteration.
	OnIterationStart func(iteration int)

	// OnConstraintStart fires immediately before each evaluation.
	OnConstraintStart func(iteration int, constraint *Constraint)

	// OnIterationComplete fires after each full pass with that pass's
	// results. The scheduler awaits it: the hook may block (for example
	// to batch a UI refresh) and the next iteration starts only after
	// it returns.
	OnIterationComplete func(iteration int, results []*Result)

	// OnComplete fires exactly once per run: on normal completion, on
	// cancellation, and when the constraint list is empty.
	OnComplete func(summary RunSummary)

	// PauseEnabled suspends the run after every completed iteration
	// until Resume (or Abort) is called on the handle.
	PauseEnabled bool

	// IterationDelay, if set, is awaited once per completed iteration.
	// It exists to slow visual convergence and never compounds with the
	// pause gate.
	IterationDelay time.Duration

	// Events optionally receives the run timeline.
	Events EventPublisher
}

// Runner drives N iterations over an ordered constraint list,
// evaluating each constraint once per pass.
//
// Scheduling is single-threaded and cooperative: constraints within an
// iteration observe the transforms already updated by earlier
// constraints in the same pass, so corrections compose predictably.
// Cancellation is only observed at iteration boundaries and between
// constraints, never inside an evaluation. A Runner permits one live
// run at a time; Start cooperatively stops a previous run first.
type Runner struct {
	evaluator *Evaluator
	log       zerolog.Logger

	mu     sync.Mutex
	handle *RunHandle
	phase  RunPhase
}

// NewRunner creates a constraint runner. Each Runner owns its run state
// independently; nothing is shared between instances.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{
		evaluator: NewEvaluator(),
		log:       log,
		phase:     RunPhaseIdle,
	}
}

// Phase returns the runner's current lifecycle phase.
func (r *Runner) Phase() RunPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// RunHandle controls one live run.
type RunHandle struct {
	runner *Runner
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	state   RunState
	gate    chan struct{}
	summary RunSummary
}

// Abort requests cooperative cancellation. A paused run is unblocked:
// the pending pause gate observes the cancellation and the run exits
// instead of deadlocking. Abort returns immediately; use Wait to
// observe completion.
func (h *RunHandle) Abort() {
	h.cancel()
}

// Resume releases the pause gate so the next iteration can start. A
// no-op when the run is not paused.
func (h *RunHandle) Resume() {
	h.mu.Lock()
	gate := h.gate
	h.gate = nil
	h.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// Done is closed when the run has fully finished.
func (h *RunHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run finishes and returns its summary.
func (h *RunHandle) Wait() RunSummary {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.summary
}

// State returns a snapshot of the live run state.
func (h *RunHandle) State() RunState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *RunHandle) updateState(fn func(*RunState)) {
	h.mu.Lock()
	fn(&h.state)
	h.mu.Unlock()
}

// armGate installs a fresh pause gate and returns it.
func (h *RunHandle) armGate() chan struct{} {
	gate := make(chan struct{})
	h.mu.Lock()
	h.gate = gate
	h.state.Paused = true
	h.mu.Unlock()
	return gate
}

func (h *RunHandle) disarmGate() {
	h.mu.Lock()
	h.gate = nil
	h.state.Paused = false
	h.mu.Unlock()
}

// Start begins a run of the given constraints for the given number of
// iterations. If a run is already live, it is aborted and awaited
// before the new run starts. The returned handle exposes Abort, Resume
// and Wait; cancellation of ctx behaves like Abort.
func (r *Runner) Start(ctx context.Context, constraints []*Constraint, iterations int, sctx *SolveContext, opts Options) (*RunHandle, error) {
	if sctx == nil || sctx.Host == nil {
		return nil, ErrNoHost
	}
	if iterations < 0 {
		iterations = 0
	}
	maxIterations := iterations
	if maxIterations > maxIterationBudget {
		maxIterations = maxIterationBudget
	}

	// Single-active-run invariant: stop the previous run first.
	r.mu.Lock()
	prev := r.handle
	r.mu.Unlock()
	if prev != nil {
		select {
		case <-prev.done:
		default:
			prev.Abort()
			<-prev.done
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	handle := &RunHandle{
		runner: r,
		cancel: cancel,
		done:   make(chan struct{}),
		state: RunState{
			ID:                  uuid.New().String(),
			RequestedIterations: iterations,
			MaxIterations:       maxIterations,
			StartedAt:           time.Now(),
		},
	}

	r.mu.Lock()
	r.handle = handle
	r.phase = RunPhaseRunning
	r.mu.Unlock()

	go r.execute(runCtx, handle, constraints, sctx, opts)
	return handle, nil
}

// execute is the run loop. It always fires OnComplete exactly once and
// closes the handle's done channel.
func (r *Runner) execute(ctx context.Context, h *RunHandle, constraints []*Constraint, sctx *SolveContext, opts Options) {
	state := h.State()
	log := r.log.With().Str("run_id", state.ID).Logger()
	log.Info().
		Int("constraints", len(constraints)).
		Int("iterations", state.MaxIterations).
		Msg("run started")

	if opts.OnStart != nil {
		opts.OnStart(state)
	}
	publishEvent(ctx, opts.Events, &Event{
		Type:  EventRunStarted,
		RunID: state.ID,
	})

	aborted := false
	var lastResults []*Result

	if len(constraints) > 0 {
	iterations:
		for i := 0; i < state.MaxIterations; i++ {
			// Cancellation is checked at the top of every iteration.
			if ctx.Err() != nil {
				aborted = true
				break
			}

			h.updateState(func(s *RunState) { s.CurrentIteration = i })
			if opts.OnIterationStart != nil {
				opts.OnIterationStart(i)
			}
			publishEvent(ctx, opts.Events, &Event{
				Type:      EventIterationStarted,
				RunID:     state.ID,
				Iteration: i,
			})

			results := make([]*Result, 0, len(constraints))
			for _, c := range constraints {
				// An in-flight evaluation is never interrupted, but the
				// loop exits between constraints once abort is observed.
				if ctx.Err() != nil {
					aborted = true
					break iterations
				}

				h.updateState(func(s *RunState) { s.CurrentConstraintID = c.ID })
				if opts.OnConstraintStart != nil {
					opts.OnConstraintStart(i, c)
				}

				res := r.evaluator.Solve(c, sctx)
				c.LastResult = res
				results = append(results, res)

				log.Debug().
					Str("constraint", c.ID).
					Str("status", string(res.Status)).
					Float64("angle_error", res.AngleError).
					Msg("constraint evaluated")
				publishEvent(ctx, opts.Events, &Event{
					Type:         EventConstraintEvaluated,
					RunID:        state.ID,
					Iteration:    i,
					ConstraintID: c.ID,
					Status:       res.Status,
					AngleError:   res.AngleError,
					Message:      res.Message,
				})
			}

			lastResults = results
			h.updateState(func(s *RunState) {
				s.IterationsCompleted = i + 1
				s.CurrentConstraintID = ""
			})

			// The completion hook is awaited before pausing or starting
			// the next iteration.
			if opts.OnIterationComplete != nil {
				opts.OnIterationComplete(i, results)
			}
			publishEvent(ctx, opts.Events, &Event{
				Type:      EventIterationCompleted,
				RunID:     state.ID,
				Iteration: i,
			})

			if opts.IterationDelay > 0 && i+1 < state.MaxIterations {
				select {
				case <-time.After(opts.IterationDelay):
				case <-ctx.Done():
				}
			}

			if opts.PauseEnabled && i+1 < state.MaxIterations {
				gate := h.armGate()
				r.setPhase(RunPhasePaused)
				select {
				case <-gate:
				case <-ctx.Done():
					// Abort resolves a pending gate so a paused run can
					// observe cancellation and exit.
				}
				h.disarmGate()
				r.setPhase(RunPhaseRunning)
			}
		}
	}

	final := h.State()
	summary := summarize(final, lastResults, aborted)
	h.mu.Lock()
	h.state.Aborted = aborted
	h.summary = summary
	h.mu.Unlock()

	if aborted {
		r.setPhase(RunPhaseAborted)
		log.Info().Int("iterations_completed", summary.IterationsCompleted).Msg("run aborted")
		publishEvent(ctx, opts.Events, &Event{
			Type:      EventRunAborted,
			RunID:     state.ID,
			Iteration: summary.IterationsCompleted,
		})
	} else {
		r.setPhase(RunPhaseCompleted)
		log.Info().Int("iterations_completed", summary.IterationsCompleted).Msg("run completed")
		publishEvent(ctx, opts.Events, &Event{
			Type:      EventRunCompleted,
			RunID:     state.ID,
			Iteration: summary.IterationsCompleted,
		})
	}

	if opts.OnComplete != nil {
		opts.OnComplete(summary)
	}
	close(h.done)
}

func (r *Runner) setPhase(p RunPhase) {
	r.mu.Lock()
	r.phase = p
	r.mu.Unlock()
}

// summarize folds the final pass's results into a terminal report.
func summarize(state RunState, results []*Result, aborted bool) RunSummary {
	summary := RunSummary{
		RunID:               state.ID,
		Aborted:             aborted,
		IterationsCompleted: state.IterationsCompleted,
		Duration:            time.Since(state.StartedAt),
	}
	for _, res := range results {
		switch {
		case res.Status == StatusSatisfied:
			summary.Satisfied++
		case res.Status == StatusAdjusted:
			summary.Adjusted++
		case res.Status == StatusBlocked:
			summary.Blocked++
		case res.Status.IsFailure():
			summary.Failed++
		}
	}
	return summary
}
