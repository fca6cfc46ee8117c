package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/openalign/openalign/pkg/solver"
)

// Recorder persists a run's timeline to a Store. It implements
// solver.EventPublisher: hand it to the runner via Options.Events and
// every run, iteration and constraint event lands in the database.
//
// The run row is created when the run.started event arrives. Terminal
// state and final-pass results are written by RecordSummary, which the
// caller invokes from the OnComplete hook where the summary and the
// evaluated constraints are in scope.
type Recorder struct {
	store               Store
	scene               string
	requestedIterations int
}

// NewRecorder creates a recorder for one upcoming run. Scene names the
// document being solved; requestedIterations is the budget passed to
// Runner.Start.
func NewRecorder(store Store, scene string, requestedIterations int) *Recorder {
	return &Recorder{
		store:               store,
		scene:               scene,
		requestedIterations: requestedIterations,
	}
}

// Publish stores one timeline event. A run.started event additionally
// creates the run row.
func (r *Recorder) Publish(ctx context.Context, event *solver.Event) error {
	if event.Type == solver.EventRunStarted {
		now := time.Now()
		run := &Run{
			ID:                  event.RunID,
			Scene:               r.scene,
			Status:              RunStatusRunning,
			RequestedIterations: r.requestedIterations,
			StartedAt:           event.Timestamp,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := r.store.CreateRun(ctx, run); err != nil {
			return fmt.Errorf("failed to record run start: %w", err)
		}
	}

	record := &Event{
		RunID:     event.RunID,
		Type:      string(event.Type),
		Iteration: event.Iteration,
		Timestamp: event.Timestamp,
	}
	if event.ConstraintID != "" {
		record.ConstraintID = &event.ConstraintID
	}
	if event.Status != "" {
		status := string(event.Status)
		record.Status = &status
	}
	if event.Type == solver.EventConstraintEvaluated {
		angle := event.AngleError
		record.AngleError = &angle
	}
	if event.Message != "" {
		record.Message = &event.Message
	}

	return r.store.AppendEvent(ctx, record)
}

// RecordSummary writes the terminal run state and the final-pass result
// of every constraint. Call it once, after the run ends.
func (r *Recorder) RecordSummary(ctx context.Context, summary solver.RunSummary, constraints []*solver.Constraint) error {
	status := RunStatusCompleted
	if summary.Aborted {
		status = RunStatusAborted
	}

	now := time.Now()
	durationMs := summary.Duration.Milliseconds()
	run := &Run{
		ID:                  summary.RunID,
		Status:              status,
		IterationsCompleted: summary.IterationsCompleted,
		Satisfied:           summary.Satisfied,
		Adjusted:            summary.Adjusted,
		Blocked:             summary.Blocked,
		Failed:              summary.Failed,
		CompletedAt:         &now,
		DurationMs:          &durationMs,
		UpdatedAt:           now,
	}
	if err := r.store.FinishRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run summary: %w", err)
	}

	for _, c := range constraints {
		if c.LastResult == nil {
			continue
		}
		res := c.LastResult
		record := &ConstraintResult{
			RunID:         summary.RunID,
			Iteration:     summary.IterationsCompleted,
			ConstraintID:  c.ID,
			Kind:          string(c.Kind),
			Status:        string(res.Status),
			Satisfied:     res.Satisfied,
			Applied:       res.Applied,
			AngleError:    res.AngleError,
			AngleErrorDeg: res.AngleErrorDeg,
			CreatedAt:     now,
		}
		if res.Message != "" {
			record.Message = &res.Message
		}
		if err := r.store.AppendConstraintResult(ctx, record); err != nil {
			return fmt.Errorf("failed to record constraint result: %w", err)
		}
	}

	return nil
}
