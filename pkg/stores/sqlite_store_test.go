package stores

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/openalign/openalign/pkg/solver"
)

// setupTestStore creates an in-memory SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	return store
}

// testRun returns a fresh running-state run record
func testRun(id string) *Run {
	now := time.Now()
	return &Run{
		ID:                  id,
		Scene:               "hinge.yaml",
		Status:              RunStatusRunning,
		RequestedIterations: 50,
		StartedAt:           now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

// TestStoreMigrations tests database migrations
func TestStoreMigrations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// Check that tables exist by querying them
	tables := []string{"runs", "constraint_results", "events"}
	for _, table := range tables {
		query := "SELECT COUNT(*) FROM " + table
		var count int
		err := store.db.QueryRowContext(ctx, query).Scan(&count)
		if err != nil {
			t.Errorf("table %s does not exist or is not accessible: %v", table, err)
		}
	}
}

// TestRunCRUD tests Run CRUD operations
func TestRunCRUD(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	// Create
	run := testRun("run-001")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	// Read
	retrieved, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}

	if retrieved.ID != run.ID {
		t.Errorf("expected ID %s, got %s", run.ID, retrieved.ID)
	}
	if retrieved.Scene != run.Scene {
		t.Errorf("expected Scene %s, got %s", run.Scene, retrieved.Scene)
	}
	if retrieved.Status != RunStatusRunning {
		t.Errorf("expected Status %s, got %s", RunStatusRunning, retrieved.Status)
	}
	if retrieved.RequestedIterations != 50 {
		t.Errorf("expected RequestedIterations 50, got %d", retrieved.RequestedIterations)
	}

	// Finish
	now := time.Now()
	durationMs := int64(1234)
	run.Status = RunStatusCompleted
	run.IterationsCompleted = 12
	run.Satisfied = 2
	run.Blocked = 1
	run.CompletedAt = &now
	run.DurationMs = &durationMs
	run.UpdatedAt = now

	if err := store.FinishRun(ctx, run); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	finished, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to get finished run: %v", err)
	}

	if finished.Status != RunStatusCompleted {
		t.Errorf("expected Status %s, got %s", RunStatusCompleted, finished.Status)
	}
	if finished.IterationsCompleted != 12 {
		t.Errorf("expected IterationsCompleted 12, got %d", finished.IterationsCompleted)
	}
	if finished.Satisfied != 2 || finished.Blocked != 1 {
		t.Errorf("expected counts 2/1, got %d/%d", finished.Satisfied, finished.Blocked)
	}
	if finished.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
	if finished.DurationMs == nil || *finished.DurationMs != durationMs {
		t.Errorf("expected DurationMs %d, got %v", durationMs, finished.DurationMs)
	}

	// List
	runs, err := store.ListRuns(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}

	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}

	// Delete
	if err := store.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}

	_, err = store.GetRun(ctx, run.ID)
	if err == nil {
		t.Error("expected error when getting deleted run")
	}
}

// TestFinishRunNotFound verifies the not-found check on update
func TestFinishRunNotFound(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	run := testRun("run-missing")
	run.Status = RunStatusCompleted
	run.UpdatedAt = time.Now()

	if err := store.FinishRun(context.Background(), run); err == nil {
		t.Error("expected error when finishing unknown run")
	}
}

// TestConstraintResultOperations tests constraint result operations
func TestConstraintResultOperations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	run := testRun("run-002")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	msg := "aligned within tolerance"
	results := []*ConstraintResult{
		{
			RunID:         run.ID,
			Iteration:     12,
			ConstraintID:  "lid-flat",
			Kind:          "parallel",
			Status:        "satisfied",
			Satisfied:     true,
			AngleError:    0.0000071,
			AngleErrorDeg: 0.0004,
			Message:       &msg,
			CreatedAt:     now,
		},
		{
			RunID:         run.ID,
			Iteration:     12,
			ConstraintID:  "latch-opposed",
			Kind:          "anti-parallel",
			Status:        "blocked",
			AngleError:    0.42,
			AngleErrorDeg: 24.06,
			CreatedAt:     now,
		},
	}

	for _, result := range results {
		if err := store.AppendConstraintResult(ctx, result); err != nil {
			t.Fatalf("failed to append constraint result: %v", err)
		}
		if result.ID == 0 {
			t.Error("expected constraint result ID to be set after insert")
		}
	}

	retrieved, err := store.ListConstraintResultsByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to list constraint results: %v", err)
	}

	if len(retrieved) != 2 {
		t.Fatalf("expected 2 constraint results, got %d", len(retrieved))
	}
	if retrieved[0].ConstraintID != "lid-flat" {
		t.Errorf("expected first result lid-flat, got %s", retrieved[0].ConstraintID)
	}
	if !retrieved[0].Satisfied {
		t.Error("expected first result to be satisfied")
	}
	if retrieved[0].Message == nil || *retrieved[0].Message != msg {
		t.Errorf("expected message %q, got %v", msg, retrieved[0].Message)
	}
	if retrieved[1].Status != "blocked" {
		t.Errorf("expected second result blocked, got %s", retrieved[1].Status)
	}
}

// TestEventOperations tests Event operations
func TestEventOperations(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	run := testRun("run-003")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	constraintID := "lid-flat"
	status := "adjusted"
	angle := 0.12
	events := []*Event{
		{
			RunID:     run.ID,
			Type:      "run.started",
			Timestamp: now,
		},
		{
			RunID:        run.ID,
			Type:         "constraint.evaluated",
			Iteration:    0,
			ConstraintID: &constraintID,
			Status:       &status,
			AngleError:   &angle,
			Timestamp:    now.Add(1 * time.Second),
		},
		{
			RunID:     run.ID,
			Type:      "run.completed",
			Iteration: 1,
			Timestamp: now.Add(2 * time.Second),
		},
	}

	for _, event := range events {
		if err := store.AppendEvent(ctx, event); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
		if event.ID == 0 {
			t.Error("expected event ID to be set after insert")
		}
	}

	// Get all events for run
	retrieved, err := store.GetEvents(ctx, &run.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}

	if len(retrieved) != 3 {
		t.Errorf("expected 3 events, got %d", len(retrieved))
	}

	// Filter by type
	evalType := "constraint.evaluated"
	filtered, err := store.GetEvents(ctx, nil, &evalType, 10, 0)
	if err != nil {
		t.Fatalf("failed to get filtered events: %v", err)
	}

	if len(filtered) != 1 {
		t.Fatalf("expected 1 constraint.evaluated event, got %d", len(filtered))
	}
	if filtered[0].ConstraintID == nil || *filtered[0].ConstraintID != constraintID {
		t.Errorf("expected constraint ID %s, got %v", constraintID, filtered[0].ConstraintID)
	}
	if filtered[0].AngleError == nil || *filtered[0].AngleError != angle {
		t.Errorf("expected angle error %v, got %v", angle, filtered[0].AngleError)
	}
}

// TestTransactions tests transaction support
func TestTransactions(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	// Begin transaction
	tx, err := store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	query := `
		INSERT INTO runs (id, scene, status, requested_iterations, started_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query, "run-tx-001", "hinge.yaml", "running", 50, now, now, now)
	if err != nil {
		store.RollbackTx(tx)
		t.Fatalf("failed to insert run in transaction: %v", err)
	}

	// Rollback
	if err := store.RollbackTx(tx); err != nil {
		t.Fatalf("failed to rollback transaction: %v", err)
	}

	// Verify run was not created
	_, err = store.GetRun(ctx, "run-tx-001")
	if err == nil {
		t.Error("expected error when getting rolled back run")
	}

	// Begin new transaction and commit
	tx, err = store.BeginTx(ctx)
	if err != nil {
		t.Fatalf("failed to begin second transaction: %v", err)
	}

	_, err = tx.ExecContext(ctx, query, "run-tx-001", "hinge.yaml", "running", 50, now, now, now)
	if err != nil {
		store.RollbackTx(tx)
		t.Fatalf("failed to insert run in second transaction: %v", err)
	}

	if err := store.CommitTx(tx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	// Verify run was created
	retrieved, err := store.GetRun(ctx, "run-tx-001")
	if err != nil {
		t.Fatalf("failed to get committed run: %v", err)
	}

	if retrieved.ID != "run-tx-001" {
		t.Errorf("expected ID run-tx-001, got %s", retrieved.ID)
	}
}

// TestCascadeDelete tests foreign key cascading
func TestCascadeDelete(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	run := testRun("run-cascade-001")
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	result := &ConstraintResult{
		RunID:        run.ID,
		Iteration:    0,
		ConstraintID: "lid-flat",
		Kind:         "parallel",
		Status:       "adjusted",
		CreatedAt:    now,
	}
	if err := store.AppendConstraintResult(ctx, result); err != nil {
		t.Fatalf("failed to append constraint result: %v", err)
	}

	event := &Event{
		RunID:     run.ID,
		Type:      "run.started",
		Timestamp: now,
	}
	if err := store.AppendEvent(ctx, event); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	// Delete run (should cascade to constraint_results and events)
	if err := store.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("failed to delete run: %v", err)
	}

	results, err := store.ListConstraintResultsByRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("failed to list constraint results: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected 0 constraint results after cascade delete, got %d", len(results))
	}

	events, err := store.GetEvents(ctx, &run.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected 0 events after cascade delete, got %d", len(events))
	}
}

// TestRecorderPersistsRunTimeline tests the event-publisher bridge
func TestRecorderPersistsRunTimeline(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	recorder := NewRecorder(store, "hinge.yaml", 50)

	started := time.Now()
	timeline := []*solver.Event{
		{Type: solver.EventRunStarted, RunID: "run-rec-001", Timestamp: started},
		{Type: solver.EventIterationStarted, RunID: "run-rec-001", Timestamp: started},
		{
			Type:         solver.EventConstraintEvaluated,
			RunID:        "run-rec-001",
			ConstraintID: "lid-flat",
			Status:       solver.StatusSatisfied,
			AngleError:   0.000004,
			Timestamp:    started.Add(time.Millisecond),
		},
		{Type: solver.EventIterationCompleted, RunID: "run-rec-001", Timestamp: started.Add(time.Millisecond)},
		{Type: solver.EventRunCompleted, RunID: "run-rec-001", Iteration: 1, Timestamp: started.Add(2 * time.Millisecond)},
	}

	for _, event := range timeline {
		if err := recorder.Publish(ctx, event); err != nil {
			t.Fatalf("failed to publish %s: %v", event.Type, err)
		}
	}

	// run.started created the run row
	run, err := store.GetRun(ctx, "run-rec-001")
	if err != nil {
		t.Fatalf("failed to get recorded run: %v", err)
	}
	if run.Status != RunStatusRunning {
		t.Errorf("expected status running before summary, got %s", run.Status)
	}
	if run.Scene != "hinge.yaml" {
		t.Errorf("expected scene hinge.yaml, got %s", run.Scene)
	}
	if run.RequestedIterations != 50 {
		t.Errorf("expected requested iterations 50, got %d", run.RequestedIterations)
	}

	events, err := store.GetEvents(ctx, &run.ID, nil, 10, 0)
	if err != nil {
		t.Fatalf("failed to get recorded events: %v", err)
	}
	if len(events) != 5 {
		t.Errorf("expected 5 recorded events, got %d", len(events))
	}

	// Summary finishes the run and records final constraint results
	constraints := []*solver.Constraint{{
		ID:   "lid-flat",
		Kind: solver.KindParallel,
		LastResult: &solver.Result{
			OK:            true,
			Status:        solver.StatusSatisfied,
			Satisfied:     true,
			AngleError:    0.000004,
			AngleErrorDeg: 0.00023,
			Message:       "aligned within tolerance",
		},
	}}
	summary := solver.RunSummary{
		RunID:               "run-rec-001",
		IterationsCompleted: 1,
		Satisfied:           1,
		Duration:            250 * time.Millisecond,
	}

	if err := recorder.RecordSummary(ctx, summary, constraints); err != nil {
		t.Fatalf("failed to record summary: %v", err)
	}

	finished, err := store.GetRun(ctx, "run-rec-001")
	if err != nil {
		t.Fatalf("failed to get finished run: %v", err)
	}
	if finished.Status != RunStatusCompleted {
		t.Errorf("expected status completed, got %s", finished.Status)
	}
	if finished.Satisfied != 1 {
		t.Errorf("expected 1 satisfied, got %d", finished.Satisfied)
	}
	if finished.DurationMs == nil || *finished.DurationMs != 250 {
		t.Errorf("expected duration 250ms, got %v", finished.DurationMs)
	}

	results, err := store.ListConstraintResultsByRun(ctx, "run-rec-001")
	if err != nil {
		t.Fatalf("failed to list recorded constraint results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 constraint result, got %d", len(results))
	}
	if results[0].Status != "satisfied" || !results[0].Satisfied {
		t.Errorf("expected satisfied result, got %+v", results[0])
	}
}

// TestRecorderAbortedSummary verifies the aborted terminal status
func TestRecorderAbortedSummary(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()
	recorder := NewRecorder(store, "hinge.yaml", 50)

	err := recorder.Publish(ctx, &solver.Event{
		Type: solver.EventRunStarted, RunID: "run-rec-002", Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to publish run.started: %v", err)
	}

	summary := solver.RunSummary{
		RunID:               "run-rec-002",
		Aborted:             true,
		IterationsCompleted: 3,
		Duration:            time.Second,
	}
	if err := recorder.RecordSummary(ctx, summary, nil); err != nil {
		t.Fatalf("failed to record summary: %v", err)
	}

	run, err := store.GetRun(ctx, "run-rec-002")
	if err != nil {
		t.Fatalf("failed to get run: %v", err)
	}
	if run.Status != RunStatusAborted {
		t.Errorf("expected status aborted, got %s", run.Status)
	}
	if run.IterationsCompleted != 3 {
		t.Errorf("expected 3 iterations, got %d", run.IterationsCompleted)
	}
}

// TestMain sets up and tears down test environment
func TestMain(m *testing.M) {
	// Run tests
	code := m.Run()

	// Exit
	os.Exit(code)
}
