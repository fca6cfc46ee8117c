package stores_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openalign/openalign/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing a new SQLite store.
func ExampleNewSQLiteStore() {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path:            ":memory:", // Use in-memory database for example
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}

	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}

	defer store.Close()

	fmt.Println("Store initialized successfully")
	// Output: Store initialized successfully
}

// ExampleSQLiteStore_CreateRun demonstrates creating a new run record.
func ExampleSQLiteStore_CreateRun() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	now := time.Now()
	run := &stores.Run{
		ID:                  "run-001",
		Scene:               "hinge.yaml",
		Status:              stores.RunStatusRunning,
		RequestedIterations: 50,
		StartedAt:           now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := store.CreateRun(ctx, run); err != nil {
		log.Fatal(err)
	}

	retrieved, err := store.GetRun(ctx, "run-001")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Run ID: %s, Status: %s\n", retrieved.ID, retrieved.Status)
	// Output: Run ID: run-001, Status: running
}

// ExampleSQLiteStore_AppendEvent demonstrates recording timeline events.
func ExampleSQLiteStore_AppendEvent() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	now := time.Now()
	run := &stores.Run{
		ID:                  "run-002",
		Scene:               "hinge.yaml",
		Status:              stores.RunStatusRunning,
		RequestedIterations: 50,
		StartedAt:           now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	_ = store.CreateRun(ctx, run)

	event := &stores.Event{
		RunID:     run.ID,
		Type:      "run.started",
		Timestamp: now,
	}

	if err := store.AppendEvent(ctx, event); err != nil {
		log.Fatal(err)
	}

	events, err := store.GetEvents(ctx, &run.ID, nil, 10, 0)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Event count: %d, Type: %s\n", len(events), events[0].Type)
	// Output: Event count: 1, Type: run.started
}

// ExampleSQLiteStore_BeginTx demonstrates using transactions.
func ExampleSQLiteStore_BeginTx() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	tx, err := store.BeginTx(ctx)
	if err != nil {
		log.Fatal(err)
	}

	query := `
		INSERT INTO runs (id, scene, status, requested_iterations, started_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err = tx.ExecContext(ctx, query, "run-tx-001", "hinge.yaml", "running", 50, now, now, now)
	if err != nil {
		_ = store.RollbackTx(tx)
		log.Fatal(err)
	}

	if err := store.CommitTx(tx); err != nil {
		log.Fatal(err)
	}

	run, err := store.GetRun(ctx, "run-tx-001")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Transaction committed: Run %s created\n", run.ID)
	// Output: Transaction committed: Run run-tx-001 created
}
