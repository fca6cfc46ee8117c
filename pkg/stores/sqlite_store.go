package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	// Open database with SQLite-specific connection parameters
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// CreateRun inserts a new run record in the running state.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (
			id, scene, status, requested_iterations, iterations_completed,
			satisfied, adjusted, blocked, failed,
			started_at, completed_at, duration_ms, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Scene,
		run.Status,
		run.RequestedIterations,
		run.IterationsCompleted,
		run.Satisfied,
		run.Adjusted,
		run.Blocked,
		run.Failed,
		run.StartedAt,
		run.CompletedAt,
		run.DurationMs,
		run.CreatedAt,
		run.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, scene, status, requested_iterations, iterations_completed,
			   satisfied, adjusted, blocked, failed,
			   started_at, completed_at, duration_ms, created_at, updated_at
		FROM runs
		WHERE id = ?
	`

	run := &Run{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Scene,
		&run.Status,
		&run.RequestedIterations,
		&run.IterationsCompleted,
		&run.Satisfied,
		&run.Adjusted,
		&run.Blocked,
		&run.Failed,
		&run.StartedAt,
		&run.CompletedAt,
		&run.DurationMs,
		&run.CreatedAt,
		&run.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// FinishRun records the terminal state and final counts of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, run *Run) error {
	query := `
		UPDATE runs
		SET status = ?, iterations_completed = ?,
			satisfied = ?, adjusted = ?, blocked = ?, failed = ?,
			completed_at = ?, duration_ms = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		run.Status,
		run.IterationsCompleted,
		run.Satisfied,
		run.Adjusted,
		run.Blocked,
		run.Failed,
		run.CompletedAt,
		run.DurationMs,
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}

	return nil
}

// ListRuns lists runs with pagination
func (s *SQLiteStore) ListRuns(ctx context.Context, limit, offset int) ([]*Run, error) {
	query := `
		SELECT id, scene, status, requested_iterations, iterations_completed,
			   satisfied, adjusted, blocked, failed,
			   started_at, completed_at, duration_ms, created_at, updated_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		run := &Run{}
		err := rows.Scan(
			&run.ID,
			&run.Scene,
			&run.Status,
			&run.RequestedIterations,
			&run.IterationsCompleted,
			&run.Satisfied,
			&run.Adjusted,
			&run.Blocked,
			&run.Failed,
			&run.StartedAt,
			&run.CompletedAt,
			&run.DurationMs,
			&run.CreatedAt,
			&run.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun deletes a run by ID. Constraint results and events cascade.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	query := `DELETE FROM runs WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// AppendConstraintResult appends a constraint evaluation outcome.
func (s *SQLiteStore) AppendConstraintResult(ctx context.Context, result *ConstraintResult) error {
	query := `
		INSERT INTO constraint_results (
			run_id, iteration, constraint_id, kind, status,
			satisfied, applied, angle_error, angle_error_deg, message, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		result.RunID,
		result.Iteration,
		result.ConstraintID,
		result.Kind,
		result.Status,
		result.Satisfied,
		result.Applied,
		result.AngleError,
		result.AngleErrorDeg,
		result.Message,
		result.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append constraint result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get constraint result ID: %w", err)
	}

	result.ID = id
	return nil
}

// ListConstraintResultsByRun lists all constraint results for a run
func (s *SQLiteStore) ListConstraintResultsByRun(ctx context.Context, runID string) ([]*ConstraintResult, error) {
	query := `
		SELECT id, run_id, iteration, constraint_id, kind, status,
			   satisfied, applied, angle_error, angle_error_deg, message, created_at
		FROM constraint_results
		WHERE run_id = ?
		ORDER BY iteration ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list constraint results: %w", err)
	}
	defer rows.Close()

	results := []*ConstraintResult{}
	for rows.Next() {
		result := &ConstraintResult{}
		err := rows.Scan(
			&result.ID,
			&result.RunID,
			&result.Iteration,
			&result.ConstraintID,
			&result.Kind,
			&result.Status,
			&result.Satisfied,
			&result.Applied,
			&result.AngleError,
			&result.AngleErrorDeg,
			&result.Message,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan constraint result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating constraint results: %w", err)
	}

	return results, nil
}

// AppendEvent appends a new event to the run timeline
func (s *SQLiteStore) AppendEvent(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO events (run_id, type, iteration, constraint_id, status, angle_error, message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		event.RunID,
		event.Type,
		event.Iteration,
		event.ConstraintID,
		event.Status,
		event.AngleError,
		event.Message,
		event.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get event ID: %w", err)
	}

	event.ID = id
	return nil
}

// GetEvents retrieves events with optional filters and pagination
func (s *SQLiteStore) GetEvents(ctx context.Context, runID *string, eventType *string, limit, offset int) ([]*Event, error) {
	query := `
		SELECT id, run_id, type, iteration, constraint_id, status, angle_error, message, timestamp
		FROM events
		WHERE (? IS NULL OR run_id = ?)
		  AND (? IS NULL OR type = ?)
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, runID, runID, eventType, eventType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.Type,
			&event.Iteration,
			&event.ConstraintID,
			&event.Status,
			&event.AngleError,
			&event.Message,
			&event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
