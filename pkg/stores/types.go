package stores

import (
	"context"
	"database/sql"
	"time"
)

// RunStatus represents the lifecycle state of a persisted solver run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
)

// Run is the persisted record of one solver run.
type Run struct {
	ID                  string     `json:"id"`
	Scene               string     `json:"scene"`
	Status              RunStatus  `json:"status"`
	RequestedIterations int        `json:"requested_iterations"`
	IterationsCompleted int        `json:"iterations_completed"`
	Satisfied           int        `json:"satisfied"`
	Adjusted            int        `json:"adjusted"`
	Blocked             int        `json:"blocked"`
	Failed              int        `json:"failed"`
	StartedAt           time.Time  `json:"started_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	DurationMs          *int64     `json:"duration_ms,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ConstraintResult is the persisted outcome of one constraint
// evaluation, usually the final pass of a run.
type ConstraintResult struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"run_id"`
	Iteration     int       `json:"iteration"`
	ConstraintID  string    `json:"constraint_id"`
	Kind          string    `json:"kind"`
	Status        string    `json:"status"`
	Satisfied     bool      `json:"satisfied"`
	Applied       bool      `json:"applied"`
	AngleError    float64   `json:"angle_error"`
	AngleErrorDeg float64   `json:"angle_error_deg"`
	Message       *string   `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Event is an append-only entry of the run timeline.
type Event struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	Type         string    `json:"type"`
	Iteration    int       `json:"iteration"`
	ConstraintID *string   `json:"constraint_id,omitempty"`
	Status       *string   `json:"status,omitempty"`
	AngleError   *float64  `json:"angle_error,omitempty"`
	Message      *string   `json:"message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Store defines the interface for the run-history persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	FinishRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Constraint result operations
	AppendConstraintResult(ctx context.Context, result *ConstraintResult) error
	ListConstraintResultsByRun(ctx context.Context, runID string) ([]*ConstraintResult, error)

	// Event operations
	AppendEvent(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, runID *string, eventType *string, limit, offset int) ([]*Event, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
