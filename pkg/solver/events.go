package solver

import (
	"context"
	"time"
)

// EventType identifies a point in the run timeline.
type EventType string

const (
	EventRunStarted          EventType = "run.started"
	EventRunCompleted        EventType = "run.completed"
	EventRunAborted          EventType = "run.aborted"
	EventIterationStarted    EventType = "iteration.started"
	EventIterationCompleted  EventType = "iteration.completed"
	EventConstraintEvaluated EventType = "constraint.evaluated"
)

// Event is one entry in a run's timeline.
type Event struct {
	// Type is the event type.
	Type EventType `json:"type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// RunID is the run this event belongs to.
	RunID string `json:"run_id"`

	// Iteration is the zero-based iteration, where applicable.
	Iteration int `json:"iteration"`

	// ConstraintID is set for constraint-level events.
	ConstraintID string `json:"constraint_id,omitempty"`

	// Status is set for constraint-level events.
	Status ConstraintStatus `json:"status,omitempty"`

	// AngleError is the measured error for constraint-level events, in radians.
	AngleError float64 `json:"angle_error,omitempty"`

	// Message is a human-readable summary.
	Message string `json:"message,omitempty"`
}

// EventPublisher receives run timeline events. Publishers must not
// block for long: the runner publishes synchronously so that event
// order matches execution order.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
}

// publishEvent sends an event to the publisher if one is configured.
// Publish errors never affect the run.
func publishEvent(ctx context.Context, publisher EventPublisher, event *Event) {
	if publisher == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = publisher.Publish(ctx, event)
}
