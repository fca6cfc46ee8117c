package solver

import (
	"math"
	"time"

	"github.com/openalign/openalign/pkg/geom"
)

// Tuning constants for the corrective-rotation step.
const (
	// AngleTolerance is the minimum angular convergence band in radians.
	AngleTolerance = 1e-5

	// MaxRotationPerIteration caps the rotation applied to any component
	// in a single evaluation, in radians. Large errors are worked off
	// over several iterations instead of snapping in one step.
	MaxRotationPerIteration = math.Pi / 12

	// MinAppliedAngle is the smallest rotation worth applying; deltas
	// below it are treated as a no-op for the pass.
	MinAppliedAngle = 1e-6

	// DefaultRotationGain is used when the context does not set a gain.
	DefaultRotationGain = 0.5
)

// Selection is a host-provided reference to a geometric element or
// component used as a constraint anchor. Ref is opaque to the solver;
// only the host interprets it.
type Selection struct {
	// Label is a human-readable identifier used in diagnostics.
	Label string `json:"label" yaml:"label"`

	// Kind tags what the selection refers to.
	Kind SelectionKind `json:"kind" yaml:"kind"`

	// Ref is the opaque host reference resolved via Host.ResolveObject
	// and Host.ResolveComponent.
	Ref any `json:"-" yaml:"-"`
}

// DirectionInfo is the result of resolving a selection to a unit
// direction and anchor point.
type DirectionInfo struct {
	// Direction is a unit vector, or nil when unresolved.
	Direction *geom.Vec3 `json:"direction,omitempty"`

	// Origin is the anchor point the direction is measured at, or nil.
	Origin *geom.Vec3 `json:"origin,omitempty"`

	// Source records which step of the fallback chain answered.
	Source ResolutionSource `json:"source"`

	// Kind is the selection kind that was resolved.
	Kind SelectionKind `json:"kind"`
}

// Constraint is one alignment relationship between two selections.
// Constraints persist across runs; their selections are re-resolved
// fresh on every evaluation because components move between passes.
type Constraint struct {
	// ID uniquely identifies the constraint.
	ID string `json:"id"`

	// Kind is the spatial relationship to enforce.
	Kind ConstraintKind `json:"kind"`

	// Selections are the two sides of the relationship, in stored order.
	Selections [2]Selection `json:"selections"`

	// Tolerance optionally widens the angular convergence band, in
	// radians. Zero means the context default applies.
	Tolerance float64 `json:"tolerance,omitempty"`

	// LastResult is the most recent evaluation outcome, updated by the
	// Runner after each pass.
	LastResult *Result `json:"last_result,omitempty"`
}

// AppliedRotation records one rotation the host actually applied.
type AppliedRotation struct {
	Component Component
	Rotation  geom.Quat
}

// Diagnostics carries measurement details for inspection and logging.
type Diagnostics struct {
	// SourceA and SourceB record how each side's direction was resolved.
	SourceA ResolutionSource `json:"source_a,omitempty"`
	SourceB ResolutionSource `json:"source_b,omitempty"`

	// ComponentA and ComponentB name the resolved components.
	ComponentA string `json:"component_a,omitempty"`
	ComponentB string `json:"component_b,omitempty"`

	// FixedA and FixedB report the host's fixed flags at evaluation time.
	FixedA bool `json:"fixed_a"`
	FixedB bool `json:"fixed_b"`

	// AppliedAngle is the magnitude of the corrective rotation actually
	// requested this pass, in radians.
	AppliedAngle float64 `json:"applied_angle"`

	// Tolerance is the effective convergence band used, in radians.
	Tolerance float64 `json:"tolerance"`
}

// Result is the outcome of evaluating one constraint once.
type Result struct {
	// OK is false when the evaluation could not measure the constraint.
	OK bool `json:"ok"`

	// Status classifies the outcome.
	Status ConstraintStatus `json:"status"`

	// Satisfied is true when the angular error is within tolerance.
	Satisfied bool `json:"satisfied"`

	// Applied is true when at least one rotation was applied.
	Applied bool `json:"applied"`

	// AngleError is the measured angular error in radians, in [0, pi].
	AngleError float64 `json:"angle_error"`

	// AngleErrorDeg is AngleError in degrees, for presentation.
	AngleErrorDeg float64 `json:"angle_error_deg"`

	// Message is a human-readable summary.
	Message string `json:"message,omitempty"`

	// Diagnostics carries measurement details.
	Diagnostics Diagnostics `json:"diagnostics"`

	// Rotations lists the rotations the host accepted this pass.
	Rotations []AppliedRotation `json:"-"`

	// Err is the causing error for failure statuses.
	Err error `json:"-"`
}

// RunState is the live state of one Runner.Start call. One instance
// exists per run; it is discarded when the run completes or aborts.
type RunState struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	// RequestedIterations is the iteration count passed to Start.
	RequestedIterations int `json:"requested_iterations"`

	// MaxIterations is the effective iteration budget after clamping.
	MaxIterations int `json:"max_iterations"`

	// CurrentIteration is the zero-based iteration in progress.
	CurrentIteration int `json:"current_iteration"`

	// IterationsCompleted counts fully finished passes.
	IterationsCompleted int `json:"iterations_completed"`

	// CurrentConstraintID identifies the constraint being evaluated.
	CurrentConstraintID string `json:"current_constraint_id,omitempty"`

	// Aborted is set when cancellation was observed.
	Aborted bool `json:"aborted"`

	// Paused is set while the run is suspended on its pause gate.
	Paused bool `json:"paused"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
}

// RunSummary is the terminal report passed to OnComplete.
type RunSummary struct {
	// RunID identifies the finished run.
	RunID string `json:"run_id"`

	// Aborted is true when the run ended through cancellation.
	Aborted bool `json:"aborted"`

	// IterationsCompleted counts fully finished passes.
	IterationsCompleted int `json:"iterations_completed"`

	// Satisfied, Adjusted, Blocked and Failed count the statuses of the
	// final pass over the constraints.
	Satisfied int `json:"satisfied"`
	Adjusted  int `json:"adjusted"`
	Blocked   int `json:"blocked"`
	Failed    int `json:"failed"`

	// Duration is the wall-clock length of the run.
	Duration time.Duration `json:"duration"`
}
