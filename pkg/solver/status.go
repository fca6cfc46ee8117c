package solver

import (
	"encoding/json"
	"fmt"
)

// ConstraintStatus classifies the outcome of a single constraint
// evaluation. The set is shared by every constraint kind driven by the
// Runner; a status is informational only and never halts a run.
type ConstraintStatus string

const (
	// StatusSatisfied indicates the constraint already holds within tolerance.
	StatusSatisfied ConstraintStatus = "satisfied"

	// StatusAdjusted indicates at least one corrective rotation was applied.
	StatusAdjusted ConstraintStatus = "adjusted"

	// StatusPending indicates movable components exist but no rotation was
	// applied this pass (the computed delta rounded to zero or the axis
	// could not be constructed).
	StatusPending ConstraintStatus = "pending"

	// StatusBlocked indicates the constraint is unsatisfied but every
	// involved component is fixed.
	StatusBlocked ConstraintStatus = "blocked"

	// StatusError indicates an unexpected failure during evaluation.
	StatusError ConstraintStatus = "error"

	// StatusInvalidSelection indicates a selection did not map to a
	// component, or both selections map to the same component.
	StatusInvalidSelection ConstraintStatus = "invalid-selection"

	// StatusResolutionFailed indicates a direction could not be derived
	// from one of the selections.
	StatusResolutionFailed ConstraintStatus = "normal-resolution-failed"

	// StatusFixed is used by constraint kinds that pin a component in place.
	StatusFixed ConstraintStatus = "fixed"

	// StatusNoop is used by constraint kinds whose evaluation required no work.
	StatusNoop ConstraintStatus = "noop"

	// StatusApplyFailed is used by constraint kinds whose host rejected
	// every requested mutation.
	StatusApplyFailed ConstraintStatus = "apply-failed"
)

// IsFailure returns true if the status reports that the evaluation could
// not measure or enforce the constraint at all.
func (s ConstraintStatus) IsFailure() bool {
	return s == StatusError || s == StatusInvalidSelection ||
		s == StatusResolutionFailed || s == StatusApplyFailed
}

// Progressed returns true if the evaluation moved geometry.
func (s ConstraintStatus) Progressed() bool {
	return s == StatusAdjusted
}

// Validate checks if the constraint status is valid.
func (s ConstraintStatus) Validate() error {
	switch s {
	case StatusSatisfied, StatusAdjusted, StatusPending, StatusBlocked,
		StatusError, StatusInvalidSelection, StatusResolutionFailed,
		StatusFixed, StatusNoop, StatusApplyFailed:
		return nil
	default:
		return fmt.Errorf("invalid constraint status: %s", s)
	}
}

// MarshalJSON implements custom JSON marshaling for type-safe enum serialization.
func (s ConstraintStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements custom JSON unmarshaling with validation.
func (s *ConstraintStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ConstraintStatus(str)
	return s.Validate()
}

// RunPhase represents the lifecycle state of a Runner.
type RunPhase string

const (
	// RunPhaseIdle indicates no run is active.
	RunPhaseIdle RunPhase = "idle"

	// RunPhaseRunning indicates a run is executing iterations.
	RunPhaseRunning RunPhase = "running"

	// RunPhasePaused indicates a run is suspended between iterations,
	// waiting on Resume or Abort.
	RunPhasePaused RunPhase = "paused"

	// RunPhaseCompleted indicates the last run finished its iteration budget.
	RunPhaseCompleted RunPhase = "completed"

	// RunPhaseAborted indicates the last run was cancelled.
	RunPhaseAborted RunPhase = "aborted"
)

// IsTerminal returns true if the phase represents a finished run.
func (p RunPhase) IsTerminal() bool {
	return p == RunPhaseCompleted || p == RunPhaseAborted
}

// IsActive returns true if a run is currently live.
func (p RunPhase) IsActive() bool {
	return p == RunPhaseRunning || p == RunPhasePaused
}

// Validate checks if the run phase is valid.
func (p RunPhase) Validate() error {
	switch p {
	case RunPhaseIdle, RunPhaseRunning, RunPhasePaused, RunPhaseCompleted, RunPhaseAborted:
		return nil
	default:
		return fmt.Errorf("invalid run phase: %s", p)
	}
}

// ConstraintKind identifies the spatial relationship a constraint enforces.
type ConstraintKind string

const (
	// KindParallel aligns the two resolved directions.
	KindParallel ConstraintKind = "parallel"

	// KindAntiParallel aligns one resolved direction against the other.
	KindAntiParallel ConstraintKind = "anti-parallel"
)

// OpposeNormals returns true if side B should be driven toward the
// negation of side A's direction.
func (k ConstraintKind) OpposeNormals() bool {
	return k == KindAntiParallel
}

// Validate checks if the constraint kind is valid.
func (k ConstraintKind) Validate() error {
	switch k {
	case KindParallel, KindAntiParallel:
		return nil
	default:
		return fmt.Errorf("invalid constraint kind: %s", k)
	}
}

// SelectionKind tags what geometric element a selection refers to.
type SelectionKind string

const (
	KindFace      SelectionKind = "face"
	KindEdge      SelectionKind = "edge"
	KindPoint     SelectionKind = "point"
	KindComponent SelectionKind = "component"
	KindUnknown   SelectionKind = "unknown"
)

// ResolutionSource records which step of the resolver's fallback chain
// produced a direction. Diagnostic only; callers never branch on it.
type ResolutionSource string

const (
	// SourceAccessor means a host-provided averaged-normal accessor answered.
	SourceAccessor ResolutionSource = "accessor"

	// SourceWorldNormal means the direction was derived from mesh triangles.
	SourceWorldNormal ResolutionSource = "world-normal"

	// SourceElementDirection means a generic element-direction helper answered.
	SourceElementDirection ResolutionSource = "element-direction"

	// SourceGeometry means the direction came from descendant geometry search.
	SourceGeometry ResolutionSource = "geometry"

	// SourceTangent means the direction is an edge tangent.
	SourceTangent ResolutionSource = "tangent"

	// SourceUnresolved means no direction could be derived.
	SourceUnresolved ResolutionSource = "unresolved"
)
