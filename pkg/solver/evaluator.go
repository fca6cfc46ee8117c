package solver

import (
	"fmt"
	"math"

	"github.com/openalign/openalign/pkg/geom"
)

// Evaluator computes and applies bounded corrective rotations for
// parallel/anti-parallel alignment constraints.
//
// Solve never returns an error and never panics: resolver and
// validation failures, and even programmer errors surfaced as panics,
// are converted into a Result so the Runner's loop semantics stay
// uniform across constraint kinds.
type Evaluator struct{}

// NewEvaluator creates an alignment evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Solve evaluates one constraint against the host and, when needed and
// permitted, applies a gain- and step-bounded corrective rotation
// through the host. All geometry mutation flows through
// Host.ApplyRotation.
func (e *Evaluator) Solve(constraint *Constraint, sctx *SolveContext) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = &Result{
				Status:  StatusError,
				Message: fmt.Sprintf("evaluation panicked: %v", rec),
				Err:     fmt.Errorf("evaluation panicked: %v", rec),
			}
		}
	}()

	if refresher, ok := sctx.Host.(WorldRefresher); ok {
		refresher.UpdateMatrixWorld()
	}

	resolver := NewResolver(sctx.Host, sctx.Log)
	selA, selB := constraint.Selections[0], constraint.Selections[1]

	infoA, errA := resolver.ResolveDirection(selA)
	if errA != nil {
		return resolutionFailure(selA, errA)
	}
	infoB, errB := resolver.ResolveDirection(selB)
	if errB != nil {
		return resolutionFailure(selB, errB)
	}

	compA := sctx.Host.ResolveComponent(selA)
	compB := sctx.Host.ResolveComponent(selB)
	if compA == nil || compB == nil {
		err := &InvalidSelectionError{Reason: "selection has no component mapping"}
		return &Result{
			Status:  StatusInvalidSelection,
			Message: err.Error(),
			Err:     err,
		}
	}
	if compA == compB {
		err := &InvalidSelectionError{
			Reason:    "both selections map to the same component",
			Component: compA.Name(),
		}
		return &Result{
			Status:  StatusInvalidSelection,
			Message: err.Error(),
			Err:     err,
		}
	}

	dirA, dirB := *infoA.Direction, *infoB.Direction
	targetB := dirA
	targetA := dirB
	if constraint.Kind.OpposeNormals() {
		targetB = dirA.Neg()
		targetA = dirB.Neg()
	}

	angle := math.Acos(geom.Clamp(dirB.Dot(targetB), -1, 1))
	tolerance := sctx.EffectiveTolerance(constraint)

	diag := Diagnostics{
		SourceA:    infoA.Source,
		SourceB:    infoB.Source,
		ComponentA: compA.Name(),
		ComponentB: compB.Name(),
		FixedA:     sctx.Host.IsComponentFixed(compA),
		FixedB:     sctx.Host.IsComponentFixed(compB),
		Tolerance:  tolerance,
	}

	result = &Result{
		OK:            true,
		AngleError:    angle,
		AngleErrorDeg: angle * 180 / math.Pi,
		Diagnostics:   diag,
	}

	if angle <= tolerance {
		result.Status = StatusSatisfied
		result.Satisfied = true
		result.Message = fmt.Sprintf("aligned within %.2e rad", tolerance)
		return result
	}

	if diag.FixedA && diag.FixedB {
		result.Status = StatusBlocked
		result.Message = "both components are fixed; alignment cannot proceed"
		return result
	}

	gain := sctx.Gain()
	bothMovable := !diag.FixedA && !diag.FixedB
	if bothMovable {
		// Split the correction: each side pulls toward the other's
		// current direction at half gain. The midpoint is not solved
		// jointly; convergence comes from repeated passes.
		gain /= 2
		e.rotateToward(sctx, result, compA, dirA, targetA, gain)
		e.rotateToward(sctx, result, compB, dirB, targetB, gain)
	} else if diag.FixedA {
		e.rotateToward(sctx, result, compB, dirB, targetB, gain)
	} else {
		e.rotateToward(sctx, result, compA, dirA, targetA, gain)
	}

	if result.Applied {
		result.Status = StatusAdjusted
		result.Message = fmt.Sprintf("rotated by %.4f rad toward alignment", result.Diagnostics.AppliedAngle)
	} else {
		result.Status = StatusPending
		result.Message = "no rotation applied this pass"
	}
	return result
}

// rotateToward applies a bounded rotation carrying current toward
// target on the given component. Rotations the host declines are not
// recorded.
func (e *Evaluator) rotateToward(sctx *SolveContext, result *Result, comp Component, current, target geom.Vec3, gain float64) {
	angle := math.Acos(geom.Clamp(current.Dot(target), -1, 1))

	applied := angle * gain
	if applied > MaxRotationPerIteration {
		applied = MaxRotationPerIteration
	}
	if applied > angle {
		applied = angle
	}
	if applied <= MinAppliedAngle {
		return
	}

	axis, ok := current.Cross(target).Normalized()
	if !ok {
		// Anti-parallel vectors have a vanishing cross product; any
		// axis perpendicular to the current direction is valid.
		axis = current.Perpendicular()
	}

	q := geom.QuatFromAxisAngle(axis, applied)
	if !sctx.Host.ApplyRotation(comp, q) {
		sctx.Log.Debug().
			Str("component", comp.Name()).
			Float64("angle", applied).
			Msg("host declined rotation")
		return
	}

	result.Applied = true
	result.Rotations = append(result.Rotations, AppliedRotation{Component: comp, Rotation: q})
	if applied > result.Diagnostics.AppliedAngle {
		result.Diagnostics.AppliedAngle = applied
	}
}

// resolutionFailure converts a resolver error into a Result.
func resolutionFailure(sel Selection, err error) *Result {
	return &Result{
		Status:  StatusResolutionFailed,
		Message: fmt.Sprintf("direction resolution failed for %q: %v", sel.Label, err),
		Err:     err,
	}
}
