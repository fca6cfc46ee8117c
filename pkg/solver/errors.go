package solver

import (
	"errors"
	"fmt"
	"strings"
)

// UnresolvedDirectionError reports that no direction could be derived
// from a selection. It carries the selection label, the names of the
// object and component the selection mapped to, and the resolution
// sources that were attempted before giving up.
type UnresolvedDirectionError struct {
	// Label is the human-readable selection label, if the host set one.
	Label string

	// Object is the name of the geometry node the selection resolved to.
	Object string

	// Component is the name of the owning component.
	Component string

	// Kind is the selection kind the resolver dispatched on.
	Kind SelectionKind

	// Attempted lists the resolution sources tried, in order.
	Attempted []ResolutionSource

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *UnresolvedDirectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no direction derivable from selection %q (kind=%s", e.Label, e.Kind)
	if e.Object != "" {
		fmt.Fprintf(&b, ", object=%s", e.Object)
	}
	if e.Component != "" {
		fmt.Fprintf(&b, ", component=%s", e.Component)
	}
	b.WriteString(")")
	if len(e.Attempted) > 0 {
		sources := make([]string, len(e.Attempted))
		for i, s := range e.Attempted {
			sources[i] = string(s)
		}
		fmt.Fprintf(&b, ", attempted: %s", strings.Join(sources, " -> "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection.
func (e *UnresolvedDirectionError) Unwrap() error {
	return e.Err
}

// ClosedLoopEdgeError reports an edge whose sampled polyline starts and
// ends at the same point. A closed loop has no unique tangent, so edge
// resolution fails rather than returning an arbitrary direction.
type ClosedLoopEdgeError struct {
	// Label is the selection label of the offending edge.
	Label string

	// Samples is the number of points that were sampled.
	Samples int
}

// Error implements the error interface.
func (e *ClosedLoopEdgeError) Error() string {
	return fmt.Sprintf("edge %q is a closed loop (%d samples); no unique tangent exists", e.Label, e.Samples)
}

// InvalidSelectionError reports a constraint whose selections cannot be
// solved: a side with no component mapping, or both sides mapping to the
// same component.
type InvalidSelectionError struct {
	// Reason describes what is wrong with the selection pair.
	Reason string

	// Component names the offending component, if applicable.
	Component string
}

// Error implements the error interface.
func (e *InvalidSelectionError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("invalid selection: %s (component=%s)", e.Reason, e.Component)
	}
	return fmt.Sprintf("invalid selection: %s", e.Reason)
}

// IsUnresolvedDirection returns true if the error chain contains an
// UnresolvedDirectionError.
func IsUnresolvedDirection(err error) bool {
	var e *UnresolvedDirectionError
	return errors.As(err, &e)
}

// IsClosedLoopEdge returns true if the error chain contains a
// ClosedLoopEdgeError.
func IsClosedLoopEdge(err error) bool {
	var e *ClosedLoopEdgeError
	return errors.As(err, &e)
}

// IsInvalidSelection returns true if the error chain contains an
// InvalidSelectionError.
func IsInvalidSelection(err error) bool {
	var e *InvalidSelectionError
	return errors.As(err, &e)
}
