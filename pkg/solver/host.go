package solver

import (
	"github.com/rs/zerolog"

	"github.com/openalign/openalign/pkg/geom"
)

// Object is a geometry-bearing node in the host's scene graph.
//
// The solver never inspects geometry through Object directly; it probes
// for the optional capability interfaces below. A host exposes exactly
// the accessors its geometry representation supports and the resolver
// falls back through the rest of its chain.
type Object interface {
	Name() string
}

// Component is an independently transformable rigid assembly part
// owning one or more selectable geometric elements.
type Component interface {
	Name() string
	WorldPosition() geom.Vec3
}

// Host is the scene/geometry layer the solver runs against. All
// geometry mutation flows through ApplyRotation; the solver never
// touches transforms directly.
type Host interface {
	// ResolveObject maps a selection to its geometry node, or nil.
	ResolveObject(sel Selection) Object

	// ResolveComponent maps a selection to its owning rigid component, or nil.
	ResolveComponent(sel Selection) Component

	// ApplyRotation rotates a component by q in world space. A false
	// return means the host declined the mutation; the solver records
	// nothing for it.
	ApplyRotation(c Component, q geom.Quat) bool

	// IsComponentFixed reports whether the component may not move.
	IsComponentFixed(c Component) bool
}

// WorldRefresher is implemented by hosts that cache world transforms
// and need a refresh before measurement.
type WorldRefresher interface {
	UpdateMatrixWorld()
}

// AveragedNormalProvider exposes a host-precomputed averaged face
// normal. Preferred over triangle sampling when present.
type AveragedNormalProvider interface {
	AveragedNormal() (geom.Vec3, bool)
}

// TriangleMesh exposes world-space triangles for normal derivation.
// Implementations return at most max triangles.
type TriangleMesh interface {
	Triangles(max int) []geom.Triangle
}

// PolylineProvider exposes an explicit world-space polyline for an
// edge. Preferred over raw vertex-buffer sampling when present.
type PolylineProvider interface {
	Polyline() []geom.Vec3
}

// VertexBuffer exposes indexed world-space vertices of an edge's
// underlying parameterization.
type VertexBuffer interface {
	VertexCount() int
	Vertex(i int) geom.Vec3
}

// ElementDirectionProvider is a generic direction helper for elements
// without an obvious normal or tangent (points, whole components).
type ElementDirectionProvider interface {
	ElementDirection() (geom.Vec3, bool)
}

// RepresentativePointProvider exposes a host-chosen anchor point for an
// object, used in preference to its world position.
type RepresentativePointProvider interface {
	RepresentativePoint() (geom.Vec3, bool)
}

// Positioned is implemented by objects that know their own world
// position independent of their component.
type Positioned interface {
	ObjectPosition() (geom.Vec3, bool)
}

// Container is implemented by objects with child geometry, enabling the
// resolver's depth-limited descendant search.
type Container interface {
	Children() []Object
}

// SolveContext carries the host and tuning parameters for one
// evaluation. Contexts are cheap values; build one per run.
type SolveContext struct {
	// Host is the scene/geometry layer. Required.
	Host Host

	// Tolerance is the host's model tolerance. The effective angular
	// convergence band is max(AngleTolerance, 10*Tolerance) unless the
	// constraint overrides it.
	Tolerance float64

	// RotationGain in [0,1] scales how much of the ideal corrective
	// rotation is applied per iteration. Zero means DefaultRotationGain.
	RotationGain float64

	// Log receives per-evaluation debug output. Defaults to a no-op logger.
	Log zerolog.Logger
}

// Gain returns the effective rotation gain clamped to [0,1].
func (c *SolveContext) Gain() float64 {
	g := c.RotationGain
	if g == 0 {
		g = DefaultRotationGain
	}
	return geom.Clamp(g, 0, 1)
}

// EffectiveTolerance returns the angular convergence band for a
// constraint, in radians.
func (c *SolveContext) EffectiveTolerance(constraint *Constraint) float64 {
	tol := AngleTolerance
	if t := 10 * c.Tolerance; t > tol {
		tol = t
	}
	if constraint != nil && constraint.Tolerance > tol {
		tol = constraint.Tolerance
	}
	return tol
}
