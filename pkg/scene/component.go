package scene

import (
	"github.com/openalign/openalign/pkg/geom"
	"github.com/openalign/openalign/pkg/solver"
)

// Component is a rigid part of the assembly. Its pose is a local
// position and rotation relative to its parent (or the world origin for
// roots); world-space values are cached and refreshed by the World.
type Component struct {
	name   string
	parent *Component

	position geom.Vec3
	rotation geom.Quat
	fixed    bool

	worldPos geom.Vec3
	worldRot geom.Quat

	features []Feature
	byName   map[string]Feature
}

func newComponent(name string, parent *Component) *Component {
	return &Component{
		name:     name,
		parent:   parent,
		rotation: geom.IdentityQuat(),
		worldRot: geom.IdentityQuat(),
		byName:   make(map[string]Feature),
	}
}

// Name returns the component name, unique within its world.
func (c *Component) Name() string { return c.name }

// WorldPosition returns the cached world-space position.
func (c *Component) WorldPosition() geom.Vec3 { return c.worldPos }

// WorldRotation returns the cached world-space rotation.
func (c *Component) WorldRotation() geom.Quat { return c.worldRot }

// Fixed reports whether the component is pinned in place.
func (c *Component) Fixed() bool { return c.fixed }

// SetFixed pins or releases the component.
func (c *Component) SetFixed(fixed bool) { c.fixed = fixed }

// Rotation returns the local rotation.
func (c *Component) Rotation() geom.Quat { return c.rotation }

// Children exposes the component's features for descendant geometry
// search when the component itself is selected.
func (c *Component) Children() []solver.Object {
	out := make([]solver.Object, len(c.features))
	for i, f := range c.features {
		out[i] = f
	}
	return out
}

// Feature returns a named feature of the component, or nil.
func (c *Component) Feature(name string) Feature { return c.byName[name] }

func (c *Component) addFeature(f Feature) {
	c.features = append(c.features, f)
	c.byName[f.Name()] = f
}

// refreshWorld recomputes the cached world pose from the parent chain.
// Parents are refreshed before children by World.UpdateMatrixWorld.
func (c *Component) refreshWorld() {
	if c.parent == nil {
		c.worldPos = c.position
		c.worldRot = c.rotation.Normalized()
		return
	}
	c.worldPos = c.parent.worldPos.Add(c.parent.worldRot.Rotate(c.position))
	c.worldRot = c.parent.worldRot.Mul(c.rotation).Normalized()
}

// applyWorldRotation premultiplies the world-space rotation q onto the
// component by rebasing it into the parent frame.
func (c *Component) applyWorldRotation(q geom.Quat) {
	if c.parent == nil {
		c.rotation = q.Mul(c.rotation).Normalized()
		return
	}
	p := c.parent.worldRot
	c.rotation = p.Conjugate().Mul(q).Mul(p).Mul(c.rotation).Normalized()
}

// toWorld maps a component-local point into world space.
func (c *Component) toWorld(p geom.Vec3) geom.Vec3 {
	return c.worldPos.Add(c.worldRot.Rotate(p))
}

// Feature is a selectable geometric element owned by a component. All
// geometry accessors on features answer in world space.
type Feature interface {
	solver.Object

	// Component returns the owning rigid component.
	Component() *Component

	// SelectionKind tags the feature for selection building.
	SelectionKind() solver.SelectionKind
}

// Face is a planar or near-planar feature. It carries either an
// authored unit normal, a triangle soup, or both; accessors answer in
// world space using the owner's cached pose.
type Face struct {
	name      string
	comp      *Component
	normal    *geom.Vec3
	triangles []geom.Triangle
}

func (f *Face) Name() string                        { return f.name }
func (f *Face) Component() *Component               { return f.comp }
func (f *Face) SelectionKind() solver.SelectionKind { return solver.KindFace }

// AveragedNormal returns the authored normal rotated into world space.
func (f *Face) AveragedNormal() (geom.Vec3, bool) {
	if f.normal == nil {
		return geom.Vec3{}, false
	}
	return f.comp.worldRot.Rotate(*f.normal), true
}

// Triangles returns at most max world-space triangles.
func (f *Face) Triangles(max int) []geom.Triangle {
	n := len(f.triangles)
	if n > max {
		n = max
	}
	out := make([]geom.Triangle, n)
	for i := 0; i < n; i++ {
		t := f.triangles[i]
		out[i] = geom.Triangle{
			A: f.comp.toWorld(t.A),
			B: f.comp.toWorld(t.B),
			C: f.comp.toWorld(t.C),
		}
	}
	return out
}

// ObjectPosition anchors the face at its triangle centroid when a mesh
// is present.
func (f *Face) ObjectPosition() (geom.Vec3, bool) {
	if len(f.triangles) == 0 {
		return geom.Vec3{}, false
	}
	var acc geom.Vec3
	for _, t := range f.triangles {
		acc = acc.Add(t.Centroid())
	}
	return f.comp.toWorld(acc.Scale(1 / float64(len(f.triangles)))), true
}

// Edge is a polyline feature. Its tangent is derived by the solver from
// the world-space samples.
type Edge struct {
	name   string
	comp   *Component
	points []geom.Vec3
}

func (e *Edge) Name() string                        { return e.name }
func (e *Edge) Component() *Component               { return e.comp }
func (e *Edge) SelectionKind() solver.SelectionKind { return solver.KindEdge }

// Polyline returns the edge samples in world space, in authored order.
func (e *Edge) Polyline() []geom.Vec3 {
	out := make([]geom.Vec3, len(e.points))
	for i, p := range e.points {
		out[i] = e.comp.toWorld(p)
	}
	return out
}

// Point is a located feature, optionally carrying an authored direction
// so it can participate in alignment constraints.
type Point struct {
	name      string
	comp      *Component
	at        geom.Vec3
	direction *geom.Vec3
}

func (p *Point) Name() string                        { return p.name }
func (p *Point) Component() *Component               { return p.comp }
func (p *Point) SelectionKind() solver.SelectionKind { return solver.KindPoint }

// RepresentativePoint returns the point's world-space location.
func (p *Point) RepresentativePoint() (geom.Vec3, bool) {
	return p.comp.toWorld(p.at), true
}

// ElementDirection returns the authored direction in world space.
func (p *Point) ElementDirection() (geom.Vec3, bool) {
	if p.direction == nil {
		return geom.Vec3{}, false
	}
	return p.comp.worldRot.Rotate(*p.direction), true
}
