package solver

import (
	"github.com/openalign/openalign/pkg/geom"
)

// Test doubles for the host boundary. Each fake object type implements
// exactly the capability interfaces its scenario needs, so resolver
// fallback paths can be exercised individually.

type fakeComponent struct {
	name  string
	pos   geom.Vec3
	rot   geom.Quat
	fixed bool
}

func newFakeComponent(name string) *fakeComponent {
	return &fakeComponent{name: name, rot: geom.IdentityQuat()}
}

func (c *fakeComponent) Name() string             { return c.name }
func (c *fakeComponent) WorldPosition() geom.Vec3 { return c.pos }

// componentOwner lets the fake host map any fake object to its component.
type componentOwner interface {
	owner() *fakeComponent
}

// fakeFace carries a base normal rotated by its component's transform.
type fakeFace struct {
	name string
	comp *fakeComponent
	base geom.Vec3
}

func (f *fakeFace) Name() string               { return f.name }
func (f *fakeFace) owner() *fakeComponent      { return f.comp }
func (f *fakeFace) AveragedNormal() (geom.Vec3, bool) {
	return f.comp.rot.Rotate(f.base), true
}

// meshFace exposes triangles only, forcing the world-normal path.
type meshFace struct {
	name string
	comp *fakeComponent
	tris []geom.Triangle
}

func (f *meshFace) Name() string          { return f.name }
func (f *meshFace) owner() *fakeComponent { return f.comp }
func (f *meshFace) Triangles(max int) []geom.Triangle {
	if len(f.tris) > max {
		return f.tris[:max]
	}
	return f.tris
}

// polylineEdge exposes an explicit polyline.
type polylineEdge struct {
	name string
	comp *fakeComponent
	pts  []geom.Vec3
}

func (e *polylineEdge) Name() string          { return e.name }
func (e *polylineEdge) owner() *fakeComponent { return e.comp }
func (e *polylineEdge) Polyline() []geom.Vec3 { return e.pts }

// bufferEdge exposes an indexed vertex buffer only.
type bufferEdge struct {
	name  string
	comp  *fakeComponent
	verts []geom.Vec3
}

func (e *bufferEdge) Name() string           { return e.name }
func (e *bufferEdge) owner() *fakeComponent  { return e.comp }
func (e *bufferEdge) VertexCount() int       { return len(e.verts) }
func (e *bufferEdge) Vertex(i int) geom.Vec3 { return e.verts[i] }

// bareObject resolves to nothing on its own.
type bareObject struct {
	name     string
	comp     *fakeComponent
	children []Object
}

func (o *bareObject) Name() string          { return o.name }
func (o *bareObject) owner() *fakeComponent { return o.comp }
func (o *bareObject) Children() []Object    { return o.children }

type appliedRotation struct {
	component string
	rotation  geom.Quat
}

// fakeHost resolves selections whose Ref is one of the fake objects.
type fakeHost struct {
	declineApply bool
	applied      []appliedRotation
	refreshes    int
}

func (h *fakeHost) ResolveObject(sel Selection) Object {
	if obj, ok := sel.Ref.(Object); ok {
		return obj
	}
	return nil
}

func (h *fakeHost) ResolveComponent(sel Selection) Component {
	if o, ok := sel.Ref.(componentOwner); ok {
		if c := o.owner(); c != nil {
			return c
		}
	}
	return nil
}

func (h *fakeHost) ApplyRotation(c Component, q geom.Quat) bool {
	if h.declineApply {
		return false
	}
	fc := c.(*fakeComponent)
	fc.rot = q.Mul(fc.rot).Normalized()
	h.applied = append(h.applied, appliedRotation{component: fc.name, rotation: q})
	return true
}

func (h *fakeHost) IsComponentFixed(c Component) bool {
	return c.(*fakeComponent).fixed
}

func (h *fakeHost) UpdateMatrixWorld() { h.refreshes++ }

func faceSelection(label string, f Object) Selection {
	return Selection{Label: label, Kind: KindFace, Ref: f}
}

func edgeSelection(label string, e Object) Selection {
	return Selection{Label: label, Kind: KindEdge, Ref: e}
}
