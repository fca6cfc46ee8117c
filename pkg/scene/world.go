package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openalign/openalign/pkg/geom"
	"github.com/openalign/openalign/pkg/solver"
)

// ErrNotFound is returned when a selection path names an unknown
// component or feature.
var ErrNotFound = errors.New("scene: not found")

// World is an in-memory scene graph implementing the solver's host
// boundary. Selections address features by "component/feature" paths;
// the world owns all transform mutation and keeps cached world poses
// consistent.
type World struct {
	log        zerolog.Logger
	components map[string]*Component
	order      []*Component
}

// NewWorld creates an empty world.
func NewWorld(log zerolog.Logger) *World {
	return &World{
		log:        log.With().Str("component", "scene").Logger(),
		components: make(map[string]*Component),
	}
}

// AddComponent creates a component. parent is the name of an existing
// component or empty for a root. Names are unique per world.
func (w *World) AddComponent(name, parent string) (*Component, error) {
	if name == "" {
		return nil, fmt.Errorf("scene: component name must not be empty")
	}
	if strings.Contains(name, "/") {
		return nil, fmt.Errorf("scene: component name %q must not contain '/'", name)
	}
	if _, exists := w.components[name]; exists {
		return nil, fmt.Errorf("scene: duplicate component %q", name)
	}
	var p *Component
	if parent != "" {
		var ok bool
		if p, ok = w.components[parent]; !ok {
			return nil, fmt.Errorf("scene: parent %q of component %q: %w", parent, name, ErrNotFound)
		}
	}
	c := newComponent(name, p)
	w.components[name] = c
	w.order = append(w.order, c)
	c.refreshWorld()
	return c, nil
}

// Component returns a component by name, or nil.
func (w *World) Component(name string) *Component { return w.components[name] }

// Components returns all components in creation order.
func (w *World) Components() []*Component {
	out := make([]*Component, len(w.order))
	copy(out, w.order)
	return out
}

// SetPose sets a component's local position and rotation and refreshes
// world caches.
func (w *World) SetPose(c *Component, position geom.Vec3, rotation geom.Quat) {
	c.position = position
	c.rotation = rotation.Normalized()
	w.UpdateMatrixWorld()
}

// AddFace attaches a face feature to a component. Either normal or
// triangles (or both) must be provided.
func (w *World) AddFace(c *Component, name string, normal *geom.Vec3, triangles []geom.Triangle) (*Face, error) {
	if err := w.checkFeatureName(c, name); err != nil {
		return nil, err
	}
	if normal == nil && len(triangles) == 0 {
		return nil, fmt.Errorf("scene: face %s/%s has neither normal nor triangles", c.name, name)
	}
	if normal != nil {
		unit, ok := normal.Normalized()
		if !ok {
			return nil, fmt.Errorf("scene: face %s/%s has a zero normal", c.name, name)
		}
		normal = &unit
	}
	f := &Face{name: name, comp: c, normal: normal, triangles: triangles}
	c.addFeature(f)
	return f, nil
}

// AddEdge attaches a polyline edge feature to a component.
func (w *World) AddEdge(c *Component, name string, points []geom.Vec3) (*Edge, error) {
	if err := w.checkFeatureName(c, name); err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("scene: edge %s/%s needs at least 2 points, got %d", c.name, name, len(points))
	}
	e := &Edge{name: name, comp: c, points: points}
	c.addFeature(e)
	return e, nil
}

// AddPoint attaches a point feature to a component. direction is
// optional and lets the point act as an alignment reference.
func (w *World) AddPoint(c *Component, name string, at geom.Vec3, direction *geom.Vec3) (*Point, error) {
	if err := w.checkFeatureName(c, name); err != nil {
		return nil, err
	}
	if direction != nil {
		unit, ok := direction.Normalized()
		if !ok {
			return nil, fmt.Errorf("scene: point %s/%s has a zero direction", c.name, name)
		}
		direction = &unit
	}
	p := &Point{name: name, comp: c, at: at, direction: direction}
	c.addFeature(p)
	return p, nil
}

func (w *World) checkFeatureName(c *Component, name string) error {
	if name == "" {
		return fmt.Errorf("scene: feature name on %q must not be empty", c.name)
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("scene: feature name %q must not contain '/'", name)
	}
	if c.byName[name] != nil {
		return fmt.Errorf("scene: duplicate feature %s/%s", c.name, name)
	}
	return nil
}

// Select builds a solver selection from a "component" or
// "component/feature" path.
func (w *World) Select(path string) (solver.Selection, error) {
	obj, err := w.lookup(path)
	if err != nil {
		return solver.Selection{}, err
	}
	kind := solver.KindComponent
	if f, ok := obj.(Feature); ok {
		kind = f.SelectionKind()
	}
	return solver.Selection{Label: path, Kind: kind, Ref: obj}, nil
}

func (w *World) lookup(path string) (solver.Object, error) {
	compName, featName, hasFeature := strings.Cut(path, "/")
	c, ok := w.components[compName]
	if !ok {
		return nil, fmt.Errorf("scene: component %q: %w", compName, ErrNotFound)
	}
	if !hasFeature {
		return c, nil
	}
	f := c.Feature(featName)
	if f == nil {
		return nil, fmt.Errorf("scene: feature %q on component %q: %w", featName, compName, ErrNotFound)
	}
	return f, nil
}

// ResolveObject implements solver.Host. String refs are treated as
// selection paths; object refs pass through.
func (w *World) ResolveObject(sel solver.Selection) solver.Object {
	switch ref := sel.Ref.(type) {
	case solver.Object:
		return ref
	case string:
		obj, err := w.lookup(ref)
		if err != nil {
			return nil
		}
		return obj
	default:
		return nil
	}
}

// ResolveComponent implements solver.Host.
func (w *World) ResolveComponent(sel solver.Selection) solver.Component {
	switch obj := w.ResolveObject(sel).(type) {
	case Feature:
		return obj.Component()
	case *Component:
		return obj
	default:
		return nil
	}
}

// ApplyRotation implements solver.Host. The rotation is world-space;
// it is rebased into the component's parent frame and world caches are
// refreshed immediately so later evaluations in the same pass observe
// the move.
func (w *World) ApplyRotation(c solver.Component, q geom.Quat) bool {
	comp, ok := c.(*Component)
	if !ok || comp.fixed {
		return false
	}
	comp.applyWorldRotation(q)
	w.UpdateMatrixWorld()
	w.log.Debug().
		Str("target", comp.name).
		Float64("angle", q.Angle()).
		Msg("rotation applied")
	return true
}

// IsComponentFixed implements solver.Host.
func (w *World) IsComponentFixed(c solver.Component) bool {
	comp, ok := c.(*Component)
	return ok && comp.fixed
}

// UpdateMatrixWorld refreshes cached world poses. Creation order puts
// parents before children, so one forward pass suffices.
func (w *World) UpdateMatrixWorld() {
	for _, c := range w.order {
		c.refreshWorld()
	}
}
