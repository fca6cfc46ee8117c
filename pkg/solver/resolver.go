package solver

import (
	"github.com/rs/zerolog"

	"github.com/openalign/openalign/pkg/geom"
)

// Sampling limits for geometry-derived directions.
const (
	// maxFaceTriangles bounds how many triangles contribute to an
	// averaged face normal.
	maxFaceTriangles = 60

	// maxEdgeSamples bounds how many points are sampled along an edge.
	maxEdgeSamples = 256

	// descendantSearchDepth bounds the recursive search for derivable
	// geometry under point/component/unknown selections.
	descendantSearchDepth = 3

	// minAccumulatedNormalSq is the smallest squared length an
	// accumulated face normal may have before resolution fails.
	minAccumulatedNormalSq = 1e-10

	// closedLoopEps is the distance under which the first and last edge
	// samples are considered coincident.
	closedLoopEps = 1e-9
)

// Resolver derives unit directions and anchor points from selections.
//
// A Resolver holds no geometric state and must be re-invoked on every
// evaluation: component transforms change between iterations, so
// nothing it computes may be cached.
type Resolver struct {
	host Host
	log  zerolog.Logger
}

// NewResolver creates a resolver against the given host.
func NewResolver(host Host, log zerolog.Logger) *Resolver {
	return &Resolver{host: host, log: log}
}

// ResolveDirection derives a unit direction and anchor point from a
// selection. It fails with UnresolvedDirectionError when no direction
// can be derived, and with ClosedLoopEdgeError for edges without a
// unique tangent.
func (r *Resolver) ResolveDirection(sel Selection) (DirectionInfo, error) {
	obj := r.host.ResolveObject(sel)
	comp := r.host.ResolveComponent(sel)

	info := DirectionInfo{Kind: sel.Kind, Source: SourceUnresolved}
	if origin, ok := r.resolveAnchor(obj, comp); ok {
		info.Origin = &origin
	}

	var (
		dir       geom.Vec3
		source    ResolutionSource
		ok        bool
		attempted []ResolutionSource
	)

	switch sel.Kind {
	case KindFace:
		dir, source, ok, attempted = r.faceNormal(obj)
	case KindEdge:
		attempted = append(attempted, SourceTangent)
		tangent, err := r.edgeTangent(obj, sel.Label)
		if err != nil {
			return info, err
		}
		dir, source, ok = tangent, SourceTangent, true
	default:
		dir, source, ok, attempted = r.elementDirection(obj)
	}

	if !ok {
		return info, &UnresolvedDirectionError{
			Label:     sel.Label,
			Object:    objectName(obj),
			Component: componentName(comp),
			Kind:      sel.Kind,
			Attempted: attempted,
		}
	}

	unit, normOK := dir.Normalized()
	if !normOK {
		return info, &UnresolvedDirectionError{
			Label:     sel.Label,
			Object:    objectName(obj),
			Component: componentName(comp),
			Kind:      sel.Kind,
			Attempted: attempted,
		}
	}

	info.Direction = &unit
	info.Source = source
	r.log.Trace().
		Str("selection", sel.Label).
		Str("source", string(source)).
		Msg("direction resolved")
	return info, nil
}

// faceNormal derives a face direction: a host-provided averaged-normal
// accessor when present, otherwise an average of triangle normals.
func (r *Resolver) faceNormal(obj Object) (geom.Vec3, ResolutionSource, bool, []ResolutionSource) {
	var attempted []ResolutionSource

	if provider, ok := obj.(AveragedNormalProvider); ok {
		attempted = append(attempted, SourceAccessor)
		if n, ok := provider.AveragedNormal(); ok {
			return n, SourceAccessor, true, attempted
		}
	}

	if mesh, ok := obj.(TriangleMesh); ok {
		attempted = append(attempted, SourceWorldNormal)
		if n, ok := averageTriangleNormal(mesh); ok {
			return n, SourceWorldNormal, true, attempted
		}
	}

	return geom.Vec3{}, SourceUnresolved, false, attempted
}

// averageTriangleNormal accumulates cross(edge1, edge2) over up to
// maxFaceTriangles triangles, skipping near-degenerate contributions.
func averageTriangleNormal(mesh TriangleMesh) (geom.Vec3, bool) {
	tris := mesh.Triangles(maxFaceTriangles)
	if len(tris) > maxFaceTriangles {
		tris = tris[:maxFaceTriangles]
	}

	acc := geom.Vec3{}
	for _, tri := range tris {
		n := tri.Normal()
		if n.LengthSq() <= 1e-12 {
			continue
		}
		acc = acc.Add(n)
	}
	if acc.LengthSq() <= minAccumulatedNormalSq {
		return geom.Vec3{}, false
	}
	return acc.Scale(1 / float64(len(tris))), true
}

// edgeTangent derives a robust tangent from the dominant principal axis
// of sampled edge points, oriented along the first-to-last chord. Falls
// back to the segment sum and finally the raw chord when the principal
// axis degenerates.
func (r *Resolver) edgeTangent(obj Object, label string) (geom.Vec3, error) {
	samples := sampleEdgePoints(obj)
	if len(samples) < 2 {
		return geom.Vec3{}, &UnresolvedDirectionError{
			Label:     label,
			Object:    objectName(obj),
			Kind:      KindEdge,
			Attempted: []ResolutionSource{SourceTangent},
		}
	}

	first, last := samples[0], samples[len(samples)-1]
	if first.ApproxEqual(last, closedLoopEps) {
		return geom.Vec3{}, &ClosedLoopEdgeError{Label: label, Samples: len(samples)}
	}
	chord := last.Sub(first)

	if axis, ok := geom.PrincipalAxis(samples); ok {
		// Sign normalization: orient along the chord so repeated
		// resolutions agree regardless of the eigenvector's sign.
		if axis.Dot(chord) < 0 {
			axis = axis.Neg()
		}
		return axis, nil
	}

	segmentSum := geom.Vec3{}
	for i := 1; i < len(samples); i++ {
		segmentSum = segmentSum.Add(samples[i].Sub(samples[i-1]))
	}
	if t, ok := segmentSum.Normalized(); ok {
		return t, nil
	}
	if t, ok := chord.Normalized(); ok {
		return t, nil
	}

	return geom.Vec3{}, &UnresolvedDirectionError{
		Label:     label,
		Object:    objectName(obj),
		Kind:      KindEdge,
		Attempted: []ResolutionSource{SourceTangent},
	}
}

// sampleEdgePoints collects up to maxEdgeSamples points along an edge:
// an explicit polyline when the host exposes one, otherwise evenly
// spaced vertex-buffer indices, always including the last index.
func sampleEdgePoints(obj Object) []geom.Vec3 {
	if provider, ok := obj.(PolylineProvider); ok {
		pts := provider.Polyline()
		if len(pts) <= maxEdgeSamples {
			return pts
		}
		return downsample(pts, maxEdgeSamples)
	}

	buf, ok := obj.(VertexBuffer)
	if !ok {
		return nil
	}
	count := buf.VertexCount()
	if count <= 0 {
		return nil
	}

	n := count
	if n > maxEdgeSamples {
		n = maxEdgeSamples
	}
	samples := make([]geom.Vec3, 0, n)
	if n == 1 {
		return append(samples, buf.Vertex(0))
	}
	step := float64(count-1) / float64(n-1)
	for i := 0; i < n-1; i++ {
		samples = append(samples, buf.Vertex(int(float64(i)*step)))
	}
	// The last index always participates so the chord spans the edge.
	return append(samples, buf.Vertex(count-1))
}

// downsample picks n evenly spaced points from pts, keeping the last.
func downsample(pts []geom.Vec3, n int) []geom.Vec3 {
	out := make([]geom.Vec3, 0, n)
	step := float64(len(pts)-1) / float64(n-1)
	for i := 0; i < n-1; i++ {
		out = append(out, pts[int(float64(i)*step)])
	}
	return append(out, pts[len(pts)-1])
}

// elementDirection handles point, component and unknown selections: a
// generic element-direction helper when the host provides one, else a
// depth-limited search of descendant geometry for a derivable normal.
func (r *Resolver) elementDirection(obj Object) (geom.Vec3, ResolutionSource, bool, []ResolutionSource) {
	var attempted []ResolutionSource

	if obj == nil {
		return geom.Vec3{}, SourceUnresolved, false, attempted
	}

	if provider, ok := obj.(ElementDirectionProvider); ok {
		attempted = append(attempted, SourceElementDirection)
		if d, ok := provider.ElementDirection(); ok {
			return d, SourceElementDirection, true, attempted
		}
	}

	attempted = append(attempted, SourceGeometry)
	if d, ok := searchGeometryNormal(obj, descendantSearchDepth); ok {
		return d, SourceGeometry, true, attempted
	}

	return geom.Vec3{}, SourceUnresolved, false, attempted
}

// searchGeometryNormal recursively looks for a derivable normal on obj
// or its descendants, limited to the given depth.
func searchGeometryNormal(obj Object, depth int) (geom.Vec3, bool) {
	if obj == nil || depth < 0 {
		return geom.Vec3{}, false
	}

	if provider, ok := obj.(AveragedNormalProvider); ok {
		if n, ok := provider.AveragedNormal(); ok {
			return n, true
		}
	}
	if mesh, ok := obj.(TriangleMesh); ok {
		if n, ok := averageTriangleNormal(mesh); ok {
			return n, true
		}
	}

	if container, ok := obj.(Container); ok && depth > 0 {
		for _, child := range container.Children() {
			if n, ok := searchGeometryNormal(child, depth-1); ok {
				return n, true
			}
		}
	}
	return geom.Vec3{}, false
}

// resolveAnchor picks the anchor point for a resolved direction: a
// host-chosen representative point, then the object's own position,
// then the owning component's world position.
func (r *Resolver) resolveAnchor(obj Object, comp Component) (geom.Vec3, bool) {
	if provider, ok := obj.(RepresentativePointProvider); ok {
		if p, ok := provider.RepresentativePoint(); ok {
			return p, true
		}
	}
	if positioned, ok := obj.(Positioned); ok {
		if p, ok := positioned.ObjectPosition(); ok {
			return p, true
		}
	}
	if comp != nil {
		return comp.WorldPosition(), true
	}
	return geom.Vec3{}, false
}

func objectName(obj Object) string {
	if obj == nil {
		return ""
	}
	return obj.Name()
}

func componentName(c Component) string {
	if c == nil {
		return ""
	}
	return c.Name()
}
