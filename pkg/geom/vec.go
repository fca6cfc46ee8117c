package geom

import "math"

// Vec3 is a 3-component vector in world coordinates.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSq())
}

// LengthSq returns the squared length of v.
func (v Vec3) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Normalized returns v scaled to unit length. The second return value is
// false when v is too short to normalize meaningfully.
func (v Vec3) Normalized() (Vec3, bool) {
	l := v.Length()
	if l < 1e-12 {
		return Vec3{}, false
	}
	return v.Scale(1 / l), true
}

// IsZero reports whether every component of v is exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// ApproxEqual reports whether v and w are equal within eps per component.
func (v Vec3) ApproxEqual(w Vec3, eps float64) bool {
	return math.Abs(v.X-w.X) <= eps &&
		math.Abs(v.Y-w.Y) <= eps &&
		math.Abs(v.Z-w.Z) <= eps
}

// AngleBetween returns the angle between v and w in radians, in [0, pi].
// Both inputs are normalized internally; degenerate inputs yield 0.
func (v Vec3) AngleBetween(w Vec3) float64 {
	nv, ok := v.Normalized()
	if !ok {
		return 0
	}
	nw, ok := w.Normalized()
	if !ok {
		return 0
	}
	return math.Acos(Clamp(nv.Dot(nw), -1, 1))
}

// Perpendicular returns an arbitrary unit vector perpendicular to v.
// Used to recover a rotation axis when two directions are exactly
// parallel or anti-parallel and their cross product vanishes.
func (v Vec3) Perpendicular() Vec3 {
	// Cross with whichever basis axis is least aligned with v.
	ref := Vec3{X: 1}
	if math.Abs(v.X) > math.Abs(v.Y) && math.Abs(v.X) > math.Abs(v.Z) {
		ref = Vec3{Y: 1}
	}
	p, ok := v.Cross(ref).Normalized()
	if !ok {
		return Vec3{Z: 1}
	}
	return p
}

// Clamp limits x to the interval [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
