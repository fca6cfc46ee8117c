package geom

import "math"

// Quat is a unit quaternion representing a rotation in 3D.
type Quat struct {
	W float64 `json:"w" yaml:"w"`
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// IdentityQuat returns the identity rotation.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle builds a unit quaternion rotating by angle radians
// around axis. The axis is normalized internally; a degenerate axis
// yields the identity rotation.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	n, ok := axis.Normalized()
	if !ok {
		return IdentityQuat()
	}
	half := angle / 2
	s := math.Sin(half)
	return Quat{
		W: math.Cos(half),
		X: n.X * s,
		Y: n.Y * s,
		Z: n.Z * s,
	}
}

// Mul returns the Hamilton product q * r. Applying the result rotates
// first by r, then by q.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Conjugate returns the inverse rotation for a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Normalized returns q scaled to unit length. A zero quaternion
// normalizes to the identity.
func (q Quat) Normalized() Quat {
	l := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if l < 1e-12 {
		return IdentityQuat()
	}
	return Quat{W: q.W / l, X: q.X / l, Y: q.Y / l, Z: q.Z / l}
}

// Rotate applies the rotation q to vector v.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = q * (0, v) * q^-1, expanded to avoid quaternion allocation.
	u := Vec3{X: q.X, Y: q.Y, Z: q.Z}
	uv := u.Cross(v)
	uuv := u.Cross(uv)
	return v.Add(uv.Scale(2 * q.W)).Add(uuv.Scale(2))
}

// Angle returns the rotation angle of q in radians, in [0, pi].
func (q Quat) Angle() float64 {
	w := Clamp(math.Abs(q.W), 0, 1)
	return 2 * math.Acos(w)
}
