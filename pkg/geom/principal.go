package geom

import "math"

const maxPowerIterations = 10

// PrincipalAxis extracts the dominant principal axis of a point cloud:
// the eigenvector of the 3x3 covariance matrix (about the centroid) with
// the largest eigenvalue, computed by power iteration. The sign of the
// returned axis is arbitrary; callers needing a consistent orientation
// must normalize it against a reference direction.
//
// The second return value is false when the point cloud is degenerate
// (fewer than two points, or all points coincident), in which case the
// axis is meaningless.
func PrincipalAxis(points []Vec3) (Vec3, bool) {
	if len(points) < 2 {
		return Vec3{}, false
	}

	centroid := Vec3{}
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Scale(1 / float64(len(points)))

	// Covariance matrix, symmetric, about the centroid.
	var xx, xy, xz, yy, yz, zz float64
	for _, p := range points {
		d := p.Sub(centroid)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}

	trace := xx + yy + zz
	if trace < 1e-18 {
		return Vec3{}, false
	}

	// Seed along the axis of largest single-axis variance so the
	// iteration cannot start orthogonal to the dominant eigenvector.
	seed := Vec3{X: 1}
	if yy > xx && yy >= zz {
		seed = Vec3{Y: 1}
	} else if zz > xx && zz > yy {
		seed = Vec3{Z: 1}
	}

	v := seed
	for i := 0; i < maxPowerIterations; i++ {
		next := Vec3{
			X: xx*v.X + xy*v.Y + xz*v.Z,
			Y: xy*v.X + yy*v.Y + yz*v.Z,
			Z: xz*v.X + yz*v.Y + zz*v.Z,
		}
		n, ok := next.Normalized()
		if !ok {
			// Seed landed in the matrix null space; perturb once.
			v = v.Add(Vec3{X: 1e-3, Y: 1e-3, Z: 1e-3})
			n, ok = v.Normalized()
			if !ok {
				return Vec3{}, false
			}
		}
		if math.Abs(n.Dot(v)) > 1-1e-12 {
			return n, true
		}
		v = n
	}
	return v, true
}
