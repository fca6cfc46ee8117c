package geom

// Triangle is a single mesh triangle in world coordinates.
type Triangle struct {
	A, B, C Vec3
}

// Normal returns the (unnormalized) face normal cross(B-A, C-A).
// Callers decide how to treat near-degenerate triangles, so no
// normalization or length check happens here.
func (t Triangle) Normal() Vec3 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A))
}

// Centroid returns the triangle centroid.
func (t Triangle) Centroid() Vec3 {
	return t.A.Add(t.B).Add(t.C).Scale(1.0 / 3.0)
}
