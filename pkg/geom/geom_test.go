package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3Basics(t *testing.T) {
	v := Vec3{1, 2, 3}
	w := Vec3{4, -5, 6}

	assert.Equal(t, Vec3{5, -3, 9}, v.Add(w))
	assert.Equal(t, Vec3{-3, 7, -3}, v.Sub(w))
	assert.Equal(t, Vec3{2, 4, 6}, v.Scale(2))
	assert.InDelta(t, 12.0, v.Dot(w), 1e-12)
	assert.InDelta(t, math.Sqrt(14), v.Length(), 1e-12)
}

func TestVec3CrossIsOrthogonal(t *testing.T) {
	v := Vec3{1, 2, 3}
	w := Vec3{-2, 0.5, 4}
	c := v.Cross(w)

	assert.InDelta(t, 0, c.Dot(v), 1e-12)
	assert.InDelta(t, 0, c.Dot(w), 1e-12)
}

func TestVec3Normalized(t *testing.T) {
	n, ok := Vec3{0, 3, 4}.Normalized()
	require.True(t, ok)
	assert.InDelta(t, 1.0, n.Length(), 1e-12)
	assert.InDelta(t, 0.6, n.Y, 1e-12)

	_, ok = Vec3{}.Normalized()
	assert.False(t, ok)
}

func TestVec3AngleBetween(t *testing.T) {
	x := Vec3{X: 1}
	y := Vec3{Y: 1}

	assert.InDelta(t, math.Pi/2, x.AngleBetween(y), 1e-12)
	assert.InDelta(t, math.Pi, x.AngleBetween(x.Neg()), 1e-12)
	assert.InDelta(t, 0, x.AngleBetween(x.Scale(7)), 1e-12)
}

func TestVec3Perpendicular(t *testing.T) {
	for _, v := range []Vec3{{X: 1}, {Y: 1}, {Z: 1}, {1, 2, 3}, {-4, 0.1, 0}} {
		p := v.Perpendicular()
		assert.InDelta(t, 1.0, p.Length(), 1e-12)
		assert.InDelta(t, 0, p.Dot(v), 1e-9)
	}
}

func TestQuatFromAxisAngleRotates(t *testing.T) {
	// Quarter turn around Z maps X onto Y.
	q := QuatFromAxisAngle(Vec3{Z: 1}, math.Pi/2)
	got := q.Rotate(Vec3{X: 1})
	assert.True(t, got.ApproxEqual(Vec3{Y: 1}, 1e-12), "got %+v", got)
}

func TestQuatAngle(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, 1, 0}, 0.3)
	assert.InDelta(t, 0.3, q.Angle(), 1e-12)
	assert.InDelta(t, 0, IdentityQuat().Angle(), 1e-12)
}

func TestQuatMulComposes(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{Z: 1}, math.Pi/2)
	b := QuatFromAxisAngle(Vec3{X: 1}, math.Pi/2)

	v := Vec3{Y: 1}
	composed := a.Mul(b).Rotate(v)
	sequential := a.Rotate(b.Rotate(v))
	assert.True(t, composed.ApproxEqual(sequential, 1e-12))
}

func TestQuatConjugateUndoesRotation(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{1, -2, 0.5}, 1.1)
	v := Vec3{3, 1, -2}
	back := q.Conjugate().Rotate(q.Rotate(v))
	assert.True(t, back.ApproxEqual(v, 1e-12))
}

func TestTriangleNormal(t *testing.T) {
	tri := Triangle{A: Vec3{}, B: Vec3{X: 1}, C: Vec3{Y: 1}}
	n, ok := tri.Normal().Normalized()
	require.True(t, ok)
	assert.True(t, n.ApproxEqual(Vec3{Z: 1}, 1e-12))
}

func TestPrincipalAxisOfNoisyLine(t *testing.T) {
	// Points spread along (1,2,2)/3 with small off-axis noise.
	dir, _ := Vec3{1, 2, 2}.Normalized()
	var pts []Vec3
	for i := 0; i < 50; i++ {
		noise := Vec3{
			X: 0.01 * math.Sin(float64(i)),
			Y: 0.01 * math.Cos(float64(i)*1.7),
			Z: 0.01 * math.Sin(float64(i)*0.3),
		}
		pts = append(pts, dir.Scale(float64(i)*0.1).Add(noise))
	}

	axis, ok := PrincipalAxis(pts)
	require.True(t, ok)
	// Sign is unspecified; compare the absolute alignment.
	assert.InDelta(t, 1.0, math.Abs(axis.Dot(dir)), 1e-3)
}

func TestPrincipalAxisDegenerate(t *testing.T) {
	_, ok := PrincipalAxis(nil)
	assert.False(t, ok)

	_, ok = PrincipalAxis([]Vec3{{1, 1, 1}})
	assert.False(t, ok)

	_, ok = PrincipalAxis([]Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}})
	assert.False(t, ok)
}
