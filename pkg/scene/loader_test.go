package scene

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openalign/openalign/pkg/solver"
)

const fixtureDoc = `
name: hinge-demo
tolerance: 1.0e-4
rotation_gain: 0.8
components:
  - name: base
    fixed: true
    faces:
      - name: mount
        normal: {x: 0, y: 0, z: 1}
    edges:
      - name: rail
        points:
          - {x: 0, y: 0, z: 0}
          - {x: 1, y: 0, z: 0}
  - name: lid
    parent: base
    position: {x: 0, y: 0, z: 2}
    rotation:
      axis: {x: 1, y: 0, z: 0}
      degrees: 90
    faces:
      - name: underside
        triangles:
          - a: {x: 0, y: 0, z: 0}
            b: {x: 1, y: 0, z: 0}
            c: {x: 0, y: 1, z: 0}
    points:
      - name: latch
        at: {x: 0.5, y: 0.5, z: 0}
constraints:
  - id: lid-flat
    kind: parallel
    a: base/mount
    b: lid/underside
    tolerance: 1.0e-3
  - kind: anti-parallel
    a: base/rail
    b: lid/underside
`

func TestLoadBuildsSceneFromDocument(t *testing.T) {
	scene, err := NewLoader(zerolog.Nop()).Load([]byte(fixtureDoc))
	require.NoError(t, err)

	assert.Equal(t, "hinge-demo", scene.Name)
	assert.InDelta(t, 1e-4, scene.Tolerance, 1e-12)
	assert.InDelta(t, 0.8, scene.RotationGain, 1e-12)

	base := scene.World.Component("base")
	require.NotNil(t, base)
	assert.True(t, base.Fixed())
	lid := scene.World.Component("lid")
	require.NotNil(t, lid)
	assert.InDelta(t, 2.0, lid.WorldPosition().Z, 1e-12)

	require.Len(t, scene.Constraints, 2)
	assert.Equal(t, "lid-flat", scene.Constraints[0].ID)
	assert.Equal(t, solver.KindParallel, scene.Constraints[0].Kind)
	assert.InDelta(t, 1e-3, scene.Constraints[0].Tolerance, 1e-12)
	assert.Equal(t, "constraint-2", scene.Constraints[1].ID)
	assert.Equal(t, solver.KindAntiParallel, scene.Constraints[1].Kind)
	assert.Equal(t, solver.KindEdge, scene.Constraints[1].Selections[0].Kind)
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	loader := NewLoader(zerolog.Nop())

	cases := map[string]string{
		"not yaml":            `{{{`,
		"no components":       `name: empty`,
		"bad constraint kind": "components:\n  - name: a\nconstraints:\n  - kind: coincident\n    a: a\n    b: a",
		"missing side":        "components:\n  - name: a\nconstraints:\n  - kind: parallel\n    a: a",
		"unknown path":        "components:\n  - name: a\n    faces:\n      - name: f\n        normal: {z: 1}\nconstraints:\n  - kind: parallel\n    a: a/f\n    b: a/ghost",
		"zero rotation axis":  "components:\n  - name: a\n    rotation:\n      axis: {x: 0}\n      degrees: 10",
		"short edge":          "components:\n  - name: a\n    edges:\n      - name: e\n        points:\n          - {x: 0}",
	}
	for name, doc := range cases {
		_, err := loader.Load([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadedSceneConvergesThroughRunner(t *testing.T) {
	scene, err := NewLoader(zerolog.Nop()).Load([]byte(fixtureDoc))
	require.NoError(t, err)

	// Solve only the face constraint; the lid starts 90 degrees off.
	constraints := scene.Constraints[:1]
	runner := solver.NewRunner(zerolog.Nop())
	handle, err := runner.Start(context.Background(), constraints, 200, scene.Context(zerolog.Nop()), solver.Options{})
	require.NoError(t, err)
	summary := handle.Wait()

	assert.False(t, summary.Aborted)
	assert.Equal(t, 1, summary.Satisfied)
	require.NotNil(t, constraints[0].LastResult)
	assert.Equal(t, solver.StatusSatisfied, constraints[0].LastResult.Status)
	assert.Less(t, constraints[0].LastResult.AngleError, 1e-3)

	// The fixed base never moved.
	assert.True(t, scene.World.Component("base").Rotation().Angle() < 1e-12)
}
