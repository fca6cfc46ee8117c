// Package scene provides a self-contained reference host for the
// alignment solver: an in-memory scene graph of rigid components with
// face, edge and point features, plus a YAML loader for assembly
// documents.
//
// The World type implements solver.Host. Features answer the solver's
// capability interfaces in world space, so a loaded scene can be solved
// directly:
//
//	scene, err := scene.NewLoader(log).LoadFile("assembly.yaml")
//	handle, err := runner.Start(ctx, scene.Constraints, 100, scene.Context(log), opts)
//
// Embedding applications with their own geometry kernel implement
// solver.Host themselves; this package is the batteries-included path
// for tools, tests and examples.
package scene
