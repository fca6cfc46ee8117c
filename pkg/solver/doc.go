// Package solver implements the orientation-constraint core for rigid
// assembly alignment: deriving directions from geometric selections,
// computing bounded corrective rotations, and scheduling many
// constraints over many iterations.
//
// # Overview
//
// The solver nudges component orientations so that selected geometric
// references (faces, edges, points) satisfy parallel or anti-parallel
// alignment. One pass of work flows as:
//
//	Runner.Start -> per iteration -> per constraint -> Evaluator.Solve
//	  -> Resolver.ResolveDirection (x2)
//	  -> corrective rotation computed
//	  -> Host.ApplyRotation mutates the component transform
//	  -> result recorded, hooks fired
//
// # Core Types
//
//   - Selection: an opaque host reference to a face, edge, point or component
//   - DirectionInfo: a resolved unit direction plus anchor point
//   - Constraint: two selections, a kind, and the last evaluation result
//   - Result: the classified outcome of evaluating one constraint once
//   - RunState / RunSummary: live and terminal state of one run
//
// # Host Boundary
//
// The scene/geometry layer implements Host; the solver never mutates a
// transform directly. Geometry access is probed through optional
// capability interfaces (AveragedNormalProvider, TriangleMesh,
// PolylineProvider, VertexBuffer, ...) so hosts expose exactly what
// their representation supports and the resolver's fallback chain
// handles the rest.
//
// # Error Classification
//
// Resolver and validation failures are typed (UnresolvedDirectionError,
// ClosedLoopEdgeError, InvalidSelectionError) and are always converted
// into a Result at the Solve boundary; Solve never returns an error.
// A failure status is informational: the run still completes its
// iteration budget.
//
// # Scheduling
//
// Runs are single-threaded and cooperative. Constraints within an
// iteration observe the transforms already updated by earlier
// constraints in the same pass. Cancellation is observed only at
// iteration boundaries and between constraints; pause gates between
// iterations are resolved by Resume and by Abort, so a paused run
// never deadlocks. A Runner permits one live run at a time.
package solver
