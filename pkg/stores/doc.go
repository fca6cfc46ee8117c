// Package stores provides the run-history persistence layer. It
// includes SQLite-based storage with WAL mode, connection pooling, and
// CRUD operations for runs, constraint results and timeline events,
// plus a Recorder that bridges the solver's event stream into the
// database.
package stores
