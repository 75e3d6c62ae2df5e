// Package store persists named snapshots and the stored tab order in a
// local sqlite database. Snapshot payloads are kept as opaque JSON so the
// schema survives additions to the workspace state.
package store
