// Package snapshot persists and restores named copies of the whole
// workspace state: sessions, workspaces, tab order, and the active tab.
// Records are kept in an in-memory cache over a pluggable store and can
// be exported as gzipped JSON for transfer between machines.
package snapshot
