// Package registry owns the session collection and workspace records.
//
// It is the single writer for both: tree mutations are delegated to the
// tree package, geometry questions to the layout package, and active-tab
// changes to the active store, but membership invariants are enforced
// here. A session belongs to at most one workspace, a dissolved
// workspace's survivor always reverts to an orphan tab, and the active
// tab never points at a removed id.
package registry
