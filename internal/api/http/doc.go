// Package http exposes the REST surface: session lifecycle, workspace
// and split-tree mutation, geometry queries, tab ordering, multi-host
// runs, and snapshot management.
package http
