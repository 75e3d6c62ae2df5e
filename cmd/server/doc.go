// Package main is the entry point for the termweave backend server.
//
// The server is the engine behind a multi-session terminal workspace
// shell: it owns session lifecycle, split-tree workspaces, tab ordering,
// the active selection, and named snapshots of the whole arrangement.
//
// The shell talks to it two ways:
//   - REST API for mutations and queries
//   - WebSocket stream for active-tab, status, and terminal output events
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8700 -db termweave.db -inventory hosts.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
