// Package types provides shared data structures for the terminal workspace core.
//
// This package defines core types used across all backend components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Session: One live or connecting terminal
//   - Workspace: A named tab containing one split tree and a view mode
//   - Node: Workspace tree vertex (pane leaf or split)
//   - SplitHint: Drop-target description consumed by tree insertion
//   - Snapshot: Plain serializable state for the persistence collaborator
//
// Geometry Types:
//   - Size, Point, Rect: Container pixel space
//   - Resizer: Draggable handle between adjacent split children
//   - FocusDirection: Directional focus-move request
//
// Request Types:
//   - ConnectRequest, SplitRequest, ResizeRequest, ReorderRequest, ...
//   - WSEvent: Event gateway envelope
package types
