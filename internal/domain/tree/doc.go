// Package tree implements the workspace split-tree data structure.
//
// A workspace tree is an immutable tagged union of pane leaves and split
// nodes. All mutations rebuild the path from the root to the affected node
// and share every untouched subtree, so each operation is a pure function
// over well-formed trees.
//
// Structural invariants preserved by every operation:
//   - a split always has at least 2 children (unary splits collapse)
//   - sizes, when present, are length-matched to children
//   - a session id appears in at most one leaf
//
// Operations never fail: invalid input (stale drag hints, duplicate
// session ids, unknown split ids) returns the input tree unchanged.
// Hints originate from drag gestures that can race with tree mutation
// from another source, so they must never crash the interaction.
package tree
