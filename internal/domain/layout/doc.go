// Package layout converts workspace trees into pixel geometry.
//
// Everything here is a stateless function of (tree, container size):
//   - Rects: session id -> pixel rectangle, an exact tiling of the container
//   - Resizers: draggable handle descriptors between adjacent split children
//   - ApplyResize: drag delta -> clamped, renormalized split weights
//   - NextFocus: directional focus search over concrete rectangles
//   - DropHint: pointer position -> half-region split hint
//
// Directional adjacency is always derived from geometry, never from tree
// edges: once horizontal and vertical splits nest, the tree's shape no
// longer corresponds to visual adjacency.
package layout
