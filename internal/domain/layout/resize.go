package layout

import (
	"math"

	"github.com/termweave/backend/internal/domain/tree"
	"github.com/termweave/backend/internal/shared/types"
)

// MinPaneExtent is the smallest pixel extent a pane may be dragged to,
// unless the pair's combined extent is itself smaller than twice this.
const MinPaneExtent = 120.0

// ApplyResize moves the boundary between children index and index+1 of the
// named split by delta pixels along the split's axis. The two affected
// extents are clamped in the pixel domain (per side minimum of
// min(MinPaneExtent, pairTotal/2), shortfall transferred to the other
// side) and converted back to normalized weights, which keeps the weights
// numerically stable across many small drag events and guarantees no pane
// ever reaches zero size.
//
// Returns the tree with updated weights, or the input tree unchanged when
// the split or boundary does not exist.
func ApplyResize(root *types.Node, splitID string, index int, delta float64, size types.Size) *types.Node {
	if root == nil {
		return nil
	}

	split := tree.FindSplit(root, splitID)
	if split == nil || index < 0 || index >= len(split.Children)-1 {
		return root
	}

	area, ok := splitArea(root, size, splitID)
	if !ok {
		return root
	}

	total := area.W
	if split.Direction == types.SplitHorizontal {
		total = area.H
	}
	if total <= 0 {
		return root
	}

	shares := normalizedShares(split)
	a := total * shares[index]
	b := total * shares[index+1]
	pairTotal := a + b

	minPx := math.Min(MinPaneExtent, pairTotal/2)

	newA := a + delta
	if newA < minPx {
		newA = minPx
	}
	if newA > pairTotal-minPx {
		newA = pairTotal - minPx
	}
	newB := pairTotal - newA

	sizes := make([]float64, len(shares))
	copy(sizes, shares)
	sizes[index] = newA / total
	sizes[index+1] = newB / total

	return tree.UpdateSplitSizes(root, splitID, sizes)
}
