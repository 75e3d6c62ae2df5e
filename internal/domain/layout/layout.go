package layout

import (
	"github.com/termweave/backend/internal/shared/types"
)

// ResizerThickness is the hit-test extent of a resize handle, centered on
// the boundary between two siblings.
const ResizerThickness = 8.0

// Rects partitions the container among the tree's panes. Sibling weights
// are normalized, the split's area is divided along its axis in child
// order, and the last child absorbs rounding so the rectangles tile the
// container exactly.
func Rects(root *types.Node, size types.Size) map[string]types.Rect {
	rects := make(map[string]types.Rect)
	if root == nil || size.Width <= 0 || size.Height <= 0 {
		return rects
	}
	walk(root, types.Rect{W: size.Width, H: size.Height}, func(n *types.Node, area types.Rect) {
		rects[n.SessionID] = area
	}, nil)
	return rects
}

// Resizers emits one handle descriptor between every adjacent pair of
// split children, with a thin hit rectangle placed on the boundary.
func Resizers(root *types.Node, size types.Size) []types.Resizer {
	var out []types.Resizer
	if root == nil || size.Width <= 0 || size.Height <= 0 {
		return out
	}
	walk(root, types.Rect{W: size.Width, H: size.Height}, nil, func(split *types.Node, area types.Rect) {
		shares := normalizedShares(split)
		offset := 0.0
		for i := 0; i < len(split.Children)-1; i++ {
			var hit types.Rect
			if split.Direction == types.SplitVertical {
				offset += area.W * shares[i]
				hit = types.Rect{
					X: area.X + offset - ResizerThickness/2,
					Y: area.Y,
					W: ResizerThickness,
					H: area.H,
				}
			} else {
				offset += area.H * shares[i]
				hit = types.Rect{
					X: area.X,
					Y: area.Y + offset - ResizerThickness/2,
					W: area.W,
					H: ResizerThickness,
				}
			}
			out = append(out, types.Resizer{
				SplitID:   split.ID,
				Index:     i,
				Direction: split.Direction,
				Rect:      hit,
			})
		}
	})
	return out
}

// walk recursively partitions area over the tree, invoking onPane for
// each leaf and onSplit for each internal node.
func walk(node *types.Node, area types.Rect, onPane func(*types.Node, types.Rect), onSplit func(*types.Node, types.Rect)) {
	if node.IsPane() {
		if onPane != nil {
			onPane(node, area)
		}
		return
	}
	if onSplit != nil {
		onSplit(node, area)
	}

	shares := normalizedShares(node)
	offset := 0.0
	last := len(node.Children) - 1
	for i, child := range node.Children {
		var childArea types.Rect
		if node.Direction == types.SplitVertical {
			w := area.W * shares[i]
			if i == last {
				w = area.W - offset
			}
			childArea = types.Rect{X: area.X + offset, Y: area.Y, W: w, H: area.H}
			offset += w
		} else {
			h := area.H * shares[i]
			if i == last {
				h = area.H - offset
			}
			childArea = types.Rect{X: area.X, Y: area.Y + offset, W: area.W, H: h}
			offset += h
		}
		walk(child, childArea, onPane, onSplit)
	}
}

// normalizedShares converts a split's weights into fractions summing to 1.
// Absent or malformed sizes fall back to equal weighting.
func normalizedShares(split *types.Node) []float64 {
	n := len(split.Children)
	shares := make([]float64, n)

	if len(split.Sizes) != n {
		for i := range shares {
			shares[i] = 1.0 / float64(n)
		}
		return shares
	}

	total := 0.0
	for _, s := range split.Sizes {
		if s > 0 {
			total += s
		}
	}
	if total <= 0 {
		for i := range shares {
			shares[i] = 1.0 / float64(n)
		}
		return shares
	}

	for i, s := range split.Sizes {
		if s < 0 {
			s = 0
		}
		shares[i] = s / total
	}
	return shares
}

// splitArea finds the pixel rectangle occupied by the split with splitID
func splitArea(root *types.Node, size types.Size, splitID string) (types.Rect, bool) {
	var found types.Rect
	ok := false
	walk(root, types.Rect{W: size.Width, H: size.Height}, nil, func(split *types.Node, area types.Rect) {
		if split.ID == splitID {
			found = area
			ok = true
		}
	})
	return found, ok
}
