package layout

import (
	"math"

	"github.com/termweave/backend/internal/shared/types"
)

// NextFocus returns the session id of the nearest pane strictly in the
// requested direction from the current pane, or "" when no pane qualifies.
//
// Candidates are ranked by smallest gap along the requested axis, ties
// broken by center proximity on the other axis. The tree is treated purely
// as a geometric arrangement: adjacency is derived from rectangles, so the
// search stays correct across irregularly nested splits.
func NextFocus(root *types.Node, currentSessionID string, direction types.FocusDirection, size types.Size) string {
	rects := Rects(root, size)
	cur, ok := rects[currentSessionID]
	if !ok {
		return ""
	}

	best := ""
	bestGap := math.Inf(1)
	bestTie := math.Inf(1)

	for sessionID, r := range rects {
		if sessionID == currentSessionID {
			continue
		}

		var gap, tie float64
		switch direction {
		case types.FocusRight:
			if r.X <= cur.X {
				continue
			}
			gap = r.X - cur.X
			tie = math.Abs(r.CenterY() - cur.CenterY())
		case types.FocusLeft:
			if r.X >= cur.X {
				continue
			}
			gap = cur.X - r.X
			tie = math.Abs(r.CenterY() - cur.CenterY())
		case types.FocusDown:
			if r.Y <= cur.Y {
				continue
			}
			gap = r.Y - cur.Y
			tie = math.Abs(r.CenterX() - cur.CenterX())
		case types.FocusUp:
			if r.Y >= cur.Y {
				continue
			}
			gap = cur.Y - r.Y
			tie = math.Abs(r.CenterX() - cur.CenterX())
		default:
			return ""
		}

		if gap < bestGap || (gap == bestGap && tie < bestTie) {
			best = sessionID
			bestGap = gap
			bestTie = tie
		}
	}
	return best
}

// DropHint classifies a pointer position into the split hint a drop at
// that position would produce. The pane containing the pointer becomes the
// target (or the whole container when the pointer is outside every pane);
// the axis with the larger relative deviation from the rectangle's center
// determines the split direction, the sign the position.
func DropHint(root *types.Node, pointer types.Point, size types.Size) types.SplitHint {
	area := types.Rect{W: size.Width, H: size.Height}
	target := ""

	for sessionID, r := range Rects(root, size) {
		if r.Contains(pointer) {
			area = r
			target = sessionID
			break
		}
	}

	dx := 0.0
	dy := 0.0
	if area.W > 0 {
		dx = (pointer.X-area.X)/area.W - 0.5
	}
	if area.H > 0 {
		dy = (pointer.Y-area.Y)/area.H - 0.5
	}

	hint := types.SplitHint{TargetSessionID: target}
	if math.Abs(dx) >= math.Abs(dy) {
		hint.Direction = types.SplitVertical
		hint.Position = types.PositionRight
		if dx < 0 {
			hint.Position = types.PositionLeft
		}
	} else {
		hint.Direction = types.SplitHorizontal
		hint.Position = types.PositionBottom
		if dy < 0 {
			hint.Position = types.PositionTop
		}
	}
	return hint
}
