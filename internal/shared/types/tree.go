package types

// SplitDirection is the axis a split divides its area along.
// A vertical split arranges its children left-to-right (vertical divider);
// a horizontal split stacks them top-to-bottom (horizontal divider).
type SplitDirection string

const (
	SplitHorizontal SplitDirection = "horizontal"
	SplitVertical   SplitDirection = "vertical"
)

// DropPosition names the half of a target pane a new pane lands in.
type DropPosition string

const (
	PositionLeft   DropPosition = "left"
	PositionRight  DropPosition = "right"
	PositionTop    DropPosition = "top"
	PositionBottom DropPosition = "bottom"
)

// First reports whether the new pane is ordered before the existing one.
func (p DropPosition) First() bool {
	return p == PositionLeft || p == PositionTop
}

// NodeKind discriminates the workspace tree node union
type NodeKind string

const (
	KindPane  NodeKind = "pane"
	KindSplit NodeKind = "split"
)

// Node is one vertex of a workspace tree: either a pane leaf referencing
// exactly one session, or a split dividing its area among >=2 ordered
// children with proportional weights.
//
// Invariants (maintained by the tree package, never checked at runtime):
//   - a split has at least 2 children
//   - Sizes is either empty (equal weighting) or length-matched to Children
//   - a session id appears in at most one leaf across the whole forest
type Node struct {
	Kind      NodeKind       `json:"kind"`
	SessionID string         `json:"session_id,omitempty"` // pane only
	ID        string         `json:"id,omitempty"`          // split only
	Direction SplitDirection `json:"direction,omitempty"`   // split only
	Children  []*Node        `json:"children,omitempty"`    // split only
	Sizes     []float64      `json:"sizes,omitempty"`       // split only
}

// Pane constructs a leaf node for a session
func Pane(sessionID string) *Node {
	return &Node{Kind: KindPane, SessionID: sessionID}
}

// IsPane reports whether the node is a leaf
func (n *Node) IsPane() bool {
	return n != nil && n.Kind == KindPane
}

// IsSplit reports whether the node is an internal split
func (n *Node) IsSplit() bool {
	return n != nil && n.Kind == KindSplit
}

// SplitHint describes where a new pane lands relative to an existing one.
// An empty TargetSessionID means the whole root is wrapped.
// Hints originate from drag gestures and may race with tree mutation,
// so a stale target is a no-op rather than an error.
type SplitHint struct {
	Direction       SplitDirection `json:"direction"`
	Position        DropPosition   `json:"position"`
	TargetSessionID string         `json:"target_session_id,omitempty"`
}
