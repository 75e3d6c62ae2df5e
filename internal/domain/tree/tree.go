package tree

import (
	"github.com/google/uuid"

	"github.com/termweave/backend/internal/shared/types"
)

// newSplitID generates an id for a freshly created split node
func newSplitID() string {
	return "split_" + uuid.New().String()
}

// InsertPane returns a tree with a new pane for sessionID inserted at the
// hinted location. If the hint names a target leaf, that leaf is replaced by
// a two-child split; with no target the whole root is wrapped. The input
// tree is never mutated; unaffected subtrees are shared.
//
// Stale hints (unknown target) and duplicate session ids are no-ops that
// return the input root unchanged.
func InsertPane(root *types.Node, sessionID string, hint types.SplitHint) *types.Node {
	if root == nil || sessionID == "" {
		return root
	}
	if Contains(root, sessionID) {
		return root
	}

	if hint.TargetSessionID == "" {
		return wrap(root, sessionID, hint)
	}

	newRoot, replaced := replaceLeaf(root, hint.TargetSessionID, func(leaf *types.Node) *types.Node {
		return wrap(leaf, sessionID, hint)
	})
	if !replaced {
		return root
	}
	return newRoot
}

// wrap builds the two-child split that places a new pane next to an
// existing subtree, ordered by the hint's position.
func wrap(existing *types.Node, sessionID string, hint types.SplitHint) *types.Node {
	pane := types.Pane(sessionID)

	children := []*types.Node{existing, pane}
	if hint.Position.First() {
		children = []*types.Node{pane, existing}
	}

	direction := hint.Direction
	if direction == "" {
		direction = types.SplitVertical
	}

	return &types.Node{
		Kind:      types.KindSplit,
		ID:        newSplitID(),
		Direction: direction,
		Children:  children,
		Sizes:     []float64{0.5, 0.5},
	}
}

// replaceLeaf rebuilds the path from root to the leaf matching target,
// sharing all untouched subtrees. Returns the (possibly new) node and
// whether a replacement happened.
func replaceLeaf(node *types.Node, target string, build func(*types.Node) *types.Node) (*types.Node, bool) {
	if node.IsPane() {
		if node.SessionID == target {
			return build(node), true
		}
		return node, false
	}

	for i, child := range node.Children {
		newChild, ok := replaceLeaf(child, target, build)
		if !ok {
			continue
		}
		children := make([]*types.Node, len(node.Children))
		copy(children, node.Children)
		children[i] = newChild

		clone := *node
		clone.Children = children
		return &clone, true
	}
	return node, false
}

// Prune removes the leaf for sessionID. A parent split left with a single
// child is replaced by that child, so the tree never contains a unary
// split. Returns nil when the whole tree was removed, and the input root
// unchanged when the session is not present.
func Prune(root *types.Node, sessionID string) *types.Node {
	if root == nil {
		return nil
	}
	pruned, changed := prune(root, sessionID)
	if !changed {
		return root
	}
	return pruned
}

func prune(node *types.Node, sessionID string) (*types.Node, bool) {
	if node.IsPane() {
		if node.SessionID == sessionID {
			return nil, true
		}
		return node, false
	}

	for i, child := range node.Children {
		newChild, changed := prune(child, sessionID)
		if !changed {
			continue
		}

		hasSizes := len(node.Sizes) == len(node.Children)
		children := make([]*types.Node, 0, len(node.Children))
		sizes := make([]float64, 0, len(node.Children))

		for j, c := range node.Children {
			next := c
			if j == i {
				next = newChild
			}
			if next == nil {
				continue
			}
			children = append(children, next)
			if hasSizes {
				sizes = append(sizes, node.Sizes[j])
			}
		}

		// Collapse: never leave a unary split behind
		if len(children) == 1 {
			return children[0], true
		}

		clone := *node
		clone.Children = children
		if hasSizes {
			clone.Sizes = sizes
		}
		return &clone, true
	}
	return node, false
}

// Collect returns the pane session ids in pre-order (left-to-right,
// top-to-bottom document order). Stable under resizes; used for the
// first-session-to-focus choice and the focus-mode sidebar list.
func Collect(root *types.Node) []string {
	var ids []string
	var visit func(*types.Node)
	visit = func(n *types.Node) {
		if n == nil {
			return
		}
		if n.IsPane() {
			ids = append(ids, n.SessionID)
			return
		}
		for _, child := range n.Children {
			visit(child)
		}
	}
	visit(root)
	return ids
}

// Contains reports whether sessionID appears in a leaf of the tree
func Contains(root *types.Node, sessionID string) bool {
	if root == nil {
		return false
	}
	if root.IsPane() {
		return root.SessionID == sessionID
	}
	for _, child := range root.Children {
		if Contains(child, sessionID) {
			return true
		}
	}
	return false
}

// UpdateSplitSizes replaces the weights of the split with splitID,
// structurally sharing every other node. A missing split or a sizes slice
// whose length disagrees with the child count returns the root unchanged.
func UpdateSplitSizes(root *types.Node, splitID string, sizes []float64) *types.Node {
	if root == nil {
		return nil
	}
	newRoot, ok := updateSizes(root, splitID, sizes)
	if !ok {
		return root
	}
	return newRoot
}

func updateSizes(node *types.Node, splitID string, sizes []float64) (*types.Node, bool) {
	if node.IsPane() {
		return node, false
	}
	if node.ID == splitID {
		if len(sizes) != len(node.Children) {
			return node, false
		}
		clone := *node
		clone.Sizes = append([]float64(nil), sizes...)
		return &clone, true
	}
	for i, child := range node.Children {
		newChild, ok := updateSizes(child, splitID, sizes)
		if !ok {
			continue
		}
		children := make([]*types.Node, len(node.Children))
		copy(children, node.Children)
		children[i] = newChild

		clone := *node
		clone.Children = children
		return &clone, true
	}
	return node, false
}

// FindSplit returns the split node with splitID, or nil
func FindSplit(root *types.Node, splitID string) *types.Node {
	if root == nil || root.IsPane() {
		return nil
	}
	if root.ID == splitID {
		return root
	}
	for _, child := range root.Children {
		if found := FindSplit(child, splitID); found != nil {
			return found
		}
	}
	return nil
}
