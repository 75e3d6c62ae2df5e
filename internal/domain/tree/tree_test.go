package tree

import (
	"reflect"
	"testing"

	"github.com/termweave/backend/internal/shared/types"
)

// checkInvariants walks the tree and fails on any structural violation.
func checkInvariants(t *testing.T, node *types.Node) {
	t.Helper()
	if node == nil || node.IsPane() {
		return
	}
	if len(node.Children) < 2 {
		t.Fatalf("split %s has %d children, want >= 2", node.ID, len(node.Children))
	}
	if len(node.Sizes) != 0 && len(node.Sizes) != len(node.Children) {
		t.Fatalf("split %s has %d sizes for %d children", node.ID, len(node.Sizes), len(node.Children))
	}
	for _, child := range node.Children {
		checkInvariants(t, child)
	}
}

func TestInsertPaneWrapsRoot(t *testing.T) {
	root := types.Pane("s1")

	newRoot := InsertPane(root, "s2", types.SplitHint{
		Direction: types.SplitVertical,
		Position:  types.PositionRight,
	})

	checkInvariants(t, newRoot)
	if !newRoot.IsSplit() {
		t.Fatal("expected root to become a split")
	}
	if got := Collect(newRoot); !reflect.DeepEqual(got, []string{"s1", "s2"}) {
		t.Errorf("expected [s1 s2], got %v", got)
	}
	if !reflect.DeepEqual(newRoot.Sizes, []float64{0.5, 0.5}) {
		t.Errorf("expected equal weights, got %v", newRoot.Sizes)
	}
}

func TestInsertPanePositionOrdering(t *testing.T) {
	tests := []struct {
		position types.DropPosition
		want     []string
	}{
		{types.PositionLeft, []string{"new", "s1"}},
		{types.PositionTop, []string{"new", "s1"}},
		{types.PositionRight, []string{"s1", "new"}},
		{types.PositionBottom, []string{"s1", "new"}},
	}

	for _, tt := range tests {
		root := InsertPane(types.Pane("s1"), "new", types.SplitHint{
			Direction: types.SplitHorizontal,
			Position:  tt.position,
		})
		if got := Collect(root); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("position %s: expected %v, got %v", tt.position, tt.want, got)
		}
	}
}

func TestInsertPaneAtTargetLeaf(t *testing.T) {
	root := InsertPane(types.Pane("s1"), "s2", types.SplitHint{
		Direction: types.SplitVertical,
		Position:  types.PositionRight,
	})

	// Split s2 downward: s2's leaf becomes a horizontal split
	newRoot := InsertPane(root, "s3", types.SplitHint{
		Direction:       types.SplitHorizontal,
		Position:        types.PositionBottom,
		TargetSessionID: "s2",
	})

	checkInvariants(t, newRoot)
	if got := Collect(newRoot); !reflect.DeepEqual(got, []string{"s1", "s2", "s3"}) {
		t.Errorf("expected [s1 s2 s3], got %v", got)
	}

	inner := newRoot.Children[1]
	if !inner.IsSplit() || inner.Direction != types.SplitHorizontal {
		t.Fatalf("expected horizontal split at target position, got %+v", inner)
	}

	// Original tree untouched (immutability)
	if got := Collect(root); !reflect.DeepEqual(got, []string{"s1", "s2"}) {
		t.Errorf("input tree was mutated: %v", got)
	}
}

func TestInsertPaneNoOps(t *testing.T) {
	root := InsertPane(types.Pane("s1"), "s2", types.SplitHint{Position: types.PositionRight})

	// Unknown target
	if got := InsertPane(root, "s3", types.SplitHint{TargetSessionID: "missing"}); got != root {
		t.Error("unknown target should return the tree unchanged")
	}

	// Duplicate membership
	if got := InsertPane(root, "s1", types.SplitHint{TargetSessionID: "s2"}); got != root {
		t.Error("duplicate session id should return the tree unchanged")
	}

	// Nil root
	if got := InsertPane(nil, "s3", types.SplitHint{}); got != nil {
		t.Error("nil root should stay nil")
	}
}

func TestPruneCollapsesUnarySplit(t *testing.T) {
	root := InsertPane(types.Pane("s1"), "s2", types.SplitHint{Position: types.PositionRight})

	pruned := Prune(root, "s2")

	checkInvariants(t, pruned)
	if !pruned.IsPane() || pruned.SessionID != "s1" {
		t.Fatalf("expected lone pane s1, got %+v", pruned)
	}
}

func TestPruneRootLeaf(t *testing.T) {
	if got := Prune(types.Pane("s1"), "s1"); got != nil {
		t.Errorf("pruning the only pane should yield nil, got %+v", got)
	}
}

func TestPruneKeepsSiblingWeights(t *testing.T) {
	root := &types.Node{
		Kind:      types.KindSplit,
		ID:        "split-a",
		Direction: types.SplitVertical,
		Children:  []*types.Node{types.Pane("s1"), types.Pane("s2"), types.Pane("s3")},
		Sizes:     []float64{0.2, 0.3, 0.5},
	}

	pruned := Prune(root, "s2")

	checkInvariants(t, pruned)
	if got := Collect(pruned); !reflect.DeepEqual(got, []string{"s1", "s3"}) {
		t.Fatalf("expected [s1 s3], got %v", got)
	}
	if !reflect.DeepEqual(pruned.Sizes, []float64{0.2, 0.5}) {
		t.Errorf("expected surviving weights [0.2 0.5], got %v", pruned.Sizes)
	}
}

func TestPruneMissingSessionIsNoOp(t *testing.T) {
	root := InsertPane(types.Pane("s1"), "s2", types.SplitHint{Position: types.PositionRight})

	if got := Prune(root, "missing"); got != root {
		t.Error("pruning a missing session should return the tree unchanged")
	}
}

func TestInsertPruneRoundTrip(t *testing.T) {
	root := InsertPane(types.Pane("s1"), "s2", types.SplitHint{Position: types.PositionRight})
	before := Collect(root)

	grown := InsertPane(root, "s3", types.SplitHint{
		Direction:       types.SplitHorizontal,
		Position:        types.PositionBottom,
		TargetSessionID: "s1",
	})
	back := Prune(grown, "s3")

	checkInvariants(t, back)
	if got := Collect(back); !reflect.DeepEqual(got, before) {
		t.Errorf("round trip changed pane order: before %v, after %v", before, got)
	}
}

func TestCollectPreOrder(t *testing.T) {
	root := &types.Node{
		Kind:      types.KindSplit,
		ID:        "outer",
		Direction: types.SplitVertical,
		Children: []*types.Node{
			types.Pane("s1"),
			{
				Kind:      types.KindSplit,
				ID:        "inner",
				Direction: types.SplitHorizontal,
				Children:  []*types.Node{types.Pane("s2"), types.Pane("s3")},
			},
		},
	}

	if got := Collect(root); !reflect.DeepEqual(got, []string{"s1", "s2", "s3"}) {
		t.Errorf("expected document order [s1 s2 s3], got %v", got)
	}
}

func TestUpdateSplitSizes(t *testing.T) {
	root := InsertPane(types.Pane("s1"), "s2", types.SplitHint{Position: types.PositionRight})
	splitID := root.ID

	updated := UpdateSplitSizes(root, splitID, []float64{0.7, 0.3})

	if !reflect.DeepEqual(updated.Sizes, []float64{0.7, 0.3}) {
		t.Errorf("expected new sizes, got %v", updated.Sizes)
	}
	// Children are shared, not copied
	if updated.Children[0] != root.Children[0] || updated.Children[1] != root.Children[1] {
		t.Error("unaffected children should be structurally shared")
	}
	// Input untouched
	if !reflect.DeepEqual(root.Sizes, []float64{0.5, 0.5}) {
		t.Errorf("input tree was mutated: %v", root.Sizes)
	}
}

func TestUpdateSplitSizesNoOps(t *testing.T) {
	root := InsertPane(types.Pane("s1"), "s2", types.SplitHint{Position: types.PositionRight})

	if got := UpdateSplitSizes(root, "missing", []float64{0.5, 0.5}); got != root {
		t.Error("unknown split id should return the tree unchanged")
	}
	if got := UpdateSplitSizes(root, root.ID, []float64{1.0}); got != root {
		t.Error("mismatched sizes length should return the tree unchanged")
	}
}

func TestFindSplit(t *testing.T) {
	root := InsertPane(types.Pane("s1"), "s2", types.SplitHint{Position: types.PositionRight})
	grown := InsertPane(root, "s3", types.SplitHint{
		Position:        types.PositionBottom,
		Direction:       types.SplitHorizontal,
		TargetSessionID: "s2",
	})

	inner := grown.Children[1]
	if found := FindSplit(grown, inner.ID); found != inner {
		t.Error("expected to find the inner split by id")
	}
	if found := FindSplit(grown, "missing"); found != nil {
		t.Error("expected nil for unknown split id")
	}
}

func TestInvariantsUnderMixedSequence(t *testing.T) {
	// Grow a tree through a mix of targeted and root inserts, then shrink it
	// back down, checking invariants at every step.
	root := types.Pane("a")
	steps := []struct {
		session string
		hint    types.SplitHint
	}{
		{"b", types.SplitHint{Direction: types.SplitVertical, Position: types.PositionRight}},
		{"c", types.SplitHint{Direction: types.SplitHorizontal, Position: types.PositionBottom, TargetSessionID: "a"}},
		{"d", types.SplitHint{Direction: types.SplitHorizontal, Position: types.PositionTop, TargetSessionID: "b"}},
		{"e", types.SplitHint{Direction: types.SplitVertical, Position: types.PositionLeft}},
	}

	current := root
	for _, step := range steps {
		current = InsertPane(current, step.session, step.hint)
		checkInvariants(t, current)
	}

	if got := len(Collect(current)); got != 5 {
		t.Fatalf("expected 5 panes, got %d", got)
	}

	for _, sess := range []string{"c", "a", "e", "d"} {
		current = Prune(current, sess)
		checkInvariants(t, current)
	}

	if !current.IsPane() || current.SessionID != "b" {
		t.Fatalf("expected survivor pane b, got %+v", current)
	}
}
