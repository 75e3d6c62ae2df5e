//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termweave/backend/internal/domain/active"
	"github.com/termweave/backend/internal/domain/registry"
	"github.com/termweave/backend/internal/domain/snapshot"
	"github.com/termweave/backend/internal/domain/taborder"
	"github.com/termweave/backend/internal/domain/tree"
	"github.com/termweave/backend/internal/infrastructure/logging"
	"github.com/termweave/backend/internal/providers/store"
	"github.com/termweave/backend/internal/providers/terminal"
	"github.com/termweave/backend/internal/shared/types"
)

type stack struct {
	activeTab *active.Store
	registry  *registry.Manager
	mux       *terminal.Mux
	orders    *taborder.Manager
	snapshots *snapshot.Manager
	storage   *store.Provider
}

func newStack(t *testing.T, dbPath string) *stack {
	t.Helper()

	activeTab := active.NewStore()
	t.Cleanup(activeTab.Close)
	reg := registry.NewManager(activeTab)

	mux := terminal.NewMux(5*time.Second, logging.NewDefault())
	mux.Register(terminal.NewLocal("/bin/sh", 64*1024))
	mux.OnStatusChange(func(sessionID string, status types.Status) {
		reg.SetStatus(sessionID, status)
	})
	t.Cleanup(mux.CloseAll)

	storage, err := store.New(dbPath, logging.NewDefault())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	orders := taborder.NewManager(storage)
	snapshots := snapshot.NewManager(reg, storage, orders)

	return &stack{
		activeTab: activeTab,
		registry:  reg,
		mux:       mux,
		orders:    orders,
		snapshots: snapshots,
		storage:   storage,
	}
}

func waitConnected(t *testing.T, s *stack, sessionID string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if sess, ok := s.registry.Get(sessionID); ok && sess.Status == types.StatusConnected {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("session %s never connected", sessionID)
}

func TestLocalTerminalRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := newStack(t, filepath.Join(t.TempDir(), "it.db"))
	ctx := context.Background()

	sess := s.registry.Connect(types.ConnectRequest{Kind: types.ConnLocal})
	s.mux.Connect(ctx, *sess)
	waitConnected(t, s, sess.ID)

	require.NoError(t, s.mux.Write(sess.ID, []byte("echo weave-$((20+3))\n")))

	deadline := time.Now().Add(5 * time.Second)
	var output []byte
	for time.Now().Before(deadline) {
		chunk, err := s.mux.Read(sess.ID)
		require.NoError(t, err)
		output = append(output, chunk...)
		if bytes.Contains(output, []byte("weave-23")) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.True(t, bytes.Contains(output, []byte("weave-23")), "expected command output, got %q", output)
}

func TestWorkspaceLifecycleWithPersistence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "it.db")
	s := newStack(t, dbPath)
	ctx := context.Background()

	// Two shells combined into a workspace, one split off.
	first := s.registry.Connect(types.ConnectRequest{Kind: types.ConnLocal})
	second := s.registry.Connect(types.ConnectRequest{Kind: types.ConnLocal})
	s.mux.Connect(ctx, *first)
	s.mux.Connect(ctx, *second)
	waitConnected(t, s, first.ID)
	waitConnected(t, s, second.ID)

	ws, ok := s.registry.CreateWorkspace(first.ID, second.ID, types.SplitHint{
		Direction: types.SplitVertical,
		Position:  types.PositionRight,
	})
	require.True(t, ok)
	assert.Len(t, tree.Collect(ws.Root), 2)

	// Save, mutate, restore.
	record, err := s.snapshots.Save(ctx, "integration", "")
	require.NoError(t, err)

	require.True(t, s.registry.CloseWorkspace(ws.ID))
	assert.Empty(t, s.registry.List())

	require.NoError(t, s.snapshots.Restore(ctx, record.ID))
	sessions := s.registry.List()
	require.Len(t, sessions, 2)
	for _, sess := range sessions {
		assert.Equal(t, types.StatusConnecting, sess.Status)
	}

	restored, ok := s.registry.GetWorkspace(ws.ID)
	require.True(t, ok)
	assert.Len(t, tree.Collect(restored.Root), 2)

	// The snapshot survives a process restart.
	fresh := newStack(t, dbPath)
	metadata, err := fresh.snapshots.List(ctx)
	require.NoError(t, err)
	require.Len(t, metadata, 1)
	assert.Equal(t, "integration", metadata[0].Name)

	require.NoError(t, fresh.snapshots.Restore(ctx, record.ID))
	assert.Len(t, fresh.registry.List(), 2)
}

func TestTabOrderPersistsAcrossRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "it.db")
	s := newStack(t, dbPath)

	a := s.registry.Connect(types.ConnectRequest{Kind: types.ConnLocal})
	b := s.registry.Connect(types.ConnectRequest{Kind: types.ConnLocal})
	c := s.registry.Connect(types.ConnectRequest{Kind: types.ConnLocal})

	live := s.registry.LiveTabIDs()
	_, moved := s.orders.Reorder(live, c.ID, a.ID, taborder.Before)
	require.True(t, moved)

	fresh := newStack(t, dbPath)
	order := fresh.orders.Effective([]string{a.ID, b.ID, c.ID})
	require.Len(t, order, 3)
	assert.Equal(t, c.ID, order[0])
	assert.Equal(t, a.ID, order[1])
}
