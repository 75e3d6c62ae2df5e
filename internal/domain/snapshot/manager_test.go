package snapshot

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/termweave/backend/internal/domain/taborder"
	"github.com/termweave/backend/internal/shared/types"
)

type fakeRegistry struct {
	mu       sync.Mutex
	state    types.Snapshot
	restored *types.Snapshot
}

func (r *fakeRegistry) Capture(tabOrder []string) types.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.state
	snap.TabOrder = append([]string(nil), tabOrder...)
	return snap
}

func (r *fakeRegistry) Restore(snap types.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restored = &snap
}

func (r *fakeRegistry) LiveTabIDs() []string {
	return []string{"sess_a", "ws_1"}
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*types.SnapshotRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*types.SnapshotRecord)}
}

func (s *fakeStore) SaveSnapshot(_ context.Context, record *types.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *record
	s.records[record.ID] = &copy
	return nil
}

func (s *fakeStore) LoadSnapshot(_ context.Context, id string) (*types.SnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("not found: %s", id)
	}
	copy := *record
	return &copy, nil
}

func (s *fakeStore) DeleteSnapshot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *fakeStore) ListSnapshots(_ context.Context) ([]types.SnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SnapshotRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, nil
}

func testState() types.Snapshot {
	ws := "ws_1"
	return types.Snapshot{
		Sessions: []types.Session{
			{ID: "sess_a", Kind: types.ConnSSH, Status: types.StatusConnected},
			{ID: "sess_b", Kind: types.ConnSSH, Status: types.StatusConnected, WorkspaceID: &ws},
		},
		Workspaces: []types.Workspace{
			{ID: ws, Root: types.Pane("sess_b"), ViewMode: types.ViewSplit},
		},
		ActiveTabID: ws,
	}
}

func newTestManager() (*Manager, *fakeRegistry, *fakeStore) {
	registry := &fakeRegistry{state: testState()}
	store := newFakeStore()
	orders := taborder.NewManager(taborder.NewMemoryStore())
	return NewManager(registry, store, orders), registry, store
}

func TestSaveAndLoad(t *testing.T) {
	m, _, store := newTestManager()
	ctx := context.Background()

	record, err := m.Save(ctx, "evening", "before the migration")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if record.ID == "" || record.Name != "evening" {
		t.Errorf("unexpected record: %+v", record)
	}
	if len(record.Snapshot.Sessions) != 2 {
		t.Errorf("captured state incomplete: %+v", record.Snapshot)
	}
	if _, ok := store.records[record.ID]; !ok {
		t.Error("record not persisted to store")
	}

	loaded, err := m.Load(ctx, record.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "evening" {
		t.Errorf("loaded wrong record: %+v", loaded)
	}
}

func TestLoadMissesCacheFallsToStore(t *testing.T) {
	m, _, store := newTestManager()
	ctx := context.Background()

	record, _ := m.Save(ctx, "x", "")
	// Fresh manager, cold cache, same store.
	registry := &fakeRegistry{state: testState()}
	fresh := NewManager(registry, store, taborder.NewManager(taborder.NewMemoryStore()))

	loaded, err := fresh.Load(ctx, record.ID)
	if err != nil {
		t.Fatalf("Load from store failed: %v", err)
	}
	if loaded.ID != record.ID {
		t.Errorf("wrong record loaded: %s", loaded.ID)
	}

	if _, err := fresh.Load(ctx, "snap_missing"); err == nil {
		t.Error("unknown id should fail")
	}
}

func TestRestoreAppliesStateAndOrder(t *testing.T) {
	m, registry, _ := newTestManager()
	ctx := context.Background()

	record, _ := m.Save(ctx, "x", "")
	if err := m.Restore(ctx, record.ID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	registry.mu.Lock()
	restored := registry.restored
	registry.mu.Unlock()
	if restored == nil {
		t.Fatal("registry state not restored")
	}
	if restored.ActiveTabID != "ws_1" {
		t.Errorf("active tab lost: %s", restored.ActiveTabID)
	}
	if len(restored.TabOrder) != 2 {
		t.Errorf("tab order lost: %v", restored.TabOrder)
	}

	stats := m.Stats()
	if stats.LastRestored == nil {
		t.Error("LastRestored not recorded")
	}
}

func TestDelete(t *testing.T) {
	m, _, store := newTestManager()
	ctx := context.Background()

	record, _ := m.Save(ctx, "x", "")
	if err := m.Delete(ctx, record.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := store.records[record.ID]; ok {
		t.Error("record still in store")
	}
	if _, err := m.Load(ctx, record.ID); err == nil {
		t.Error("deleted record should not load")
	}
}

func TestList(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	m.Save(ctx, "one", "")
	m.Save(ctx, "two", "")

	metadata, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metadata) != 2 {
		t.Fatalf("expected 2 records, got %d", len(metadata))
	}
	for _, meta := range metadata {
		if meta.Sessions != 2 || meta.Workspaces != 1 {
			t.Errorf("metadata counts wrong: %+v", meta)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	m, _, _ := newTestManager()
	ctx := context.Background()

	record, _ := m.Save(ctx, "portable", "travels well")
	data, err := m.Export(ctx, record.ID)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty export")
	}

	imported, err := m.Import(ctx, data)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if imported.ID == record.ID {
		t.Error("import must assign a fresh id")
	}
	if imported.Name != "portable" {
		t.Errorf("name lost on import: %s", imported.Name)
	}
	if len(imported.Snapshot.Sessions) != len(record.Snapshot.Sessions) {
		t.Error("embedded state lost on import")
	}

	if _, err := m.Import(ctx, []byte("not gzip")); err == nil {
		t.Error("garbage input should fail")
	}
}
