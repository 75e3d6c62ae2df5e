package registry

import (
	"sort"
	"time"

	"github.com/termweave/backend/internal/domain/active"
	"github.com/termweave/backend/internal/shared/types"
)

// Capture produces a plain serializable copy of the registry state for
// the persistence collaborator. The registry performs no storage I/O.
func (m *Manager) Capture(tabOrder []string) types.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := types.Snapshot{
		Sessions:    make([]types.Session, 0, len(m.sessions)),
		Workspaces:  make([]types.Workspace, 0, len(m.workspaces)),
		TabOrder:    append([]string(nil), tabOrder...),
		ActiveTabID: m.activeTab.Get(),
		CapturedAt:  time.Now(),
	}
	for _, tid := range m.tabSeq {
		if sess, ok := m.sessions[tid]; ok {
			snap.Sessions = append(snap.Sessions, *sess)
		}
		if ws, ok := m.workspaces[tid]; ok {
			snap.Workspaces = append(snap.Workspaces, *ws)
		}
	}
	return snap
}

// Restore replaces the registry state with a previously captured
// snapshot. Restored sessions come back in connecting state; the terminal
// backend re-establishes their connections and reports status through the
// usual callback path.
func (m *Manager) Restore(snap types.Snapshot) {
	m.mu.Lock()

	m.sessions = make(map[string]*types.Session, len(snap.Sessions))
	m.workspaces = make(map[string]*types.Workspace, len(snap.Workspaces))
	m.tabSeq = m.tabSeq[:0]

	type entry struct {
		id      string
		created time.Time
	}
	entries := make([]entry, 0, len(snap.Sessions)+len(snap.Workspaces))

	for i := range snap.Sessions {
		sess := snap.Sessions[i]
		sess.Status = types.StatusConnecting
		m.sessions[sess.ID] = &sess
		entries = append(entries, entry{sess.ID, sess.CreatedAt})
	}
	for i := range snap.Workspaces {
		ws := snap.Workspaces[i]
		m.workspaces[ws.ID] = &ws
		entries = append(entries, entry{ws.ID, ws.CreatedAt})
	}

	// Recreate the creation sequence so "most recently added" fallback
	// survives a restart.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].created.Equal(entries[j].created) {
			return entries[i].id < entries[j].id
		}
		return entries[i].created.Before(entries[j].created)
	})
	for _, e := range entries {
		m.tabSeq = append(m.tabSeq, e.id)
	}

	activeID := snap.ActiveTabID
	valid := activeID == active.HomeTab
	if sess, ok := m.sessions[activeID]; ok && sess.WorkspaceID == nil {
		valid = true
	}
	if _, ok := m.workspaces[activeID]; ok {
		valid = true
	}
	if !valid {
		activeID = active.HomeTab
	}
	m.mu.Unlock()

	m.activeTab.Set(activeID)
	m.recordCounts()
}
