package registry

import (
	"sync"
	"time"

	"github.com/termweave/backend/internal/domain/active"
	"github.com/termweave/backend/internal/domain/layout"
	"github.com/termweave/backend/internal/domain/tree"
	"github.com/termweave/backend/internal/infrastructure/monitoring"
	"github.com/termweave/backend/internal/shared/id"
	"github.com/termweave/backend/internal/shared/types"
)

// Manager owns the flat session collection and the workspace records, and
// orchestrates the lifecycle operations that combine tree edits with
// membership bookkeeping and active-tab updates.
//
// Every mutation is defensive: operating on a nonexistent id, an
// already-member session, or an empty target list is a no-op that leaves
// state unchanged. These originate from drag/drop gestures that can race
// with concurrent state changes and must never crash the interaction.
type Manager struct {
	mu         sync.RWMutex
	sessions   map[string]*types.Session   // Protected by mu
	workspaces map[string]*types.Workspace // Protected by mu
	tabSeq     []string                    // Creation order of tab-capable ids, protected by mu
	activeTab  *active.Store
	metrics    *monitoring.Metrics
}

// NewManager creates a session registry writing active-tab changes to store
func NewManager(store *active.Store) *Manager {
	return &Manager{
		sessions:   make(map[string]*types.Session),
		workspaces: make(map[string]*types.Workspace),
		activeTab:  store,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Connect creates a new standalone session in connecting state and makes
// it the active tab. The live connection is established by the terminal
// backend; the registry only records the resulting status transitions.
func (m *Manager) Connect(req types.ConnectRequest) *types.Session {
	sess := &types.Session{
		ID:        id.NewSessionID().String(),
		Kind:      req.Kind,
		Params:    req.Params.Clone(),
		Title:     req.Title,
		Status:    types.StatusConnecting,
		CreatedAt: time.Now(),
	}
	if sess.Title == "" {
		sess.Title = defaultTitle(req.Kind, req.Params)
	}
	if req.StartupCommand != "" {
		cmd := req.StartupCommand
		sess.StartupCommand = &cmd
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.tabSeq = append(m.tabSeq, sess.ID)
	m.mu.Unlock()

	m.activeTab.Set(sess.ID)
	if m.metrics != nil {
		m.metrics.IncSessionsOpened(string(sess.Kind))
	}
	m.recordCounts()

	sessCopy := *sess
	return &sessCopy
}

// Get retrieves a session by id, returning a copy
func (m *Manager) Get(sessionID string) (*types.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	sessCopy := *sess
	return &sessCopy, true
}

// GetWorkspace retrieves a workspace by id, returning a copy. The tree is
// shared between the copy and the registry; it is immutable, so callers
// cannot corrupt registry state through it.
func (m *Manager) GetWorkspace(workspaceID string) (*types.Workspace, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return nil, false
	}
	wsCopy := *ws
	return &wsCopy, true
}

// List returns all sessions as copies in creation order
func (m *Manager) List() []*types.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.Session, 0, len(m.sessions))
	for _, tid := range m.tabSeq {
		if sess, ok := m.sessions[tid]; ok {
			sessCopy := *sess
			out = append(out, &sessCopy)
		}
	}
	return out
}

// ListWorkspaces returns all workspaces as copies in creation order
func (m *Manager) ListWorkspaces() []*types.Workspace {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.Workspace, 0, len(m.workspaces))
	for _, tid := range m.tabSeq {
		if ws, ok := m.workspaces[tid]; ok {
			wsCopy := *ws
			out = append(out, &wsCopy)
		}
	}
	return out
}

// LiveTabIDs returns the tab-capable ids (orphan sessions and workspaces)
// in creation order. This is the live set the tab order reconciles against.
func (m *Manager) LiveTabIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.liveTabIDsLocked()
}

// SetStatus records a status transition reported by the terminal backend.
// The tree and workspace structure are untouched; a disconnected pane
// stays visible and closable like any other.
func (m *Manager) SetStatus(sessionID string, status types.Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return false
	}
	sess.Status = status
	return true
}

// CreateWorkspace combines two orphan sessions into a new workspace with a
// two-pane tree and makes the workspace the active tab. Rejects identical
// ids and sessions that already belong to a workspace.
func (m *Manager) CreateWorkspace(baseSessionID, joiningSessionID string, hint types.SplitHint) (*types.Workspace, bool) {
	if baseSessionID == joiningSessionID {
		return nil, false
	}

	m.mu.Lock()
	base, ok := m.sessions[baseSessionID]
	if !ok || base.WorkspaceID != nil {
		m.mu.Unlock()
		return nil, false
	}
	joining, ok := m.sessions[joiningSessionID]
	if !ok || joining.WorkspaceID != nil {
		m.mu.Unlock()
		return nil, false
	}

	// The fresh tree is built by wrapping the base pane, so any target
	// carried by the drag hint is irrelevant here.
	hint.TargetSessionID = ""
	root := tree.InsertPane(types.Pane(baseSessionID), joiningSessionID, hint)

	ws := &types.Workspace{
		ID:        id.NewWorkspaceID().String(),
		Root:      root,
		Title:     base.Title,
		ViewMode:  types.ViewSplit,
		CreatedAt: time.Now(),
	}
	m.workspaces[ws.ID] = ws
	base.WorkspaceID = &ws.ID
	joining.WorkspaceID = &ws.ID
	m.tabSeq = append(m.tabSeq, ws.ID)
	m.mu.Unlock()

	m.activeTab.Set(ws.ID)
	if m.metrics != nil {
		m.metrics.IncWorkspacesCreated()
	}
	m.recordCounts()

	wsCopy := *ws
	return &wsCopy, true
}

// AddToWorkspace inserts an orphan session into an existing workspace's
// tree at the hinted location and makes the workspace active
func (m *Manager) AddToWorkspace(workspaceID, sessionID string, hint types.SplitHint) bool {
	m.mu.Lock()
	ws, ok := m.workspaces[workspaceID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	sess, ok := m.sessions[sessionID]
	if !ok || sess.WorkspaceID != nil {
		m.mu.Unlock()
		return false
	}

	newRoot := tree.InsertPane(ws.Root, sessionID, hint)
	if !tree.Contains(newRoot, sessionID) {
		// Stale hint named a pane no longer in the tree
		m.mu.Unlock()
		return false
	}
	ws.Root = newRoot
	sess.WorkspaceID = &ws.ID
	m.mu.Unlock()

	m.activeTab.Set(workspaceID)
	m.recordCounts()
	return true
}

// SplitStandalone duplicates an orphan session's connection parameters
// into a fresh connecting session and creates a two-pane workspace around
// the pair. The new workspace becomes the active tab.
func (m *Manager) SplitStandalone(sessionID string, direction types.SplitDirection) (*types.Session, bool) {
	m.mu.Lock()
	orig, ok := m.sessions[sessionID]
	if !ok || orig.WorkspaceID != nil {
		m.mu.Unlock()
		return nil, false
	}

	clone := duplicate(orig)
	root := tree.InsertPane(types.Pane(sessionID), clone.ID, defaultSplitHint(sessionID, direction))

	ws := &types.Workspace{
		ID:        id.NewWorkspaceID().String(),
		Root:      root,
		Title:     orig.Title,
		ViewMode:  types.ViewSplit,
		CreatedAt: time.Now(),
	}
	m.sessions[clone.ID] = clone
	m.workspaces[ws.ID] = ws
	orig.WorkspaceID = &ws.ID
	clone.WorkspaceID = &ws.ID
	m.tabSeq = append(m.tabSeq, clone.ID, ws.ID)
	m.mu.Unlock()

	m.activeTab.Set(ws.ID)
	if m.metrics != nil {
		m.metrics.IncSessionsOpened(string(clone.Kind))
		m.metrics.IncWorkspacesCreated()
	}
	m.recordCounts()

	cloneCopy := *clone
	return &cloneCopy, true
}

// SplitWithinWorkspace duplicates a member session's connection parameters
// and inserts the clone next to the original inside its workspace
func (m *Manager) SplitWithinWorkspace(sessionID string, direction types.SplitDirection) (*types.Session, bool) {
	m.mu.Lock()
	orig, ok := m.sessions[sessionID]
	if !ok || orig.WorkspaceID == nil {
		m.mu.Unlock()
		return nil, false
	}
	ws, ok := m.workspaces[*orig.WorkspaceID]
	if !ok {
		m.mu.Unlock()
		return nil, false
	}

	clone := duplicate(orig)
	newRoot := tree.InsertPane(ws.Root, clone.ID, defaultSplitHint(sessionID, direction))
	if !tree.Contains(newRoot, clone.ID) {
		m.mu.Unlock()
		return nil, false
	}

	ws.Root = newRoot
	clone.WorkspaceID = &ws.ID
	m.sessions[clone.ID] = clone
	m.tabSeq = append(m.tabSeq, clone.ID)
	m.mu.Unlock()

	m.recordCounts()

	cloneCopy := *clone
	return &cloneCopy, true
}

// CloseSession removes a session; if it belonged to a workspace the
// workspace's tree is pruned. Three post-prune cases: two or more panes
// remain and the workspace persists; exactly one pane remains and the
// workspace dissolves, the survivor reverting to an orphan tab; no panes
// remain and the workspace record is deleted. The active tab falls back
// whenever the removal invalidated it.
func (m *Manager) CloseSession(sessionID string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.sessions, sessionID)

	invalid := map[string]bool{sessionID: true}
	survivor := ""

	if sess.WorkspaceID != nil {
		if ws, ok := m.workspaces[*sess.WorkspaceID]; ok {
			newRoot := tree.Prune(ws.Root, sessionID)
			remaining := tree.Collect(newRoot)

			switch {
			case len(remaining) >= 2:
				ws.Root = newRoot
				if ws.FocusedSessionID != nil && *ws.FocusedSessionID == sessionID {
					ws.FocusedSessionID = nil
				}
			case len(remaining) == 1:
				// Dissolve: the lone survivor becomes an orphan again
				delete(m.workspaces, ws.ID)
				invalid[ws.ID] = true
				if last, ok := m.sessions[remaining[0]]; ok {
					last.WorkspaceID = nil
					survivor = last.ID
				}
			default:
				delete(m.workspaces, ws.ID)
				invalid[ws.ID] = true
			}
		}
	}

	next, changed := m.fallbackLocked(invalid, survivor)
	m.mu.Unlock()

	if changed {
		m.activeTab.Set(next)
	}
	m.recordCounts()
	return true
}

// CloseWorkspace removes a workspace and every member session. Sessions
// inside a workspace have no independent existence once it is gone.
func (m *Manager) CloseWorkspace(workspaceID string) bool {
	m.mu.Lock()
	ws, ok := m.workspaces[workspaceID]
	if !ok {
		m.mu.Unlock()
		return false
	}

	invalid := map[string]bool{workspaceID: true}
	for sid, sess := range m.sessions {
		if sess.WorkspaceID != nil && *sess.WorkspaceID == workspaceID {
			delete(m.sessions, sid)
			invalid[sid] = true
		}
	}
	delete(m.workspaces, ws.ID)

	next, changed := m.fallbackLocked(invalid, "")
	m.mu.Unlock()

	if changed {
		m.activeTab.Set(next)
	}
	m.recordCounts()
	return true
}

// RunOnHosts creates one connecting session per target host, all sharing
// the template's startup command, grouped under a new focus-mode
// workspace. The focused session is left unset; consumers pick the first
// pane in document order.
func (m *Manager) RunOnHosts(template types.RunTemplate, hosts []types.HostTarget) (*types.Workspace, bool) {
	if len(hosts) == 0 {
		return nil, false
	}

	m.mu.Lock()
	ws := &types.Workspace{
		ID:        id.NewWorkspaceID().String(),
		Title:     template.Title,
		ViewMode:  types.ViewFocus,
		CreatedAt: time.Now(),
	}
	if template.SnippetID != "" {
		snippet := template.SnippetID
		ws.SnippetID = &snippet
	}

	for _, host := range hosts {
		cmd := template.Command
		sess := &types.Session{
			ID:             id.NewSessionID().String(),
			Kind:           host.Kind,
			Params:         host.Params.Clone(),
			Title:          host.Name,
			Status:         types.StatusConnecting,
			WorkspaceID:    &ws.ID,
			StartupCommand: &cmd,
			CreatedAt:      time.Now(),
		}
		m.sessions[sess.ID] = sess
		m.tabSeq = append(m.tabSeq, sess.ID)

		if ws.Root == nil {
			ws.Root = types.Pane(sess.ID)
		} else {
			ws.Root = tree.InsertPane(ws.Root, sess.ID, types.SplitHint{
				Direction: types.SplitVertical,
				Position:  types.PositionRight,
			})
		}
	}

	m.workspaces[ws.ID] = ws
	m.tabSeq = append(m.tabSeq, ws.ID)
	m.mu.Unlock()

	m.activeTab.Set(ws.ID)
	if m.metrics != nil {
		for _, host := range hosts {
			m.metrics.IncSessionsOpened(string(host.Kind))
		}
		m.metrics.IncWorkspacesCreated()
	}
	m.recordCounts()

	wsCopy := *ws
	return &wsCopy, true
}

// ToggleViewMode flips a workspace between split and focus view. Entering
// focus mode with no focused session selects the first pane in document
// order.
func (m *Manager) ToggleViewMode(workspaceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return false
	}

	if ws.ViewMode == types.ViewSplit {
		ws.ViewMode = types.ViewFocus
		if ws.FocusedSessionID == nil {
			if ids := tree.Collect(ws.Root); len(ids) > 0 {
				first := ids[0]
				ws.FocusedSessionID = &first
			}
		}
	} else {
		ws.ViewMode = types.ViewSplit
	}
	return true
}

// SetFocused records an explicit focus selection inside a workspace
func (m *Manager) SetFocused(workspaceID, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok || !tree.Contains(ws.Root, sessionID) {
		return false
	}
	ws.FocusedSessionID = &sessionID
	return true
}

// MoveFocus moves a workspace's focus to the nearest pane in the given
// direction, seeded from the current focused session or the first pane.
// Returns false when no neighbor exists in that direction.
func (m *Manager) MoveFocus(workspaceID string, direction types.FocusDirection, size types.Size) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return false
	}

	current := ""
	if ws.FocusedSessionID != nil {
		current = *ws.FocusedSessionID
	} else if ids := tree.Collect(ws.Root); len(ids) > 0 {
		current = ids[0]
	}

	next := layout.NextFocus(ws.Root, current, direction, size)
	if next == "" {
		return false
	}
	ws.FocusedSessionID = &next
	return true
}

// Resize applies a drag delta to one split boundary of a workspace's tree
func (m *Manager) Resize(workspaceID string, req types.ResizeRequest) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return false
	}
	newRoot := layout.ApplyResize(ws.Root, req.SplitID, req.Index, req.Delta, req.Size)
	if newRoot == ws.Root {
		return false
	}
	ws.Root = newRoot
	return true
}

// UpdateSplitSizes replaces one split's weights directly
func (m *Manager) UpdateSplitSizes(workspaceID, splitID string, sizes []float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workspaces[workspaceID]
	if !ok {
		return false
	}
	newRoot := tree.UpdateSplitSizes(ws.Root, splitID, sizes)
	if newRoot == ws.Root {
		return false
	}
	ws.Root = newRoot
	return true
}

// SelectTab makes a tab the active selection. Valid targets are orphan
// sessions, workspaces, and the home sentinel.
func (m *Manager) SelectTab(tabID string) bool {
	if tabID == active.HomeTab {
		m.activeTab.Set(tabID)
		return true
	}

	m.mu.RLock()
	valid := false
	if sess, ok := m.sessions[tabID]; ok {
		valid = sess.WorkspaceID == nil
	} else if _, ok := m.workspaces[tabID]; ok {
		valid = true
	}
	m.mu.RUnlock()

	if !valid {
		return false
	}
	m.activeTab.Set(tabID)
	return true
}

// Stats returns registry statistics
func (m *Manager) Stats() types.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var connected, orphans int
	for _, sess := range m.sessions {
		if sess.Status == types.StatusConnected {
			connected++
		}
		if sess.WorkspaceID == nil {
			orphans++
		}
	}
	return types.Stats{
		TotalSessions:     len(m.sessions),
		ConnectedSessions: connected,
		Workspaces:        len(m.workspaces),
		Orphans:           orphans,
		ActiveTabID:       m.activeTab.Get(),
	}
}

// liveTabIDsLocked filters the creation sequence down to ids that are
// still top-level tabs. Must hold mu.
func (m *Manager) liveTabIDsLocked() []string {
	out := make([]string, 0, len(m.tabSeq))
	for _, tid := range m.tabSeq {
		if sess, ok := m.sessions[tid]; ok {
			if sess.WorkspaceID == nil {
				out = append(out, tid)
			}
			continue
		}
		if _, ok := m.workspaces[tid]; ok {
			out = append(out, tid)
		}
	}
	return out
}

// fallbackLocked recomputes the active tab after a removal invalidated a
// set of ids. Preference order: the dissolve survivor, the most recently
// added remaining workspace, the most recently added remaining orphan,
// the home sentinel. Must hold mu; returns the replacement and whether
// the active tab needs rewriting.
func (m *Manager) fallbackLocked(invalid map[string]bool, survivor string) (string, bool) {
	if !invalid[m.activeTab.Get()] {
		return "", false
	}
	if survivor != "" {
		return survivor, true
	}
	for i := len(m.tabSeq) - 1; i >= 0; i-- {
		if _, ok := m.workspaces[m.tabSeq[i]]; ok {
			return m.tabSeq[i], true
		}
	}
	for i := len(m.tabSeq) - 1; i >= 0; i-- {
		if sess, ok := m.sessions[m.tabSeq[i]]; ok && sess.WorkspaceID == nil {
			return m.tabSeq[i], true
		}
	}
	return active.HomeTab, true
}

// duplicate copies a session's connection parameters into a fresh
// connecting session. The live connection and the one-shot startup
// command are not carried over.
func duplicate(orig *types.Session) *types.Session {
	return &types.Session{
		ID:        id.NewSessionID().String(),
		Kind:      orig.Kind,
		Params:    orig.Params.Clone(),
		Title:     orig.Title,
		Status:    types.StatusConnecting,
		CreatedAt: time.Now(),
	}
}

// defaultSplitHint targets the originating session, placing the clone
// below for horizontal splits and to the right for vertical ones
func defaultSplitHint(sessionID string, direction types.SplitDirection) types.SplitHint {
	pos := types.PositionRight
	if direction == types.SplitHorizontal {
		pos = types.PositionBottom
	}
	return types.SplitHint{
		Direction:       direction,
		Position:        pos,
		TargetSessionID: sessionID,
	}
}

func defaultTitle(kind types.ConnectionKind, params types.ConnectionParams) string {
	if params.Host != "" {
		return params.Host
	}
	return string(kind)
}

func (m *Manager) recordCounts() {
	if m.metrics == nil {
		return
	}
	m.mu.RLock()
	sessions := len(m.sessions)
	workspaces := len(m.workspaces)
	m.mu.RUnlock()
	m.metrics.SetSessionsActive(sessions)
	m.metrics.SetWorkspacesActive(workspaces)
}
