package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termweave/backend/internal/domain/active"
	"github.com/termweave/backend/internal/domain/registry"
	"github.com/termweave/backend/internal/domain/snapshot"
	"github.com/termweave/backend/internal/domain/taborder"
	"github.com/termweave/backend/internal/infrastructure/logging"
	"github.com/termweave/backend/internal/providers/inventory"
	"github.com/termweave/backend/internal/providers/terminal"
	"github.com/termweave/backend/internal/shared/types"
)

type stubHandle struct {
	mu     sync.Mutex
	input  []byte
	closed bool
}

func (h *stubHandle) Write(p []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.input = append(h.input, p...)
	return nil
}

func (h *stubHandle) Read() []byte { return []byte("ok\r\n") }

func (h *stubHandle) Resize(cols, rows int) error { return nil }

func (h *stubHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

type stubBackend struct {
	kind types.ConnectionKind
}

func (b *stubBackend) Kind() types.ConnectionKind { return b.kind }

func (b *stubBackend) Connect(_ context.Context, _ *types.Session, _ func()) (terminal.Handle, error) {
	return &stubHandle{}, nil
}

type memorySnapshotStore struct {
	mu      sync.Mutex
	records map[string]*types.SnapshotRecord
}

func (s *memorySnapshotStore) SaveSnapshot(_ context.Context, record *types.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := *record
	s.records[record.ID] = &copy
	return nil
}

func (s *memorySnapshotStore) LoadSnapshot(_ context.Context, id string) (*types.SnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[id]; ok {
		copy := *record
		return &copy, nil
	}
	return nil, assert.AnError
}

func (s *memorySnapshotStore) DeleteSnapshot(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *memorySnapshotStore) ListSnapshots(_ context.Context) ([]types.SnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SnapshotRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, nil
}

const testInventory = `
hosts:
  - name: web1
    host: 10.0.0.1
    user: deploy
  - name: web2
    host: 10.0.0.2
    user: deploy
`

func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := active.NewStore()
	t.Cleanup(store.Close)
	reg := registry.NewManager(store)

	mux := terminal.NewMux(time.Second, logging.NewDefault())
	mux.Register(&stubBackend{kind: types.ConnLocal})
	mux.Register(&stubBackend{kind: types.ConnSSH})
	t.Cleanup(mux.CloseAll)

	orders := taborder.NewManager(taborder.NewMemoryStore())
	snaps := snapshot.NewManager(reg, &memorySnapshotStore{records: make(map[string]*types.SnapshotRecord)}, orders)

	inv := inventory.New(logging.NewDefault())
	require.NoError(t, inv.Load([]byte(testInventory)))

	handlers := NewHandlers(reg, orders, snaps, mux, inv)
	router := gin.New()
	RegisterRoutes(router, handlers)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]any
	if len(w.Body.Bytes()) > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func connectSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w, body := doJSON(t, router, "POST", "/sessions", types.ConnectRequest{
		Kind:   types.ConnLocal,
		Params: types.ConnectionParams{},
	})
	require.Equal(t, http.StatusOK, w.Code)
	sess := body["session"].(map[string]any)
	return sess["id"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	router := setupAPI(t)

	w, body := doJSON(t, router, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "termweave", body["service"])

	w, _ = doJSON(t, router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	router := setupAPI(t)

	id := connectSession(t, router)

	w, body := doJSON(t, router, "GET", "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sess := body["session"].(map[string]any)
	assert.Equal(t, "local", sess["kind"])

	w, body = doJSON(t, router, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["sessions"], 1)

	w, body = doJSON(t, router, "DELETE", "/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, _ = doJSON(t, router, "GET", "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConnectRejectsBadBody(t *testing.T) {
	router := setupAPI(t)

	w, _ := doJSON(t, router, "POST", "/sessions", map[string]any{"params": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorkspaceFlow(t *testing.T) {
	router := setupAPI(t)

	base := connectSession(t, router)
	joining := connectSession(t, router)

	w, body := doJSON(t, router, "POST", "/workspaces", types.CreateWorkspaceRequest{
		BaseSessionID:    base,
		JoiningSessionID: joining,
		Hint:             types.SplitHint{Direction: types.SplitVertical, Position: types.PositionRight},
	})
	require.Equal(t, http.StatusOK, w.Code)
	ws := body["workspace"].(map[string]any)
	wsID := ws["id"].(string)

	third := connectSession(t, router)
	w, _ = doJSON(t, router, "POST", "/workspaces/"+wsID+"/panes", types.AddPaneRequest{
		SessionID: third,
		Hint:      types.SplitHint{Direction: types.SplitHorizontal, Position: types.PositionBottom},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body = doJSON(t, router, "GET", "/workspaces/"+wsID+"/geometry?width=1200&height=800", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rects := body["rects"].(map[string]any)
	assert.Len(t, rects, 3)

	w, body = doJSON(t, router, "POST", "/workspaces/"+wsID+"/view-mode", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ws = body["workspace"].(map[string]any)
	assert.Equal(t, "focus", ws["view_mode"])

	w, body = doJSON(t, router, "DELETE", "/workspaces/"+wsID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, body = doJSON(t, router, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["sessions"], 0)
}

func TestSplitEndpoint(t *testing.T) {
	router := setupAPI(t)

	id := connectSession(t, router)
	w, body := doJSON(t, router, "POST", "/sessions/"+id+"/split", types.SplitRequest{
		Direction: types.SplitVertical,
	})
	require.Equal(t, http.StatusOK, w.Code)
	clone := body["session"].(map[string]any)
	assert.NotEqual(t, id, clone["id"])

	w, body = doJSON(t, router, "GET", "/workspaces", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["workspaces"], 1)
}

func TestTabEndpoints(t *testing.T) {
	router := setupAPI(t)

	first := connectSession(t, router)
	second := connectSession(t, router)

	w, body := doJSON(t, router, "GET", "/tabs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	order := body["order"].([]any)
	require.Len(t, order, 2)
	assert.Equal(t, second, body["active"])

	w, body = doJSON(t, router, "POST", "/tabs/reorder", types.ReorderRequest{
		DraggedID: second,
		TargetID:  first,
		Position:  "before",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["moved"])
	order = body["order"].([]any)
	assert.Equal(t, second, order[0])

	w, body = doJSON(t, router, "POST", "/tabs/select", types.SelectTabRequest{TabID: first})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, _ = doJSON(t, router, "POST", "/tabs/reorder", types.ReorderRequest{
		DraggedID: first,
		TargetID:  second,
		Position:  "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDropHintEndpoint(t *testing.T) {
	router := setupAPI(t)

	w, body := doJSON(t, router, "POST", "/drop-hint", types.DropHintRequest{
		Pointer: types.Point{X: 1100, Y: 400},
		Size:    types.Size{Width: 1200, Height: 800},
	})
	require.Equal(t, http.StatusOK, w.Code)
	hint := body["hint"].(map[string]any)
	assert.Equal(t, "vertical", hint["direction"])
	assert.Equal(t, "right", hint["position"])
}

func TestRunOnHostsEndpoint(t *testing.T) {
	router := setupAPI(t)

	w, body := doJSON(t, router, "POST", "/run", types.RunOnHostsRequest{
		Template: types.RunTemplate{Title: "deploy", Command: "uptime"},
		Hosts:    []string{"web1", "web2"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	ws := body["workspace"].(map[string]any)
	assert.Equal(t, "focus", ws["view_mode"])

	w, _ = doJSON(t, router, "POST", "/run", types.RunOnHostsRequest{
		Template: types.RunTemplate{Title: "deploy", Command: "uptime"},
		Hosts:    []string{"unknown"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSnapshotEndpoints(t *testing.T) {
	router := setupAPI(t)

	connectSession(t, router)

	w, body := doJSON(t, router, "POST", "/snapshots", types.SaveSnapshotRequest{Name: "evening"})
	require.Equal(t, http.StatusOK, w.Code)
	meta := body["snapshot"].(map[string]any)
	snapID := meta["id"].(string)

	w, body = doJSON(t, router, "GET", "/snapshots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["snapshots"], 1)

	w, body = doJSON(t, router, "POST", "/snapshots/"+snapID+"/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	w, body = doJSON(t, router, "DELETE", "/snapshots/"+snapID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
}
