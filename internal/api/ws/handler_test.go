package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termweave/backend/internal/domain/active"
	"github.com/termweave/backend/internal/domain/registry"
	"github.com/termweave/backend/internal/infrastructure/logging"
	"github.com/termweave/backend/internal/providers/terminal"
	"github.com/termweave/backend/internal/shared/types"
)

type echoHandle struct{}

func (echoHandle) Write(p []byte) error        { return nil }
func (echoHandle) Read() []byte                { return nil }
func (echoHandle) Resize(cols, rows int) error { return nil }
func (echoHandle) Close() error                { return nil }

type echoBackend struct{}

func (echoBackend) Kind() types.ConnectionKind { return types.ConnLocal }

func (echoBackend) Connect(_ context.Context, _ *types.Session, _ func()) (terminal.Handle, error) {
	return echoHandle{}, nil
}

func setupGateway(t *testing.T) (*registry.Manager, *Handler, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := active.NewStore()
	t.Cleanup(store.Close)
	reg := registry.NewManager(store)

	mux := terminal.NewMux(time.Second, logging.NewDefault())
	mux.Register(echoBackend{})
	t.Cleanup(mux.CloseAll)

	handler := NewHandler(reg, mux, store, logging.NewDefault())

	router := gin.New()
	router.GET("/ws", handler.HandleConnection)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Welcome frame.
	var welcome map[string]any
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "system", welcome["type"])

	return reg, handler, conn
}

func readUntil(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg map[string]any
		require.NoError(t, conn.ReadJSON(&msg))
		if msg["type"] == msgType {
			return msg
		}
	}
}

func TestPingPong(t *testing.T) {
	_, _, conn := setupGateway(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	msg := readUntil(t, conn, "pong")
	assert.Equal(t, "pong", msg["type"])
}

func TestActiveTabPush(t *testing.T) {
	reg, _, conn := setupGateway(t)

	sess := reg.Connect(types.ConnectRequest{Kind: types.ConnLocal})
	msg := readUntil(t, conn, "active_tab")
	assert.Equal(t, sess.ID, msg["tab_id"])
}

func TestSelectTabOverGateway(t *testing.T) {
	reg, _, conn := setupGateway(t)

	reg.Connect(types.ConnectRequest{Kind: types.ConnLocal})
	readUntil(t, conn, "active_tab")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "select_tab", "tab_id": active.HomeTab}))
	msg := readUntil(t, conn, "selected")
	assert.Equal(t, true, msg["success"])

	// The switch away from the session tab is pushed back.
	msg = readUntil(t, conn, "active_tab")
	assert.Equal(t, active.HomeTab, msg["tab_id"])
}

func TestStatusBroadcast(t *testing.T) {
	_, handler, conn := setupGateway(t)

	handler.PublishStatus("sess_x", types.StatusConnected)
	msg := readUntil(t, conn, "status")
	assert.Equal(t, "sess_x", msg["session_id"])
	assert.Equal(t, "connected", msg["status"])
}

func TestUnknownMessageType(t *testing.T) {
	_, _, conn := setupGateway(t)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "bogus"}))
	msg := readUntil(t, conn, "error")
	assert.Contains(t, msg["message"], "unknown")
}
