package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/termweave/backend/internal/domain/active"
	"github.com/termweave/backend/internal/domain/registry"
	"github.com/termweave/backend/internal/infrastructure/logging"
	"github.com/termweave/backend/internal/infrastructure/monitoring"
	"github.com/termweave/backend/internal/providers/terminal"
	"github.com/termweave/backend/internal/shared/types"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Desktop shell connects from its own origin
	},
}

const outputPollInterval = 30 * time.Millisecond

// Handler manages WebSocket connections
type Handler struct {
	registry *registry.Manager
	mux      *terminal.Mux
	active   *active.Store
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu    sync.Mutex
	conns map[*client]struct{}
}

// client is one upgraded connection. gorilla permits a single writer,
// so every send funnels through the client mutex.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn

	attachMu sync.Mutex
	attached map[string]chan struct{}
}

type inbound struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	TabID     string `json:"tab_id,omitempty"`
	Data      string `json:"data,omitempty"`
	Cols      int    `json:"cols,omitempty"`
	Rows      int    `json:"rows,omitempty"`
}

// NewHandler creates a new WebSocket handler
func NewHandler(reg *registry.Manager, mux *terminal.Mux, store *active.Store, logger *logging.Logger) *Handler {
	return &Handler{
		registry: reg,
		mux:      mux,
		active:   store,
		logger:   logger,
		conns:    make(map[*client]struct{}),
	}
}

// WithMetrics attaches metrics collection
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// PublishStatus pushes a session status change to every connection.
// Server wiring calls this from the terminal mux status callback.
func (h *Handler) PublishStatus(sessionID string, status types.Status) {
	h.broadcast(types.WSEvent{Type: "status", SessionID: sessionID, Status: status})
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, attached: make(map[string]chan struct{})}
	h.register(cl)
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	defer func() {
		cl.detachAll()
		h.unregister(cl)
		if h.metrics != nil {
			h.metrics.DecWSConnections()
		}
		conn.Close()
	}()

	cl.send(gin.H{"type": "system", "message": "connected"})

	// Pushed until the connection closes.
	cancelActive := h.active.Subscribe(func(tabID string) {
		cl.send(types.WSEvent{Type: "active_tab", TabID: tabID})
		if h.metrics != nil {
			h.metrics.RecordWSMessage("out", "active_tab")
		}
	})
	defer cancelActive()

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "ping":
			cl.send(gin.H{"type": "pong"})
		case "select_tab":
			ok := h.registry.SelectTab(msg.TabID)
			cl.send(gin.H{"type": "selected", "tab_id": msg.TabID, "success": ok})
		case "input":
			if err := h.mux.Write(msg.SessionID, []byte(msg.Data)); err != nil {
				cl.sendError(err.Error())
			}
		case "resize":
			if err := h.mux.Resize(msg.SessionID, msg.Cols, msg.Rows); err != nil {
				cl.sendError(err.Error())
			}
		case "attach":
			h.attach(cl, msg.SessionID)
		case "detach":
			cl.detach(msg.SessionID)
		default:
			cl.sendError("unknown message type")
		}
	}
}

// attach starts streaming a session's terminal output to the client
// until detach or disconnect.
func (h *Handler) attach(cl *client, sessionID string) {
	if _, ok := h.registry.Get(sessionID); !ok {
		cl.sendError("session not found")
		return
	}

	cl.attachMu.Lock()
	if _, dup := cl.attached[sessionID]; dup {
		cl.attachMu.Unlock()
		return
	}
	stop := make(chan struct{})
	cl.attached[sessionID] = stop
	cl.attachMu.Unlock()

	go func() {
		ticker := time.NewTicker(outputPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				data, err := h.mux.Read(sessionID)
				if err != nil {
					cl.detach(sessionID)
					return
				}
				if len(data) == 0 {
					continue
				}
				if err := cl.send(gin.H{
					"type":       "output",
					"session_id": sessionID,
					"data":       string(data),
				}); err != nil {
					return
				}
			}
		}
	}()
}

func (h *Handler) register(cl *client) {
	h.mu.Lock()
	h.conns[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *Handler) unregister(cl *client) {
	h.mu.Lock()
	delete(h.conns, cl)
	h.mu.Unlock()
}

func (h *Handler) broadcast(event types.WSEvent) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.conns))
	for cl := range h.conns {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		cl.send(event)
	}
	if h.metrics != nil && len(clients) > 0 {
		h.metrics.RecordWSMessage("out", event.Type)
	}
}

func (c *client) send(data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(data)
}

func (c *client) sendError(msg string) {
	c.send(gin.H{"type": "error", "message": msg})
}

func (c *client) detach(sessionID string) {
	c.attachMu.Lock()
	defer c.attachMu.Unlock()
	if stop, ok := c.attached[sessionID]; ok {
		close(stop)
		delete(c.attached, sessionID)
	}
}

func (c *client) detachAll() {
	c.attachMu.Lock()
	defer c.attachMu.Unlock()
	for id, stop := range c.attached {
		close(stop)
		delete(c.attached, id)
	}
}
