package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/termweave/backend/internal/domain/layout"
	"github.com/termweave/backend/internal/domain/registry"
	"github.com/termweave/backend/internal/domain/snapshot"
	"github.com/termweave/backend/internal/domain/taborder"
	"github.com/termweave/backend/internal/domain/tree"
	"github.com/termweave/backend/internal/providers/inventory"
	"github.com/termweave/backend/internal/providers/terminal"
	"github.com/termweave/backend/internal/shared/types"
	"github.com/termweave/backend/internal/shared/validate"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	registry  *registry.Manager
	orders    *taborder.Manager
	snapshots *snapshot.Manager
	mux       *terminal.Mux
	inventory *inventory.Inventory
}

// NewHandlers creates a new handler set
func NewHandlers(
	reg *registry.Manager,
	orders *taborder.Manager,
	snapshots *snapshot.Manager,
	mux *terminal.Mux,
	inv *inventory.Inventory,
) *Handlers {
	return &Handlers{
		registry:  reg,
		orders:    orders,
		snapshots: snapshots,
		mux:       mux,
		inventory: inv,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "termweave",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"registry":  h.registry.Stats(),
		"snapshots": h.snapshots.Stats(),
	})
}

// Connect opens a new standalone session
func (h *Handlers) Connect(c *gin.Context) {
	var req types.ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := h.registry.Connect(req)
	h.mux.Connect(c.Request.Context(), *sess)

	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// ListSessions lists all sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.registry.List(),
		"stats":    h.registry.Stats(),
	})
}

// GetSession returns one session
func (h *Handlers) GetSession(c *gin.Context) {
	sess, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// CloseSession closes one session, dissolving its workspace if needed
func (h *Handlers) CloseSession(c *gin.Context) {
	sessionID := c.Param("id")

	success := h.registry.CloseSession(sessionID)
	if success {
		h.mux.Close(sessionID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    success,
		"session_id": sessionID,
	})
}

// Split duplicates a session's connection next to it
func (h *Handlers) Split(c *gin.Context) {
	sessionID := c.Param("id")

	var req types.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orig, ok := h.registry.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var clone *types.Session
	if orig.IsOrphan() {
		clone, ok = h.registry.SplitStandalone(sessionID, req.Direction)
	} else {
		clone, ok = h.registry.SplitWithinWorkspace(sessionID, req.Direction)
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "split rejected"})
		return
	}

	h.mux.Connect(c.Request.Context(), *clone)
	c.JSON(http.StatusOK, gin.H{"session": clone})
}

// WriteSession writes raw input bytes to a session's terminal
func (h *Handlers) WriteSession(c *gin.Context) {
	sessionID := c.Param("id")

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.mux.Write(sessionID, data); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "written": len(data)})
}

// ReadSession drains buffered terminal output for a session
func (h *Handlers) ReadSession(c *gin.Context) {
	sessionID := c.Param("id")

	data, err := h.mux.Read(sessionID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// ResizeTerminal resizes a session's pty
func (h *Handlers) ResizeTerminal(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		Cols int `json:"cols" binding:"required"`
		Rows int `json:"rows" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.mux.Resize(sessionID, req.Cols, req.Rows); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateWorkspace combines two orphan sessions into a workspace
func (h *Handlers) CreateWorkspace(c *gin.Context) {
	var req types.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, ok := h.registry.CreateWorkspace(req.BaseSessionID, req.JoiningSessionID, req.Hint)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "workspace creation rejected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

// ListWorkspaces lists all workspaces
func (h *Handlers) ListWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"workspaces": h.registry.ListWorkspaces()})
}

// GetWorkspace returns one workspace
func (h *Handlers) GetWorkspace(c *gin.Context) {
	ws, ok := h.registry.GetWorkspace(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

// AddPane inserts an orphan session into an existing workspace
func (h *Handlers) AddPane(c *gin.Context) {
	workspaceID := c.Param("id")

	var req types.AddPaneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success := h.registry.AddToWorkspace(workspaceID, req.SessionID, req.Hint)
	if !success {
		c.JSON(http.StatusConflict, gin.H{"error": "pane insert rejected"})
		return
	}

	ws, _ := h.registry.GetWorkspace(workspaceID)
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

// CloseWorkspace closes a workspace and every member session
func (h *Handlers) CloseWorkspace(c *gin.Context) {
	workspaceID := c.Param("id")

	var members []string
	if ws, ok := h.registry.GetWorkspace(workspaceID); ok {
		members = tree.Collect(ws.Root)
	}

	success := h.registry.CloseWorkspace(workspaceID)
	if success {
		for _, sessionID := range members {
			h.mux.Close(sessionID)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      success,
		"workspace_id": workspaceID,
	})
}

// ToggleViewMode switches a workspace between split and focus view
func (h *Handlers) ToggleViewMode(c *gin.Context) {
	workspaceID := c.Param("id")

	success := h.registry.ToggleViewMode(workspaceID)
	if !success {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}

	ws, _ := h.registry.GetWorkspace(workspaceID)
	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

// SetFocus makes one member the focused session
func (h *Handlers) SetFocus(c *gin.Context) {
	workspaceID := c.Param("id")

	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success := h.registry.SetFocused(workspaceID, req.SessionID)
	c.JSON(http.StatusOK, gin.H{"success": success})
}

// MoveFocus moves focus to the nearest pane in a direction
func (h *Handlers) MoveFocus(c *gin.Context) {
	workspaceID := c.Param("id")

	var req types.FocusMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success := h.registry.MoveFocus(workspaceID, req.Direction, req.Size)
	ws, _ := h.registry.GetWorkspace(workspaceID)
	c.JSON(http.StatusOK, gin.H{"success": success, "workspace": ws})
}

// ResizeSplit applies a drag delta to a split boundary
func (h *Handlers) ResizeSplit(c *gin.Context) {
	workspaceID := c.Param("id")

	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success := h.registry.Resize(workspaceID, req)
	ws, _ := h.registry.GetWorkspace(workspaceID)
	c.JSON(http.StatusOK, gin.H{"success": success, "workspace": ws})
}

// Geometry computes pane rects and resizer strips for a viewport
func (h *Handlers) Geometry(c *gin.Context) {
	workspaceID := c.Param("id")

	size, err := parseSize(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, ok := h.registry.GetWorkspace(workspaceID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rects":    layout.Rects(ws.Root, size),
		"resizers": layout.Resizers(ws.Root, size),
	})
}

// DropHint classifies a pointer position into a split hint
func (h *Handlers) DropHint(c *gin.Context) {
	var req types.DropHintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var root *types.Node
	if req.WorkspaceID != "" {
		ws, ok := h.registry.GetWorkspace(req.WorkspaceID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		root = ws.Root
	}

	hint := layout.DropHint(root, req.Pointer, req.Size)
	c.JSON(http.StatusOK, gin.H{"hint": hint})
}

// ListTabs returns the effective tab order and the active selection
func (h *Handlers) ListTabs(c *gin.Context) {
	stats := h.registry.Stats()
	c.JSON(http.StatusOK, gin.H{
		"order":  h.orders.Effective(h.registry.LiveTabIDs()),
		"active": stats.ActiveTabID,
	})
}

// ReorderTabs moves a tab relative to another in the persisted order
func (h *Handlers) ReorderTabs(c *gin.Context) {
	var req types.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pos := taborder.Position(req.Position)
	if pos != taborder.Before && pos != taborder.After {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position must be before or after"})
		return
	}

	order, moved := h.orders.Reorder(h.registry.LiveTabIDs(), req.DraggedID, req.TargetID, pos)
	c.JSON(http.StatusOK, gin.H{"order": order, "moved": moved})
}

// SelectTab makes a tab the active selection
func (h *Handlers) SelectTab(c *gin.Context) {
	var req types.SelectTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validate.ID(req.TabID, "tab_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success := h.registry.SelectTab(req.TabID)
	c.JSON(http.StatusOK, gin.H{"success": success, "tab_id": req.TabID})
}

// RunOnHosts starts one session per resolved host in a focus workspace
func (h *Handlers) RunOnHosts(c *gin.Context) {
	var req types.RunOnHostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validate.Hosts(req.Hosts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targets, err := h.inventory.Resolve(req.Hosts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, ok := h.registry.RunOnHosts(req.Template, targets)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "run rejected"})
		return
	}

	for _, sessionID := range tree.Collect(ws.Root) {
		if sess, found := h.registry.Get(sessionID); found {
			h.mux.Connect(c.Request.Context(), *sess)
		}
	}

	c.JSON(http.StatusOK, gin.H{"workspace": ws})
}

// ListHosts returns the loaded inventory
func (h *Handlers) ListHosts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"hosts":  h.inventory.Hosts(),
		"groups": h.inventory.Groups(),
	})
}

// SaveSnapshot persists the current workspace state under a name
func (h *Handlers) SaveSnapshot(c *gin.Context) {
	var req types.SaveSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validate.Name(req.Name, "name"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Description(req.Description, "description"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.snapshots.Save(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": record.ToMetadata()})
}

// ListSnapshots lists stored snapshots
func (h *Handlers) ListSnapshots(c *gin.Context) {
	metadata, err := h.snapshots.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": metadata})
}

// RestoreSnapshot replaces live state with a stored snapshot
func (h *Handlers) RestoreSnapshot(c *gin.Context) {
	snapshotID := c.Param("id")

	// Live connections do not survive a restore.
	h.mux.CloseAll()

	if err := h.snapshots.Restore(c.Request.Context(), snapshotID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	for _, sess := range h.registry.List() {
		h.mux.Connect(c.Request.Context(), *sess)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "snapshot_id": snapshotID})
}

// DeleteSnapshot removes a stored snapshot
func (h *Handlers) DeleteSnapshot(c *gin.Context) {
	snapshotID := c.Param("id")

	if err := h.snapshots.Delete(c.Request.Context(), snapshotID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "snapshot_id": snapshotID})
}

// ExportSnapshot downloads a snapshot as compressed JSON
func (h *Handlers) ExportSnapshot(c *gin.Context) {
	snapshotID := c.Param("id")

	data, err := h.snapshots.Export(c.Request.Context(), snapshotID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+snapshotID+".json.gz")
	c.Data(http.StatusOK, "application/gzip", data)
}

// ImportSnapshot uploads a previously exported snapshot
func (h *Handlers) ImportSnapshot(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.snapshots.Import(c.Request.Context(), data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": record.ToMetadata()})
}

// Stats returns registry statistics
func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"registry":  h.registry.Stats(),
		"snapshots": h.snapshots.Stats(),
	})
}

func parseSize(c *gin.Context) (types.Size, error) {
	width, err := strconv.ParseFloat(c.Query("width"), 64)
	if err != nil {
		return types.Size{}, err
	}
	height, err := strconv.ParseFloat(c.Query("height"), 64)
	if err != nil {
		return types.Size{}, err
	}
	return types.Size{Width: width, Height: height}, nil
}
