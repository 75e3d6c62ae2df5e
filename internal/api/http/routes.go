package http

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches all REST endpoints to the router.
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/stats", h.Stats)

	router.POST("/sessions", h.Connect)
	router.GET("/sessions", h.ListSessions)
	router.GET("/sessions/:id", h.GetSession)
	router.DELETE("/sessions/:id", h.CloseSession)
	router.POST("/sessions/:id/split", h.Split)
	router.POST("/sessions/:id/input", h.WriteSession)
	router.GET("/sessions/:id/output", h.ReadSession)
	router.POST("/sessions/:id/resize", h.ResizeTerminal)

	router.POST("/workspaces", h.CreateWorkspace)
	router.GET("/workspaces", h.ListWorkspaces)
	router.GET("/workspaces/:id", h.GetWorkspace)
	router.DELETE("/workspaces/:id", h.CloseWorkspace)
	router.POST("/workspaces/:id/panes", h.AddPane)
	router.POST("/workspaces/:id/view-mode", h.ToggleViewMode)
	router.POST("/workspaces/:id/focus", h.SetFocus)
	router.POST("/workspaces/:id/focus/move", h.MoveFocus)
	router.POST("/workspaces/:id/resize", h.ResizeSplit)
	router.GET("/workspaces/:id/geometry", h.Geometry)

	router.POST("/drop-hint", h.DropHint)

	router.GET("/tabs", h.ListTabs)
	router.POST("/tabs/reorder", h.ReorderTabs)
	router.POST("/tabs/select", h.SelectTab)

	router.POST("/run", h.RunOnHosts)
	router.GET("/hosts", h.ListHosts)

	router.POST("/snapshots", h.SaveSnapshot)
	router.GET("/snapshots", h.ListSnapshots)
	router.POST("/snapshots/import", h.ImportSnapshot)
	router.POST("/snapshots/:id/restore", h.RestoreSnapshot)
	router.DELETE("/snapshots/:id", h.DeleteSnapshot)
	router.GET("/snapshots/:id/export", h.ExportSnapshot)
}
