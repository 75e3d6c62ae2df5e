package types

// ConnectRequest opens a new standalone session
type ConnectRequest struct {
	Kind           ConnectionKind   `json:"kind" binding:"required"`
	Params         ConnectionParams `json:"params"`
	Title          string           `json:"title"`
	StartupCommand string           `json:"startup_command,omitempty"`
}

// CreateWorkspaceRequest combines two orphan sessions into a workspace
type CreateWorkspaceRequest struct {
	BaseSessionID    string    `json:"base_session_id" binding:"required"`
	JoiningSessionID string    `json:"joining_session_id" binding:"required"`
	Hint             SplitHint `json:"hint"`
}

// AddPaneRequest inserts an orphan session into an existing workspace
type AddPaneRequest struct {
	SessionID string    `json:"session_id" binding:"required"`
	Hint      SplitHint `json:"hint"`
}

// SplitRequest duplicates a session's connection next to it
type SplitRequest struct {
	Direction SplitDirection `json:"direction" binding:"required"`
}

// ResizeRequest applies a drag delta to a split boundary
type ResizeRequest struct {
	SplitID string  `json:"split_id" binding:"required"`
	Index   int     `json:"index"`
	Delta   float64 `json:"delta"`
	Size    Size    `json:"size" binding:"required"`
}

// FocusMoveRequest moves focus to the nearest pane in a direction
type FocusMoveRequest struct {
	Direction FocusDirection `json:"direction" binding:"required"`
	Size      Size           `json:"size" binding:"required"`
}

// DropHintRequest classifies a pointer position into a split hint
type DropHintRequest struct {
	WorkspaceID string `json:"workspace_id,omitempty"`
	Pointer     Point  `json:"pointer"`
	Size        Size   `json:"size" binding:"required"`
}

// ReorderRequest moves a tab relative to another in the persisted order
type ReorderRequest struct {
	DraggedID string `json:"dragged_id" binding:"required"`
	TargetID  string `json:"target_id" binding:"required"`
	Position  string `json:"position" binding:"required"` // before / after
}

// RunOnHostsRequest starts one session per host plus a focus-mode workspace
type RunOnHostsRequest struct {
	Template RunTemplate `json:"template" binding:"required"`
	Hosts    []string    `json:"hosts" binding:"required"`
}

// SelectTabRequest makes a tab the active selection
type SelectTabRequest struct {
	TabID string `json:"tab_id" binding:"required"`
}

// SaveSnapshotRequest persists the current workspace state
type SaveSnapshotRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// WSEvent is the envelope pushed over the event gateway
type WSEvent struct {
	Type      string `json:"type"`
	TabID     string `json:"tab_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Status    Status `json:"status,omitempty"`
}
