package types

import "time"

// ConnectionKind identifies the protocol backing a session
type ConnectionKind string

const (
	ConnLocal  ConnectionKind = "local"
	ConnSSH    ConnectionKind = "ssh"
	ConnSerial ConnectionKind = "serial"
	ConnTelnet ConnectionKind = "telnet"
)

// Status represents session connection states
type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// ConnectionParams describes how the terminal backend reaches a target.
// The core treats these as opaque duplication material for splits; only
// the backend interprets them.
type ConnectionParams struct {
	Host  string            `json:"host,omitempty"`
	Port  int               `json:"port,omitempty"`
	User  string            `json:"user,omitempty"`
	Flags map[string]string `json:"flags,omitempty"`
}

// Clone returns a deep copy of the params
func (p ConnectionParams) Clone() ConnectionParams {
	out := p
	if p.Flags != nil {
		out.Flags = make(map[string]string, len(p.Flags))
		for k, v := range p.Flags {
			out.Flags[k] = v
		}
	}
	return out
}

// Session represents one live or connecting terminal
type Session struct {
	ID             string           `json:"id"`
	Kind           ConnectionKind   `json:"kind"`
	Params         ConnectionParams `json:"params"`
	Title          string           `json:"title"`
	Status         Status           `json:"status"`
	WorkspaceID    *string          `json:"workspace_id,omitempty"` // nil means orphan tab
	StartupCommand *string          `json:"startup_command,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// IsOrphan reports whether the session is its own top-level tab
func (s *Session) IsOrphan() bool {
	return s.WorkspaceID == nil
}

// ViewMode represents how a workspace presents its panes
type ViewMode string

const (
	ViewSplit ViewMode = "split" // tile all members simultaneously
	ViewFocus ViewMode = "focus" // show one member at a time
)

// Workspace groups one split tree under one tab
type Workspace struct {
	ID               string    `json:"id"`
	Root             *Node     `json:"root"`
	Title            string    `json:"title"`
	ViewMode         ViewMode  `json:"view_mode"`
	FocusedSessionID *string   `json:"focused_session_id,omitempty"`
	SnippetID        *string   `json:"snippet_id,omitempty"` // origin marker for run-on-many
	CreatedAt        time.Time `json:"created_at"`
}

// HostTarget is one resolved destination for a run-on-many operation
type HostTarget struct {
	Name   string           `json:"name"`
	Kind   ConnectionKind   `json:"kind"`
	Params ConnectionParams `json:"params"`
}

// RunTemplate describes a run-on-many-hosts request
type RunTemplate struct {
	Title     string `json:"title"`
	Command   string `json:"command"`
	SnippetID string `json:"snippet_id,omitempty"`
}

// Stats contains registry statistics
type Stats struct {
	TotalSessions     int    `json:"total_sessions"`
	ConnectedSessions int    `json:"connected_sessions"`
	Workspaces        int    `json:"workspaces"`
	Orphans           int    `json:"orphans"`
	ActiveTabID       string `json:"active_tab_id"`
}
