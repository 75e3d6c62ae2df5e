package types

import "time"

// Snapshot is the plain serializable state handed to the persistence
// collaborator. The core never performs storage I/O itself.
type Snapshot struct {
	Sessions    []Session   `json:"sessions"`
	Workspaces  []Workspace `json:"workspaces"`
	TabOrder    []string    `json:"tab_order"`
	ActiveTabID string      `json:"active_tab_id"`
	CapturedAt  time.Time   `json:"captured_at"`
}

// SnapshotRecord is a named, stored snapshot
type SnapshotRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Snapshot    Snapshot  `json:"snapshot"`
}

// SnapshotMetadata is the listing view of a stored snapshot
type SnapshotMetadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Sessions    int       `json:"sessions"`
	Workspaces  int       `json:"workspaces"`
}

// ToMetadata converts a record to its listing view
func (r *SnapshotRecord) ToMetadata() SnapshotMetadata {
	return SnapshotMetadata{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Sessions:    len(r.Snapshot.Sessions),
		Workspaces:  len(r.Snapshot.Workspaces),
	}
}
