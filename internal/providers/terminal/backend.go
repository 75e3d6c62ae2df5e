package terminal

import (
	"context"

	"github.com/termweave/backend/internal/shared/types"
)

// Handle is one live terminal connection. The workspace core treats it as
// opaque; only the owning backend knows what sits behind it.
type Handle interface {
	// Write sends input bytes to the terminal
	Write(p []byte) error
	// Read drains the buffered output accumulated since the last read
	Read() []byte
	// Resize changes the terminal dimensions
	Resize(cols, rows int) error
	// Close tears down the connection. Idempotent.
	Close() error
}

// Backend establishes connections for one connection kind
type Backend interface {
	Kind() types.ConnectionKind
	// Connect establishes the connection described by the session. onExit
	// fires once when the remote side or local process terminates, after
	// which the handle only fails.
	Connect(ctx context.Context, sess *types.Session, onExit func()) (Handle, error)
}

// StatusFunc receives session status transitions
type StatusFunc func(sessionID string, status types.Status)

// ExitFunc receives session termination notices
type ExitFunc func(sessionID string)
