// Package terminal provides the terminal backends behind workspace
// sessions: a local PTY shell and SSH. The workspace core only sees
// opaque handles and status transitions; everything protocol-specific
// lives here.
package terminal
