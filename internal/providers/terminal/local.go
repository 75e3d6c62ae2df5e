package terminal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"

	"github.com/termweave/backend/internal/shared/types"
)

// Local runs sessions as shell processes behind a PTY
type Local struct {
	shell   string
	bufSize int
}

// NewLocal creates the local shell backend. An empty shell falls back to
// $SHELL, then /bin/bash.
func NewLocal(shell string, bufSize int) *Local {
	return &Local{shell: shell, bufSize: bufSize}
}

// Kind implements Backend
func (l *Local) Kind() types.ConnectionKind {
	return types.ConnLocal
}

// Connect starts the shell process under a PTY
func (l *Local) Connect(ctx context.Context, sess *types.Session, onExit func()) (Handle, error) {
	shell := l.shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/bash"
	}

	workingDir := os.Getenv("HOME")
	if workingDir == "" {
		workingDir = "/tmp"
	}

	cmd := exec.Command(shell)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	h := &localHandle{
		cmd:    cmd,
		ptmx:   ptmx,
		output: NewBuffer(l.bufSize),
	}

	go h.readOutput()
	go h.monitor(onExit)

	if sess.StartupCommand != nil && *sess.StartupCommand != "" {
		if _, err := ptmx.Write([]byte(*sess.StartupCommand + "\n")); err != nil {
			h.Close()
			return nil, fmt.Errorf("failed to send startup command: %w", err)
		}
	}

	return h, nil
}

type localHandle struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	output *Buffer

	mu     sync.RWMutex
	closed bool
}

// readOutput continuously reads from the PTY into the output buffer
func (h *localHandle) readOutput() {
	buf := make([]byte, 4096)
	for {
		n, err := h.ptmx.Read(buf)
		if n > 0 {
			h.output.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// monitor waits for the process to exit and cleans up
func (h *localHandle) monitor(onExit func()) {
	h.cmd.Wait()

	h.mu.Lock()
	alreadyClosed := h.closed
	h.closed = true
	h.mu.Unlock()

	h.ptmx.Close()
	if !alreadyClosed && onExit != nil {
		onExit()
	}
}

func (h *localHandle) Write(p []byte) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return fmt.Errorf("session is closed")
	}
	_, err := h.ptmx.Write(p)
	return err
}

func (h *localHandle) Read() []byte {
	return h.output.ReadAll()
}

func (h *localHandle) Resize(cols, rows int) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return fmt.Errorf("session is closed")
	}
	return pty.Setsize(h.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

func (h *localHandle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	if h.cmd.Process != nil {
		h.cmd.Process.Kill()
	}
	return h.ptmx.Close()
}
