package terminal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/termweave/backend/internal/infrastructure/logging"
	"github.com/termweave/backend/internal/infrastructure/monitoring"
	"github.com/termweave/backend/internal/infrastructure/resilience"
	"github.com/termweave/backend/internal/shared/types"
)

// Mux dispatches session connections to the backend registered for their
// connection kind and tracks the resulting live handles. Connection
// attempts per kind run behind a circuit breaker so a dead jump host does
// not hang every new tab behind a full timeout.
type Mux struct {
	mu       sync.RWMutex
	backends map[types.ConnectionKind]Backend
	breakers map[types.ConnectionKind]*resilience.Breaker
	handles  map[string]Handle

	onStatus StatusFunc
	onExit   ExitFunc

	timeout time.Duration
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewMux creates a backend multiplexer
func NewMux(timeout time.Duration, logger *logging.Logger) *Mux {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Mux{
		backends: make(map[types.ConnectionKind]Backend),
		breakers: make(map[types.ConnectionKind]*resilience.Breaker),
		handles:  make(map[string]Handle),
		timeout:  timeout,
		logger:   logger,
	}
}

// WithMetrics adds metrics tracking to the mux
func (m *Mux) WithMetrics(metrics *monitoring.Metrics) *Mux {
	m.metrics = metrics
	return m
}

// Register adds a backend for its connection kind
func (m *Mux) Register(b Backend) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backends[b.Kind()] = b
	m.breakers[b.Kind()] = resilience.New(string(b.Kind()), resilience.Settings{
		Cooldown: 30 * time.Second,
	})
}

// OnStatusChange sets the status transition callback
func (m *Mux) OnStatusChange(fn StatusFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatus = fn
}

// OnExit sets the session termination callback
func (m *Mux) OnExit(fn ExitFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExit = fn
}

// Connect establishes the connection for a session asynchronously. The
// status callback reports the outcome; the caller never blocks on the
// network.
func (m *Mux) Connect(ctx context.Context, sess types.Session) {
	go m.connect(ctx, sess)
}

func (m *Mux) connect(ctx context.Context, sess types.Session) {
	m.mu.RLock()
	backend, ok := m.backends[sess.Kind]
	breaker := m.breakers[sess.Kind]
	m.mu.RUnlock()

	if !ok {
		m.logger.Warn("no backend for connection kind",
			logging.Session(sess.ID), zap.String("kind", string(sess.Kind)))
		m.emitStatus(sess.ID, types.StatusDisconnected)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	var handle Handle
	err := breaker.Do(func() error {
		h, cerr := backend.Connect(ctx, &sess, func() {
			m.release(sess.ID)
			m.emitStatus(sess.ID, types.StatusDisconnected)
			m.emitExit(sess.ID)
		})
		if cerr != nil {
			return cerr
		}
		handle = h
		return nil
	})

	if m.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		m.metrics.RecordBackendCall(string(sess.Kind), "connect", status, time.Since(start))
	}

	if err != nil {
		m.logger.Warn("connect failed",
			logging.Session(sess.ID), zap.String("kind", string(sess.Kind)), zap.Error(err))
		if m.metrics != nil {
			m.metrics.RecordBackendError(string(sess.Kind), "connect", "connect_failed")
		}
		m.emitStatus(sess.ID, types.StatusDisconnected)
		return
	}

	m.mu.Lock()
	m.handles[sess.ID] = handle
	m.mu.Unlock()

	m.logger.Info("session connected",
		logging.Session(sess.ID), zap.String("kind", string(sess.Kind)))
	m.emitStatus(sess.ID, types.StatusConnected)
}

// Write sends input to a session
func (m *Mux) Write(sessionID string, p []byte) error {
	h, ok := m.handle(sessionID)
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return h.Write(p)
}

// Read drains buffered output from a session
func (m *Mux) Read(sessionID string) ([]byte, error) {
	h, ok := m.handle(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return h.Read(), nil
}

// Resize changes a session's terminal dimensions
func (m *Mux) Resize(sessionID string, cols, rows int) error {
	h, ok := m.handle(sessionID)
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return h.Resize(cols, rows)
}

// Close tears down a session's connection. Unknown sessions are a no-op:
// the connection may never have been established.
func (m *Mux) Close(sessionID string) error {
	m.mu.Lock()
	h, ok := m.handles[sessionID]
	delete(m.handles, sessionID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return h.Close()
}

// CloseAll tears down every live connection
func (m *Mux) CloseAll() {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]Handle)
	m.mu.Unlock()

	for id, h := range handles {
		if err := h.Close(); err != nil {
			m.logger.Warn("close failed", logging.Session(id), zap.Error(err))
		}
	}
}

func (m *Mux) handle(sessionID string) (Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handles[sessionID]
	return h, ok
}

func (m *Mux) release(sessionID string) {
	m.mu.Lock()
	delete(m.handles, sessionID)
	m.mu.Unlock()
}

func (m *Mux) emitStatus(sessionID string, status types.Status) {
	m.mu.RLock()
	fn := m.onStatus
	m.mu.RUnlock()
	if fn != nil {
		fn(sessionID, status)
	}
}

func (m *Mux) emitExit(sessionID string) {
	m.mu.RLock()
	fn := m.onExit
	m.mu.RUnlock()
	if fn != nil {
		fn(sessionID)
	}
}
