package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsOpened *prometheus.CounterVec

	// Workspace metrics
	WorkspacesActive  prometheus.Gauge
	WorkspacesCreated prometheus.Counter

	// Terminal backend metrics
	BackendCalls    *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	BackendErrors   *prometheus.CounterVec

	// Snapshot metrics
	SnapshotsSaved    prometheus.Counter
	SnapshotsRestored prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests    int64
	TotalErrors      int64
	ActiveSessions   int64
	ActiveWorkspaces int64
	TotalDuration    float64 // sum of all request durations
	RequestCount     int64   // count for averaging
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termweave_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termweave_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termweave_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termweave_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Session metrics
		SessionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "termweave_sessions_active",
				Help: "Number of live terminal sessions",
			},
		),
		SessionsOpened: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termweave_sessions_opened_total",
				Help: "Total number of sessions opened, by connection kind",
			},
			[]string{"kind"},
		),

		// Workspace metrics
		WorkspacesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "termweave_workspaces_active",
				Help: "Number of live workspaces",
			},
		),
		WorkspacesCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "termweave_workspaces_created_total",
				Help: "Total number of workspaces created",
			},
		),

		// Terminal backend metrics
		BackendCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termweave_backend_calls_total",
				Help: "Total number of terminal backend calls",
			},
			[]string{"backend", "method", "status"},
		),
		BackendDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termweave_backend_duration_seconds",
				Help:    "Terminal backend call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"backend", "method"},
		),
		BackendErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termweave_backend_errors_total",
				Help: "Total number of terminal backend errors",
			},
			[]string{"backend", "method", "error_type"},
		),

		// Snapshot metrics
		SnapshotsSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "termweave_snapshots_saved_total",
				Help: "Total number of snapshots saved",
			},
		),
		SnapshotsRestored: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "termweave_snapshots_restored_total",
				Help: "Total number of snapshots restored",
			},
		),

		// WebSocket metrics
		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "termweave_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termweave_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		// System metrics
		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "termweave_uptime_seconds",
				Help: "Backend uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordBackendCall records a terminal backend call
func (m *Metrics) RecordBackendCall(backend, method, status string, duration time.Duration) {
	m.BackendCalls.WithLabelValues(backend, method, status).Inc()
	m.BackendDuration.WithLabelValues(backend, method).Observe(duration.Seconds())
}

// RecordBackendError records a terminal backend error
func (m *Metrics) RecordBackendError(backend, method, errorType string) {
	m.BackendErrors.WithLabelValues(backend, method, errorType).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncSessionsOpened increments the opened counter for a connection kind
func (m *Metrics) IncSessionsOpened(kind string) {
	m.SessionsOpened.WithLabelValues(kind).Inc()
}

// SetSessionsActive sets the number of live sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// SetWorkspacesActive sets the number of live workspaces
func (m *Metrics) SetWorkspacesActive(count int) {
	m.WorkspacesActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveWorkspaces = int64(count)
	m.mu.Unlock()
}

// IncWorkspacesCreated increments the workspaces created counter
func (m *Metrics) IncWorkspacesCreated() {
	m.WorkspacesCreated.Inc()
}

// IncSnapshotsSaved increments the snapshots saved counter
func (m *Metrics) IncSnapshotsSaved() {
	m.SnapshotsSaved.Inc()
}

// IncSnapshotsRestored increments the snapshots restored counter
func (m *Metrics) IncSnapshotsRestored() {
	m.SnapshotsRestored.Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns the current aggregate values for the JSON stats API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
