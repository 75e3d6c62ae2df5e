package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"

	"github.com/termweave/backend/internal/domain/taborder"
	"github.com/termweave/backend/internal/infrastructure/monitoring"
	"github.com/termweave/backend/internal/shared/id"
	"github.com/termweave/backend/internal/shared/types"
)

// Registry is the workspace state owner snapshots are taken from
type Registry interface {
	Capture(tabOrder []string) types.Snapshot
	Restore(snap types.Snapshot)
	LiveTabIDs() []string
}

// Store persists named snapshot records
type Store interface {
	SaveSnapshot(ctx context.Context, record *types.SnapshotRecord) error
	LoadSnapshot(ctx context.Context, id string) (*types.SnapshotRecord, error)
	DeleteSnapshot(ctx context.Context, id string) error
	ListSnapshots(ctx context.Context) ([]types.SnapshotRecord, error)
}

// Stats reports snapshot manager statistics
type Stats struct {
	TotalSnapshots int        `json:"total_snapshots"`
	LastSaved      *time.Time `json:"last_saved,omitempty"`
	LastRestored   *time.Time `json:"last_restored,omitempty"`
}

// Manager handles snapshot persistence
type Manager struct {
	cache    sync.Map // map[string]*types.SnapshotRecord
	registry Registry
	store    Store
	orders   *taborder.Manager
	metrics  *monitoring.Metrics

	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
}

// NewManager creates a snapshot manager
func NewManager(registry Registry, store Store, orders *taborder.Manager) *Manager {
	return &Manager{
		registry: registry,
		store:    store,
		orders:   orders,
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Save captures the current workspace state under a name
func (m *Manager) Save(ctx context.Context, name, description string) (*types.SnapshotRecord, error) {
	order := m.orders.Effective(m.registry.LiveTabIDs())
	snap := m.registry.Capture(order)

	now := time.Now()
	record := &types.SnapshotRecord{
		ID:          id.NewSnapshotID().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Snapshot:    snap,
	}

	if m.store != nil {
		if err := m.store.SaveSnapshot(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
	}
	m.cache.Store(record.ID, record)

	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncSnapshotsSaved()
	}
	return record, nil
}

// Load fetches a snapshot record by id, preferring the in-memory cache
func (m *Manager) Load(ctx context.Context, snapshotID string) (*types.SnapshotRecord, error) {
	if cached, ok := m.cache.Load(snapshotID); ok {
		return cached.(*types.SnapshotRecord), nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("snapshot not found: %s", snapshotID)
	}

	record, err := m.store.LoadSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if record.ID == "" {
		return nil, fmt.Errorf("snapshot %s has empty ID field", snapshotID)
	}

	m.cache.Store(record.ID, record)
	return record, nil
}

// Restore applies a saved snapshot to the live workspace state
func (m *Manager) Restore(ctx context.Context, snapshotID string) error {
	record, err := m.Load(ctx, snapshotID)
	if err != nil {
		return err
	}

	m.registry.Restore(record.Snapshot)
	if err := m.orders.Replace(record.Snapshot.TabOrder); err != nil {
		return fmt.Errorf("failed to restore tab order: %w", err)
	}

	now := time.Now()
	m.mu.Lock()
	m.lastRestored = &now
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncSnapshotsRestored()
	}
	return nil
}

// Delete removes a snapshot from the store and cache
func (m *Manager) Delete(ctx context.Context, snapshotID string) error {
	if m.store != nil {
		if err := m.store.DeleteSnapshot(ctx, snapshotID); err != nil {
			return fmt.Errorf("failed to delete snapshot: %w", err)
		}
	}
	m.cache.Delete(snapshotID)
	return nil
}

// List returns metadata for all stored snapshots
func (m *Manager) List(ctx context.Context) ([]types.SnapshotMetadata, error) {
	if m.store != nil {
		records, err := m.store.ListSnapshots(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}
		metadata := make([]types.SnapshotMetadata, 0, len(records))
		for i := range records {
			record := records[i]
			m.cache.Store(record.ID, &record)
			metadata = append(metadata, record.ToMetadata())
		}
		return metadata, nil
	}

	var metadata []types.SnapshotMetadata
	m.cache.Range(func(_, value interface{}) bool {
		metadata = append(metadata, value.(*types.SnapshotRecord).ToMetadata())
		return true
	})
	return metadata, nil
}

// Stats returns snapshot manager statistics
func (m *Manager) Stats() Stats {
	var total int
	m.cache.Range(func(_, _ interface{}) bool {
		total++
		return true
	})

	m.mu.RLock()
	lastSaved := m.lastSaved
	lastRestored := m.lastRestored
	m.mu.RUnlock()

	return Stats{
		TotalSnapshots: total,
		LastSaved:      lastSaved,
		LastRestored:   lastRestored,
	}
}

// Export serializes a snapshot record to gzipped JSON for file transfer
func (m *Manager) Export(ctx context.Context, snapshotID string) ([]byte, error) {
	record, err := m.Load(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	data, err := sonic.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Import ingests a previously exported snapshot. The record keeps its
// embedded state but gets a fresh id so imports never clobber existing
// snapshots.
func (m *Manager) Import(ctx context.Context, data []byte) (*types.SnapshotRecord, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}

	var record types.SnapshotRecord
	if err := sonic.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if record.Name == "" {
		return nil, fmt.Errorf("imported snapshot has no name")
	}

	now := time.Now()
	record.ID = id.NewSnapshotID().String()
	record.UpdatedAt = now

	if m.store != nil {
		if err := m.store.SaveSnapshot(ctx, &record); err != nil {
			return nil, fmt.Errorf("failed to save imported snapshot: %w", err)
		}
	}
	m.cache.Store(record.ID, &record)
	return &record, nil
}
