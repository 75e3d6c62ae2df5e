package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/termweave/backend/internal/infrastructure/logging"
	"github.com/termweave/backend/internal/shared/types"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Provider persists snapshots and the stored tab order in a local
// sqlite database.
type Provider struct {
	db     *gorm.DB
	logger *logging.Logger
}

type snapshotRow struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Description string
	CreatedAt   int64
	UpdatedAt   int64
	Payload     []byte
}

func (snapshotRow) TableName() string { return "snapshots" }

type tabOrderRow struct {
	ID      uint `gorm:"primaryKey"`
	Payload []byte
}

func (tabOrderRow) TableName() string { return "tab_order" }

// New opens (or creates) the database at path and migrates the schema.
func New(path string, logger *logging.Logger) (*Provider, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := db.AutoMigrate(&snapshotRow{}, &tabOrderRow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	logger.Info("Store opened", zap.String("path", path))
	return &Provider{db: db, logger: logger}, nil
}

// Close releases the underlying database handle.
func (p *Provider) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSnapshot inserts or replaces the record by id.
func (p *Provider) SaveSnapshot(ctx context.Context, record *types.SnapshotRecord) error {
	payload, err := sonic.Marshal(record.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	row := snapshotRow{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		CreatedAt:   record.CreatedAt.UnixMilli(),
		UpdatedAt:   record.UpdatedAt.UnixMilli(),
		Payload:     payload,
	}
	if err := p.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads one record by id.
func (p *Provider) LoadSnapshot(ctx context.Context, id string) (*types.SnapshotRecord, error) {
	var row snapshotRow
	err := p.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return rowToRecord(&row)
}

// DeleteSnapshot removes a record. Deleting an unknown id is a no-op.
func (p *Provider) DeleteSnapshot(ctx context.Context, id string) error {
	if err := p.db.WithContext(ctx).Delete(&snapshotRow{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns all stored records, most recently updated first.
func (p *Provider) ListSnapshots(ctx context.Context) ([]types.SnapshotRecord, error) {
	var rows []snapshotRow
	if err := p.db.WithContext(ctx).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	records := make([]types.SnapshotRecord, 0, len(rows))
	for i := range rows {
		record, err := rowToRecord(&rows[i])
		if err != nil {
			p.logger.Warn("Skipping undecodable snapshot row",
				zap.String("id", rows[i].ID),
				zap.Error(err))
			continue
		}
		records = append(records, *record)
	}
	return records, nil
}

// LoadOrder reads the stored tab order. An empty database yields nil.
func (p *Provider) LoadOrder() ([]string, error) {
	var row tabOrderRow
	err := p.db.First(&row, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tab order: %w", err)
	}

	var order []string
	if err := sonic.Unmarshal(row.Payload, &order); err != nil {
		return nil, fmt.Errorf("decode tab order: %w", err)
	}
	return order, nil
}

// SaveOrder replaces the stored tab order.
func (p *Provider) SaveOrder(order []string) error {
	payload, err := sonic.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode tab order: %w", err)
	}
	if err := p.db.Save(&tabOrderRow{ID: 1, Payload: payload}).Error; err != nil {
		return fmt.Errorf("save tab order: %w", err)
	}
	return nil
}

func rowToRecord(row *snapshotRow) (*types.SnapshotRecord, error) {
	var snap types.Snapshot
	if err := sonic.Unmarshal(row.Payload, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return &types.SnapshotRecord{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   millisToTime(row.CreatedAt),
		UpdatedAt:   millisToTime(row.UpdatedAt),
		Snapshot:    snap,
	}, nil
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
