package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/raykavin/ruleforge/core"
)

// SQLStorage implements core.Storage using a SQL database via GORM.
type SQLStorage struct {
	db *gorm.DB
}

// SQLConfig holds the connection-pool configuration.
type SQLConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLConfig returns a default configuration for SQL connections.
func DefaultSQLConfig() SQLConfig {
	return SQLConfig{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// NewFromSQLite creates a new SQLite storage instance.
func NewFromSQLite(dbPath string, config SQLConfig, opts ...gorm.Option) (*SQLStorage, error) {
	return newFromSQL(sqlite.Open(dbPath), config, opts...)
}

func newFromSQL(dialect gorm.Dialector, config SQLConfig, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err = db.AutoMigrate(
		&core.CoordinationResult{},
		&core.PositionLimit{},
		&core.PseudoPosition{},
	); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// UpsertResult implements core.ResultStore with an insert-or-replace on the
// natural key.
func (s *SQLStorage) UpsertResult(ctx context.Context, result *core.CoordinationResult) error {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "config_set_id"},
			{Name: "symbol"},
			{Name: "combination_hash"},
		},
		UpdateAll: true,
	}).Create(result)

	if tx.Error != nil {
		return fmt.Errorf("failed to upsert result: %w", tx.Error)
	}
	return nil
}

// Results implements core.ResultStore.
func (s *SQLStorage) Results(ctx context.Context, configSetID, symbol string) ([]*core.CoordinationResult, error) {
	query := s.db.WithContext(ctx).Where("config_set_id = ?", configSetID)
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}

	var results []core.CoordinationResult
	if err := query.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return lo.ToSlicePtr(results), nil
}

// LoadLimit implements core.LimitStore.
func (s *SQLStorage) LoadLimit(ctx context.Context, key core.LimitKey) (*core.PositionLimit, error) {
	var limit core.PositionLimit
	err := s.db.WithContext(ctx).
		Where("config_set_id = ? AND symbol = ? AND combination_hash = ? AND direction = ?",
			key.ConfigSetID, key.Symbol, key.CombinationHash, key.Direction).
		First(&limit).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load limit: %w", err)
	}
	return &limit, nil
}

// SaveLimit implements core.LimitStore.
func (s *SQLStorage) SaveLimit(ctx context.Context, limit *core.PositionLimit) error {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "config_set_id"},
			{Name: "symbol"},
			{Name: "combination_hash"},
			{Name: "direction"},
		},
		UpdateAll: true,
	}).Create(limit)

	if tx.Error != nil {
		return fmt.Errorf("failed to save limit: %w", tx.Error)
	}
	return nil
}

// InsertPosition implements core.PositionStore.
func (s *SQLStorage) InsertPosition(ctx context.Context, position *core.PseudoPosition) error {
	if err := s.db.WithContext(ctx).Create(position).Error; err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	return nil
}

// UpdatePosition implements core.PositionStore.
func (s *SQLStorage) UpdatePosition(ctx context.Context, position *core.PseudoPosition) error {
	if err := s.db.WithContext(ctx).Save(position).Error; err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// ClosePosition implements core.PositionStore.
func (s *SQLStorage) ClosePosition(ctx context.Context, position *core.PseudoPosition) error {
	return s.UpdatePosition(ctx, position)
}

// OpenPositions implements core.PositionStore.
func (s *SQLStorage) OpenPositions(ctx context.Context) ([]*core.PseudoPosition, error) {
	var positions []core.PseudoPosition
	err := s.db.WithContext(ctx).
		Where("status = ?", core.StatusOpen).
		Find(&positions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open positions: %w", err)
	}

	return lo.ToSlicePtr(positions), nil
}
