// Package storage provides the persistence backends for coordination
// results, position limits and pseudo positions.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raykavin/ruleforge/core"
	"github.com/tidwall/buntdb"
)

// Key prefixes used in the key-value store.
const (
	resultPrefix   = "result:"
	limitPrefix    = "limit:"
	positionPrefix = "position:"
)

// BuntStorage implements core.Storage using BuntDB.
type BuntStorage struct {
	db *buntdb.DB
}

// NewFromMemory creates an in-memory storage instance.
func NewFromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:")
}

// NewFromFile creates a file-based storage instance.
func NewFromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file)
}

// NewBuntStorage opens a BuntDB database and prepares the status index used
// to rehydrate open positions.
func NewBuntStorage(sourceFile string) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{SyncPolicy: buntdb.Never}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	if err := db.CreateIndex("position_status", positionPrefix+"*", buntdb.IndexJSON("status")); err != nil {
		return nil, fmt.Errorf("failed to create status index: %w", err)
	}

	return &BuntStorage{db: db}, nil
}

// Close releases the underlying database.
func (s *BuntStorage) Close() error {
	return s.db.Close()
}

// UpsertResult implements core.ResultStore.
func (s *BuntStorage) UpsertResult(_ context.Context, result *core.CoordinationResult) error {
	key := resultKey(result.ConfigSetID, result.Symbol, result.CombinationHash)
	return s.set(key, result)
}

// Results implements core.ResultStore. An empty symbol lists every symbol
// of the configuration set.
func (s *BuntStorage) Results(_ context.Context, configSetID, symbol string) ([]*core.CoordinationResult, error) {
	prefix := resultPrefix + configSetID + ":"
	if symbol != "" {
		prefix += symbol + ":"
	}

	var results []*core.CoordinationResult
	err := s.db.View(func(tx *buntdb.Tx) error {
		var innerErr error
		iterErr := tx.AscendKeys(resultPrefix+"*", func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return true
			}
			result := &core.CoordinationResult{}
			if innerErr = json.Unmarshal([]byte(value), result); innerErr != nil {
				return false
			}
			results = append(results, result)
			return true
		})
		if innerErr != nil {
			return innerErr
		}
		return iterErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

// LoadLimit implements core.LimitStore.
func (s *BuntStorage) LoadLimit(_ context.Context, key core.LimitKey) (*core.PositionLimit, error) {
	limit := &core.PositionLimit{}
	err := s.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(limitPrefix + key.String())
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(value), limit)
	})
	if err == buntdb.ErrNotFound {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load limit: %w", err)
	}
	return limit, nil
}

// SaveLimit implements core.LimitStore.
func (s *BuntStorage) SaveLimit(_ context.Context, limit *core.PositionLimit) error {
	return s.set(limitPrefix+limit.Key().String(), limit)
}

// InsertPosition implements core.PositionStore.
func (s *BuntStorage) InsertPosition(_ context.Context, position *core.PseudoPosition) error {
	return s.set(positionPrefix+position.ID, position)
}

// UpdatePosition implements core.PositionStore.
func (s *BuntStorage) UpdatePosition(_ context.Context, position *core.PseudoPosition) error {
	return s.set(positionPrefix+position.ID, position)
}

// ClosePosition implements core.PositionStore.
func (s *BuntStorage) ClosePosition(_ context.Context, position *core.PseudoPosition) error {
	return s.set(positionPrefix+position.ID, position)
}

// OpenPositions implements core.PositionStore.
func (s *BuntStorage) OpenPositions(_ context.Context) ([]*core.PseudoPosition, error) {
	var positions []*core.PseudoPosition
	err := s.db.View(func(tx *buntdb.Tx) error {
		var innerErr error
		iterErr := tx.AscendKeys(positionPrefix+"*", func(key, value string) bool {
			position := &core.PseudoPosition{}
			if innerErr = json.Unmarshal([]byte(value), position); innerErr != nil {
				return false
			}
			if position.Status == core.StatusOpen {
				positions = append(positions, position)
			}
			return true
		})
		if innerErr != nil {
			return innerErr
		}
		return iterErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open positions: %w", err)
	}
	return positions, nil
}

func (s *BuntStorage) set(key string, value any) error {
	content, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(content), nil)
		return err
	})
}

func resultKey(configSetID, symbol, hash string) string {
	return resultPrefix + configSetID + ":" + symbol + ":" + hash
}
