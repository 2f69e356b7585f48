package core

import (
	"fmt"
	"time"
)

// PositionStatus is the lifecycle state of a pseudo position.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// LimitKey identifies one position-limit ledger entry.
type LimitKey struct {
	ConfigSetID     string    `json:"config_set_id"`
	Symbol          string    `json:"symbol"`
	CombinationHash string    `json:"combination_hash"`
	Direction       Direction `json:"direction"`
}

// String renders the key in a stable form usable as a storage key.
func (k LimitKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.ConfigSetID, k.Symbol, k.CombinationHash, k.Direction)
}

// PositionLimit is the per-(configuration, symbol, combination, direction)
// ledger of concurrent pseudo positions. CurrentPositions always satisfies
// 0 <= CurrentPositions <= MaxPositions.
type PositionLimit struct {
	ConfigSetID     string    `json:"config_set_id" gorm:"primaryKey"`
	Symbol          string    `json:"symbol" gorm:"primaryKey"`
	CombinationHash string    `json:"combination_hash" gorm:"primaryKey"`
	Direction       Direction `json:"direction" gorm:"primaryKey"`

	MaxPositions         int        `json:"max_positions"`
	CurrentPositions     int        `json:"current_positions"`
	CooldownUntil        *time.Time `json:"cooldown_until,omitempty"`
	LastPositionOpenedAt *time.Time `json:"last_position_opened_at,omitempty"`
}

// Key returns the ledger key of the limit.
func (l *PositionLimit) Key() LimitKey {
	return LimitKey{
		ConfigSetID:     l.ConfigSetID,
		Symbol:          l.Symbol,
		CombinationHash: l.CombinationHash,
		Direction:       l.Direction,
	}
}

// PseudoPosition is a simulated open position tracked to evaluate a
// combination's live performance. It never touches an exchange.
type PseudoPosition struct {
	ID          string               `json:"id" gorm:"primaryKey"`
	ConfigSetID string               `json:"config_set_id"`
	Symbol      string               `json:"symbol"`
	Direction   Direction            `json:"direction"`
	Combination ParameterCombination `json:"combination" gorm:"embedded;embeddedPrefix:comb_"`

	EntryPrice    float64        `json:"entry_price"`
	Quantity      float64        `json:"quantity"`
	Leverage      float64        `json:"leverage"`
	Status        PositionStatus `json:"status"`
	CurrentPrice  float64        `json:"current_price"`
	UnrealizedPnL float64        `json:"unrealized_pnl"`

	ExitPrice  float64    `json:"exit_price,omitempty"`
	ExitReason ExitReason `json:"exit_reason,omitempty"`

	OpenedAt time.Time  `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// LimitKey returns the ledger key that owns this position.
func (p *PseudoPosition) LimitKey() LimitKey {
	return LimitKey{
		ConfigSetID:     p.ConfigSetID,
		Symbol:          p.Symbol,
		CombinationHash: p.Combination.Hash(),
		Direction:       p.Direction,
	}
}

// PnL returns the fractional profit of the position at the given price,
// consistent for both directions: long (price-entry)/entry, short
// (entry-price)/entry.
func (p *PseudoPosition) PnL(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	if p.Direction == DirectionShort {
		return (p.EntryPrice - price) / p.EntryPrice
	}
	return (price - p.EntryPrice) / p.EntryPrice
}
