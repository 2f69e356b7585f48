package core

import "time"

// Trade is the outcome of one simulated trade.
type Trade struct {
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	Direction  Direction
	PnL        float64
	ExitReason ExitReason
}

// ResultKey is the natural key of a coordination result.
type ResultKey struct {
	ConfigSetID     string
	Symbol          string
	CombinationHash string
}

// CoordinationResult holds the scored performance of one parameter
// combination for one symbol inside a configuration set. Results are
// upserted by natural key on every re-evaluation cycle and are never
// deleted by the engine itself.
type CoordinationResult struct {
	ConfigSetID     string               `json:"config_set_id" gorm:"primaryKey"`
	Symbol          string               `json:"symbol" gorm:"primaryKey"`
	CombinationHash string               `json:"combination_hash" gorm:"primaryKey"`
	Combination     ParameterCombination `json:"combination" gorm:"embedded;embeddedPrefix:comb_"`

	ProfitFactor       float64 `json:"profit_factor"`
	WinRate            float64 `json:"win_rate"`
	TotalTrades        int     `json:"total_trades"`
	AvgProfit          float64 `json:"avg_profit"`
	AvgLoss            float64 `json:"avg_loss"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	DrawdownTimeHours  float64 `json:"drawdown_time_hours"`
	ProfitFactorLast25 float64 `json:"profit_factor_last_25"`
	ProfitFactorLast50 float64 `json:"profit_factor_last_50"`
	PositionsPer24h    float64 `json:"positions_per_24h"`
	SharpeRatio        float64 `json:"sharpe_ratio"`

	IsValid          bool      `json:"is_valid"`
	ValidationReason string    `json:"validation_reason"`
	LastValidatedAt  time.Time `json:"last_validated_at"`
}

// Key returns the natural key of the result.
func (r *CoordinationResult) Key() ResultKey {
	return ResultKey{
		ConfigSetID:     r.ConfigSetID,
		Symbol:          r.Symbol,
		CombinationHash: r.CombinationHash,
	}
}
