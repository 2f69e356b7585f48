// Package simulator replays historical OHLCV data through one parameter
// combination's signal and exit rules, emitting the resulting trade list.
package simulator

import (
	"github.com/raykavin/ruleforge/core"
)

// Default simulation bounds.
const (
	DefaultMinLookback = 20  // bars needed to seed indicators before trading
	DefaultMaxHoldBars = 50  // exit horizon per trade
	DefaultMinStrength = 0.5 // minimum signal strength to open a trade
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithMinLookback sets the number of warmup bars before signals are taken.
func WithMinLookback(bars int) Option {
	return func(s *Simulator) { s.minLookback = bars }
}

// WithMaxHoldBars sets the bounded exit horizon per trade.
func WithMaxHoldBars(bars int) Option {
	return func(s *Simulator) { s.maxHoldBars = bars }
}

// WithMinStrength sets the minimum signal strength that opens a trade.
func WithMinStrength(strength float64) Option {
	return func(s *Simulator) { s.minStrength = strength }
}

// Simulator walks a candle series with a signal function and a
// combination's exit rules. It holds no state between runs.
type Simulator struct {
	minLookback int
	maxHoldBars int
	minStrength float64
	log         core.Logger
}

// New creates a simulator with the default bounds.
func New(log core.Logger, opts ...Option) *Simulator {
	s := &Simulator{
		minLookback: DefaultMinLookback,
		maxHoldBars: DefaultMaxHoldBars,
		minStrength: DefaultMinStrength,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MinStrength returns the minimum signal strength that opens a trade.
func (s *Simulator) MinStrength() float64 {
	return s.minStrength
}

// Run simulates the combination over the candle series. The signal at bar i
// is computed from candles[:i+1] only, so mutating later bars can never
// change earlier decisions. Entries happen at the next bar's open.
func (s *Simulator) Run(combination core.ParameterCombination, candles []core.Candle, signalFn core.SignalFunc) ([]core.Trade, error) {
	if len(candles) < s.minLookback+2 {
		return nil, core.ErrInsufficientData
	}

	var trades []core.Trade

	for i := s.minLookback; i < len(candles)-1; i++ {
		signal := signalFn(candles[:i+1])
		if signal.Direction == core.DirectionNeutral || signal.Strength < s.minStrength {
			continue
		}

		trade, exitBar := s.simulateTrade(combination, candles, i+1, signal.Direction)
		trades = append(trades, trade)

		// Resume scanning after the exit so trades never overlap.
		i = exitBar
	}

	return trades, nil
}

// simulateTrade opens at entryBar and scans forward up to the hold horizon
// for the first exit. Rules are evaluated per bar in fixed order:
// take-profit, then trailing stop (once armed), then static stop-loss. A
// trade that never exits closes at the horizon end with reason timeout.
func (s *Simulator) simulateTrade(combination core.ParameterCombination, candles []core.Candle, entryBar int, direction core.Direction) (core.Trade, int) {
	entry := candles[entryBar].Open
	if entry <= 0 {
		entry = candles[entryBar].Close
	}

	takeProfit, stopLoss := exitPrices(combination, entry, direction)

	var trailing *TrailingStop
	if combination.TrailingEnabled {
		trailing = NewTrailingStop(direction, entry, combination.TrailStart/100, combination.TrailStop/100)
	}

	lastBar := entryBar + s.maxHoldBars
	if lastBar > len(candles)-1 {
		lastBar = len(candles) - 1
	}

	exitBar := lastBar
	exitPrice := candles[lastBar].Close
	exitReason := core.ExitTimeout

	for j := entryBar + 1; j <= lastBar; j++ {
		price := candles[j].Close

		if crossedTakeProfit(direction, price, takeProfit) {
			exitBar, exitPrice, exitReason = j, takeProfit, core.ExitTakeProfit
			break
		}

		if trailing != nil && trailing.Update(price) {
			exitBar, exitPrice, exitReason = j, price, core.ExitTrailingStop
			break
		}

		if crossedStopLoss(direction, price, stopLoss) {
			exitBar, exitPrice, exitReason = j, stopLoss, core.ExitStopLoss
			break
		}
	}

	trade := core.Trade{
		EntryPrice: entry,
		ExitPrice:  exitPrice,
		EntryTime:  candles[entryBar].Time,
		ExitTime:   candles[exitBar].Time,
		Direction:  direction,
		PnL:        tradePnL(direction, entry, exitPrice),
		ExitReason: exitReason,
	}

	return trade, exitBar
}

// exitPrices converts the combination's percentage factors into absolute
// take-profit and stop-loss prices for the given direction.
func exitPrices(combination core.ParameterCombination, entry float64, direction core.Direction) (takeProfit, stopLoss float64) {
	tp := combination.TakeProfitFactor / 100
	sl := combination.StopLossRatio / 100

	if direction == core.DirectionShort {
		return entry * (1 - tp), entry * (1 + sl)
	}
	return entry * (1 + tp), entry * (1 - sl)
}

func crossedTakeProfit(direction core.Direction, price, takeProfit float64) bool {
	if direction == core.DirectionShort {
		return price <= takeProfit
	}
	return price >= takeProfit
}

func crossedStopLoss(direction core.Direction, price, stopLoss float64) bool {
	if direction == core.DirectionShort {
		return price >= stopLoss
	}
	return price <= stopLoss
}

// tradePnL computes the fractional profit, consistent for both sides:
// long (exit-entry)/entry, short (entry-exit)/entry.
func tradePnL(direction core.Direction, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	if direction == core.DirectionShort {
		return (entry - exit) / entry
	}
	return (exit - entry) / entry
}
