package core

import (
	"context"
)

// Feeder provides market data to the engine. Implementations live in the
// exchange package; the engine never talks to an exchange SDK directly.
type Feeder interface {
	// HistoricalCandles returns an ordered OHLCV series covering the last
	// rangeDays days for the given symbol.
	HistoricalCandles(ctx context.Context, symbol string, rangeDays int) ([]Candle, error)

	// CurrentPrices returns the latest price for every requested symbol in a
	// single call.
	CurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Notifier receives engine events for delivery to an external channel.
type Notifier interface {
	Notify(message string)
	OnPositionOpened(position *PseudoPosition)
	OnPositionClosed(position *PseudoPosition)
	OnError(err error)
}

// Direction is the side of a signal or position.
type Direction string

const (
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
	DirectionNeutral Direction = "neutral"
)

// ExitReason records why a position or simulated trade was closed.
type ExitReason string

const (
	ExitTakeProfit   ExitReason = "takeprofit"
	ExitStopLoss     ExitReason = "stoploss"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitTimeout      ExitReason = "timeout"
)

// Signal is a directional trading signal with a strength in [0,1].
type Signal struct {
	Direction Direction
	Strength  float64
}

// SignalFunc computes a signal from an ordered candle series. Implementations
// must be pure functions of the series prefix they receive.
type SignalFunc func(candles []Candle) Signal
