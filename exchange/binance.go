// Package exchange provides the market-data feeders the engine consumes:
// a Binance-backed live feeder and a CSV feeder for backtests and tests.
package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/jpillora/backoff"

	"github.com/raykavin/ruleforge/core"
)

const (
	// maxKlinesPerRequest is the Binance API page size limit.
	maxKlinesPerRequest = 1000

	// fetchAttempts bounds retries for one data request.
	fetchAttempts = 3
)

// BinanceOption configures a BinanceFeeder.
type BinanceOption func(*BinanceFeeder)

// WithCredentials sets API credentials. Market data works without them.
func WithCredentials(key, secret string) BinanceOption {
	return func(b *BinanceFeeder) { b.client = binance.NewClient(key, secret) }
}

// WithTimeframe sets the kline interval used for historical series.
func WithTimeframe(timeframe string) BinanceOption {
	return func(b *BinanceFeeder) { b.timeframe = timeframe }
}

// BinanceFeeder implements core.Feeder against the Binance spot API.
type BinanceFeeder struct {
	client    *binance.Client
	timeframe string
	log       core.Logger
}

// NewBinanceFeeder creates a feeder with a 1h default timeframe.
func NewBinanceFeeder(log core.Logger, opts ...BinanceOption) *BinanceFeeder {
	b := &BinanceFeeder{
		client:    binance.NewClient("", ""),
		timeframe: "1h",
		log:       log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HistoricalCandles implements core.Feeder. It pages through klines from
// now-rangeDays to now, retrying transient failures with backoff.
func (b *BinanceFeeder) HistoricalCandles(ctx context.Context, symbol string, rangeDays int) ([]core.Candle, error) {
	if rangeDays <= 0 {
		rangeDays = 30
	}

	end := time.Now()
	start := end.AddDate(0, 0, -rangeDays)

	var candles []core.Candle
	for start.Before(end) {
		klines, err := b.fetchKlines(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch klines for %s: %w", symbol, err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			candle, err := convertKline(symbol, k)
			if err != nil {
				return nil, err
			}
			candles = append(candles, candle)
		}

		last := time.Unix(0, klines[len(klines)-1].CloseTime*int64(time.Millisecond))
		if !last.After(start) {
			break
		}
		start = last
	}

	return candles, nil
}

func (b *BinanceFeeder) fetchKlines(ctx context.Context, symbol string, start, end time.Time) ([]*binance.Kline, error) {
	retry := newBackoff()

	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		klines, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(b.timeframe).
			StartTime(start.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxKlinesPerRequest).
			Do(ctx)
		if err == nil {
			return klines, nil
		}

		lastErr = err
		b.log.WithError(err).Warnf("klines request for %s failed, retrying", symbol)

		select {
		case <-time.After(retry.Duration()):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// CurrentPrices implements core.Feeder with a single batched price request
// per call.
func (b *BinanceFeeder) CurrentPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	listed, err := b.client.NewListPricesService().Symbols(symbols).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}

	prices := make(map[string]float64, len(listed))
	for _, p := range listed {
		value, err := strconv.ParseFloat(p.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("parse price for %s: %w", p.Symbol, err)
		}
		prices[p.Symbol] = value
	}

	return prices, nil
}

func newBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    time.Second,
		Jitter: true,
	}
}

func convertKline(symbol string, k *binance.Kline) (core.Candle, error) {
	fields := map[string]string{
		"open": k.Open, "high": k.High, "low": k.Low, "close": k.Close, "volume": k.Volume,
	}

	parsed := make(map[string]float64, len(fields))
	for name, raw := range fields {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.Candle{}, fmt.Errorf("parse kline %s for %s: %w", name, symbol, err)
		}
		parsed[name] = value
	}

	return core.Candle{
		Symbol:   symbol,
		Time:     time.Unix(0, k.OpenTime*int64(time.Millisecond)),
		Open:     parsed["open"],
		High:     parsed["high"],
		Low:      parsed["low"],
		Close:    parsed["close"],
		Volume:   parsed["volume"],
		Complete: true,
	}, nil
}
