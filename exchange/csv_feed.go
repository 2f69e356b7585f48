package exchange

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/raykavin/ruleforge/core"
)

// CSV column layout: time, open, close, low, high, volume.
var csvColumns = map[string]int{
	"time": 0, "open": 1, "close": 2, "low": 3, "high": 4, "volume": 5,
}

// SymbolFeed binds one symbol to a CSV candle file.
type SymbolFeed struct {
	Symbol string
	File   string
}

// CSVFeed implements core.Feeder from CSV files, for backtests and tests.
// Current prices are the last close of each series.
type CSVFeed struct {
	candles map[string][]core.Candle
}

// NewCSVFeed loads every feed's candle file into memory.
func NewCSVFeed(feeds ...SymbolFeed) (*CSVFeed, error) {
	feed := &CSVFeed{candles: make(map[string][]core.Candle)}

	for _, f := range feeds {
		candles, err := readCandlesFromCSV(f)
		if err != nil {
			return nil, err
		}
		feed.candles[f.Symbol] = candles
	}

	return feed, nil
}

// NewStaticFeed builds a feed directly from in-memory candle series.
func NewStaticFeed(candles map[string][]core.Candle) *CSVFeed {
	return &CSVFeed{candles: candles}
}

// HistoricalCandles implements core.Feeder. The range is measured back from
// the last candle of the series, not from wall-clock time.
func (c *CSVFeed) HistoricalCandles(_ context.Context, symbol string, rangeDays int) ([]core.Candle, error) {
	candles, ok := c.candles[symbol]
	if !ok || len(candles) == 0 {
		return nil, fmt.Errorf("%w: no candles for %s", core.ErrInsufficientData, symbol)
	}
	if rangeDays <= 0 {
		return candles, nil
	}

	cutoff := candles[len(candles)-1].Time.AddDate(0, 0, -rangeDays)
	for i, candle := range candles {
		if !candle.Time.Before(cutoff) {
			return candles[i:], nil
		}
	}
	return candles, nil
}

// CurrentPrices implements core.Feeder.
func (c *CSVFeed) CurrentPrices(_ context.Context, symbols []string) (map[string]float64, error) {
	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		candles, ok := c.candles[symbol]
		if !ok || len(candles) == 0 {
			continue
		}
		prices[symbol] = candles[len(candles)-1].Close
	}
	return prices, nil
}

func readCandlesFromCSV(feed SymbolFeed) ([]core.Candle, error) {
	file, err := os.Open(feed.File)
	if err != nil {
		return nil, fmt.Errorf("open candle file %s: %w", feed.File, err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read candle file %s: %w", feed.File, err)
	}

	candles := make([]core.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < len(csvColumns) {
			return nil, fmt.Errorf("candle file %s: row %d has %d columns, need %d",
				feed.File, i, len(row), len(csvColumns))
		}

		ts, err := strconv.ParseInt(row[csvColumns["time"]], 10, 64)
		if err != nil {
			// Tolerate a header row at the top of the file.
			if i == 0 {
				continue
			}
			return nil, fmt.Errorf("candle file %s: row %d: %w", feed.File, i, err)
		}

		values := make(map[string]float64, len(csvColumns)-1)
		for name, col := range csvColumns {
			if name == "time" {
				continue
			}
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				return nil, fmt.Errorf("candle file %s: row %d column %s: %w", feed.File, i, name, err)
			}
			values[name] = v
		}

		candles = append(candles, core.Candle{
			Symbol:   feed.Symbol,
			Time:     time.Unix(ts, 0),
			Open:     values["open"],
			Close:    values["close"],
			Low:      values["low"],
			High:     values["high"],
			Volume:   values["volume"],
			Complete: true,
		})
	}

	return candles, nil
}
