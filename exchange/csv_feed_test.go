package exchange

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/ruleforge/core"
)

func writeCandleFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewCSVFeed_ParsesRows(t *testing.T) {
	path := writeCandleFile(t,
		"1735689600,100,101,99,102,500\n"+
			"1735693200,101,103,100,104,600\n")

	feed, err := NewCSVFeed(SymbolFeed{Symbol: "BTCUSDT", File: path})
	require.NoError(t, err)

	candles, err := feed.HistoricalCandles(context.Background(), "BTCUSDT", 0)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	first := candles[0]
	require.Equal(t, "BTCUSDT", first.Symbol)
	require.Equal(t, time.Unix(1735689600, 0), first.Time)
	require.Equal(t, 100.0, first.Open)
	require.Equal(t, 101.0, first.Close)
	require.Equal(t, 99.0, first.Low)
	require.Equal(t, 102.0, first.High)
	require.Equal(t, 500.0, first.Volume)
	require.True(t, first.Complete)
}

func TestNewCSVFeed_ToleratesHeaderRow(t *testing.T) {
	path := writeCandleFile(t,
		"time,open,close,low,high,volume\n"+
			"1735689600,100,101,99,102,500\n")

	feed, err := NewCSVFeed(SymbolFeed{Symbol: "BTCUSDT", File: path})
	require.NoError(t, err)

	candles, err := feed.HistoricalCandles(context.Background(), "BTCUSDT", 0)
	require.NoError(t, err)
	require.Len(t, candles, 1)
}

func TestNewCSVFeed_RejectsMalformedRows(t *testing.T) {
	path := writeCandleFile(t, "1735689600,100,101\n")

	_, err := NewCSVFeed(SymbolFeed{Symbol: "BTCUSDT", File: path})
	require.Error(t, err)
}

func TestHistoricalCandles_RangeFromLastCandle(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, 10)
	for i := range candles {
		candles[i] = core.Candle{
			Symbol: "BTCUSDT",
			Time:   base.Add(time.Duration(i) * 24 * time.Hour),
			Close:  100,
		}
	}

	feed := NewStaticFeed(map[string][]core.Candle{"BTCUSDT": candles})

	// Last candle is day 9; a 3-day range keeps days 6 through 9.
	got, err := feed.HistoricalCandles(context.Background(), "BTCUSDT", 3)
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, candles[6].Time, got[0].Time)
}

func TestHistoricalCandles_UnknownSymbol(t *testing.T) {
	feed := NewStaticFeed(map[string][]core.Candle{})

	_, err := feed.HistoricalCandles(context.Background(), "NOPE", 1)
	require.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestCurrentPrices_LastClose(t *testing.T) {
	feed := NewStaticFeed(map[string][]core.Candle{
		"BTCUSDT": {{Close: 100}, {Close: 105}},
		"ETHUSDT": {{Close: 20}},
	})

	prices, err := feed.CurrentPrices(context.Background(), []string{"BTCUSDT", "ETHUSDT", "NOPE"})
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"BTCUSDT": 105, "ETHUSDT": 20}, prices)
}
