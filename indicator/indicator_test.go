package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRSI_ShortSeriesIsNeutral(t *testing.T) {
	prices := []float64{100, 101, 102}
	require.Equal(t, 50.0, RSI(prices, 14))
}

func TestRSI_AllGainsSaturates(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	require.Equal(t, 100.0, RSI(prices, 14))
}

func TestRSI_FlatSeriesIsNeutral(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100
	}
	require.Equal(t, 50.0, RSI(prices, 14))
}

func TestRSI_BalancedMovesAreMidrange(t *testing.T) {
	// Alternating +1/-1 deltas: equal gains and losses, RSI must be 50.
	prices := []float64{100, 101, 100, 101, 100, 101, 100, 101, 100}
	value := RSI(prices, 8)
	require.InDelta(t, 50.0, value, 1e-9)
}

func TestSMA_FallsBackToMeanOnShortSeries(t *testing.T) {
	prices := []float64{10, 20, 30}
	require.InDelta(t, 20.0, SMA(prices, 14), 1e-9)
}

func TestSMA_TrailingWindow(t *testing.T) {
	prices := []float64{1, 1, 1, 2, 4, 6}
	require.InDelta(t, 4.0, SMA(prices, 3), 1e-9)
}

func TestMACD_ShortSeriesIsZero(t *testing.T) {
	prices := []float64{100, 101, 102}
	value := MACD(prices, 12, 26, 9)
	require.Zero(t, value.MACD)
	require.Zero(t, value.Signal)
	require.Zero(t, value.Histogram)
}

func TestMACD_HistogramSignConsistency(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i) // steady uptrend
	}
	value := MACD(prices, 12, 26, 9)
	require.Greater(t, value.MACD, 0.0)
	require.InDelta(t, value.MACD*0.9, value.Signal, 1e-9)
	require.InDelta(t, value.MACD-value.Signal, value.Histogram, 1e-9)
}

func TestBollingerBands_ShortSeriesCollapses(t *testing.T) {
	prices := []float64{100, 102}
	bands := BollingerBands(prices, 20, 2)
	require.Equal(t, 102.0, bands.Upper)
	require.Equal(t, 102.0, bands.Middle)
	require.Equal(t, 102.0, bands.Lower)
}

func TestBollingerBands_SymmetricAroundMiddle(t *testing.T) {
	prices := []float64{98, 99, 100, 101, 102, 98, 99, 100, 101, 102}
	bands := BollingerBands(prices, 10, 2)
	require.InDelta(t, 100.0, bands.Middle, 1e-9)
	require.InDelta(t, bands.Middle-bands.Lower, bands.Upper-bands.Middle, 1e-9)
	require.Greater(t, bands.Bandwidth, 0.0)
}

func TestStochastic_ShortSeriesIsNeutral(t *testing.T) {
	k, d := Stochastic([]float64{1, 2}, []float64{1, 2}, []float64{1, 2}, 14, 3)
	require.Equal(t, 50.0, k)
	require.Equal(t, 50.0, d)
}

func TestStochastic_CloseAtHighIsHundred(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 14}
	lows := []float64{9, 10, 11, 12, 13}
	closes := []float64{10, 11, 12, 13, 14}

	k, _ := Stochastic(highs, lows, closes, 5, 3)
	require.InDelta(t, 100.0, k, 1e-9)
}

func TestStochastic_FlatRangeIsNeutral(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5}
	k, d := Stochastic(flat, flat, flat, 5, 3)
	require.Equal(t, 50.0, k)
	require.Equal(t, 50.0, d)
}

func TestADX_ShortSeriesReturnsDefault(t *testing.T) {
	series := []float64{1, 2, 3}
	require.Equal(t, 25.0, ADX(series, series, series, 14))
}

func TestParabolicSAR_ShortSeriesReturnsLastLow(t *testing.T) {
	require.Equal(t, 99.0, ParabolicSAR([]float64{100}, []float64{99}, 0.02, 0.2))
}

func TestParabolicSAR_BelowPriceInUptrend(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 101 + float64(i)
		lows[i] = 99 + float64(i)
	}

	sar := ParabolicSAR(highs, lows, 0.02, 0.2)
	require.False(t, math.IsNaN(sar))
	require.Less(t, sar, lows[n-1])
}
