// Package indicator provides pure, stateless technical-indicator functions
// over ordered price series. Every function degrades to a neutral default on
// short input instead of failing.
package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/raykavin/ruleforge/internal/metric"
)

// MACDValue holds the three MACD output fields.
type MACDValue struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// BollingerValue holds the Bollinger Bands outputs. Bandwidth is the band
// spread as a percentage of the middle band.
type BollingerValue struct {
	Upper     float64
	Middle    float64
	Lower     float64
	Bandwidth float64
}

// RSI computes the Relative Strength Index over the trailing period window.
// Returns 50 (neutral) when the series is shorter than period+1. A window
// with no losses yields 100 when there were gains, 50 otherwise.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		if avgGain > 0 {
			return 100
		}
		return 50
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// SMA computes the Simple Moving Average of the trailing period window.
// Falls back to the mean of the whole series when it is shorter than period.
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return metric.Mean(prices)
	}
	out := talib.Sma(prices, period)
	return out[len(out)-1]
}

// EMA computes the Exponential Moving Average of the series. Falls back to
// the mean of the whole series when it is shorter than period.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return metric.Mean(prices)
	}
	out := talib.Ema(prices, period)
	return out[len(out)-1]
}

// MACD computes the Moving Average Convergence Divergence. Returns zeros
// when the series is shorter than the slow period.
//
// The signal line is a 0.9x approximation of the MACD value rather than a
// true EMA of the MACD series; downstream thresholds are tuned against this
// simplification. signalPeriod is accepted for the standard call shape.
func MACD(prices []float64, fast, slow, signalPeriod int) MACDValue {
	if fast <= 0 || slow <= 0 || len(prices) < slow {
		return MACDValue{}
	}
	_ = signalPeriod

	macd := EMA(prices, fast) - EMA(prices, slow)
	signal := macd * 0.9

	return MACDValue{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}
}

// BollingerBands computes SMA +/- multiplier*stddev over the trailing
// window. Returns a collapsed triple at the last price when the series is
// shorter than period.
func BollingerBands(prices []float64, period int, stdDevMultiplier float64) BollingerValue {
	if len(prices) == 0 {
		return BollingerValue{}
	}

	last := prices[len(prices)-1]
	if period <= 0 || len(prices) < period {
		return BollingerValue{Upper: last, Middle: last, Lower: last}
	}

	window := prices[len(prices)-period:]
	middle := metric.Mean(window)
	sd := metric.StdDev(window)

	upper := middle + stdDevMultiplier*sd
	lower := middle - stdDevMultiplier*sd

	bandwidth := 0.0
	if middle != 0 {
		bandwidth = (upper - lower) / middle * 100
	}

	return BollingerValue{
		Upper:     upper,
		Middle:    middle,
		Lower:     lower,
		Bandwidth: bandwidth,
	}
}

// Stochastic computes the %K/%D stochastic oscillator over the trailing
// kPeriod window. %D is the mean of the last dPeriod %K values. Returns a
// neutral 50/50 pair on short input.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d float64) {
	if kPeriod <= 0 || len(closes) < kPeriod || len(highs) < kPeriod || len(lows) < kPeriod {
		return 50, 50
	}
	if dPeriod <= 0 {
		dPeriod = 3
	}

	k = stochasticK(highs, lows, closes, kPeriod, 0)

	var ks []float64
	for offset := 0; offset < dPeriod && len(closes)-offset >= kPeriod; offset++ {
		ks = append(ks, stochasticK(highs, lows, closes, kPeriod, offset))
	}
	d = metric.Mean(ks)

	return k, d
}

func stochasticK(highs, lows, closes []float64, period, offset int) float64 {
	end := len(closes) - offset
	start := end - period

	highest := highs[start]
	lowest := lows[start]
	for i := start + 1; i < end; i++ {
		highest = math.Max(highest, highs[i])
		lowest = math.Min(lowest, lows[i])
	}

	if highest == lowest {
		return 50
	}
	return (closes[end-1] - lowest) / (highest - lowest) * 100
}

// ADX computes the Average Directional Index. Returns 25 (no meaningful
// trend reading) when fewer than 2*period+1 bars are available.
func ADX(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(closes) < 2*period+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return 25
	}

	out := talib.Adx(highs, lows, closes, period)
	value := out[len(out)-1]
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 25
	}
	return value
}

// ParabolicSAR computes the last Parabolic SAR value. With fewer than two
// bars the last low is returned so comparisons stay neutral.
func ParabolicSAR(highs, lows []float64, acceleration, maximum float64) float64 {
	if len(lows) == 0 {
		return 0
	}
	if len(highs) < 2 || len(lows) < 2 {
		return lows[len(lows)-1]
	}

	if acceleration <= 0 {
		acceleration = 0.02
	}
	if maximum <= 0 {
		maximum = 0.2
	}

	out := talib.Sar(highs, lows, acceleration, maximum)
	return out[len(out)-1]
}
