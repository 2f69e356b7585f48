package indicator

import (
	"math"

	"github.com/raykavin/ruleforge/core"
	"github.com/raykavin/ruleforge/internal/metric"
)

// Indicator type identifiers accepted by GenerateSignal.
const (
	TypeRSI        = "rsi"
	TypeMACD       = "macd"
	TypeBollinger  = "bollinger"
	TypeStochastic = "stochastic"
	TypeADX        = "adx"
	TypeSAR        = "sar"
	TypeEMACross   = "ema_cross"
)

// minCombinedStrength is the floor a direction's mean strength must clear in
// CombineSignals before a non-neutral result is produced.
const minCombinedStrength = 0.3

// Config describes one indicator instance: its family and numeric
// parameters. Missing parameters fall back to conventional defaults.
type Config struct {
	Type   string             `json:"type"`
	Params map[string]float64 `json:"params"`
}

// Param returns the named parameter or def when absent or non-positive.
func (c Config) Param(name string, def float64) float64 {
	if v, ok := c.Params[name]; ok && v > 0 {
		return v
	}
	return def
}

// GenerateSignal maps the indicator's raw value over the candle series to a
// directional signal with a strength in [0,1]. Unknown types and short
// series yield a neutral signal.
func GenerateSignal(cfg Config, candles []core.Candle) core.Signal {
	neutral := core.Signal{Direction: core.DirectionNeutral}
	if len(candles) == 0 {
		return neutral
	}

	closes := core.Closes(candles)
	lastPrice := closes[len(closes)-1]
	if lastPrice <= 0 {
		return neutral
	}

	switch cfg.Type {
	case TypeRSI:
		return rsiSignal(cfg, closes)
	case TypeMACD:
		return macdSignal(cfg, closes, lastPrice)
	case TypeBollinger:
		return bollingerSignal(cfg, closes, lastPrice)
	case TypeStochastic:
		return stochasticSignal(cfg, candles)
	case TypeADX:
		return adxSignal(cfg, candles, lastPrice)
	case TypeSAR:
		return sarSignal(cfg, candles, lastPrice)
	case TypeEMACross:
		return emaCrossSignal(cfg, closes)
	default:
		return neutral
	}
}

func rsiSignal(cfg Config, closes []float64) core.Signal {
	period := int(cfg.Param("period", 14))
	oversold := cfg.Param("oversold", 30)
	overbought := cfg.Param("overbought", 70)

	value := RSI(closes, period)
	switch {
	case value < oversold:
		return core.Signal{
			Direction: core.DirectionLong,
			Strength:  clamp((oversold - value) / oversold),
		}
	case value > overbought:
		return core.Signal{
			Direction: core.DirectionShort,
			Strength:  clamp((value - overbought) / (100 - overbought)),
		}
	}
	return core.Signal{Direction: core.DirectionNeutral}
}

func macdSignal(cfg Config, closes []float64, lastPrice float64) core.Signal {
	fast := int(cfg.Param("fast", 12))
	slow := int(cfg.Param("slow", 26))
	signalPeriod := int(cfg.Param("signal", 9))

	value := MACD(closes, fast, slow, signalPeriod)
	if value.Histogram == 0 {
		return core.Signal{Direction: core.DirectionNeutral}
	}

	strength := clamp(math.Abs(value.Histogram) / lastPrice * 100)
	if value.Histogram > 0 {
		return core.Signal{Direction: core.DirectionLong, Strength: strength}
	}
	return core.Signal{Direction: core.DirectionShort, Strength: strength}
}

func bollingerSignal(cfg Config, closes []float64, lastPrice float64) core.Signal {
	period := int(cfg.Param("period", 20))
	mult := cfg.Param("std_dev", 2)

	bands := BollingerBands(closes, period, mult)
	spread := bands.Upper - bands.Lower
	if spread <= 0 {
		return core.Signal{Direction: core.DirectionNeutral}
	}

	switch {
	case lastPrice <= bands.Lower:
		return core.Signal{
			Direction: core.DirectionLong,
			Strength:  clamp(0.5 + (bands.Lower-lastPrice)/spread),
		}
	case lastPrice >= bands.Upper:
		return core.Signal{
			Direction: core.DirectionShort,
			Strength:  clamp(0.5 + (lastPrice-bands.Upper)/spread),
		}
	}
	return core.Signal{Direction: core.DirectionNeutral}
}

func stochasticSignal(cfg Config, candles []core.Candle) core.Signal {
	kPeriod := int(cfg.Param("k_period", 14))
	dPeriod := int(cfg.Param("d_period", 3))

	k, _ := Stochastic(core.Highs(candles), core.Lows(candles), core.Closes(candles), kPeriod, dPeriod)
	switch {
	case k < 20:
		return core.Signal{Direction: core.DirectionLong, Strength: clamp((20 - k) / 20)}
	case k > 80:
		return core.Signal{Direction: core.DirectionShort, Strength: clamp((k - 80) / 20)}
	}
	return core.Signal{Direction: core.DirectionNeutral}
}

// adxSignal uses ADX for trend strength and Parabolic SAR for direction.
func adxSignal(cfg Config, candles []core.Candle, lastPrice float64) core.Signal {
	period := int(cfg.Param("period", 14))
	threshold := cfg.Param("threshold", 25)

	highs, lows, closes := core.Highs(candles), core.Lows(candles), core.Closes(candles)
	adx := ADX(highs, lows, closes, period)
	if adx < threshold {
		return core.Signal{Direction: core.DirectionNeutral}
	}

	strength := clamp(adx / 50)
	if lastPrice >= ParabolicSAR(highs, lows, 0.02, 0.2) {
		return core.Signal{Direction: core.DirectionLong, Strength: strength}
	}
	return core.Signal{Direction: core.DirectionShort, Strength: strength}
}

func sarSignal(cfg Config, candles []core.Candle, lastPrice float64) core.Signal {
	accel := cfg.Param("acceleration", 0.02)
	maximum := cfg.Param("maximum", 0.2)

	sar := ParabolicSAR(core.Highs(candles), core.Lows(candles), accel, maximum)
	if sar <= 0 || sar == lastPrice {
		return core.Signal{Direction: core.DirectionNeutral}
	}

	strength := clamp(math.Abs(lastPrice-sar) / lastPrice * 20)
	if lastPrice > sar {
		return core.Signal{Direction: core.DirectionLong, Strength: strength}
	}
	return core.Signal{Direction: core.DirectionShort, Strength: strength}
}

func emaCrossSignal(cfg Config, closes []float64) core.Signal {
	fast := int(cfg.Param("fast", 9))
	slow := int(cfg.Param("slow", 21))

	fastValue := EMA(closes, fast)
	slowValue := EMA(closes, slow)
	if slowValue == 0 || fastValue == slowValue {
		return core.Signal{Direction: core.DirectionNeutral}
	}

	strength := clamp(math.Abs(fastValue-slowValue) / slowValue * 100)
	if fastValue > slowValue {
		return core.Signal{Direction: core.DirectionLong, Strength: strength}
	}
	return core.Signal{Direction: core.DirectionShort, Strength: strength}
}

// CombineSignals averages the strengths of each direction and returns the
// stronger side, or neutral when neither side's mean strength clears the
// other and the 0.3 floor.
func CombineSignals(signals []core.Signal) core.Signal {
	var longs, shorts []float64
	for _, s := range signals {
		switch s.Direction {
		case core.DirectionLong:
			longs = append(longs, s.Strength)
		case core.DirectionShort:
			shorts = append(shorts, s.Strength)
		}
	}

	longMean := metric.Mean(longs)
	shortMean := metric.Mean(shorts)

	switch {
	case longMean > shortMean && longMean > minCombinedStrength:
		return core.Signal{Direction: core.DirectionLong, Strength: longMean}
	case shortMean > longMean && shortMean > minCombinedStrength:
		return core.Signal{Direction: core.DirectionShort, Strength: shortMean}
	}
	return core.Signal{Direction: core.DirectionNeutral}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
