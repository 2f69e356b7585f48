package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHash_StableAcrossMapOrder(t *testing.T) {
	a := ParameterCombination{
		IndicatorType:    "rsi",
		IndicatorParams:  map[string]float64{"period": 14, "oversold": 30, "overbought": 70},
		TakeProfitFactor: 5,
		StopLossRatio:    2,
	}
	b := ParameterCombination{
		IndicatorType:    "rsi",
		IndicatorParams:  map[string]float64{"overbought": 70, "period": 14, "oversold": 30},
		TakeProfitFactor: 5,
		StopLossRatio:    2,
	}

	require.Equal(t, a.Hash(), b.Hash())

	// Repeated calls on the same value agree.
	require.Equal(t, a.Hash(), a.Hash())
}

func TestHash_DistinguishesFields(t *testing.T) {
	base := ParameterCombination{
		IndicatorType:    "rsi",
		IndicatorParams:  map[string]float64{"period": 14},
		TakeProfitFactor: 5,
		StopLossRatio:    2,
	}

	variants := []ParameterCombination{}
	for _, mutate := range []func(*ParameterCombination){
		func(c *ParameterCombination) { c.IndicatorType = "macd" },
		func(c *ParameterCombination) { c.IndicatorParams["period"] = 21 },
		func(c *ParameterCombination) { c.TakeProfitFactor = 6 },
		func(c *ParameterCombination) { c.StopLossRatio = 1 },
		func(c *ParameterCombination) { c.TrailingEnabled = true },
	} {
		v := base.Clone()
		mutate(&v)
		variants = append(variants, v)
	}

	for i, v := range variants {
		require.NotEqual(t, base.Hash(), v.Hash(), "variant %d should hash differently", i)
	}
}

func TestHash_TrailingSettingsOnlyCountWhenEnabled(t *testing.T) {
	off := ParameterCombination{TakeProfitFactor: 5, StopLossRatio: 2}
	offWithLeftovers := off
	offWithLeftovers.TrailStart = 3
	offWithLeftovers.TrailStop = 1

	require.Equal(t, off.Hash(), offWithLeftovers.Hash())

	on := off
	on.TrailingEnabled = true
	on.TrailStart = 3
	on.TrailStop = 1

	onOther := on
	onOther.TrailStop = 2
	require.NotEqual(t, on.Hash(), onOther.Hash())
}

func TestClone_DoesNotShareParams(t *testing.T) {
	original := ParameterCombination{
		IndicatorParams: map[string]float64{"period": 14},
	}

	clone := original.Clone()
	clone.IndicatorParams["period"] = 21

	require.Equal(t, 14.0, original.IndicatorParams["period"])
}

func TestPseudoPositionPnL(t *testing.T) {
	long := &PseudoPosition{Direction: DirectionLong, EntryPrice: 100}
	require.InDelta(t, 0.05, long.PnL(105), 1e-9)
	require.InDelta(t, -0.02, long.PnL(98), 1e-9)

	short := &PseudoPosition{Direction: DirectionShort, EntryPrice: 100}
	require.InDelta(t, 0.05, short.PnL(95), 1e-9)
	require.InDelta(t, -0.02, short.PnL(102), 1e-9)

	zero := &PseudoPosition{Direction: DirectionLong}
	require.Zero(t, zero.PnL(100))
}

func TestLimitKeyString(t *testing.T) {
	key := LimitKey{
		ConfigSetID:     "set-1",
		Symbol:          "BTCUSDT",
		CombinationHash: "abc",
		Direction:       DirectionLong,
	}
	require.Equal(t, "set-1:BTCUSDT:abc:long", key.String())
}

func TestCandleToSlice(t *testing.T) {
	c := Candle{Time: time.Unix(1735689600, 0), Open: 1.5, Close: 2.5, Low: 1, High: 3, Volume: 10}
	row := c.ToSlice(2)
	require.Equal(t, []string{"1735689600", "1.50", "2.50", "1.00", "3.00", "10.00"}, row)
}
