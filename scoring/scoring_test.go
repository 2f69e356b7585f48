package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/ruleforge/core"
)

func tradesFromPnLs(pnls []float64) []core.Trade {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := make([]core.Trade, len(pnls))
	for i, pnl := range pnls {
		trades[i] = core.Trade{
			EntryTime: base.Add(time.Duration(i) * time.Hour),
			ExitTime:  base.Add(time.Duration(i)*time.Hour + 30*time.Minute),
			PnL:       pnl,
		}
	}
	return trades
}

func TestProfitFactor(t *testing.T) {
	require.InDelta(t, 1.5, ProfitFactor([]float64{0.3, -0.2}), 1e-9)
	require.Equal(t, 0.0, ProfitFactor(nil))
	require.Equal(t, 0.0, ProfitFactor([]float64{0, 0}))

	// All-win lists report the finite sentinel instead of infinity.
	require.Equal(t, 2.0, ProfitFactor([]float64{0.1, 0.2}))

	require.Equal(t, 0.0, ProfitFactor([]float64{-0.1, -0.2}))
}

func TestScore_EmptyTradeList(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	require.Equal(t, Metrics{}, s.Score(nil))
}

func TestScore_BasicMetrics(t *testing.T) {
	s := NewScorer(DefaultThresholds())

	m := s.Score(tradesFromPnLs([]float64{0.04, -0.02, 0.03, -0.01}))

	require.Equal(t, 4, m.TotalTrades)
	require.InDelta(t, 0.5, m.WinRate, 1e-9)
	require.InDelta(t, 0.07/0.03, m.ProfitFactor, 1e-9)
	require.InDelta(t, 0.035, m.AvgProfit, 1e-9)
	require.InDelta(t, 0.015, m.AvgLoss, 1e-9)
	require.Greater(t, m.PositionsPer24h, 0.0)
}

func TestScore_TrailingWindowsUseRecentTrades(t *testing.T) {
	s := NewScorer(DefaultThresholds())

	// 30 early losses followed by 25 wins: the last-25 window must be clean.
	pnls := make([]float64, 0, 55)
	for i := 0; i < 30; i++ {
		pnls = append(pnls, -0.01)
	}
	for i := 0; i < 25; i++ {
		pnls = append(pnls, 0.01)
	}

	m := s.Score(tradesFromPnLs(pnls))
	require.Equal(t, 2.0, m.ProfitFactorLast25)
	require.Less(t, m.ProfitFactorLast50, 2.0)
	require.Greater(t, m.ProfitFactorLast50, 0.0)
}

func TestValidate(t *testing.T) {
	s := NewScorer(Thresholds{MinProfitFactor: 1.1, MinTrades: 10})

	valid, reason := s.Validate(Metrics{
		ProfitFactor:       1.5,
		TotalTrades:        20,
		ProfitFactorLast25: 1.2,
	})
	require.True(t, valid)
	require.Equal(t, "Valid", reason)

	valid, reason = s.Validate(Metrics{
		ProfitFactor:       0.9,
		TotalTrades:        5,
		ProfitFactorLast25: 0,
		ProfitFactorLast50: 0,
	})
	require.False(t, valid)
	require.Contains(t, reason, "profit factor")
	require.Contains(t, reason, "trades")
	require.Contains(t, reason, "recent profitability")
}

func TestValidate_RecentWindowRescuesEitherSide(t *testing.T) {
	s := NewScorer(DefaultThresholds())

	// Last-50 profitability alone satisfies the recency check.
	valid, _ := s.Validate(Metrics{
		ProfitFactor:       1.5,
		TotalTrades:        20,
		ProfitFactorLast25: 0,
		ProfitFactorLast50: 1.05,
	})
	require.True(t, valid)
}

func TestApply_FillsResult(t *testing.T) {
	s := NewScorer(DefaultThresholds())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	pnls := make([]float64, 0, 12)
	for i := 0; i < 12; i++ {
		pnls = append(pnls, 0.02)
	}

	result := &core.CoordinationResult{ConfigSetID: "set-1", Symbol: "BTCUSDT"}
	s.Apply(result, tradesFromPnLs(pnls), now)

	require.True(t, result.IsValid)
	require.Equal(t, "Valid", result.ValidationReason)
	require.Equal(t, now, result.LastValidatedAt)
	require.Equal(t, 12, result.TotalTrades)
	require.Equal(t, 2.0, result.ProfitFactor)
}

func TestDrawdown(t *testing.T) {
	// Curve: +0.10, peak, drop to -0.05 cumulative, then recover.
	trades := tradesFromPnLs([]float64{0.10, -0.08, -0.07, 0.20})

	maxDD, hours := drawdown(trades)
	require.InDelta(t, 15.0, maxDD, 1e-9)
	require.Greater(t, hours, 0.0)
}

func TestDrawdown_MonotoneGainsHaveNone(t *testing.T) {
	maxDD, hours := drawdown(tradesFromPnLs([]float64{0.01, 0.02, 0.03}))
	require.Zero(t, maxDD)
	require.Zero(t, hours)
}
