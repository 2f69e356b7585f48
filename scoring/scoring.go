// Package scoring reduces a simulated trade list to performance metrics and
// applies the validity rule that gates live pseudo-position opening.
package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/raykavin/ruleforge/core"
	"github.com/raykavin/ruleforge/internal/metric"
)

// profitFactorSentinel is the finite value reported when a trade list has
// gross profit but no gross loss at all.
const profitFactorSentinel = 2

// Thresholds are the pass/fail limits for validation.
type Thresholds struct {
	MinProfitFactor float64
	MinTrades       int
}

// DefaultThresholds returns the validation limits used when none are
// configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinProfitFactor: 1.1,
		MinTrades:       10,
	}
}

// Metrics is the reduced performance view of a trade list.
type Metrics struct {
	ProfitFactor       float64
	WinRate            float64
	TotalTrades        int
	AvgProfit          float64
	AvgLoss            float64
	MaxDrawdown        float64
	DrawdownTimeHours  float64
	ProfitFactorLast25 float64
	ProfitFactorLast50 float64
	PositionsPer24h    float64
	SharpeRatio        float64
}

// Scorer computes metrics and validity for trade lists.
type Scorer struct {
	thresholds Thresholds
}

// NewScorer creates a scorer with the given thresholds.
func NewScorer(thresholds Thresholds) *Scorer {
	return &Scorer{thresholds: thresholds}
}

// Score reduces the trade list to its metrics. An empty list yields zeroed
// metrics, never an error.
func (s *Scorer) Score(trades []core.Trade) Metrics {
	if len(trades) == 0 {
		return Metrics{}
	}

	pnls := lo.Map(trades, func(t core.Trade, _ int) float64 { return t.PnL })
	wins, losses := metric.Partition(pnls)

	m := Metrics{
		ProfitFactor:       ProfitFactor(pnls),
		WinRate:            float64(len(wins)) / float64(len(pnls)),
		TotalTrades:        len(trades),
		AvgProfit:          metric.Mean(wins),
		AvgLoss:            metric.Mean(losses),
		ProfitFactorLast25: profitFactorLastN(pnls, 25),
		ProfitFactorLast50: profitFactorLastN(pnls, 50),
		SharpeRatio:        metric.SharpeLike(pnls),
	}

	m.MaxDrawdown, m.DrawdownTimeHours = drawdown(trades)
	m.PositionsPer24h = positionsPer24h(trades)

	return m
}

// Validate applies the pass/fail rule and returns a human-readable reason
// when invalid, "Valid" otherwise.
func (s *Scorer) Validate(m Metrics) (bool, string) {
	var failures []string

	if m.ProfitFactor < s.thresholds.MinProfitFactor {
		failures = append(failures, fmt.Sprintf("profit factor %.2f below %.2f",
			m.ProfitFactor, s.thresholds.MinProfitFactor))
	}
	if m.TotalTrades < s.thresholds.MinTrades {
		failures = append(failures, fmt.Sprintf("only %d trades, need %d",
			m.TotalTrades, s.thresholds.MinTrades))
	}
	if m.ProfitFactorLast25 <= 0 && m.ProfitFactorLast50 <= 0 {
		failures = append(failures, "no recent profitability (last 25 and last 50 trades)")
	}

	if len(failures) > 0 {
		return false, strings.Join(failures, "; ")
	}
	return true, "Valid"
}

// Apply scores and validates the trade list and writes the outcome into the
// coordination result.
func (s *Scorer) Apply(result *core.CoordinationResult, trades []core.Trade, now time.Time) {
	m := s.Score(trades)

	result.ProfitFactor = m.ProfitFactor
	result.WinRate = m.WinRate
	result.TotalTrades = m.TotalTrades
	result.AvgProfit = m.AvgProfit
	result.AvgLoss = m.AvgLoss
	result.MaxDrawdown = m.MaxDrawdown
	result.DrawdownTimeHours = m.DrawdownTimeHours
	result.ProfitFactorLast25 = m.ProfitFactorLast25
	result.ProfitFactorLast50 = m.ProfitFactorLast50
	result.PositionsPer24h = m.PositionsPer24h
	result.SharpeRatio = m.SharpeRatio

	result.IsValid, result.ValidationReason = s.Validate(m)
	result.LastValidatedAt = now
}

// ProfitFactor is gross profit over gross loss. All-win lists report the
// finite sentinel 2, empty or all-zero lists report 0.
func ProfitFactor(pnls []float64) float64 {
	wins, losses := metric.Partition(pnls)

	grossProfit := metric.Sum(wins)
	grossLoss := metric.Sum(losses)

	if grossLoss == 0 {
		if grossProfit > 0 {
			return profitFactorSentinel
		}
		return 0
	}

	return grossProfit / grossLoss
}

// profitFactorLastN recomputes the profit factor over the trailing n trades
// only.
func profitFactorLastN(pnls []float64, n int) float64 {
	if len(pnls) > n {
		pnls = pnls[len(pnls)-n:]
	}
	return ProfitFactor(pnls)
}

// drawdown walks the cumulative PnL curve and returns the maximum
// peak-to-trough drop in percentage points and the elapsed hours of the
// longest underwater stretch.
func drawdown(trades []core.Trade) (maxDrawdown float64, longestHours float64) {
	var (
		cumulative     float64
		peak           float64
		underwaterFrom time.Time
		underwater     bool
	)

	for _, t := range trades {
		cumulative += t.PnL

		if cumulative >= peak {
			peak = cumulative
			if underwater {
				hours := t.ExitTime.Sub(underwaterFrom).Hours()
				if hours > longestHours {
					longestHours = hours
				}
				underwater = false
			}
			continue
		}

		if !underwater {
			underwater = true
			underwaterFrom = t.ExitTime
		}

		if dd := (peak - cumulative) * 100; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	if underwater {
		last := trades[len(trades)-1].ExitTime
		if hours := last.Sub(underwaterFrom).Hours(); hours > longestHours {
			longestHours = hours
		}
	}

	return maxDrawdown, longestHours
}

// positionsPer24h is the trade count normalized to a 24h window over the
// simulated span.
func positionsPer24h(trades []core.Trade) float64 {
	elapsed := trades[len(trades)-1].ExitTime.Sub(trades[0].EntryTime).Hours()
	if elapsed <= 0 {
		return float64(len(trades))
	}
	return float64(len(trades)) / (elapsed / 24)
}
