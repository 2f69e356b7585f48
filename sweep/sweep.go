// Package sweep enumerates parameter combinations for a configuration set:
// indicator-parameter variants around a base, a take-profit/stop-loss grid,
// and trailing-stop variants, crossed into the full combination set.
package sweep

import (
	"math"
	"sort"

	"github.com/raykavin/ruleforge/core"
)

// Ranges describes the position-management sweep space around a base
// combination.
type Ranges struct {
	TakeProfitMin  float64 `json:"take_profit_min" mapstructure:"take_profit_min"`
	TakeProfitMax  float64 `json:"take_profit_max" mapstructure:"take_profit_max"`
	TakeProfitStep float64 `json:"take_profit_step" mapstructure:"take_profit_step"`

	StopLossMin  float64 `json:"stop_loss_min" mapstructure:"stop_loss_min"`
	StopLossMax  float64 `json:"stop_loss_max" mapstructure:"stop_loss_max"`
	StopLossStep float64 `json:"stop_loss_step" mapstructure:"stop_loss_step"`

	TrailingEnabled bool      `json:"trailing_enabled" mapstructure:"trailing_enabled"`
	TrailStarts     []float64 `json:"trail_starts" mapstructure:"trail_starts"`
	TrailStops      []float64 `json:"trail_stops" mapstructure:"trail_stops"`
}

// Generator deterministically expands a base combination into its full
// variant cross product. The generator itself is unbounded; capping the
// total combination count is the orchestrator's responsibility.
type Generator struct {
	log core.Logger
}

// NewGenerator creates a combination generator.
func NewGenerator(log core.Logger) *Generator {
	return &Generator{log: log}
}

// Generate produces indicator-sweep x TP/SL-grid x trailing-sweep. The
// result is never empty: a base with no numeric fields still yields the base
// itself, and the grid always contains at least the range minimums.
func (g *Generator) Generate(base core.ParameterCombination, ranges Ranges) []core.ParameterCombination {
	paramSets := g.sweepIndicatorParams(base.IndicatorParams)
	grid := g.sweepPositionRanges(ranges)
	trailing := g.sweepTrailing(ranges)

	combinations := make([]core.ParameterCombination, 0, len(paramSets)*len(grid)*len(trailing))
	for _, params := range paramSets {
		for _, cell := range grid {
			for _, trail := range trailing {
				combo := base.Clone()
				combo.IndicatorParams = params
				combo.TakeProfitFactor = cell.takeProfit
				combo.StopLossRatio = cell.stopLoss
				combo.TrailingEnabled = trail.enabled
				combo.TrailStart = trail.start
				combo.TrailStop = trail.stop
				combinations = append(combinations, combo)
			}
		}
	}

	g.logf("generated %d combinations (%d param sets x %d grid cells x %d trailing variants)",
		len(combinations), len(paramSets), len(grid), len(trailing))

	return combinations
}

// sweepIndicatorParams generates, for every numeric field, values from
// 0.5x to 1.5x of the base with step = max(1, floor((max-min)/10)), then
// builds the cross product across fields. A base with no numeric fields is
// returned unchanged.
func (g *Generator) sweepIndicatorParams(base map[string]float64) []map[string]float64 {
	if len(base) == 0 {
		return []map[string]float64{{}}
	}

	keys := make([]string, 0, len(base))
	for k := range base {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	paramSets := []map[string]float64{{}}
	for _, key := range keys {
		values := g.fieldValues(base[key])

		var newSets []map[string]float64
		for _, set := range paramSets {
			for _, value := range values {
				newSet := make(map[string]float64, len(set)+1)
				for k, v := range set {
					newSet[k] = v
				}
				newSet[key] = value
				newSets = append(newSets, newSet)
			}
		}
		paramSets = newSets
	}

	return paramSets
}

// fieldValues expands one numeric field into its candidate values.
func (g *Generator) fieldValues(base float64) []float64 {
	min := base * 0.5
	max := base * 1.5
	step := math.Max(1, math.Floor((max-min)/10))

	var values []float64
	for v := min; v <= max+1e-9; v += step {
		values = append(values, v)
	}
	if len(values) == 0 {
		values = []float64{base}
	}
	return values
}

type gridCell struct {
	takeProfit float64
	stopLoss   float64
}

func (g *Generator) sweepPositionRanges(ranges Ranges) []gridCell {
	takeProfits := stepped(ranges.TakeProfitMin, ranges.TakeProfitMax, ranges.TakeProfitStep)
	stopLosses := stepped(ranges.StopLossMin, ranges.StopLossMax, ranges.StopLossStep)

	cells := make([]gridCell, 0, len(takeProfits)*len(stopLosses))
	for _, tp := range takeProfits {
		for _, sl := range stopLosses {
			cells = append(cells, gridCell{takeProfit: tp, stopLoss: sl})
		}
	}
	return cells
}

type trailingVariant struct {
	enabled bool
	start   float64
	stop    float64
}

// sweepTrailing always includes the no-trailing case; when trailing is
// enabled every (start, stop) pair is added as well.
func (g *Generator) sweepTrailing(ranges Ranges) []trailingVariant {
	variants := []trailingVariant{{enabled: false}}

	if !ranges.TrailingEnabled {
		return variants
	}

	for _, start := range ranges.TrailStarts {
		for _, stop := range ranges.TrailStops {
			variants = append(variants, trailingVariant{enabled: true, start: start, stop: stop})
		}
	}
	return variants
}

// stepped expands [min..max] inclusive with the given step. A non-positive
// step collapses the range to its minimum.
func stepped(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return []float64{min}
	}

	var values []float64
	for v := min; v <= max+1e-9; v += step {
		values = append(values, v)
	}
	return values
}

func (g *Generator) logf(format string, args ...any) {
	if g.log != nil {
		g.log.Debugf(format, args...)
	}
}
