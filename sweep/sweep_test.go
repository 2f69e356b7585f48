package sweep

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/ruleforge/core"
)

func testRanges() Ranges {
	return Ranges{
		TakeProfitMin:  2,
		TakeProfitMax:  4,
		TakeProfitStep: 1,
		StopLossMin:    1,
		StopLossMax:    2,
		StopLossStep:   0.5,
	}
}

func TestGenerate_CountMatchesCrossProduct(t *testing.T) {
	g := NewGenerator(core.NewNopLogger())

	base := core.ParameterCombination{
		IndicatorType:   "rsi",
		IndicatorParams: map[string]float64{"period": 14},
	}
	ranges := testRanges()
	ranges.TrailingEnabled = true
	ranges.TrailStarts = []float64{1, 2}
	ranges.TrailStops = []float64{0.5}

	combinations := g.Generate(base, ranges)

	// period sweeps 7..21 step 1 (15 values), the grid is 3x3 and trailing
	// contributes the off variant plus 2x1 pairs.
	require.Len(t, combinations, 15*9*3)
}

func TestGenerate_NoDuplicateHashes(t *testing.T) {
	g := NewGenerator(core.NewNopLogger())

	base := core.ParameterCombination{
		IndicatorType:   "rsi",
		IndicatorParams: map[string]float64{"period": 14, "oversold": 30},
	}
	ranges := testRanges()
	ranges.TrailingEnabled = true
	ranges.TrailStarts = []float64{1}
	ranges.TrailStops = []float64{0.5, 1}

	combinations := g.Generate(base, ranges)

	seen := make(map[string]struct{}, len(combinations))
	for _, combo := range combinations {
		hash := combo.Hash()
		_, dup := seen[hash]
		require.False(t, dup, "duplicate combination hash %s", hash)
		seen[hash] = struct{}{}
	}
}

func TestGenerate_EmptyBaseStillYieldsGrid(t *testing.T) {
	g := NewGenerator(core.NewNopLogger())

	combinations := g.Generate(core.ParameterCombination{IndicatorType: "macd"}, testRanges())

	require.Len(t, combinations, 9)
	for _, combo := range combinations {
		require.Equal(t, "macd", combo.IndicatorType)
		require.False(t, combo.TrailingEnabled)
	}
}

func TestGenerate_TrailingDisabledYieldsSingleVariant(t *testing.T) {
	g := NewGenerator(core.NewNopLogger())

	ranges := testRanges()
	ranges.TrailStarts = []float64{1, 2} // ignored while TrailingEnabled is false

	combinations := g.Generate(core.ParameterCombination{}, ranges)
	for _, combo := range combinations {
		require.False(t, combo.TrailingEnabled)
	}
}

func TestGenerate_AlwaysIncludesNoTrailingVariant(t *testing.T) {
	g := NewGenerator(core.NewNopLogger())

	ranges := testRanges()
	ranges.TrailingEnabled = true
	ranges.TrailStarts = []float64{2}
	ranges.TrailStops = []float64{1}

	combinations := g.Generate(core.ParameterCombination{}, ranges)

	var off, on int
	for _, combo := range combinations {
		if combo.TrailingEnabled {
			on++
		} else {
			off++
		}
	}
	require.Equal(t, 9, off)
	require.Equal(t, 9, on)
}

func TestGenerate_ClonesDoNotShareParamMaps(t *testing.T) {
	g := NewGenerator(core.NewNopLogger())

	base := core.ParameterCombination{
		IndicatorParams: map[string]float64{"period": 14},
	}

	combinations := g.Generate(base, testRanges())
	require.NotEmpty(t, combinations)

	combinations[0].IndicatorParams["period"] = -1
	require.Equal(t, 14.0, base.IndicatorParams["period"])
}

func TestStepped(t *testing.T) {
	require.Equal(t, []float64{1, 1.5, 2}, stepped(1, 2, 0.5))
	require.Equal(t, []float64{3}, stepped(3, 5, 0))
	require.Equal(t, []float64{3}, stepped(3, 1, 1))
}
