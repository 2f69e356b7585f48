package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/ruleforge/core"
)

func TestSummary_SortsByProfitFactor(t *testing.T) {
	results := []*core.CoordinationResult{
		{Symbol: "ETHUSDT", CombinationHash: "worst", ProfitFactor: 0.7},
		{Symbol: "BTCUSDT", CombinationHash: "best", ProfitFactor: 1.9, IsValid: true},
	}

	out := Summary(results)
	require.Contains(t, out, "best")
	require.Contains(t, out, "worst")
	require.Less(t, strings.Index(out, "best"), strings.Index(out, "worst"))
	require.Contains(t, out, "1.90")
}

func TestSummary_EmptyResults(t *testing.T) {
	out := Summary(nil)
	require.Contains(t, out, "PF")
}

func TestPnLHistogram(t *testing.T) {
	results := []*core.CoordinationResult{
		{ProfitFactor: 0.5}, {ProfitFactor: 1.0}, {ProfitFactor: 1.5}, {ProfitFactor: 2.0},
	}

	var buf strings.Builder
	require.NoError(t, PnLHistogram(&buf, results))
	require.NotEmpty(t, buf.String())

	buf.Reset()
	require.NoError(t, PnLHistogram(&buf, nil))
	require.Empty(t, buf.String())
}
