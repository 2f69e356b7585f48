// Package report renders coordination results for terminal inspection.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"

	"github.com/raykavin/ruleforge/core"
)

// Summary renders the results as a text table sorted by profit factor,
// best first.
func Summary(results []*core.CoordinationResult) string {
	sorted := make([]*core.CoordinationResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProfitFactor > sorted[j].ProfitFactor
	})

	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetHeader([]string{"Symbol", "Combination", "PF", "Win %", "Trades", "Max DD", "Per 24h", "Valid"})

	for _, r := range sorted {
		table.Append([]string{
			r.Symbol,
			r.CombinationHash,
			fmt.Sprintf("%.2f", r.ProfitFactor),
			fmt.Sprintf("%.1f", r.WinRate*100),
			strconv.Itoa(r.TotalTrades),
			fmt.Sprintf("%.2f", r.MaxDrawdown),
			fmt.Sprintf("%.1f", r.PositionsPer24h),
			strconv.FormatBool(r.IsValid),
		})
	}

	table.Render()
	return tableString.String()
}

// PnLHistogram prints the distribution of per-combination profit factors.
func PnLHistogram(w io.Writer, results []*core.CoordinationResult) error {
	if len(results) == 0 {
		return nil
	}

	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.ProfitFactor
	}

	hist := histogram.Hist(9, values)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
