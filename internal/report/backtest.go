package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// topTickers caps the per-ticker breakdown in the backtest report.
const topTickers = 10

// Backtest renders a historical backtest result.
func Backtest(result domain.HistoricalResult) string {
	var b strings.Builder

	b.WriteString("Historical Backtest\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Signals scored: %d over %d day(s)\n", result.TotalSignals, len(result.Details))
	fmt.Fprintf(&b, "Correct direction: %d (%.1f%%)\n", result.CorrectSignals, result.OverallHitRate)

	if len(result.ByTicker) == 0 {
		return b.String()
	}

	// Most frequently signaled tickers first; name breaks ties.
	type entry struct {
		ticker string
		stats  *domain.TickerStats
	}
	entries := make([]entry, 0, len(result.ByTicker))
	for t, stats := range result.ByTicker {
		entries = append(entries, entry{t, stats})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].stats.Total != entries[j].stats.Total {
			return entries[i].stats.Total > entries[j].stats.Total
		}
		return entries[i].ticker < entries[j].ticker
	})
	if len(entries) > topTickers {
		entries = entries[:topTickers]
	}

	b.WriteString("\nBy ticker\n---------\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %-6s  %d/%d correct (%.1f%%)  avg return %+.2f%%\n",
			e.ticker, e.stats.Correct, e.stats.Total, e.stats.HitRate, e.stats.AvgReturn)
	}

	return b.String()
}
