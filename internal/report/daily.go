// Package report renders signal sets and backtest results as plain-text
// reports suitable for stdout and notification channels.
package report

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// Daily renders a signal set as the daily report. topPerTier caps how many
// signals each tier section lists; the summary line always reflects the full
// set.
func Daily(set domain.SignalSet, topPerTier int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Polymarket Signal Report - %s\n", set.Timestamp.UTC().Format("2006-01-02 15:04 UTC"))
	b.WriteString(strings.Repeat("=", 60) + "\n")

	writeTier(&b, "MAJOR MOVES (high conviction)", set.Major, topPerTier)
	writeTier(&b, "NOTABLE MOVES", set.Notable, topPerTier)
	writeTier(&b, "STABLE SIGNALS (high volume, low movement)", set.Stable, topPerTier)

	fmt.Fprintf(&b, "\nSummary: %d major, %d notable, %d stable (%d total)\n",
		len(set.Major), len(set.Notable), len(set.Stable), set.Total())

	return b.String()
}

// writeTier renders one tier section, or a placeholder when the tier is empty.
func writeTier(b *strings.Builder, title string, sigs []domain.Signal, top int) {
	fmt.Fprintf(b, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
	if len(sigs) == 0 {
		b.WriteString("  (none)\n")
		return
	}

	shown := sigs
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}
	for _, sig := range shown {
		fmt.Fprintf(b, "  %s\n", sig.Question)
		fmt.Fprintf(b, "    prob %.1f%%  day %+.2f  week %+.2f  vol24h $%.0f",
			sig.CurrentProb, sig.DayChange, sig.WeekChange, sig.Volume24h)
		if len(sig.Tickers) > 0 {
			fmt.Fprintf(b, "  stocks: %s", strings.Join(sig.Tickers, ", "))
		}
		fmt.Fprintf(b, "\n    [%s]\n", sig.Category)
	}
	if len(sigs) > len(shown) {
		fmt.Fprintf(b, "  ... and %d more\n", len(sigs)-len(shown))
	}
}
