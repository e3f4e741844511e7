// Package signal contains the core decision logic of the generator: mapping
// market text to watchlist categories, bucketing probability moves into
// severity tiers, and composing both over a batch of raw markets into a
// signal set.
package signal

import (
	"sort"
	"strings"

	"github.com/alanyoungcy/polysignal/internal/config"
)

// DefaultCategory is assigned to markets matched only by a standalone
// watchlist keyword (no category, no ticker mapping).
const DefaultCategory = "watchlist"

// Matcher maps a market's text to a watchlist category and the set of tickers
// the category affects. Matching is an ordered scan: categories are tried in
// configuration order, keywords within a category in declared order, and the
// first keyword found as a case-insensitive substring wins.
type Matcher struct {
	categories []config.Category
	extra      []string // standalone watchlist keywords
	exclude    []string
	tracked    map[string]config.TrackedEvent // by slug
}

// NewMatcher builds a Matcher from the watchlist configuration. The category
// slice order is preserved; it determines match priority.
func NewMatcher(cfg *config.Config) *Matcher {
	tracked := make(map[string]config.TrackedEvent, len(cfg.TrackedEvents))
	for _, ev := range cfg.TrackedEvents {
		tracked[ev.Slug] = ev
	}
	return &Matcher{
		categories: cfg.Watchlist,
		extra:      lowerAll(cfg.KeywordWatchlist),
		exclude:    lowerAll(cfg.ExcludeKeywords),
		tracked:    tracked,
	}
}

// Match returns the first matching category and the union of its impacted
// tickers, or ("", nil) when no category matches or the market text hits an
// exclusion keyword. The ticker union is deduplicated and sorted so matching
// output is deterministic.
func (m *Matcher) Match(question, description string) (string, []string) {
	text := strings.ToLower(question + " " + description)

	for _, kw := range m.exclude {
		if kw != "" && strings.Contains(text, kw) {
			return "", nil
		}
	}

	for _, cat := range m.categories {
		for _, kw := range cat.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(kw)) {
				return cat.Name, tickerUnion(cat.StockImpact)
			}
		}
	}

	for _, kw := range m.extra {
		if kw != "" && strings.Contains(text, kw) {
			return DefaultCategory, nil
		}
	}

	return "", nil
}

// TrackedEvent returns the tracked-event configuration for a slug, if any.
// Slug lookups bypass keyword matching entirely and carry their own category
// name and ticker list.
func (m *Matcher) TrackedEvent(slug string) (config.TrackedEvent, bool) {
	ev, ok := m.tracked[slug]
	return ev, ok
}

// tickerUnion merges every ticker list under a category's stock-impact
// mapping into a sorted, duplicate-free slice.
func tickerUnion(impact map[string][]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tickers := range impact {
		for _, t := range tickers {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
