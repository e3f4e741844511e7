package domain

import "time"

// Tier is the severity bucket assigned to a signal based on the magnitude of
// its one-day probability change.
type Tier string

const (
	TierMajor   Tier = "major"
	TierNotable Tier = "notable"
	TierStable  Tier = "stable"
)

// Signal is a market enriched with its matched category, affected tickers, and
// severity tier for one polling cycle. Immutable once built.
//
// The JSON field names match the persisted history-file format; Tier is
// implied by which bucket of the SignalSet the signal sits in and is not
// serialized.
type Signal struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Category    string   `json:"category"`
	Tickers     []string `json:"affected_stocks"`
	CurrentProb float64  `json:"current_prob"`
	DayChange   float64  `json:"day_change"`
	WeekChange  float64  `json:"week_change"`
	Volume24h   float64  `json:"volume_24h"`
	VolumeTotal float64  `json:"volume_total"`
	Slug        string   `json:"slug"`
	Tier        Tier     `json:"-"`
}

// Direction returns the implied equity direction of the signal: bullish when
// the market's probability rose, bearish otherwise.
func (s Signal) Direction() Direction {
	if s.DayChange > 0 {
		return DirectionBullish
	}
	return DirectionBearish
}

// SignalSet is the timestamped output of one polling cycle, partitioned into
// severity tiers. Major and notable are ordered descending by abs(day change);
// stable is ordered descending by current probability.
type SignalSet struct {
	Major     []Signal  `json:"major"`
	Notable   []Signal  `json:"notable"`
	Stable    []Signal  `json:"stable"`
	Timestamp time.Time `json:"timestamp"`
}

// Total returns the number of signals across all tiers.
func (s *SignalSet) Total() int {
	return len(s.Major) + len(s.Notable) + len(s.Stable)
}
