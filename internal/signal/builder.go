package signal

import (
	"math"
	"sort"
	"time"

	"github.com/alanyoungcy/polysignal/internal/config"
	"github.com/alanyoungcy/polysignal/internal/domain"
)

// Builder turns a batch of raw market records into a tiered SignalSet for one
// polling cycle.
//
// The pipeline is: dedup by market ID (first occurrence wins, so callers
// control priority via input order) -> assign categories (records arriving
// pre-matched skip both the volume floor and keyword matching) -> discard
// unmatched records -> classify each survivor into a tier -> sort each tier.
type Builder struct {
	matcher    *Matcher
	thresholds config.ThresholdConfig
}

// NewBuilder creates a Builder using the given matcher and thresholds.
func NewBuilder(matcher *Matcher, thresholds config.ThresholdConfig) *Builder {
	return &Builder{matcher: matcher, thresholds: thresholds}
}

// Build produces the SignalSet for one cycle. The input slice is not modified.
// Output ordering is fully determined by the input: the same records in the
// same order always yield a byte-identical serialized set (modulo timestamp).
func (b *Builder) Build(records []domain.MarketRecord, now time.Time) domain.SignalSet {
	set := domain.SignalSet{
		Major:     []domain.Signal{},
		Notable:   []domain.Signal{},
		Stable:    []domain.Signal{},
		Timestamp: now.UTC(),
	}

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.ID == "" || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true

		category := rec.Category
		tickers := rec.Tickers
		if !rec.Matched() {
			// The volume floor applies only to keyword discovery; explicitly
			// tracked markets are reported regardless of activity.
			if rec.Volume24h < b.thresholds.MinVolume24h {
				continue
			}
			category, tickers = b.matcher.Match(rec.Question, rec.Description)
			if category == "" {
				continue
			}
		}
		if tickers == nil {
			tickers = []string{}
		}

		sig := domain.Signal{
			ID:          rec.ID,
			Question:    rec.Question,
			Category:    category,
			Tickers:     tickers,
			CurrentProb: rec.CurrentProb,
			DayChange:   rec.DayChangePct,
			WeekChange:  rec.WeekChangePct,
			Volume24h:   rec.Volume24h,
			VolumeTotal: rec.VolumeTotal,
			Slug:        rec.Slug,
			Tier:        Classify(rec.DayChangePct, b.thresholds.MajorChange, b.thresholds.NotableChange),
		}

		switch sig.Tier {
		case domain.TierMajor:
			set.Major = append(set.Major, sig)
		case domain.TierNotable:
			set.Notable = append(set.Notable, sig)
		default:
			set.Stable = append(set.Stable, sig)
		}
	}

	// Stable sorts keep input order for ties, preserving determinism.
	byAbsChange := func(sigs []domain.Signal) {
		sort.SliceStable(sigs, func(i, j int) bool {
			return math.Abs(sigs[i].DayChange) > math.Abs(sigs[j].DayChange)
		})
	}
	byAbsChange(set.Major)
	byAbsChange(set.Notable)
	sort.SliceStable(set.Stable, func(i, j int) bool {
		return set.Stable[i].CurrentProb > set.Stable[j].CurrentProb
	})

	return set
}
