package source

import (
	"context"
	"log/slog"
	"sort"

	"github.com/alanyoungcy/polysignal/internal/config"
	"github.com/alanyoungcy/polysignal/internal/domain"
	"github.com/alanyoungcy/polysignal/internal/platform/polymarket"
)

// TrackedSource resolves configured event slugs directly. Records arrive
// pre-matched: each one carries the tracked event's name as its category and
// the event's declared ticker list, so the builder skips keyword matching and
// the volume floor for them.
type TrackedSource struct {
	gamma  *polymarket.GammaClient
	events []config.TrackedEvent
	logger *slog.Logger
}

// NewTrackedSource creates a source for the configured tracked events.
func NewTrackedSource(gamma *polymarket.GammaClient, events []config.TrackedEvent, logger *slog.Logger) *TrackedSource {
	return &TrackedSource{
		gamma:  gamma,
		events: events,
		logger: logger.With(slog.String("component", "source.tracked")),
	}
}

func (s *TrackedSource) Name() string { return "tracked" }

// Fetch resolves every tracked slug. A failed lookup is logged and skipped so
// one stale slug cannot take down the cycle; the rest of the batch proceeds.
func (s *TrackedSource) Fetch(ctx context.Context) ([]domain.MarketRecord, error) {
	var records []domain.MarketRecord
	for _, ev := range s.events {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		event, err := s.gamma.GetEventBySlug(ctx, ev.Slug)
		if err != nil {
			s.logger.Warn("tracked event lookup failed",
				slog.String("slug", ev.Slug),
				slog.String("error", err.Error()))
			continue
		}
		if event.Closed {
			s.logger.Debug("tracked event closed, skipping", slog.String("slug", ev.Slug))
			continue
		}

		tickers := normalizeTickers(ev.Stocks)
		for i := range event.Markets {
			rec := event.Markets[i].ToRecord()
			rec.Category = ev.Name
			rec.Tickers = tickers
			records = append(records, rec)
		}
	}

	s.logger.Debug("resolved tracked events",
		slog.Int("events", len(s.events)),
		slog.Int("markets", len(records)))
	return records, nil
}

// normalizeTickers copies, dedups, and sorts a configured ticker list so
// tracked records order identically to keyword-matched ones.
func normalizeTickers(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

var _ Source = (*TrackedSource)(nil)
