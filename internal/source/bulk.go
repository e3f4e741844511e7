package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polysignal/internal/domain"
	"github.com/alanyoungcy/polysignal/internal/platform/polymarket"
)

// BulkSource discovers markets via the Gamma active-markets feed. Records come
// back unmatched; category assignment happens downstream in the builder.
type BulkSource struct {
	gamma  *polymarket.GammaClient
	limit  int
	logger *slog.Logger
}

// NewBulkSource creates a bulk discovery source fetching up to limit markets
// per cycle.
func NewBulkSource(gamma *polymarket.GammaClient, limit int, logger *slog.Logger) *BulkSource {
	return &BulkSource{
		gamma:  gamma,
		limit:  limit,
		logger: logger.With(slog.String("component", "source.bulk")),
	}
}

func (s *BulkSource) Name() string { return "bulk" }

// Fetch returns the current batch of active markets. A feed failure fails the
// whole cycle; there is no partial result to salvage.
func (s *BulkSource) Fetch(ctx context.Context) ([]domain.MarketRecord, error) {
	records, err := s.gamma.GetActiveMarkets(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("source: bulk fetch: %w", err)
	}

	s.logger.Debug("fetched active markets", slog.Int("count", len(records)))
	return records, nil
}

var _ Source = (*BulkSource)(nil)
