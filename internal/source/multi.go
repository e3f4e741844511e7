package source

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// MultiSource concatenates the batches of several sources in order. Because
// the builder dedups by market ID keeping the first occurrence, earlier
// sources take priority when the same market appears in more than one; list
// tracked sources before bulk discovery so explicit configuration wins.
type MultiSource struct {
	sources []Source
}

// NewMultiSource combines sources in priority order.
func NewMultiSource(sources ...Source) *MultiSource {
	return &MultiSource{sources: sources}
}

func (s *MultiSource) Name() string { return "multi" }

// Fetch collects every source's batch. Any source error aborts the cycle.
func (s *MultiSource) Fetch(ctx context.Context) ([]domain.MarketRecord, error) {
	var all []domain.MarketRecord
	for _, src := range s.sources {
		records, err := src.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("source: %s: %w", src.Name(), err)
		}
		all = append(all, records...)
	}
	return all, nil
}

var _ Source = (*MultiSource)(nil)
