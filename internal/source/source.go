// Package source defines where raw market records come from. Two sources
// exist: bulk keyword discovery over the active-markets feed, and explicit
// tracked-event slug lookups. A MultiSource merges them with tracked records
// taking priority.
package source

import (
	"context"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// Source produces a batch of market records for one polling cycle.
type Source interface {
	// Fetch returns the records for this cycle. Implementations decide how
	// partial upstream failures are handled; a nil error may still carry an
	// incomplete batch.
	Fetch(ctx context.Context) ([]domain.MarketRecord, error)

	// Name identifies the source in logs.
	Name() string
}
