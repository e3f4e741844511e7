// Package pipeline wires sources, the signal builder, persistence, and
// notification into the run loops the application modes execute.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polysignal/internal/domain"
	"github.com/alanyoungcy/polysignal/internal/notify"
	"github.com/alanyoungcy/polysignal/internal/report"
	"github.com/alanyoungcy/polysignal/internal/signal"
	"github.com/alanyoungcy/polysignal/internal/source"
)

// Reporter runs one full report cycle: fetch markets, build the signal set,
// persist snapshots and the daily history file, render the report, and notify.
type Reporter struct {
	source     source.Source
	builder    *signal.Builder
	snapshots  domain.SnapshotStore
	history    domain.HistoryStore
	notifier   *notify.Notifier
	topPerTier int
	logger     *slog.Logger
}

// NewReporter assembles a report pipeline. snapshots may be nil when no
// database is configured; persistence is then skipped.
func NewReporter(
	src source.Source,
	builder *signal.Builder,
	snapshots domain.SnapshotStore,
	history domain.HistoryStore,
	notifier *notify.Notifier,
	topPerTier int,
	logger *slog.Logger,
) *Reporter {
	return &Reporter{
		source:     src,
		builder:    builder,
		snapshots:  snapshots,
		history:    history,
		notifier:   notifier,
		topPerTier: topPerTier,
		logger:     logger.With(slog.String("component", "pipeline.reporter")),
	}
}

// Run executes one cycle and returns the rendered report text.
func (r *Reporter) Run(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	started := time.Now()
	logger := r.logger.With(slog.String("run_id", runID))

	records, err := r.source.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("pipeline: fetch markets: %w", err)
	}
	logger.Info("markets fetched", slog.Int("count", len(records)))

	set := r.builder.Build(records, time.Now())
	logger.Info("signal set built",
		slog.Int("major", len(set.Major)),
		slog.Int("notable", len(set.Notable)),
		slog.Int("stable", len(set.Stable)))

	if r.snapshots != nil {
		inserted, err := r.snapshots.Append(ctx, snapshotsFromSet(set))
		if err != nil {
			return "", fmt.Errorf("pipeline: persist snapshots: %w", err)
		}
		logger.Info("snapshots persisted", slog.Int("inserted", inserted))
	}

	if err := r.history.Save(ctx, set); err != nil {
		return "", fmt.Errorf("pipeline: save history: %w", err)
	}

	text := report.Daily(set, r.topPerTier)

	if r.notifier != nil {
		title := fmt.Sprintf("Signal report: %d major, %d notable", len(set.Major), len(set.Notable))
		if err := r.notifier.Notify(ctx, notify.EventDailyReport, title, text); err != nil {
			// Delivery problems should not fail a cycle whose data is already
			// persisted.
			logger.Warn("report notification failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("report cycle complete",
		slog.Int("signals", set.Total()),
		slog.Duration("elapsed", time.Since(started)))
	return text, nil
}

// snapshotsFromSet flattens every tier of a set into snapshot rows stamped
// with the set's timestamp.
func snapshotsFromSet(set domain.SignalSet) []domain.Snapshot {
	snaps := make([]domain.Snapshot, 0, set.Total())
	appendTier := func(sigs []domain.Signal) {
		for _, sig := range sigs {
			snaps = append(snaps, domain.Snapshot{
				MarketID:    sig.ID,
				Question:    sig.Question,
				Category:    sig.Category,
				YesPrice:    sig.CurrentProb / 100,
				NoPrice:     1 - sig.CurrentProb/100,
				Volume24h:   sig.Volume24h,
				VolumeTotal: sig.VolumeTotal,
				RecordedAt:  set.Timestamp,
			})
		}
	}
	appendTier(set.Major)
	appendTier(set.Notable)
	appendTier(set.Stable)
	return snaps
}
