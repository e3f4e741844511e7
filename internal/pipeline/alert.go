package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/polysignal/internal/domain"
	"github.com/alanyoungcy/polysignal/internal/notify"
	"github.com/alanyoungcy/polysignal/internal/signal"
	"github.com/alanyoungcy/polysignal/internal/source"
)

// alertCooldown suppresses repeat alerts for the same market within a single
// checker's lifetime.
const alertCooldown = 24 * time.Hour

// snapshotLookback bounds how far back the previous-price lookup reaches.
const snapshotLookback = 24 * time.Hour

// AlertChecker detects sudden moves in watched markets between daily reports.
// The baseline for "sudden" is the market's last persisted snapshot when one
// exists; otherwise the feed's own one-day change. A move whose magnitude
// reaches the threshold raises an alert, persisted and pushed immediately.
type AlertChecker struct {
	source       source.Source
	matcher      *signal.Matcher
	snapshots    domain.SnapshotStore
	alerts       domain.AlertStore
	notifier     *notify.Notifier
	thresholdPct float64
	minVolume24h float64
	logger       *slog.Logger

	lastAlerted map[string]time.Time
}

// NewAlertChecker assembles a sudden-move checker. snapshots and alerts may be
// nil when no database is configured: detection then falls back to feed-level
// day changes and alerts are notify-only.
func NewAlertChecker(
	src source.Source,
	matcher *signal.Matcher,
	snapshots domain.SnapshotStore,
	alerts domain.AlertStore,
	notifier *notify.Notifier,
	thresholdPct float64,
	minVolume24h float64,
	logger *slog.Logger,
) *AlertChecker {
	return &AlertChecker{
		source:       src,
		matcher:      matcher,
		snapshots:    snapshots,
		alerts:       alerts,
		notifier:     notifier,
		thresholdPct: thresholdPct,
		minVolume24h: minVolume24h,
		logger:       logger.With(slog.String("component", "pipeline.alert")),
		lastAlerted:  make(map[string]time.Time),
	}
}

// Check runs one sweep and returns the alerts raised.
func (c *AlertChecker) Check(ctx context.Context) ([]domain.Alert, error) {
	records, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: alert fetch: %w", err)
	}

	now := time.Now().UTC()
	var raised []domain.Alert
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		if rec.ID == "" || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		if last, ok := c.lastAlerted[rec.ID]; ok && now.Sub(last) < alertCooldown {
			continue
		}

		tickers := rec.Tickers
		if !rec.Matched() {
			// Thin markets swing on a single trade; keyword-discovered records
			// must clear the volume floor. Tracked events opted in by slug and
			// bypass it, same as in the builder.
			if rec.Volume24h < c.minVolume24h {
				continue
			}
			category, matched := c.matcher.Match(rec.Question, rec.Description)
			if category == "" {
				continue
			}
			tickers = matched
		}

		oldPrice, change := c.baseline(ctx, rec, now)
		if change < c.thresholdPct && change > -c.thresholdPct {
			continue
		}

		changeType := "surge"
		if change < 0 {
			changeType = "drop"
		}
		alert := domain.Alert{
			ID:         uuid.NewString(),
			MarketID:   rec.ID,
			Question:   rec.Question,
			ChangeType: changeType,
			OldPrice:   oldPrice,
			NewPrice:   rec.CurrentProb / 100,
			ChangePct:  change,
			Tickers:    tickers,
			CreatedAt:  now,
		}

		if c.alerts != nil {
			if err := c.alerts.Insert(ctx, alert); err != nil {
				c.logger.Error("alert persist failed",
					slog.String("market_id", rec.ID),
					slog.String("error", err.Error()))
			}
		}

		c.lastAlerted[rec.ID] = now
		raised = append(raised, alert)
		c.logger.Info("sudden move detected",
			slog.String("market_id", rec.ID),
			slog.String("change_type", changeType),
			slog.Float64("change_pct", change))
	}

	if len(raised) > 0 && c.notifier != nil {
		title := fmt.Sprintf("Sudden moves: %d market(s)", len(raised))
		if err := c.notifier.Notify(ctx, notify.EventSuddenMove, title, renderAlerts(raised)); err != nil {
			c.logger.Warn("alert notification failed", slog.String("error", err.Error()))
		}
	}

	return raised, nil
}

// baseline returns the previous price (0-1) and the change against it in
// percentage points. It prefers the market's last snapshot within the
// lookback window; without one (or without a store) it derives the baseline
// from the feed's one-day change.
func (c *AlertChecker) baseline(ctx context.Context, rec domain.MarketRecord, now time.Time) (oldPrice, changePct float64) {
	if c.snapshots != nil {
		points, err := c.snapshots.Query(ctx, rec.ID, now.Add(-snapshotLookback))
		if err != nil {
			c.logger.Warn("snapshot lookup failed, using feed change",
				slog.String("market_id", rec.ID),
				slog.String("error", err.Error()))
		} else if len(points) > 0 {
			old := points[len(points)-1].YesPrice
			return old, rec.CurrentProb - old*100
		}
	}
	return (rec.CurrentProb - rec.DayChangePct) / 100, rec.DayChangePct
}

// renderAlerts formats raised alerts as a short message body.
func renderAlerts(alerts []domain.Alert) string {
	var b strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&b, "%s: %s %+.1f points (%.0f%% -> %.0f%%)",
			strings.ToUpper(a.ChangeType), a.Question, a.ChangePct, a.OldPrice*100, a.NewPrice*100)
		if len(a.Tickers) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(a.Tickers, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
