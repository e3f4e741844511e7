package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// RunHistorical scores the most recent persisted signal sets (up to the
// configured history window) and aggregates hit rates overall and per ticker.
// Days whose sets cannot be loaded are logged and skipped.
func (s *Scorer) RunHistorical(ctx context.Context, store domain.HistoryStore) (domain.HistoricalResult, error) {
	dates, err := store.ListDates(ctx)
	if err != nil {
		return domain.HistoricalResult{}, fmt.Errorf("backtest: list history dates: %w", err)
	}
	if len(dates) > s.cfg.HistoryDays {
		dates = dates[len(dates)-s.cfg.HistoryDays:]
	}
	if len(dates) == 0 {
		return domain.HistoricalResult{}, fmt.Errorf("backtest: %w: no signal history", domain.ErrNoData)
	}

	result := domain.HistoricalResult{
		ByTicker: make(map[string]*domain.TickerStats),
	}

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		set, err := store.Load(ctx, date)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn("skipping unreadable signal set",
					slog.String("date", date),
					slog.String("error", err.Error()))
			}
			continue
		}

		day, err := s.Score(ctx, set)
		if err != nil {
			return result, fmt.Errorf("backtest: score %s: %w", date, err)
		}
		if len(day.Outcomes) == 0 {
			continue
		}

		result.Details = append(result.Details, day)
		for _, o := range day.Outcomes {
			result.TotalSignals++
			if o.Correct {
				result.CorrectSignals++
			}

			stats := result.ByTicker[o.Ticker]
			if stats == nil {
				stats = &domain.TickerStats{}
				result.ByTicker[o.Ticker] = stats
			}
			stats.Total++
			if o.Correct {
				stats.Correct++
			}
			stats.Returns = append(stats.Returns, o.StockReturn)
		}
	}

	if result.TotalSignals > 0 {
		result.OverallHitRate = round1(float64(result.CorrectSignals) / float64(result.TotalSignals) * 100)
	}
	for _, stats := range result.ByTicker {
		if stats.Total == 0 {
			continue
		}
		stats.HitRate = round1(float64(stats.Correct) / float64(stats.Total) * 100)
		total := 0.0
		for _, r := range stats.Returns {
			total += r
		}
		stats.AvgReturn = round2(total / float64(len(stats.Returns)))
	}

	s.logger.Info("historical backtest complete",
		slog.Int("days", len(result.Details)),
		slog.Int("signals", result.TotalSignals),
		slog.Float64("hit_rate", result.OverallHitRate))

	return result, nil
}
