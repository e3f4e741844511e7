// Package backtest scores persisted signal sets against realized forward
// stock returns.
package backtest

import (
	"context"
	"log/slog"
	"math"

	"github.com/alanyoungcy/polysignal/internal/config"
	"github.com/alanyoungcy/polysignal/internal/domain"
)

const dateLayout = "2006-01-02"

// Scorer evaluates the predictive value of major signals: for each one, did
// the affected stocks move in the signal's implied direction over the forward
// window?
type Scorer struct {
	returns domain.ReturnsLookup
	cfg     config.BacktestConfig
	logger  *slog.Logger
}

// NewScorer creates a Scorer over the given returns source.
func NewScorer(returns domain.ReturnsLookup, cfg config.BacktestConfig, logger *slog.Logger) *Scorer {
	return &Scorer{
		returns: returns,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "backtest")),
	}
}

// Score evaluates one day's signal set. Only major signals are scored, each
// against at most MaxTickersPerSignal of its affected tickers. Tickers with no
// return data in the window are skipped rather than counted.
//
// A signal is correct when the ticker's cumulative forward return has the same
// sign as the implied direction. A net-zero return scores incorrect for both
// directions: flat price action confirms neither a bullish nor a bearish read.
func (s *Scorer) Score(ctx context.Context, set domain.SignalSet) (domain.BacktestResult, error) {
	signalDate := set.Timestamp.UTC()
	result := domain.BacktestResult{
		SignalDate: signalDate.Format(dateLayout),
		Outcomes:   []domain.SignalOutcome{},
	}

	windowEnd := signalDate.AddDate(0, 0, s.cfg.WindowDays)

	for _, sig := range set.Major {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		direction := sig.Direction()
		tickers := sig.Tickers
		if len(tickers) > s.cfg.MaxTickersPerSignal {
			tickers = tickers[:s.cfg.MaxTickersPerSignal]
		}

		for _, ticker := range tickers {
			returns, err := s.returns.DailyReturns(ctx, ticker, signalDate, windowEnd)
			if err != nil {
				s.logger.Warn("returns lookup failed, skipping ticker",
					slog.String("ticker", ticker),
					slog.String("signal_date", result.SignalDate),
					slog.String("error", err.Error()))
				continue
			}
			if len(returns) == 0 {
				continue
			}

			total := 0.0
			for _, r := range returns {
				total += r
			}

			correct := (direction == domain.DirectionBullish && total > 0) ||
				(direction == domain.DirectionBearish && total < 0)

			result.Outcomes = append(result.Outcomes, domain.SignalOutcome{
				Question:    sig.Question,
				Ticker:      ticker,
				Direction:   direction,
				ProbChange:  sig.DayChange,
				StockReturn: round2(total),
				Correct:     correct,
			})
		}
	}

	result.HitRate, result.AvgReturn = summarize(result.Outcomes)
	return result, nil
}

// summarize computes the hit rate and average return over a set of outcomes.
// Both are 0 when there are no outcomes.
func summarize(outcomes []domain.SignalOutcome) (hitRate, avgReturn float64) {
	if len(outcomes) == 0 {
		return 0, 0
	}
	correct := 0
	total := 0.0
	for _, o := range outcomes {
		if o.Correct {
			correct++
		}
		total += o.StockReturn
	}
	hitRate = round1(float64(correct) / float64(len(outcomes)) * 100)
	avgReturn = round2(total / float64(len(outcomes)))
	return hitRate, avgReturn
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
