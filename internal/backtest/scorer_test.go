package backtest

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysignal/internal/config"
	"github.com/alanyoungcy/polysignal/internal/domain"
)

// fakeReturns serves canned daily returns per ticker.
type fakeReturns struct {
	byTicker map[string]map[string]float64
	err      error
	calls    []string
}

func (f *fakeReturns) DailyReturns(_ context.Context, ticker string, _, _ time.Time) (map[string]float64, error) {
	f.calls = append(f.calls, ticker)
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.byTicker[ticker]
	if !ok {
		return map[string]float64{}, nil
	}
	return r, nil
}

func testScorer(returns domain.ReturnsLookup) *Scorer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScorer(returns, config.BacktestConfig{
		WindowDays:          7,
		HistoryDays:         30,
		MaxTickersPerSignal: 3,
	}, logger)
}

func majorSet(ts time.Time, sigs ...domain.Signal) domain.SignalSet {
	return domain.SignalSet{Major: sigs, Timestamp: ts}
}

func TestScoreBullishCorrect(t *testing.T) {
	lookup := &fakeReturns{byTicker: map[string]map[string]float64{
		"NVDA": {"2026-08-25": 1.2, "2026-08-26": 2.0},
	}}
	s := testScorer(lookup)

	set := majorSet(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), domain.Signal{
		Question:  "Nvidia beats earnings?",
		Tickers:   []string{"NVDA"},
		DayChange: 6.0,
	})

	result, err := s.Score(context.Background(), set)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)

	o := result.Outcomes[0]
	assert.Equal(t, domain.DirectionBullish, o.Direction)
	assert.Equal(t, 3.2, o.StockReturn)
	assert.True(t, o.Correct)
	assert.Equal(t, 100.0, result.HitRate)
	assert.Equal(t, 3.2, result.AvgReturn)
}

func TestScoreBearishCorrect(t *testing.T) {
	lookup := &fakeReturns{byTicker: map[string]map[string]float64{
		"SPY": {"2026-08-25": -0.8, "2026-08-26": -1.2},
	}}
	s := testScorer(lookup)

	set := majorSet(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), domain.Signal{
		Question:  "Recession declared?",
		Tickers:   []string{"SPY"},
		DayChange: -7.0,
	})

	result, err := s.Score(context.Background(), set)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, domain.DirectionBearish, result.Outcomes[0].Direction)
	assert.True(t, result.Outcomes[0].Correct)
}

func TestScoreZeroReturnAlwaysIncorrect(t *testing.T) {
	lookup := &fakeReturns{byTicker: map[string]map[string]float64{
		"JPM": {"2026-08-25": 1.5, "2026-08-26": -1.5},
	}}
	s := testScorer(lookup)

	for _, change := range []float64{6.0, -6.0} {
		set := majorSet(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), domain.Signal{
			Question:  "Fed holds?",
			Tickers:   []string{"JPM"},
			DayChange: change,
		})
		result, err := s.Score(context.Background(), set)
		require.NoError(t, err)
		require.Len(t, result.Outcomes, 1)
		assert.False(t, result.Outcomes[0].Correct, "net-zero return must not score correct (change=%v)", change)
	}
}

func TestScoreSkipsTickersWithoutData(t *testing.T) {
	lookup := &fakeReturns{byTicker: map[string]map[string]float64{
		"NVDA": {"2026-08-25": 1.0},
	}}
	s := testScorer(lookup)

	set := majorSet(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), domain.Signal{
		Question:  "Chip export ban?",
		Tickers:   []string{"NVDA", "UNKNOWN"},
		DayChange: 5.0,
	})

	result, err := s.Score(context.Background(), set)
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, "NVDA", result.Outcomes[0].Ticker)
}

func TestScoreCapsTickersPerSignal(t *testing.T) {
	lookup := &fakeReturns{byTicker: map[string]map[string]float64{
		"A": {"2026-08-25": 1.0},
		"B": {"2026-08-25": 1.0},
		"C": {"2026-08-25": 1.0},
		"D": {"2026-08-25": 1.0},
	}}
	s := testScorer(lookup)

	set := majorSet(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), domain.Signal{
		Question:  "Broad market event?",
		Tickers:   []string{"A", "B", "C", "D"},
		DayChange: 5.0,
	})

	result, err := s.Score(context.Background(), set)
	require.NoError(t, err)
	assert.Len(t, result.Outcomes, 3)
	assert.Equal(t, []string{"A", "B", "C"}, lookup.calls)
}

func TestScoreOnlyMajorSignals(t *testing.T) {
	lookup := &fakeReturns{byTicker: map[string]map[string]float64{
		"NVDA": {"2026-08-25": 1.0},
	}}
	s := testScorer(lookup)

	set := domain.SignalSet{
		Notable:   []domain.Signal{{Question: "minor move", Tickers: []string{"NVDA"}, DayChange: 3.0}},
		Timestamp: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
	}

	result, err := s.Score(context.Background(), set)
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0.0, result.HitRate)
	assert.Equal(t, 0.0, result.AvgReturn)
}

func TestRunHistoricalAggregates(t *testing.T) {
	lookup := &fakeReturns{byTicker: map[string]map[string]float64{
		"NVDA": {"d1": 2.0},
		"SPY":  {"d1": -1.0},
	}}
	s := testScorer(lookup)

	store := &fakeHistory{sets: map[string]domain.SignalSet{
		"2026-08-20": majorSet(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
			domain.Signal{Question: "q1", Tickers: []string{"NVDA"}, DayChange: 6.0},   // bullish, +2.0, correct
			domain.Signal{Question: "q2", Tickers: []string{"SPY"}, DayChange: 5.5}),   // bullish, -1.0, wrong
		"2026-08-21": majorSet(time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
			domain.Signal{Question: "q3", Tickers: []string{"NVDA"}, DayChange: -6.0}), // bearish, +2.0, wrong
	}}

	result, err := s.RunHistorical(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalSignals)
	assert.Equal(t, 1, result.CorrectSignals)
	assert.Equal(t, 33.3, result.OverallHitRate)
	require.Contains(t, result.ByTicker, "NVDA")
	assert.Equal(t, 2, result.ByTicker["NVDA"].Total)
	assert.Equal(t, 1, result.ByTicker["NVDA"].Correct)
	assert.Equal(t, 50.0, result.ByTicker["NVDA"].HitRate)
	assert.Equal(t, 2.0, result.ByTicker["NVDA"].AvgReturn)
	assert.Len(t, result.Details, 2)
}

func TestRunHistoricalNoHistory(t *testing.T) {
	s := testScorer(&fakeReturns{})
	_, err := s.RunHistorical(context.Background(), &fakeHistory{})
	assert.ErrorIs(t, err, domain.ErrNoData)
}

// fakeHistory is an in-memory domain.HistoryStore.
type fakeHistory struct {
	sets map[string]domain.SignalSet
}

func (f *fakeHistory) Save(_ context.Context, set domain.SignalSet) error {
	if f.sets == nil {
		f.sets = map[string]domain.SignalSet{}
	}
	f.sets[set.Timestamp.UTC().Format("2006-01-02")] = set
	return nil
}

func (f *fakeHistory) Load(_ context.Context, date string) (domain.SignalSet, error) {
	set, ok := f.sets[date]
	if !ok {
		return domain.SignalSet{}, domain.ErrNotFound
	}
	return set, nil
}

func (f *fakeHistory) ListDates(_ context.Context) ([]string, error) {
	var dates []string
	for d := range f.sets {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}
