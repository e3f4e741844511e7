package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysignal/internal/config"
	"github.com/alanyoungcy/polysignal/internal/domain"
	"github.com/alanyoungcy/polysignal/internal/signal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource returns a fixed batch.
type fakeSource struct {
	records []domain.MarketRecord
	err     error
}

func (f *fakeSource) Fetch(context.Context) ([]domain.MarketRecord, error) { return f.records, f.err }
func (f *fakeSource) Name() string                                         { return "fake" }

// memSnapshots is an in-memory domain.SnapshotStore with idempotent append.
type memSnapshots struct {
	mu   sync.Mutex
	rows map[string]domain.Snapshot
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{rows: make(map[string]domain.Snapshot)}
}

func (m *memSnapshots) Append(_ context.Context, snaps []domain.Snapshot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for _, s := range snaps {
		if s.MarketID == "" || s.RecordedAt.IsZero() {
			continue
		}
		key := s.MarketID + "|" + s.RecordedAt.UTC().Format(time.RFC3339Nano)
		if _, ok := m.rows[key]; ok {
			continue
		}
		m.rows[key] = s
		inserted++
	}
	return inserted, nil
}

func (m *memSnapshots) Query(_ context.Context, marketID string, since time.Time) ([]domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var points []domain.PricePoint
	for _, s := range m.rows {
		if s.MarketID == marketID && s.RecordedAt.After(since) {
			points = append(points, domain.PricePoint{YesPrice: s.YesPrice, RecordedAt: s.RecordedAt})
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].RecordedAt.Before(points[j].RecordedAt) })
	return points, nil
}

// memHistory is an in-memory domain.HistoryStore.
type memHistory struct {
	saved []domain.SignalSet
}

func (m *memHistory) Save(_ context.Context, set domain.SignalSet) error {
	m.saved = append(m.saved, set)
	return nil
}

func (m *memHistory) Load(context.Context, string) (domain.SignalSet, error) {
	return domain.SignalSet{}, domain.ErrNotFound
}

func (m *memHistory) ListDates(context.Context) ([]string, error) { return nil, nil }

// memAlerts records inserted alerts.
type memAlerts struct {
	inserted []domain.Alert
}

func (m *memAlerts) Insert(_ context.Context, a domain.Alert) error {
	m.inserted = append(m.inserted, a)
	return nil
}

func (m *memAlerts) ListRecent(context.Context, int) ([]domain.Alert, error) {
	return m.inserted, nil
}

func pipelineConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Watchlist = []config.Category{{
		Name:     "fed_policy",
		Keywords: []string{"fed"},
		StockImpact: map[string][]string{
			"financials": {"JPM"},
		},
	}}
	return &cfg
}

func TestReporterRunPersistsAndRenders(t *testing.T) {
	cfg := pipelineConfig()
	matcher := signal.NewMatcher(cfg)
	builder := signal.NewBuilder(matcher, cfg.Thresholds)

	src := &fakeSource{records: []domain.MarketRecord{
		{ID: "1", Question: "Fed rate cut?", Volume24h: 50_000, DayChangePct: 6.0, CurrentProb: 60},
		{ID: "2", Question: "Unrelated weather market", Volume24h: 50_000, DayChangePct: 6.0},
	}}
	snaps := newMemSnapshots()
	hist := &memHistory{}

	r := NewReporter(src, builder, snaps, hist, nil, 5, discardLogger())

	text, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, text, "Fed rate cut?")
	assert.NotContains(t, text, "weather")
	require.Len(t, hist.saved, 1)
	assert.Equal(t, 1, hist.saved[0].Total())
	assert.Len(t, snaps.rows, 1)
}

func TestReporterRunSnapshotIdempotent(t *testing.T) {
	cfg := pipelineConfig()
	builder := signal.NewBuilder(signal.NewMatcher(cfg), cfg.Thresholds)
	src := &fakeSource{records: []domain.MarketRecord{
		{ID: "1", Question: "Fed rate cut?", Volume24h: 50_000, DayChangePct: 6.0, CurrentProb: 60},
	}}
	snaps := newMemSnapshots()

	r := NewReporter(src, builder, snaps, &memHistory{}, nil, 5, discardLogger())
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	// Re-inserting the same (market, timestamp) rows is a no-op.
	set := domain.SignalSet{
		Major:     []domain.Signal{{ID: "1", CurrentProb: 60}},
		Timestamp: time.Now(),
	}
	first, err := snaps.Append(context.Background(), snapshotsFromSet(set))
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	second, err := snaps.Append(context.Background(), snapshotsFromSet(set))
	require.NoError(t, err)
	assert.Equal(t, 0, second)
}

func TestReporterRunFetchError(t *testing.T) {
	cfg := pipelineConfig()
	builder := signal.NewBuilder(signal.NewMatcher(cfg), cfg.Thresholds)
	src := &fakeSource{err: errors.New("gamma down")}

	r := NewReporter(src, builder, newMemSnapshots(), &memHistory{}, nil, 5, discardLogger())
	_, err := r.Run(context.Background())
	assert.ErrorContains(t, err, "gamma down")
}

func TestAlertCheckerRaisesOnThreshold(t *testing.T) {
	cfg := pipelineConfig()
	matcher := signal.NewMatcher(cfg)
	src := &fakeSource{records: []domain.MarketRecord{
		{ID: "1", Question: "Fed emergency meeting?", Volume24h: 50_000, DayChangePct: 8.0, CurrentProb: 40},
		{ID: "2", Question: "Fed minutes released?", Volume24h: 50_000, DayChangePct: 1.0, CurrentProb: 50},
		{ID: "3", Question: "Fed chair resigns?", Volume24h: 50_000, DayChangePct: -6.5, CurrentProb: 10},
	}}
	alerts := &memAlerts{}

	c := NewAlertChecker(src, matcher, nil, alerts, nil, 5.0, cfg.Thresholds.MinVolume24h, discardLogger())

	raised, err := c.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, raised, 2)
	assert.Equal(t, "surge", raised[0].ChangeType)
	assert.Equal(t, "drop", raised[1].ChangeType)
	assert.Equal(t, []string{"JPM"}, raised[0].Tickers)
	assert.Len(t, alerts.inserted, 2)
}

func TestAlertCheckerCooldown(t *testing.T) {
	cfg := pipelineConfig()
	src := &fakeSource{records: []domain.MarketRecord{
		{ID: "1", Question: "Fed emergency meeting?", Volume24h: 50_000, DayChangePct: 8.0, CurrentProb: 40},
	}}

	c := NewAlertChecker(src, signal.NewMatcher(cfg), nil, &memAlerts{}, nil, 5.0, cfg.Thresholds.MinVolume24h, discardLogger())

	first, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestAlertCheckerSkipsUnwatched(t *testing.T) {
	cfg := pipelineConfig()
	src := &fakeSource{records: []domain.MarketRecord{
		{ID: "1", Question: "Big weather swing?", Volume24h: 50_000, DayChangePct: 9.0},
	}}

	c := NewAlertChecker(src, signal.NewMatcher(cfg), nil, &memAlerts{}, nil, 5.0, cfg.Thresholds.MinVolume24h, discardLogger())

	raised, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raised)
}

func TestAlertCheckerSkipsThinMarkets(t *testing.T) {
	cfg := pipelineConfig()
	src := &fakeSource{records: []domain.MarketRecord{
		{ID: "1", Question: "Fed emergency meeting?", Volume24h: 50, DayChangePct: 8.0, CurrentProb: 40},
	}}

	c := NewAlertChecker(src, signal.NewMatcher(cfg), nil, &memAlerts{}, nil, 5.0, cfg.Thresholds.MinVolume24h, discardLogger())

	raised, err := c.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raised)
}

func TestAlertCheckerTrackedBypassesVolumeFloor(t *testing.T) {
	cfg := pipelineConfig()
	// Tracked records arrive pre-matched and alert regardless of volume.
	src := &fakeSource{records: []domain.MarketRecord{
		{ID: "1", Question: "US recession in 2026?", Category: "recession_watch",
			Tickers: []string{"SPY"}, Volume24h: 50, DayChangePct: 8.0, CurrentProb: 40},
	}}
	alerts := &memAlerts{}

	c := NewAlertChecker(src, signal.NewMatcher(cfg), nil, alerts, nil, 5.0, cfg.Thresholds.MinVolume24h, discardLogger())

	raised, err := c.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, raised, 1)
	assert.Equal(t, []string{"SPY"}, raised[0].Tickers)
}

func TestAlertCheckerSnapshotBaseline(t *testing.T) {
	cfg := pipelineConfig()
	snaps := newMemSnapshots()

	// Last snapshot an hour ago had the market at 40%; the feed now says 48%
	// with only a small reported day change. The snapshot baseline catches it.
	_, err := snaps.Append(context.Background(), []domain.Snapshot{{
		MarketID:   "1",
		YesPrice:   0.40,
		RecordedAt: time.Now().UTC().Add(-time.Hour),
	}})
	require.NoError(t, err)

	src := &fakeSource{records: []domain.MarketRecord{
		{ID: "1", Question: "Fed emergency meeting?", Volume24h: 50_000, DayChangePct: 1.0, CurrentProb: 48},
	}}
	c := NewAlertChecker(src, signal.NewMatcher(cfg), snaps, &memAlerts{}, nil, 5.0, cfg.Thresholds.MinVolume24h, discardLogger())

	raised, err := c.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, raised, 1)
	assert.Equal(t, 0.40, raised[0].OldPrice)
	assert.Equal(t, 8.0, raised[0].ChangePct)
	assert.Equal(t, "surge", raised[0].ChangeType)
}
