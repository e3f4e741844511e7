package signal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysignal/internal/config"
	"github.com/alanyoungcy/polysignal/internal/domain"
)

func testBuilder() *Builder {
	return NewBuilder(NewMatcher(testConfig()), config.ThresholdConfig{
		MinVolume24h:  10_000,
		MajorChange:   5.0,
		NotableChange: 2.0,
	})
}

func record(id, question string, volume, dayChange float64) domain.MarketRecord {
	return domain.MarketRecord{
		ID:           id,
		Question:     question,
		Volume24h:    volume,
		DayChangePct: dayChange,
		CurrentProb:  50,
	}
}

func TestBuildPartitionsByTier(t *testing.T) {
	b := testBuilder()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	set := b.Build([]domain.MarketRecord{
		record("1", "Fed rate cut in March?", 50_000, 7.0),
		record("2", "Nvidia beats earnings?", 50_000, 3.0),
		record("3", "Powell reappointed?", 50_000, 0.5),
	}, now)

	require.Len(t, set.Major, 1)
	require.Len(t, set.Notable, 1)
	require.Len(t, set.Stable, 1)
	assert.Equal(t, "1", set.Major[0].ID)
	assert.Equal(t, "2", set.Notable[0].ID)
	assert.Equal(t, "3", set.Stable[0].ID)
	assert.Equal(t, now, set.Timestamp)
	assert.Equal(t, 3, set.Total())
}

func TestBuildVolumeFloorKeywordOnly(t *testing.T) {
	b := testBuilder()

	preMatched := record("tracked", "Obscure recession market", 500, 6.0)
	preMatched.Category = "recession_watch"
	preMatched.Tickers = []string{"SPY", "TLT"}

	set := b.Build([]domain.MarketRecord{
		record("thin", "Fed rate cut in March?", 500, 6.0), // below floor, dropped
		preMatched, // pre-matched, floor bypassed
	}, time.Now())

	require.Equal(t, 1, set.Total())
	assert.Equal(t, "tracked", set.Major[0].ID)
	assert.Equal(t, "recession_watch", set.Major[0].Category)
}

func TestBuildDropsUnmatched(t *testing.T) {
	b := testBuilder()

	set := b.Build([]domain.MarketRecord{
		record("1", "Will it rain in London tomorrow?", 100_000, 9.0),
	}, time.Now())

	assert.Equal(t, 0, set.Total())
}

func TestBuildDedupKeepsFirst(t *testing.T) {
	b := testBuilder()

	first := record("dup", "Fed rate cut in March?", 50_000, 6.0)
	first.Category = "recession_watch"
	first.Tickers = []string{"SPY"}
	second := record("dup", "Fed rate cut in March?", 50_000, 6.0)

	set := b.Build([]domain.MarketRecord{first, second}, time.Now())

	require.Equal(t, 1, set.Total())
	// First occurrence wins, so the pre-assigned category survives.
	assert.Equal(t, "recession_watch", set.Major[0].Category)
}

func TestBuildTierOrdering(t *testing.T) {
	b := testBuilder()

	set := b.Build([]domain.MarketRecord{
		record("a", "Fed watch A", 50_000, 5.5),
		record("b", "Fed watch B", 50_000, -9.0),
		record("c", "Fed watch C", 50_000, 6.0),
	}, time.Now())

	require.Len(t, set.Major, 3)
	// Descending by absolute day change; sign is irrelevant to ordering.
	assert.Equal(t, []string{"b", "c", "a"}, []string{set.Major[0].ID, set.Major[1].ID, set.Major[2].ID})
}

func TestBuildStableOrderedByProb(t *testing.T) {
	b := testBuilder()

	low := record("low", "Fed watch low", 50_000, 0.1)
	low.CurrentProb = 20
	high := record("high", "Fed watch high", 50_000, 0.1)
	high.CurrentProb = 80

	set := b.Build([]domain.MarketRecord{low, high}, time.Now())

	require.Len(t, set.Stable, 2)
	assert.Equal(t, "high", set.Stable[0].ID)
	assert.Equal(t, "low", set.Stable[1].ID)
}

func TestBuildDeterministic(t *testing.T) {
	b := testBuilder()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	records := []domain.MarketRecord{
		record("1", "Fed rate cut in March?", 50_000, 7.0),
		record("2", "Nvidia beats earnings?", 50_000, -7.0), // tie on magnitude
		record("3", "Powell reappointed?", 50_000, 0.5),
		record("4", "Tariff round before June?", 50_000, 2.0),
	}

	first, err := json.Marshal(b.Build(records, now))
	require.NoError(t, err)
	second, err := json.Marshal(b.Build(records, now))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildEmptyInput(t *testing.T) {
	b := testBuilder()

	set := b.Build(nil, time.Now())

	assert.Equal(t, 0, set.Total())
	// Tiers serialize as [] rather than null.
	out, err := json.Marshal(set)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"major":[]`)
}

func TestBuildTickersNeverNil(t *testing.T) {
	b := testBuilder()

	set := b.Build([]domain.MarketRecord{
		record("w", "Tariff round before June?", 50_000, 6.0),
	}, time.Now())

	require.Equal(t, 1, set.Total())
	assert.NotNil(t, set.Major[0].Tickers)
	assert.Empty(t, set.Major[0].Tickers)
}
