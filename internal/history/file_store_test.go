package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

func sampleSet(day time.Time) domain.SignalSet {
	return domain.SignalSet{
		Major: []domain.Signal{{
			ID:          "m1",
			Question:    "Fed rate cut in March?",
			Category:    "fed_policy",
			Tickers:     []string{"JPM", "SPY"},
			CurrentProb: 62.5,
			DayChange:   6.0,
		}},
		Notable:   []domain.Signal{},
		Stable:    []domain.Signal{},
		Timestamp: day,
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	day := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)
	set := sampleSet(day)
	require.NoError(t, store.Save(context.Background(), set))

	loaded, err := store.Load(context.Background(), "2026-08-24")
	require.NoError(t, err)
	assert.Equal(t, set.Major, loaded.Major)
	assert.True(t, set.Timestamp.Equal(loaded.Timestamp))
}

func TestFileStoreSaveOverwritesSameDay(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	day := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), sampleSet(day)))

	later := sampleSet(day.Add(4 * time.Hour))
	later.Major[0].DayChange = 8.0
	require.NoError(t, store.Save(context.Background(), later))

	loaded, err := store.Load(context.Background(), "2026-08-24")
	require.NoError(t, err)
	assert.Equal(t, 8.0, loaded.Major[0].DayChange)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "1999-01-01")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFileStoreListDatesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	for _, d := range []string{"2026-08-03", "2026-08-01", "2026-08-02"} {
		day, perr := time.Parse("2006-01-02", d)
		require.NoError(t, perr)
		require.NoError(t, store.Save(context.Background(), sampleSet(day)))
	}
	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	dates, err := store.ListDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-01", "2026-08-02", "2026-08-03"}, dates)
}
