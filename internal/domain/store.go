package domain

import (
	"context"
	"time"
)

// SnapshotStore persists daily market snapshots. Append is idempotent per
// (market id, recorded-at) pair and tolerates per-row failures: malformed rows
// are skipped and the remaining rows proceed.
type SnapshotStore interface {
	Append(ctx context.Context, snaps []Snapshot) (int, error)
	Query(ctx context.Context, marketID string, since time.Time) ([]PricePoint, error)
}

// AlertStore persists sudden-move alerts.
type AlertStore interface {
	Insert(ctx context.Context, a Alert) error
	ListRecent(ctx context.Context, limit int) ([]Alert, error)
}

// HistoryStore persists one SignalSet per calendar day, named by date.
// Files are read-only once the day passes.
type HistoryStore interface {
	Save(ctx context.Context, set SignalSet) error
	Load(ctx context.Context, date string) (SignalSet, error)
	// ListDates returns the dates (YYYY-MM-DD) of all stored signal sets in
	// ascending order.
	ListDates(ctx context.Context) ([]string, error)
}

// ReturnsLookup retrieves daily percentage returns for a stock ticker over a
// calendar date range. The returned map is keyed by YYYY-MM-DD. An empty map
// (with nil error) means the provider had no data for the window.
type ReturnsLookup interface {
	DailyReturns(ctx context.Context, ticker string, start, end time.Time) (map[string]float64, error)
}
