// Package domain defines the core types shared across the signal generator:
// market records, signals, snapshots, backtest results, and the store
// interfaces their persistence layers implement.
package domain

// MarketRecord is a single prediction market as consumed from a market data
// source, normalized to percentage units. Category and Tickers are empty until
// assigned by the matcher, except for records discovered via a tracked-event
// slug lookup, which arrive with both pre-assigned.
type MarketRecord struct {
	ID          string
	Question    string
	Description string
	Slug        string

	// Category and Tickers are set by the matcher (keyword discovery) or by
	// the tracked-events source (explicit configuration).
	Category string
	Tickers  []string

	CurrentProb   float64 // implied probability of Yes, 0-100
	YesPrice      float64 // raw outcome price, 0-1
	NoPrice       float64 // raw outcome price, 0-1
	DayChangePct  float64 // one-day probability change in percentage points
	WeekChangePct float64 // one-week probability change in percentage points
	Volume24h     float64
	VolumeTotal   float64
}

// Matched reports whether the record has been assigned a watchlist category.
func (m *MarketRecord) Matched() bool {
	return m.Category != ""
}
