package domain

import "time"

// Snapshot is a persisted point-in-time record of a market's state. Rows are
// keyed by (MarketID, RecordedAt); re-inserting an identical pair is a no-op.
type Snapshot struct {
	MarketID    string
	Question    string
	Category    string
	YesPrice    float64
	NoPrice     float64
	Volume24h   float64
	VolumeTotal float64
	RecordedAt  time.Time
}

// PricePoint is one historical probability observation for a market.
type PricePoint struct {
	YesPrice   float64
	RecordedAt time.Time
}

// Alert records a sudden large probability move that warranted immediate
// notification.
type Alert struct {
	ID         string
	MarketID   string
	Question   string
	ChangeType string // "surge" or "drop"
	OldPrice   float64
	NewPrice   float64
	ChangePct  float64
	Tickers    []string
	CreatedAt  time.Time
}
