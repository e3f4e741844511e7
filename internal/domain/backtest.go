package domain

// Direction is the equity direction implied by a signal.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

// SignalOutcome scores one (signal, ticker) pair: did the realized forward
// stock return move in the signal's implied direction?
type SignalOutcome struct {
	Question    string    `json:"question"`
	Ticker      string    `json:"ticker"`
	Direction   Direction `json:"signal_direction"`
	ProbChange  float64   `json:"prob_change"`
	StockReturn float64   `json:"stock_return"`
	Correct     bool      `json:"correct_direction"`
}

// BacktestResult is the scoring of a single day's signal set. Transient:
// recomputed on demand, never persisted.
type BacktestResult struct {
	SignalDate string          `json:"signal_date"`
	Outcomes   []SignalOutcome `json:"major_signals"`
	HitRate    float64         `json:"hit_rate"`    // percent, 1dp
	AvgReturn  float64         `json:"avg_return"`  // percent, 2dp
}

// TickerStats accumulates per-ticker performance across a historical backtest
// window.
type TickerStats struct {
	Total     int
	Correct   int
	Returns   []float64
	HitRate   float64 // percent, 1dp
	AvgReturn float64 // percent, 2dp
}

// HistoricalResult aggregates backtest results over the last N persisted
// signal sets.
type HistoricalResult struct {
	TotalSignals   int
	CorrectSignals int
	OverallHitRate float64 // percent, 1dp; 0 when TotalSignals is 0
	ByTicker       map[string]*TickerStats
	Details        []BacktestResult
}
