// Package config defines the top-level configuration for the signal generator
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by POLYSIG_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Thresholds ThresholdConfig  `toml:"thresholds"`

	// Watchlist is an ordered list of categories. Keyword matching is
	// first-match-wins in declaration order, so the order of [[watchlist]]
	// tables in the file is significant.
	Watchlist []Category `toml:"watchlist"`

	// TrackedEvents are resolved by exact slug lookup, bypassing keyword
	// matching, and carry their own category name and ticker list.
	TrackedEvents []TrackedEvent `toml:"tracked_events"`

	// KeywordWatchlist holds extra standalone keywords matched after all
	// categories; hits are assigned the "watchlist" category with no tickers.
	KeywordWatchlist []string `toml:"keyword_watchlist"`

	// ExcludeKeywords drops a market outright when any of them appears in its
	// question or description.
	ExcludeKeywords []string `toml:"exclude_keywords"`

	Stocks   StocksConfig   `toml:"stocks"`
	Backtest BacktestConfig `toml:"backtest"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	History  HistoryConfig  `toml:"history"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	Alert    AlertConfig    `toml:"alert"`
	Report   ReportConfig   `toml:"report"`

	Mode     string `toml:"mode"`
	LogLevel string `toml:"log_level"`
}

// Category is one watchlist entry: the keywords that identify a market as
// belonging to the category and the tickers a move in that market affects.
type Category struct {
	Name     string `toml:"name"`
	Keywords []string `toml:"keywords"`
	// StockImpact maps an arbitrary label (e.g. "positive", "negative",
	// "suppliers") to a ticker list; the matcher returns the union.
	StockImpact map[string][]string `toml:"stock_impact"`
}

// TrackedEvent pins a specific market by its URL slug.
type TrackedEvent struct {
	Slug   string   `toml:"slug"`
	Name   string   `toml:"name"`
	Stocks []string `toml:"stocks"`
	Notes  string   `toml:"notes"`
}

// PolymarketConfig holds Gamma API parameters.
type PolymarketConfig struct {
	GammaHost  string `toml:"gamma_host"`
	FetchLimit int    `toml:"fetch_limit"`
}

// ThresholdConfig holds the signal classification thresholds. Values are
// percentages (5.0 means a 5-point probability move).
type ThresholdConfig struct {
	MinVolume24h  float64 `toml:"min_volume_24h"`
	MajorChange   float64 `toml:"major_change"`
	NotableChange float64 `toml:"notable_change"`
}

// StocksConfig holds the stock-return data provider parameters.
type StocksConfig struct {
	ProviderURL string   `toml:"provider_url"`
	ApiKey      string   `toml:"api_key"`
	Timeout     duration `toml:"timeout"`
}

// BacktestConfig holds backtest scoring parameters.
type BacktestConfig struct {
	WindowDays          int `toml:"window_days"`           // forward return window per signal
	HistoryDays         int `toml:"history_days"`          // how many daily sets the historical run scans
	MaxTickersPerSignal int `toml:"max_tickers_per_signal"`
}

// DatabaseConfig holds PostgreSQL connection parameters. When Enabled is
// false the report and alert pipelines run without persistence: snapshots are
// not recorded and alerts are notify-only.
type DatabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the returns cache.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	CacheTTL   duration `toml:"cache_ttl"`
}

// HistoryConfig selects where daily signal-set files live.
type HistoryConfig struct {
	// Backend is "file" or "s3".
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	// Prefix is the object key prefix when Backend is "s3".
	Prefix string `toml:"prefix"`
}

// S3Config holds S3-compatible object storage parameters for the history
// backend.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// AlertConfig holds sudden-move alert parameters.
type AlertConfig struct {
	ThresholdPct float64  `toml:"threshold_pct"`
	PollInterval duration `toml:"poll_interval"`
}

// ReportConfig holds report generation parameters.
type ReportConfig struct {
	// Cron is the daemon-mode schedule for the daily report (standard 5-field
	// cron expression).
	Cron       string `toml:"cron"`
	TopPerTier int    `toml:"top_per_tier"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:  "https://gamma-api.polymarket.com",
			FetchLimit: 300,
		},
		Thresholds: ThresholdConfig{
			MinVolume24h:  10_000,
			MajorChange:   5.0,
			NotableChange: 2.0,
		},
		Stocks: StocksConfig{
			ProviderURL: "https://www.alphavantage.co/query",
			Timeout:     duration{30 * time.Second},
		},
		Backtest: BacktestConfig{
			WindowDays:          7,
			HistoryDays:         30,
			MaxTickersPerSignal: 3,
		},
		Database: DatabaseConfig{
			Enabled:       true,
			Host:          "localhost",
			Port:          5432,
			Database:      "polysignal",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			CacheTTL:   duration{24 * time.Hour},
		},
		History: HistoryConfig{
			Backend: "file",
			Dir:     "data/history",
			Prefix:  "history",
		},
		S3: S3Config{
			Region:         "us-east-1",
			UseSSL:         true,
			ForcePathStyle: false,
		},
		Notify: NotifyConfig{
			Events: []string{"daily_report", "sudden_move", "backtest"},
		},
		Alert: AlertConfig{
			ThresholdPct: 5.0,
			PollInterval: duration{30 * time.Minute},
		},
		Report: ReportConfig{
			Cron:       "0 8 * * *",
			TopPerTier: 5,
		},
		Mode:     "report",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"report":   true,
	"backtest": true,
	"alert":    true,
	"daemon":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
//
// Note it deliberately does not reject notable_change > major_change: the
// classifier treats thresholds as opaque, and an inverted pair is an accepted
// configuration hazard rather than an error.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: report, backtest, alert, daemon)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.FetchLimit <= 0 {
		errs = append(errs, "polymarket: fetch_limit must be positive")
	}

	if c.Thresholds.MinVolume24h < 0 {
		errs = append(errs, "thresholds: min_volume_24h must not be negative")
	}
	if c.Thresholds.MajorChange <= 0 {
		errs = append(errs, "thresholds: major_change must be positive")
	}
	if c.Thresholds.NotableChange <= 0 {
		errs = append(errs, "thresholds: notable_change must be positive")
	}

	if len(c.Watchlist) == 0 && len(c.TrackedEvents) == 0 && len(c.KeywordWatchlist) == 0 {
		errs = append(errs, "watchlist: at least one category, tracked event, or watchlist keyword is required")
	}
	seen := make(map[string]bool, len(c.Watchlist))
	for i, cat := range c.Watchlist {
		if cat.Name == "" {
			errs = append(errs, fmt.Sprintf("watchlist[%d]: name must not be empty", i))
			continue
		}
		if seen[cat.Name] {
			errs = append(errs, fmt.Sprintf("watchlist: duplicate category %q", cat.Name))
		}
		seen[cat.Name] = true
		if len(cat.Keywords) == 0 {
			errs = append(errs, fmt.Sprintf("watchlist[%s]: keywords must not be empty", cat.Name))
		}
	}
	for i, ev := range c.TrackedEvents {
		if ev.Slug == "" {
			errs = append(errs, fmt.Sprintf("tracked_events[%d]: slug must not be empty", i))
		}
		if ev.Name == "" {
			errs = append(errs, fmt.Sprintf("tracked_events[%d]: name must not be empty", i))
		}
	}

	if c.Mode == "backtest" || c.Mode == "daemon" {
		if c.Stocks.ProviderURL == "" {
			errs = append(errs, "stocks: provider_url is required for mode "+c.Mode)
		}
	}
	if c.Backtest.WindowDays <= 0 {
		errs = append(errs, "backtest: window_days must be positive")
	}
	if c.Backtest.HistoryDays <= 0 {
		errs = append(errs, "backtest: history_days must be positive")
	}
	if c.Backtest.MaxTickersPerSignal <= 0 {
		errs = append(errs, "backtest: max_tickers_per_signal must be positive")
	}

	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	switch c.History.Backend {
	case "file":
		if c.History.Dir == "" {
			errs = append(errs, "history: dir must not be empty for the file backend")
		}
	case "s3":
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty for the s3 history backend")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("history: unknown backend %q (valid: file, s3)", c.History.Backend))
	}

	if c.Alert.ThresholdPct <= 0 {
		errs = append(errs, "alert: threshold_pct must be positive")
	}
	if c.Report.TopPerTier <= 0 {
		errs = append(errs, "report: top_per_tier must be positive")
	}
	if c.Mode == "daemon" && strings.TrimSpace(c.Report.Cron) == "" {
		errs = append(errs, "report: cron must not be empty for daemon mode")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
