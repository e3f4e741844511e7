package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYSIG_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYSIG_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "POLYSIG_POLYMARKET_GAMMA_HOST")
	setInt(&cfg.Polymarket.FetchLimit, "POLYSIG_POLYMARKET_FETCH_LIMIT")

	// ── Thresholds ──
	setFloat64(&cfg.Thresholds.MinVolume24h, "POLYSIG_THRESHOLDS_MIN_VOLUME_24H")
	setFloat64(&cfg.Thresholds.MajorChange, "POLYSIG_THRESHOLDS_MAJOR_CHANGE")
	setFloat64(&cfg.Thresholds.NotableChange, "POLYSIG_THRESHOLDS_NOTABLE_CHANGE")

	// ── Stocks ──
	setStr(&cfg.Stocks.ProviderURL, "POLYSIG_STOCKS_PROVIDER_URL")
	setStr(&cfg.Stocks.ApiKey, "POLYSIG_STOCKS_API_KEY")
	setDuration(&cfg.Stocks.Timeout, "POLYSIG_STOCKS_TIMEOUT")

	// ── Backtest ──
	setInt(&cfg.Backtest.WindowDays, "POLYSIG_BACKTEST_WINDOW_DAYS")
	setInt(&cfg.Backtest.HistoryDays, "POLYSIG_BACKTEST_HISTORY_DAYS")
	setInt(&cfg.Backtest.MaxTickersPerSignal, "POLYSIG_BACKTEST_MAX_TICKERS_PER_SIGNAL")

	// ── Database ──
	setBool(&cfg.Database.Enabled, "POLYSIG_DATABASE_ENABLED")
	setStr(&cfg.Database.DSN, "POLYSIG_DATABASE_DSN")
	setStr(&cfg.Database.Host, "POLYSIG_DATABASE_HOST")
	setInt(&cfg.Database.Port, "POLYSIG_DATABASE_PORT")
	setStr(&cfg.Database.Database, "POLYSIG_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "POLYSIG_DATABASE_USER")
	setStr(&cfg.Database.Password, "POLYSIG_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "POLYSIG_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "POLYSIG_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "POLYSIG_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "POLYSIG_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "POLYSIG_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "POLYSIG_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYSIG_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYSIG_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYSIG_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYSIG_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYSIG_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.CacheTTL, "POLYSIG_REDIS_CACHE_TTL")

	// ── History / S3 ──
	setStr(&cfg.History.Backend, "POLYSIG_HISTORY_BACKEND")
	setStr(&cfg.History.Dir, "POLYSIG_HISTORY_DIR")
	setStr(&cfg.History.Prefix, "POLYSIG_HISTORY_PREFIX")
	setStr(&cfg.S3.Endpoint, "POLYSIG_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYSIG_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYSIG_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYSIG_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYSIG_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "POLYSIG_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "POLYSIG_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYSIG_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYSIG_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYSIG_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYSIG_NOTIFY_EVENTS")

	// ── Alert / Report ──
	setFloat64(&cfg.Alert.ThresholdPct, "POLYSIG_ALERT_THRESHOLD_PCT")
	setDuration(&cfg.Alert.PollInterval, "POLYSIG_ALERT_POLL_INTERVAL")
	setStr(&cfg.Report.Cron, "POLYSIG_REPORT_CRON")
	setInt(&cfg.Report.TopPerTier, "POLYSIG_REPORT_TOP_PER_TIER")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYSIG_MODE")
	setStr(&cfg.LogLevel, "POLYSIG_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
