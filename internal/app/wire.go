package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/polysignal/internal/backtest"
	"github.com/alanyoungcy/polysignal/internal/cache/redis"
	"github.com/alanyoungcy/polysignal/internal/config"
	"github.com/alanyoungcy/polysignal/internal/domain"
	"github.com/alanyoungcy/polysignal/internal/history"
	"github.com/alanyoungcy/polysignal/internal/notify"
	"github.com/alanyoungcy/polysignal/internal/pipeline"
	"github.com/alanyoungcy/polysignal/internal/platform/polymarket"
	"github.com/alanyoungcy/polysignal/internal/platform/stocks"
	"github.com/alanyoungcy/polysignal/internal/signal"
	"github.com/alanyoungcy/polysignal/internal/source"
	"github.com/alanyoungcy/polysignal/internal/store/postgres"
)

// Dependencies bundles everything the application modes operate on. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Snapshots domain.SnapshotStore
	Alerts    domain.AlertStore
	History   domain.HistoryStore
	Returns   domain.ReturnsLookup

	Matcher  *signal.Matcher
	Builder  *signal.Builder
	Source   source.Source
	Notifier *notify.Notifier

	Reporter *pipeline.Reporter
	Checker  *pipeline.AlertChecker
	Scorer   *backtest.Scorer
}

// needsPostgres reports whether a mode persists snapshots or alerts.
func needsPostgres(mode string) bool {
	switch mode {
	case "report", "alert", "daemon":
		return true
	default:
		return false
	}
}

// needsReturns reports whether a mode scores signals against stock returns.
func needsReturns(mode string) bool {
	switch mode {
	case "backtest", "daemon":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependencies from configuration and returns
// them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (modes that persist snapshots/alerts) ---
	if needsPostgres(cfg.Mode) && !cfg.Database.Enabled {
		logger.Warn("database disabled, running without persistence",
			slog.String("mode", cfg.Mode))
	}
	if needsPostgres(cfg.Mode) && cfg.Database.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Snapshots = postgres.NewSnapshotStore(pool)
		deps.Alerts = postgres.NewAlertStore(pool)
	}

	// --- History store ---
	switch cfg.History.Backend {
	case "s3":
		s3Store, err := history.NewS3Store(ctx, history.S3Config{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			Prefix:         cfg.History.Prefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3 history: %w", err)
		}
		deps.History = s3Store
	default:
		fileStore, err := history.NewFileStore(cfg.History.Dir)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: file history: %w", err)
		}
		deps.History = fileStore
	}

	// --- Stock returns (modes that backtest), optionally cached in Redis ---
	if needsReturns(cfg.Mode) {
		deps.Returns = stocks.NewClient(cfg.Stocks.ProviderURL, cfg.Stocks.ApiKey, cfg.Stocks.Timeout.Duration)

		if cfg.Redis.Enabled {
			redisClient, err := redis.New(ctx, redis.ClientConfig{
				Addr:       cfg.Redis.Addr,
				Password:   cfg.Redis.Password,
				DB:         cfg.Redis.DB,
				PoolSize:   cfg.Redis.PoolSize,
				MaxRetries: cfg.Redis.MaxRetries,
				TLSEnabled: cfg.Redis.TLSEnabled,
			})
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: redis: %w", err)
			}
			closers = append(closers, func() { _ = redisClient.Close() })

			deps.Returns = redis.NewReturnsCache(redisClient, deps.Returns, cfg.Redis.CacheTTL.Duration, logger)
		}
	}

	// --- Matching and signal building ---
	deps.Matcher = signal.NewMatcher(cfg)
	deps.Builder = signal.NewBuilder(deps.Matcher, cfg.Thresholds)

	// --- Market sources: tracked events first so they win dedup ---
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	bulk := source.NewBulkSource(gamma, cfg.Polymarket.FetchLimit, logger)
	if len(cfg.TrackedEvents) > 0 {
		tracked := source.NewTrackedSource(gamma, cfg.TrackedEvents, logger)
		deps.Source = source.NewMultiSource(tracked, bulk)
	} else {
		deps.Source = bulk
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Pipelines ---
	deps.Reporter = pipeline.NewReporter(
		deps.Source, deps.Builder, deps.Snapshots, deps.History,
		deps.Notifier, cfg.Report.TopPerTier, logger,
	)
	deps.Checker = pipeline.NewAlertChecker(
		deps.Source, deps.Matcher, deps.Snapshots, deps.Alerts,
		deps.Notifier, cfg.Alert.ThresholdPct, cfg.Thresholds.MinVolume24h, logger,
	)
	if deps.Returns != nil {
		deps.Scorer = backtest.NewScorer(deps.Returns, cfg.Backtest, logger)
	}

	return deps, cleanup, nil
}
