package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polysignal/internal/notify"
	"github.com/alanyoungcy/polysignal/internal/report"
)

// ReportMode runs one report cycle and prints it to stdout.
func (a *App) ReportMode(ctx context.Context, deps *Dependencies) error {
	a.logger.Info("starting report mode")

	text, err := deps.Reporter.Run(ctx)
	if err != nil {
		return fmt.Errorf("report mode: %w", err)
	}

	fmt.Fprintln(os.Stdout, text)
	return nil
}

// BacktestMode scores the persisted signal history against forward stock
// returns and prints the aggregated result.
func (a *App) BacktestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.Info("starting backtest mode")

	result, err := deps.Scorer.RunHistorical(ctx, deps.History)
	if err != nil {
		return fmt.Errorf("backtest mode: %w", err)
	}

	text := report.Backtest(result)
	fmt.Fprintln(os.Stdout, text)

	title := fmt.Sprintf("Backtest: %.1f%% hit rate over %d signals", result.OverallHitRate, result.TotalSignals)
	if err := deps.Notifier.Notify(ctx, notify.EventBacktest, title, text); err != nil {
		a.logger.Warn("backtest notification failed", slog.String("error", err.Error()))
	}
	return nil
}

// AlertMode runs a single sudden-move sweep. Continuous polling lives in
// daemon mode.
func (a *App) AlertMode(ctx context.Context, deps *Dependencies) error {
	a.logger.Info("starting alert mode")

	raised, err := deps.Checker.Check(ctx)
	if err != nil {
		return fmt.Errorf("alert mode: %w", err)
	}
	a.logger.Info("alert sweep complete", slog.Int("raised", len(raised)))
	return nil
}

// DaemonMode runs the daily report on the configured cron schedule and the
// sudden-move poll concurrently until cancelled.
func (a *App) DaemonMode(ctx context.Context, deps *Dependencies) error {
	a.logger.Info("starting daemon mode",
		slog.String("report_cron", a.cfg.Report.Cron),
		slog.Duration("alert_interval", a.cfg.Alert.PollInterval.Duration))

	g, ctx := errgroup.WithContext(ctx)

	// Scheduled daily report.
	scheduler := cron.New()
	_, err := scheduler.AddFunc(a.cfg.Report.Cron, func() {
		if _, err := deps.Reporter.Run(ctx); err != nil {
			a.logger.Error("scheduled report failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("daemon mode: invalid report cron %q: %w", a.cfg.Report.Cron, err)
	}
	scheduler.Start()

	g.Go(func() error {
		<-ctx.Done()
		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		return ctx.Err()
	})

	// Continuous sudden-move polling.
	interval := a.cfg.Alert.PollInterval.Duration
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	g.Go(func() error {
		return a.runAlertLoop(ctx, deps, interval)
	})

	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// runAlertLoop runs one check immediately, then on every tick. Check failures
// are logged and retried next tick rather than stopping the loop.
func (a *App) runAlertLoop(ctx context.Context, deps *Dependencies, interval time.Duration) error {
	check := func() {
		raised, err := deps.Checker.Check(ctx)
		if err != nil {
			a.logger.Error("alert check failed", slog.String("error", err.Error()))
			return
		}
		if len(raised) > 0 {
			a.logger.Info("alerts raised", slog.Int("count", len(raised)))
		}
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			check()
		}
	}
}
