package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dgnsrekt/moneyflow/internal/config"
	"github.com/dgnsrekt/moneyflow/internal/data"
	"github.com/dgnsrekt/moneyflow/internal/download"
	"github.com/dgnsrekt/moneyflow/internal/market"
	"github.com/dgnsrekt/moneyflow/internal/notify"
	"github.com/dgnsrekt/moneyflow/internal/nse"
	"github.com/dgnsrekt/moneyflow/internal/report"
	"github.com/dgnsrekt/moneyflow/internal/staging"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		return 1
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	// Load daemon config
	daemonCfg := LoadDaemonConfig()

	logger.Info("daemon configuration loaded",
		zap.Int("scheduleHour", daemonCfg.ScheduleHour),
		zap.Int("scheduleMinute", daemonCfg.ScheduleMinute),
		zap.String("configPath", daemonCfg.ConfigPath),
		zap.String("stateFile", daemonCfg.StateFile),
		zap.Bool("runOnStartup", daemonCfg.RunOnStartup),
		zap.Duration("retryInterval", daemonCfg.RetryInterval),
	)

	cfg, err := config.Load(daemonCfg.ConfigPath)
	if err != nil {
		logger.Error("failed to load config", zap.Error(err))
		return 1
	}

	logger.Info("report configuration loaded",
		zap.String("archiveDir", cfg.Archive.Directory),
		zap.String("outputDir", cfg.Output.Directory),
		zap.Strings("symbols", cfg.Symbols),
		zap.Strings("formats", cfg.Report.Formats),
	)

	// Load notification config
	notifyCfg := notify.LoadConfig()
	if err := notifyCfg.Validate(); err != nil {
		logger.Error("invalid notification config", zap.Error(err))
		return 1
	}
	notifier := notify.New(notifyCfg, logger)

	// Wire the pipeline
	client := nse.NewClient(cfg.NSEOptions(), logger)
	downloads := download.NewManager(client, staging.NewManager(cfg.Archive.Directory), cfg.Download.Workers, logger)
	lots := report.NewLotSizes(cfg.LotSizes, client, logger)
	generator := report.NewGenerator(data.NewMemoryLoader(cfg.Archive.Directory, logger), lots, cfg.Params, logger)
	writer := report.NewFileWriter(cfg.Output.Directory, cfg.OutputFormats())
	runner := NewRunner(downloads, generator, writer.Write, cfg.Symbols, notifier, logger)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	scheduler := NewScheduler(daemonCfg.ScheduleHour, daemonCfg.ScheduleMinute, market.NewCalendar())
	tracker := NewRunTracker(daemonCfg.StateFile)

	logger.Info("daemon started",
		zap.String("schedule", fmt.Sprintf("%02d:%02d %s", daemonCfg.ScheduleHour, daemonCfg.ScheduleMinute, scheduler.Location())),
	)

	var lastAttempt time.Time
	attempt := func() {
		if !lastAttempt.IsZero() && time.Since(lastAttempt) < daemonCfg.RetryInterval {
			return
		}
		if !shouldRun(scheduler, tracker, logger) {
			return
		}
		lastAttempt = time.Now()
		if runDay(ctx, runner, scheduler, tracker, logger) {
			lastAttempt = time.Time{}
		}
	}

	if daemonCfg.RunOnStartup {
		logger.Info("checking for missed run on startup")
		attempt()
	}

	// Main loop - check every minute
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			attempt()

		case <-ctx.Done():
			logger.Info("received shutdown signal, shutting down")
			return 0
		}
	}
}

// shouldRun checks if conditions are met for today's run
func shouldRun(scheduler *Scheduler, tracker *RunTracker, logger *zap.Logger) bool {
	today := scheduler.TodayDate()

	if tracker.AlreadyRan(today) {
		return false
	}

	if !scheduler.IsMarketDay(scheduler.Today()) {
		logger.Debug("not a market day", zap.String("date", today))
		return false
	}

	if !scheduler.IsDue() {
		return false
	}

	logger.Info("run conditions met",
		zap.String("date", today),
		zap.String("time", time.Now().In(scheduler.Location()).Format("15:04:05")),
	)

	return true
}

// runDay executes today's run and records it on success
func runDay(ctx context.Context, runner *Runner, scheduler *Scheduler, tracker *RunTracker, logger *zap.Logger) bool {
	today := scheduler.Today()
	date := scheduler.TodayDate()

	logger.Info("starting scheduled run", zap.String("date", date))
	start := time.Now()

	if err := runner.Execute(ctx, today); err != nil {
		logger.Error("run failed", zap.Error(err), zap.String("date", date))
		return false
	}

	logger.Info("run succeeded",
		zap.String("date", date),
		zap.Duration("duration", time.Since(start)),
	)

	if err := tracker.SetLastRunDate(date); err != nil {
		logger.Error("failed to update tracker", zap.Error(err))
	}
	return true
}
