package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finledger/internal/cli"
	"finledger/internal/config"
	"finledger/internal/sheets"
	gsheet "finledger/internal/sheets/google"
	"finledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	engine, err := cli.NewEngine(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	// Google Sheets snapshot export (optional)
	var exporter sheets.SnapshotExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Validate() already checked these.
	runHour, runMinute, _ := config.ParseClock(cfg.RecurringRunAt)
	reportHour, reportMinute, _ := config.ParseClock(cfg.WeeklyReportAt)
	reportDay, _ := config.ParseWeekday(cfg.WeeklyReportDay)

	recurring := worker.RecurringJob(engine.Rules, worker.Clock{Hour: runHour, Minute: runMinute}, engine.Location)
	weekly := worker.WeeklyReportJob(engine.Budgets, engine.Ledger, exporter, reportDay,
		worker.Clock{Hour: reportHour, Minute: reportMinute}, engine.Location)
	scheduler := worker.NewScheduler(recurring, weekly)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := scheduler.Stop(ctx); err != nil {
			logger.Warn("Scheduler did not stop cleanly", "error", err)
		}
	})

	engine.Caches.StartCleanup(ctx, 10*time.Minute)

	// Catch up on a tick missed while the worker was down. Rules already
	// applied today are skipped.
	logger.Info("Running initial recurring rule processing...")
	_ = worker.RunOnce(ctx, recurring, time.Now())

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	logger.Info("Ledger worker running",
		"timezone", cfg.Timezone,
		"recurring_at", cfg.RecurringRunAt,
		"weekly_report", cfg.WeeklyReportDay+" "+cfg.WeeklyReportAt)

	if engine.Events != nil && cfg.AMQPConsumeEvents {
		handler := worker.EventLogger{}
		go func() {
			err := engine.Events.ConsumeEvents(ctx, handler.HandleFunc(ctx))
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Event consumption failed", "error", err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
}
