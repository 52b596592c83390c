package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/dukerupert/housemood/internal/assign"
	"github.com/dukerupert/housemood/internal/chore"
	"github.com/dukerupert/housemood/internal/config"
	"github.com/dukerupert/housemood/internal/database"
	"github.com/dukerupert/housemood/internal/jobs"
	"github.com/dukerupert/housemood/internal/logging"
	"github.com/dukerupert/housemood/internal/mood"
	"github.com/dukerupert/housemood/internal/processor"
	"github.com/dukerupert/housemood/internal/recurrence"
	"github.com/dukerupert/housemood/internal/reminder"
	"github.com/dukerupert/housemood/internal/store"
	"github.com/dukerupert/housemood/internal/timezone"
)

func main() {
	dotenvErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if dotenvErr != nil {
		logger.Debug(".env file not loaded", "error", dotenvErr)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("housemood stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	zones := timezone.NewService()
	repo := store.NewRepository(db, zones)

	scheduler := processor.New(repo, recurrence.NewEvaluator(zones, logger), assign.NewSelector(repo), chore.NewFactory(), logger)
	reminders := reminder.NewService(repo, repo.Outbox, zones, cfg.DigestTime, logger)
	moods := mood.NewRecalculator(repo, logger)

	runner := jobs.NewRunner(repo.JobRuns, jobs.Options{MaxWindow: cfg.MaxWindow, Timeout: cfg.JobTimeout}, logger)
	for _, job := range []jobs.Job{
		{
			Key:   jobs.KeyInstances,
			Every: cfg.InstanceInterval,
			Run: func(ctx context.Context, w jobs.Window) error {
				_, err := scheduler.Run(ctx, w.From, w.To)
				return err
			},
		},
		{
			Key:   jobs.KeyReminders,
			Every: cfg.ReminderInterval,
			Run: func(ctx context.Context, w jobs.Window) error {
				_, err := reminders.Run(ctx, w.Prev, w.From, w.To)
				return err
			},
		},
		{
			Key:   jobs.KeyMood,
			Every: cfg.MoodInterval,
			Run: func(ctx context.Context, w jobs.Window) error {
				_, err := moods.Run(ctx, w.To)
				return err
			},
		},
	} {
		if err := runner.Add(job); err != nil {
			return err
		}
	}

	runner.Start()
	logger.Info("housemood running", "db", cfg.DBPath, "digest_time", cfg.DigestTime.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	runner.Stop()
	return nil
}
