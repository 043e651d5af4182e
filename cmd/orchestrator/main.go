package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"sriox/internal/config"
	"sriox/internal/database"
	"sriox/internal/logger"
	"sriox/internal/model"
	"sriox/internal/orchestrator/cleanup"
	"sriox/internal/orchestrator/reconcile"
	"sriox/internal/pgmq"
	"sriox/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Orchestrator mode: cleanup|reconcile")
	flag.Parse()

	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Initialize DB connection
	db, sqlDB, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer sqlDB.Close()
	logger.Info().Msg("Database connection established")

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Dispatch to the selected orchestrator
	var runErr error
	switch *mode {
	case "cleanup":
		if cfg.CleanupQueueName == "" {
			logger.Fatal().Msg("CLEANUP_QUEUE_NAME must be set for cleanup mode")
		}
		pgmqClient := pgmq.New(sqlDB)
		for _, q := range []string{cfg.CleanupQueueName, cfg.CleanupDeadLetterQueueName} {
			if q == "" {
				continue
			}
			if err := pgmqClient.CreateQueue(ctx, q); err != nil {
				logger.Fatal().Msgf("Failed to create queue %s: %v", q, err)
			}
		}
		logger.Info().Msg("PGMQ client initialized")

		worker := cleanup.NewWorker(pgmqClient, repository.NewDLQRepository(db), cfg.DataDir, cleanup.Options{
			Queue:           cfg.CleanupQueueName,
			DeadLetterQueue: cfg.CleanupDeadLetterQueueName,
			PollTimeoutSec:  cfg.CleanupPollTimeoutSec,
			PollMaxMsg:      cfg.CleanupPollMaxMsg,
			MaxRetries:      cfg.CleanupMaxRetries,
			BackoffInitial:  time.Duration(cfg.CleanupBackoffInitialSec) * time.Second,
			BackoffMax:      time.Duration(cfg.CleanupBackoffMaxSec) * time.Second,
		}, logger)
		runErr = worker.Run(ctx)
	case "reconcile":
		targets := []reconcile.Target{
			{Kind: model.KindSite, Dir: cfg.SitesDir(), Keys: repository.NewSiteRepo(db)},
			{Kind: model.KindRedirect, Dir: cfg.SubpagesDir(), Ext: ".html", Keys: repository.NewRedirectRepo(db)},
			{Kind: model.KindGithubPage, Dir: cfg.CNAMEDir(), Ext: ".txt", Keys: repository.NewGithubPageRepo(db)},
		}
		runErr = reconcile.New(targets, cfg.ReconcileGrace, logger).Run(ctx, cfg.ReconcileInterval)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
