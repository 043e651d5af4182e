package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sriox/internal/api/v1/router"
	"sriox/internal/config"
	"sriox/internal/database"
	"sriox/internal/dns"
	"sriox/internal/github"
	"sriox/internal/logger"
	"sriox/internal/orchestrator/cleanup"
	"sriox/internal/pgmq"
	"sriox/internal/pubsub"
	"sriox/internal/repository"
	"sriox/internal/secrets"
	"sriox/internal/service"
	"sriox/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx := context.Background()
	if secrets.NeedsResolver(cfg) {
		sm, err := secrets.NewSecretManager(ctx, cfg.GCPProjectID)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Secret Manager client: %v", err)
		}
		if err := secrets.ResolveConfig(ctx, cfg, sm); err != nil {
			logger.Fatal().Msgf("Failed to resolve secrets: %v", err)
		}
		sm.Close()
	}

	// 2. Open DB connection and bring the schema up to date
	db, sqlDB, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to open DB connection: %v", err)
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Msgf("Failed to migrate database: %v", err)
	}
	if err := service.NewPlanService(repository.NewPlanRepo(db), logger).EnsureDefaultPlans(ctx); err != nil {
		logger.Fatal().Msgf("Failed to seed plans: %v", err)
	}

	// 3. Connect integrations
	ext, closeExt := integrations(ctx, cfg, sqlDB, logger)
	defer closeExt()

	// 4. Build router
	r, err := router.New(cfg, db, ext, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}

	// 5. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Msgf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s\n", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Msgf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("Server shut down gracefully")
}

// integrations connects the optional external systems. Anything not
// configured is replaced by a no-op.
func integrations(ctx context.Context, cfg *config.Config, sqlDB *sql.DB, logger zerolog.Logger) (router.Integrations, func()) {
	var closers []func() error
	ext := router.Integrations{
		Archives: storage.Nop{},
		Notifier: pubsub.NopNotifier{},
		Cleanup:  cleanup.NewLogQueue(logger),
	}

	provider := dns.Provider(dns.Nop{})
	if cfg.DNSEnabled() {
		cf, err := dns.NewCloudflare(cfg.CloudflareAPIToken, cfg.CloudflareZoneID, cfg.PlatformDomain)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Cloudflare client: %v", err)
		}
		provider = cf
		logger.Info().Str("zone", cfg.CloudflareZoneID).Msg("Cloudflare DNS enabled")
	} else {
		logger.Warn().Msg("Cloudflare DNS disabled; CNAME records must be created by hand")
	}
	ext.DNS = dns.NewManager(provider, logger)

	gh, err := github.NewClient(cfg.GithubAPIURL, cfg.GithubToken, cfg.GithubPagesBranch)
	if err != nil {
		logger.Fatal().Msgf("Failed to create GitHub client: %v", err)
	}
	ext.Repos = gh

	if cfg.S3Enabled() {
		client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create S3 client: %v", err)
		}
		ext.Archives = storage.NewS3Archives(client, cfg.S3Bucket)
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("Archive retention enabled")
	}

	if cfg.EventsEnabled() {
		pub, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		closers = append(closers, pub.Close)
		ext.Notifier = pubsub.NewEventNotifier(pub, cfg.PubSubEventsTopic, logger)
		logger.Info().Str("topic", cfg.PubSubEventsTopic).Msg("Lifecycle events enabled")
	}

	if cfg.CleanupQueueName != "" {
		client := pgmq.New(sqlDB)
		if err := client.CreateQueue(ctx, cfg.CleanupQueueName); err != nil {
			logger.Fatal().Msgf("Failed to create cleanup queue: %v", err)
		}
		ext.Cleanup = cleanup.NewQueue(client, cfg.CleanupQueueName)
		logger.Info().Str("queue", cfg.CleanupQueueName).Msg("Cleanup queue enabled")
	}

	return ext, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Error().Err(err).Msg("Failed to close integration")
			}
		}
	}
}
