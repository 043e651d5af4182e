package router

import (
	"net/http"

	"sriox/internal/api/v1/handler"
	"sriox/internal/config"
	"sriox/internal/hostfs"
	"sriox/internal/middleware"
	"sriox/internal/model"
	"sriox/internal/provision"
	"sriox/internal/quota"
	"sriox/internal/redirectpage"
	"sriox/internal/repository"
	"sriox/internal/service"
	"sriox/internal/storage"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Integrations are the external systems behind the provisioners. cmd/app
// picks real clients or no-op stand-ins from the config.
type Integrations struct {
	Archives storage.ArchiveStore
	DNS      service.DNSRecords
	Repos    service.RepoHost
	Cleanup  provision.CleanupQueue
	Notifier provision.Notifier
}

func New(cfg *config.Config, db *gorm.DB, ext Integrations, logger zerolog.Logger) (http.Handler, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	// 1. Artifact directories
	tree, err := hostfs.NewTree(cfg.SitesDir())
	if err != nil {
		return nil, err
	}
	subpages, err := hostfs.NewFiles(cfg.SubpagesDir(), ".html")
	if err != nil {
		return nil, err
	}
	markers, err := hostfs.NewFiles(cfg.CNAMEDir(), ".txt")
	if err != nil {
		return nil, err
	}

	// 2. Initialize validator
	validate := service.NewValidator()

	// 3. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(db)
	planRepo := repository.NewPlanRepo(db)
	subRepo := repository.NewSubscriptionRepo(db)
	siteRepo := repository.NewSiteRepo(db)
	redirectRepo := repository.NewRedirectRepo(db)
	githubPageRepo := repository.NewGithubPageRepo(db)
	dlqRepo := repository.NewDLQRepository(db)

	evaluator := quota.NewEvaluator(subRepo, map[model.ResourceKind]quota.Counter{
		model.KindSite:       siteRepo,
		model.KindRedirect:   redirectRepo,
		model.KindGithubPage: githubPageRepo,
	})
	deps := provision.Deps{
		DB:       db,
		Quota:    evaluator,
		Cleanup:  ext.Cleanup,
		Notifier: ext.Notifier,
		Logger:   logger,
	}

	authSvc := service.NewAuthService(db, userRepo, planRepo, subRepo, validate, cfg.JWTSecret, cfg.JWTTTL, logger)
	userSvc := service.NewUserService(db, userRepo, planRepo, subRepo, evaluator, validate, logger)
	planSvc := service.NewPlanService(planRepo, logger)
	siteSvc := service.NewSiteService(siteRepo, subRepo, tree, ext.Archives, validate, cfg.PlatformDomain, deps)
	redirectSvc := service.NewRedirectService(redirectRepo, subpages, redirectpage.NewRenderer(cfg.PlatformDomain), validate, cfg.PlatformDomain, deps)
	githubPageSvc := service.NewGithubPageService(githubPageRepo, ext.Repos, ext.DNS, markers, validate, cfg.PlatformDomain, cfg.GithubPagesBranch, deps)
	dlqSvc := service.NewDLQService(dlqRepo, logger)

	authHandler := handler.NewAuthHandler(authSvc, userSvc, logger)
	userHandler := handler.NewUserHandler(userSvc, logger)
	planHandler := handler.NewPlanHandler(planSvc, logger)
	siteHandler := handler.NewSiteHandler(siteSvc, logger)
	redirectHandler := handler.NewRedirectHandler(redirectSvc, logger)
	githubPageHandler := handler.NewGithubPageHandler(githubPageSvc, logger)
	dlqHandler := handler.NewDLQHandler(dlqSvc, logger)

	// 4. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(authSvc, logger)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	pubsubAuthMiddleware := middleware.PubSubAuthMiddleware(isLocalDev, cfg.DLQEndpointURL, cfg.PubSubPushServiceAccountEmail, nil, logger)

	// 5. Build Huma API on chi
	mux, api := SetupHumaAPI(cfg, authMiddleware, pubsubAuthMiddleware, siteHandler, logger)
	RegisterRoutes(api, authHandler, userHandler, planHandler, siteHandler, redirectHandler, githubPageHandler, dlqHandler, logger)

	// 6. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	})

	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), nil
}
