package router

import (
	"net/http"
	"os"

	"sriox/internal/api/v1/handler"
	"sriox/internal/config"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// DeadLetterPath receives pushes from the events dead-letter subscription.
const DeadLetterPath = "/api/events/dead-letter"

// SetupHumaAPI creates a Huma API instance
func SetupHumaAPI(
	cfg *config.Config,
	authMiddleware func(http.Handler) http.Handler,
	pubsubAuthMiddleware func(http.Handler) http.Handler,
	siteHandler *handler.SiteHandler,
	logger zerolog.Logger,
) (*chi.Mux, huma.API) {
	// Every error, including schema validation, uses the {success, message} envelope
	huma.NewError = handler.NewError

	// Create Chi router for Huma adapter
	chiRouter := chi.NewRouter()

	// Apply middleware based on path
	chiRouter.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Dead-letter pushes come from Pub/Sub, not users
			if r.URL.Path == DeadLetterPath {
				pubsubAuthMiddleware(next).ServeHTTP(w, r)
				return
			}
			// User auth is optional here; handlers that need a user reject anonymous calls
			authMiddleware(next).ServeHTTP(w, r)
		})
	})

	// Get version from environment or default to development
	version := os.Getenv("GIT_COMMIT_SHA")
	if version == "" {
		version = "development"
	}

	// Configure Huma with OpenAPI 3.1
	humaConfig := huma.DefaultConfig("Sriox API", version)
	humaConfig.Info.Description = "Sriox static hosting API"
	humaConfig.Servers = []*huma.Server{{URL: cfg.APIBaseURL}}
	// No $schema links in bodies; clients get the bare {success, ...} envelope
	humaConfig.CreateHooks = nil

	// Create Huma API with Chi adapter
	api := humachi.New(chiRouter, humaConfig)

	// Mount multipart site endpoints as raw HTTP handlers
	chiRouter.Post("/api/sites/upload", siteHandler.Upload)
	chiRouter.Put("/api/sites/{id}", siteHandler.Update)

	logger.Info().Str("version", version).Msg("Huma API initialized")
	logger.Info().Msg("Site upload endpoints mounted at /api/sites/upload and /api/sites/{id}")

	return chiRouter, api
}

// RegisterRoutes registers all Huma operations
func RegisterRoutes(
	api huma.API,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	planHandler *handler.PlanHandler,
	siteHandler *handler.SiteHandler,
	redirectHandler *handler.RedirectHandler,
	githubPageHandler *handler.GithubPageHandler,
	dlqHandler *handler.DLQHandler,
	logger zerolog.Logger,
) {
	logger.Info().Msg("Registering routes")

	// ========== AUTH OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "register",
		Method:        "POST",
		Path:          "/api/auth/register",
		Summary:       "Register an account",
		Description:   "Creates a user on the Free plan and returns a signed token",
		Tags:          []string{"auth"},
		DefaultStatus: 201,
	}, authHandler.Register)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      "POST",
		Path:        "/api/auth/login",
		Summary:     "Log in",
		Description: "Exchanges email and password for a signed token",
		Tags:        []string{"auth"},
	}, authHandler.Login)

	// ========== USER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "getProfile",
		Method:      "GET",
		Path:        "/api/users/profile",
		Summary:     "Get user profile",
		Description: "Retrieves the authenticated user with their active subscription and plan",
		Tags:        []string{"users"},
	}, userHandler.GetProfile)

	huma.Register(api, huma.Operation{
		OperationID: "updateProfile",
		Method:      "PUT",
		Path:        "/api/users/profile",
		Summary:     "Update user profile",
		Description: "Changes the username and/or email. Changing the email resets verification",
		Tags:        []string{"users"},
	}, userHandler.UpdateProfile)

	huma.Register(api, huma.Operation{
		OperationID: "changePassword",
		Method:      "PUT",
		Path:        "/api/users/change-password",
		Summary:     "Change password",
		Description: "Replaces the password after checking the current one",
		Tags:        []string{"users"},
	}, userHandler.ChangePassword)

	huma.Register(api, huma.Operation{
		OperationID: "getStats",
		Method:      "GET",
		Path:        "/api/users/stats",
		Summary:     "Get usage statistics",
		Description: "Reports usage of sites, redirects and GitHub pages against the plan limits",
		Tags:        []string{"users"},
	}, userHandler.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "upgradePlan",
		Method:      "POST",
		Path:        "/api/users/upgrade",
		Summary:     "Change plan",
		Description: "Cancels the active subscription and subscribes to another plan",
		Tags:        []string{"users"},
	}, userHandler.UpgradePlan)

	// ========== PLAN OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listPlans",
		Method:      "GET",
		Path:        "/api/plans",
		Summary:     "List plans",
		Description: "Returns the available subscription plans",
		Tags:        []string{"plans"},
	}, planHandler.ListPlans)

	// ========== SITE OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listSites",
		Method:      "GET",
		Path:        "/api/sites",
		Summary:     "List sites",
		Description: "Retrieves the authenticated user's sites, newest first",
		Tags:        []string{"sites"},
	}, siteHandler.ListSites)

	huma.Register(api, huma.Operation{
		OperationID: "getSite",
		Method:      "GET",
		Path:        "/api/sites/{subdomain}",
		Summary:     "Get a site",
		Description: "Retrieves an active site by subdomain",
		Tags:        []string{"sites"},
	}, siteHandler.GetSite)

	huma.Register(api, huma.Operation{
		OperationID: "deleteSite",
		Method:      "DELETE",
		Path:        "/api/sites/{id}",
		Summary:     "Delete a site",
		Description: "Deletes a site and its deployed files",
		Tags:        []string{"sites"},
	}, siteHandler.DeleteSite)

	// ========== REDIRECT OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "createRedirect",
		Method:        "POST",
		Path:          "/api/redirects",
		Summary:       "Create a redirect",
		Description:   "Publishes a redirect page at <platform-domain>/<name>",
		Tags:          []string{"redirects"},
		DefaultStatus: 201,
	}, redirectHandler.CreateRedirect)

	huma.Register(api, huma.Operation{
		OperationID: "listRedirects",
		Method:      "GET",
		Path:        "/api/redirects",
		Summary:     "List redirects",
		Description: "Retrieves the authenticated user's redirects, newest first",
		Tags:        []string{"redirects"},
	}, redirectHandler.ListRedirects)

	huma.Register(api, huma.Operation{
		OperationID: "getRedirect",
		Method:      "GET",
		Path:        "/api/redirects/{name}",
		Summary:     "Get a redirect",
		Description: "Retrieves an active redirect by name",
		Tags:        []string{"redirects"},
	}, redirectHandler.GetRedirect)

	huma.Register(api, huma.Operation{
		OperationID: "updateRedirect",
		Method:      "PUT",
		Path:        "/api/redirects/{id}",
		Summary:     "Update a redirect",
		Description: "Changes the target URL and/or toggles the redirect",
		Tags:        []string{"redirects"},
	}, redirectHandler.UpdateRedirect)

	huma.Register(api, huma.Operation{
		OperationID: "deleteRedirect",
		Method:      "DELETE",
		Path:        "/api/redirects/{id}",
		Summary:     "Delete a redirect",
		Description: "Deletes a redirect and its page",
		Tags:        []string{"redirects"},
	}, redirectHandler.DeleteRedirect)

	// ========== GITHUB PAGES OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "createGithubPage",
		Method:        "POST",
		Path:          "/api/github-pages",
		Summary:       "Create a GitHub Pages mapping",
		Description:   "Maps <subdomain>.<platform-domain> to a GitHub Pages repository and returns setup instructions",
		Tags:          []string{"github-pages"},
		DefaultStatus: 201,
	}, githubPageHandler.CreateGithubPage)

	huma.Register(api, huma.Operation{
		OperationID: "listGithubPages",
		Method:      "GET",
		Path:        "/api/github-pages",
		Summary:     "List GitHub Pages mappings",
		Description: "Retrieves the authenticated user's mappings, newest first",
		Tags:        []string{"github-pages"},
	}, githubPageHandler.ListGithubPages)

	huma.Register(api, huma.Operation{
		OperationID: "getGithubPage",
		Method:      "GET",
		Path:        "/api/github-pages/{subdomain}",
		Summary:     "Get a GitHub Pages mapping",
		Description: "Retrieves an active mapping by subdomain",
		Tags:        []string{"github-pages"},
	}, githubPageHandler.GetGithubPage)

	huma.Register(api, huma.Operation{
		OperationID: "updateGithubPage",
		Method:      "PUT",
		Path:        "/api/github-pages/{id}",
		Summary:     "Update a GitHub Pages mapping",
		Description: "Re-points the mapping to another repository and/or toggles it",
		Tags:        []string{"github-pages"},
	}, githubPageHandler.UpdateGithubPage)

	huma.Register(api, huma.Operation{
		OperationID: "deleteGithubPage",
		Method:      "DELETE",
		Path:        "/api/github-pages/{id}",
		Summary:     "Delete a GitHub Pages mapping",
		Description: "Deletes the mapping with its DNS record and CNAME marker",
		Tags:        []string{"github-pages"},
	}, githubPageHandler.DeleteGithubPage)

	huma.Register(api, huma.Operation{
		OperationID: "verifyGithubPage",
		Method:      "POST",
		Path:        "/api/github-pages/{id}/verify",
		Summary:     "Verify a GitHub Pages mapping",
		Description: "Checks that the repository's CNAME file names the mapped domain",
		Tags:        []string{"github-pages"},
	}, githubPageHandler.VerifyGithubPage)

	// ========== DLQ OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "recordDeadLetter",
		Method:        "POST",
		Path:          DeadLetterPath,
		Summary:       "Record a dead-lettered event",
		Description:   "Receives lifecycle events that Pub/Sub could not deliver and stores them for inspection",
		Tags:          []string{"dlq"},
		DefaultStatus: 204,
	}, dlqHandler.RecordDeadLetter)

	logger.Info().Msg("Routes registered")
}
