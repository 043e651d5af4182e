package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Core
	Port               string        `envconfig:"PORT" default:"8080"`
	Environment        string        `envconfig:"ENV" default:"development"`
	DBConnectionString string        `envconfig:"DB_CONNECTION_STRING" required:"true"`
	JWTSecret          string        `envconfig:"JWT_SECRET"`
	JWTSecretName      string        `envconfig:"JWT_SECRET_NAME"`
	JWTTTL             time.Duration `envconfig:"JWT_TTL" default:"168h"`
	APIBaseURL         string        `envconfig:"API_BASE_URL" default:"http://localhost:8080"`

	// Hosting layout
	PlatformDomain string `envconfig:"PLATFORM_DOMAIN" default:"sriox.com"`
	DataDir        string `envconfig:"DATA_DIR" default:"data"`

	// GitHub Pages
	GithubAPIURL      string `envconfig:"GITHUB_API_URL"`
	GithubToken       string `envconfig:"GITHUB_TOKEN"`
	GithubPagesBranch string `envconfig:"GITHUB_PAGES_BRANCH" default:"main"`

	// Cloudflare DNS (disabled when no token is configured)
	CloudflareAPIToken           string `envconfig:"CLOUDFLARE_API_TOKEN"`
	CloudflareAPITokenSecretName string `envconfig:"CLOUDFLARE_API_TOKEN_SECRET_NAME"`
	CloudflareZoneID             string `envconfig:"CLOUDFLARE_ZONE_ID"`

	// S3-compatible archive retention (disabled when no bucket is configured)
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// GCP (Pub/Sub events and Secret Manager)
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
	PubSubEventsTopic  string `envconfig:"PUBSUB_EVENTS_TOPIC" default:"resource-events"`

	// Dead-lettered events pushed back by Pub/Sub
	DLQEndpointURL                string `envconfig:"DLQ_ENDPOINT_URL"`
	PubSubPushServiceAccountEmail string `envconfig:"PUBSUB_PUSH_SERVICE_ACCOUNT_EMAIL"`

	// Artifact cleanup queue (pgmq). Empty queue name disables it.
	CleanupQueueName           string `envconfig:"CLEANUP_QUEUE_NAME"`
	CleanupDeadLetterQueueName string `envconfig:"CLEANUP_DEAD_LETTER_QUEUE_NAME" default:"artifact_cleanup_dlq"`
	CleanupPollTimeoutSec      int    `envconfig:"CLEANUP_POLL_TIMEOUT_SEC" default:"5"`
	CleanupPollMaxMsg          int    `envconfig:"CLEANUP_POLL_MAX_MSG" default:"1"`
	CleanupMaxRetries          int    `envconfig:"CLEANUP_MAX_RETRIES" default:"5"`
	CleanupBackoffInitialSec   int    `envconfig:"CLEANUP_BACKOFF_INITIAL_SEC" default:"1"`
	CleanupBackoffMaxSec       int    `envconfig:"CLEANUP_BACKOFF_MAX_SEC" default:"30"`

	// Orphan reconciler
	ReconcileInterval time.Duration `envconfig:"RECONCILE_INTERVAL" default:"10m"`
	ReconcileGrace    time.Duration `envconfig:"RECONCILE_GRACE" default:"30m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" && cfg.JWTSecretName == "" {
		return nil, fmt.Errorf("one of JWT_SECRET or JWT_SECRET_NAME must be set")
	}
	return &cfg, nil
}

// DNSEnabled reports whether Cloudflare credentials are available.
func (c *Config) DNSEnabled() bool {
	return (c.CloudflareAPIToken != "" || c.CloudflareAPITokenSecretName != "") && c.CloudflareZoneID != ""
}

func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) EventsEnabled() bool {
	return c.GCPProjectID != ""
}

// Artifact directories under DataDir.
func (c *Config) SitesDir() string    { return filepath.Join(c.DataDir, "sites") }
func (c *Config) SubpagesDir() string { return filepath.Join(c.DataDir, "subpages") }
func (c *Config) CNAMEDir() string    { return filepath.Join(c.DataDir, "cname") }
