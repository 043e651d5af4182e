// Package secrets resolves credentials stored in GCP Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"strings"

	"sriox/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

type Resolver interface {
	// Access returns the latest version of the named secret.
	Access(ctx context.Context, name string) (string, error)
}

type SecretManager struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretManager(ctx context.Context, projectID string, opts ...option.ClientOption) (*SecretManager, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP Project ID is not set")
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &SecretManager{client: client, projectID: projectID}, nil
}

// Access accepts a bare secret id or a full projects/... resource name.
func (s *SecretManager) Access(ctx context.Context, name string) (string, error) {
	resourceName := name
	if !strings.HasPrefix(name, "projects/") {
		resourceName = fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)
	}

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resourceName})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", name, err)
	}
	return strings.TrimSpace(string(result.Payload.Data)), nil
}

func (s *SecretManager) Close() error {
	return s.client.Close()
}

// ResolveConfig fills secrets referenced by name that were not given directly.
func ResolveConfig(ctx context.Context, cfg *config.Config, r Resolver) error {
	if cfg.JWTSecret == "" && cfg.JWTSecretName != "" {
		v, err := r.Access(ctx, cfg.JWTSecretName)
		if err != nil {
			return fmt.Errorf("resolve JWT secret: %w", err)
		}
		cfg.JWTSecret = v
	}
	if cfg.CloudflareAPIToken == "" && cfg.CloudflareAPITokenSecretName != "" {
		v, err := r.Access(ctx, cfg.CloudflareAPITokenSecretName)
		if err != nil {
			return fmt.Errorf("resolve Cloudflare API token: %w", err)
		}
		cfg.CloudflareAPIToken = v
	}
	return nil
}

// NeedsResolver reports whether any credential must be fetched from Secret Manager.
func NeedsResolver(cfg *config.Config) bool {
	return (cfg.JWTSecret == "" && cfg.JWTSecretName != "") ||
		(cfg.CloudflareAPIToken == "" && cfg.CloudflareAPITokenSecretName != "")
}
