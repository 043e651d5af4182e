// Package dns points platform subdomains at external hosts.
package dns

import (
	"context"
	"fmt"

	"github.com/cloudflare/cloudflare-go"
	"github.com/rs/zerolog"
)

// Provider manages CNAME records for <name>.<platform-domain>.
type Provider interface {
	UpsertCNAME(ctx context.Context, name, target string) error
	DeleteCNAME(ctx context.Context, name string) error
}

// Cloudflare manages records in a single zone.
type Cloudflare struct {
	api    *cloudflare.API
	zone   *cloudflare.ResourceContainer
	domain string
}

func NewCloudflare(token, zoneID, domain string) (*Cloudflare, error) {
	api, err := cloudflare.NewWithAPIToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloudflare client: %w", err)
	}
	return &Cloudflare{api: api, zone: cloudflare.ZoneIdentifier(zoneID), domain: domain}, nil
}

func (c *Cloudflare) fqdn(name string) string {
	return name + "." + c.domain
}

func (c *Cloudflare) find(ctx context.Context, name string) ([]cloudflare.DNSRecord, error) {
	recs, _, err := c.api.ListDNSRecords(ctx, c.zone, cloudflare.ListDNSRecordsParams{Type: "CNAME", Name: c.fqdn(name)})
	if err != nil {
		return nil, fmt.Errorf("list CNAME %s: %w", c.fqdn(name), err)
	}
	return recs, nil
}

// UpsertCNAME creates or re-points the proxied record with automatic TTL.
func (c *Cloudflare) UpsertCNAME(ctx context.Context, name, target string) error {
	proxied := true
	recs, err := c.find(ctx, name)
	if err != nil {
		return err
	}
	if len(recs) > 0 {
		_, err := c.api.UpdateDNSRecord(ctx, c.zone, cloudflare.UpdateDNSRecordParams{
			ID:      recs[0].ID,
			Type:    "CNAME",
			Name:    name,
			Content: target,
			TTL:     1,
			Proxied: &proxied,
		})
		if err != nil {
			return fmt.Errorf("update CNAME %s: %w", c.fqdn(name), err)
		}
		return nil
	}

	_, err = c.api.CreateDNSRecord(ctx, c.zone, cloudflare.CreateDNSRecordParams{
		Type:    "CNAME",
		Name:    name,
		Content: target,
		TTL:     1,
		Proxied: &proxied,
	})
	if err != nil {
		return fmt.Errorf("create CNAME %s: %w", c.fqdn(name), err)
	}
	return nil
}

func (c *Cloudflare) DeleteCNAME(ctx context.Context, name string) error {
	recs, err := c.find(ctx, name)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := c.api.DeleteDNSRecord(ctx, c.zone, rec.ID); err != nil {
			return fmt.Errorf("delete CNAME %s: %w", c.fqdn(name), err)
		}
	}
	return nil
}

// Nop is used when no DNS provider is configured; records are set up manually.
type Nop struct{}

func (Nop) UpsertCNAME(ctx context.Context, name, target string) error { return nil }
func (Nop) DeleteCNAME(ctx context.Context, name string) error          { return nil }

// Manager calls a Provider and swallows its failures. DNS setup can always
// be completed by hand, so it never blocks a request.
type Manager struct {
	provider Provider
	logger   zerolog.Logger
}

func NewManager(provider Provider, logger zerolog.Logger) *Manager {
	return &Manager{provider: provider, logger: logger.With().Str("component", "dns").Logger()}
}

func (m *Manager) Point(ctx context.Context, name, target string) {
	if err := m.provider.UpsertCNAME(ctx, name, target); err != nil {
		m.logger.Error().Err(err).Str("subdomain", name).Str("target", target).Msg("Failed to set CNAME record")
	}
}

func (m *Manager) Remove(ctx context.Context, name string) {
	if err := m.provider.DeleteCNAME(ctx, name); err != nil {
		m.logger.Error().Err(err).Str("subdomain", name).Msg("Failed to delete CNAME record")
	}
}
