package dns

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type failingProvider struct{ calls []string }

func (f *failingProvider) UpsertCNAME(ctx context.Context, name, target string) error {
	f.calls = append(f.calls, "upsert "+name+" "+target)
	return errors.New("cloudflare unavailable")
}

func (f *failingProvider) DeleteCNAME(ctx context.Context, name string) error {
	f.calls = append(f.calls, "delete "+name)
	return errors.New("cloudflare unavailable")
}

func TestManagerSwallowsFailures(t *testing.T) {
	p := &failingProvider{}
	m := NewManager(p, zerolog.Nop())

	m.Point(context.Background(), "docs", "octo.github.io")
	m.Remove(context.Background(), "docs")

	want := []string{"upsert docs octo.github.io", "delete docs"}
	if len(p.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), p.calls)
	}
	for i := range want {
		if p.calls[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], p.calls[i])
		}
	}
}

func TestNop(t *testing.T) {
	var p Provider = Nop{}
	if err := p.UpsertCNAME(context.Background(), "docs", "octo.github.io"); err != nil {
		t.Fatalf("UpsertCNAME returned error: %v", err)
	}
	if err := p.DeleteCNAME(context.Background(), "docs"); err != nil {
		t.Fatalf("DeleteCNAME returned error: %v", err)
	}
}

func TestCloudflareFQDN(t *testing.T) {
	c, err := NewCloudflare("token", "zone-1", "sriox.com")
	if err != nil {
		t.Fatalf("NewCloudflare returned error: %v", err)
	}
	if got := c.fqdn("docs"); got != "docs.sriox.com" {
		t.Fatalf("expected docs.sriox.com, got %q", got)
	}
}
