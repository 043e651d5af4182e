package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octo/site", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1, "name": "site", "full_name": "octo/site"}`)
	})
	mux.HandleFunc("/repos/octo/site/contents/CNAME", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ref"); got != "main" {
			http.Error(w, `{"message":"No commit found for the ref"}`, http.StatusNotFound)
			return
		}
		content := base64.StdEncoding.EncodeToString([]byte("docs.sriox.com\n"))
		fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "name": "CNAME", "path": "CNAME", "content": %q}`, content)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRepositoryExists(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(srv.URL, "", "main")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if err := c.RepositoryExists(context.Background(), "octo", "site"); err != nil {
		t.Fatalf("expected repository to exist, got %v", err)
	}
	if err := c.RepositoryExists(context.Background(), "octo", "private"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchCNAME(t *testing.T) {
	srv := newTestServer(t)
	c, err := NewClient(srv.URL, "token", "")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	got, err := c.FetchCNAME(context.Background(), "octo", "site")
	if err != nil {
		t.Fatalf("FetchCNAME returned error: %v", err)
	}
	if got != "docs.sriox.com\n" {
		t.Fatalf("unexpected content %q", got)
	}

	if _, err := c.FetchCNAME(context.Background(), "octo", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
