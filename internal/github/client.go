// Package github looks up GitHub Pages repositories.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
)

// ErrNotFound is returned for any repository or file the API does not serve
// to us, including private repositories.
var ErrNotFound = errors.New("not found on github")

const markerPath = "CNAME"

type Client struct {
	gh     *gh.Client
	branch string
}

// NewClient builds a client. baseURL overrides the public API endpoint and
// token, when set, authenticates requests.
func NewClient(baseURL, token, branch string) (*Client, error) {
	c := gh.NewClient(&http.Client{Timeout: 10 * time.Second})
	if token != "" {
		c = c.WithAuthToken(token)
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		c.BaseURL = u
	}
	if branch == "" {
		branch = "main"
	}
	return &Client{gh: c, branch: branch}, nil
}

// RepositoryExists fails with ErrNotFound unless owner/repo is readable.
func (c *Client) RepositoryExists(ctx context.Context, owner, repo string) error {
	_, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return fmt.Errorf("%w: repository %s/%s: %v", ErrNotFound, owner, repo, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: repository %s/%s: status %d", ErrNotFound, owner, repo, resp.StatusCode)
	}
	return nil
}

// FetchCNAME returns the raw CNAME file of the pages branch.
func (c *Client) FetchCNAME(ctx context.Context, owner, repo string) (string, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, markerPath, &gh.RepositoryContentGetOptions{Ref: c.branch})
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s@%s/%s: %v", ErrNotFound, owner, repo, c.branch, markerPath, err)
	}
	if file == nil {
		return "", fmt.Errorf("%w: %s/%s@%s/%s is a directory", ErrNotFound, owner, repo, c.branch, markerPath)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", markerPath, err)
	}
	return content, nil
}
