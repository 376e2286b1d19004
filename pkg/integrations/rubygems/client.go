package rubygems

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// DefaultBaseURL is the RubyGems.org API root.
const DefaultBaseURL = "https://rubygems.org/api/v1"

// Client provides access to the RubyGems package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a RubyGems client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (use cache.NewNullCache() for no caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "rubygems", cacheTTL, nil, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at a gem server exposing the same API.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// FetchReleases lists the published versions of a gem.
//
// Only the pure-Ruby platform is considered; platform-specific builds of the
// same version (java, x86_64-linux, ...) collapse into one release.
// RubyGems omits yanked versions from this listing.
func (c *Client) FetchReleases(ctx context.Context, gem string, refresh bool) ([]integrations.Release, error) {
	gem = strings.TrimSpace(gem)
	url := fmt.Sprintf("%s/versions/%s.json", c.baseURL, gem)

	var releases []integrations.Release
	err := c.Cached(ctx, gem, refresh, &releases, func() error {
		return c.fetch(ctx, url, &releases)
	})
	return c.Settle(url, releases, err)
}

func (c *Client) fetch(ctx context.Context, url string, releases *[]integrations.Release) error {
	var data []gemVersion
	if err := c.Get(ctx, url, &data); err != nil {
		return err
	}

	seen := make(map[string]bool, len(data))
	out := make([]integrations.Release, 0, len(data))
	for _, v := range data {
		if v.Number == "" || seen[v.Number] {
			continue
		}
		if v.Platform != "" && v.Platform != "ruby" {
			continue
		}
		seen[v.Number] = true
		out = append(out, integrations.Release{
			Version:     v.Number,
			PublishedAt: v.CreatedAt,
			Digest:      v.SHA,
		})
	}
	*releases = out
	return nil
}

type gemVersion struct {
	Number     string    `json:"number"`
	Platform   string    `json:"platform"`
	Prerelease bool      `json:"prerelease"`
	CreatedAt  time.Time `json:"created_at"`
	SHA        string    `json:"sha"`
}
