package crates

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// Client provides access to the crates.io package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL string
}

// DefaultBaseURL is the crates.io API root.
const DefaultBaseURL = "https://crates.io/api/v1"

// NewClient creates a crates.io client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (use cache.NewNullCache() for no caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	headers := map[string]string{
		"User-Agent": "updatecheck (https://github.com/matzehuels/updatecheck)",
	}
	return &Client{
		Client:  integrations.NewClient(backend, "crates", cacheTTL, headers, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at an alternative registry, e.g. a mirror.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = url
	}
	return c
}

// FetchReleases lists every published version of a crate with its yanked
// flag and publication time.
//
// The crate parameter is case-sensitive and must match the published crate name exactly.
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// A crate that does not exist yields no releases and no error.
func (c *Client) FetchReleases(ctx context.Context, crate string, refresh bool) ([]integrations.Release, error) {
	url := fmt.Sprintf("%s/crates/%s/versions", c.baseURL, crate)

	var releases []integrations.Release
	err := c.Cached(ctx, crate, refresh, &releases, func() error {
		return c.fetch(ctx, url, &releases)
	})
	return c.Settle(url, releases, err)
}

func (c *Client) fetch(ctx context.Context, url string, releases *[]integrations.Release) error {
	var out []integrations.Release
	for next, pages := url, 0; next != "" && pages < maxPages; pages++ {
		var data versionsResponse
		if err := c.Get(ctx, next, &data); err != nil {
			return err
		}
		for _, v := range data.Versions {
			out = append(out, integrations.Release{
				Version:     v.Num,
				PublishedAt: v.CreatedAt,
				Yanked:      v.Yanked,
			})
		}
		next = ""
		if data.Meta.NextPage != "" {
			next = url + data.Meta.NextPage
		}
	}
	*releases = out
	return nil
}

// maxPages bounds the version listing of very large crates.
const maxPages = 100

type versionsResponse struct {
	Versions []struct {
		Num       string    `json:"num"`
		Yanked    bool      `json:"yanked"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"versions"`
	Meta struct {
		NextPage string `json:"next_page"`
	} `json:"meta"`
}
