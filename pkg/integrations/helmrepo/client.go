package helmrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// Client reads chart versions from classic (HTTP) Helm repositories.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
}

// NewClient creates a Helm repository client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	return &Client{Client: integrations.NewClient(backend, "helm", cacheTTL, nil, opts...)}
}

// Index is a repository's index.yaml.
type Index struct {
	APIVersion string                    `yaml:"apiVersion"`
	Entries    map[string][]ChartVersion `yaml:"entries"`
}

// ChartVersion is one entry of a chart in the index.
type ChartVersion struct {
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	AppVersion string   `yaml:"appVersion"`
	Created    string   `yaml:"created"`
	Digest     string   `yaml:"digest"`
	Deprecated bool     `yaml:"deprecated"`
	URLs       []string `yaml:"urls"`
}

// ParseIndex decodes an index.yaml document.
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: index.yaml: %v", integrations.ErrMalformed, err)
	}
	return &idx, nil
}

// FetchReleases lists the versions of chart in the repository at repoURL.
// A repository without the chart yields no releases.
func (c *Client) FetchReleases(ctx context.Context, repoURL, chart string, refresh bool) ([]integrations.Release, error) {
	indexURL := strings.TrimSuffix(repoURL, "/") + "/index.yaml"

	var releases []integrations.Release
	err := c.Cached(ctx, indexURL+"#"+chart, refresh, &releases, func() error {
		data, err := c.GetBytes(ctx, indexURL, nil)
		if err != nil {
			return err
		}
		idx, err := ParseIndex(data)
		if err != nil {
			return err
		}
		releases = idx.Releases(chart)
		return nil
	})
	return c.Settle(indexURL, releases, err)
}

// Releases returns the versions listed for chart.
func (idx *Index) Releases(chart string) []integrations.Release {
	entries := idx.Entries[chart]
	out := make([]integrations.Release, 0, len(entries))
	for _, e := range entries {
		if e.Version == "" {
			continue
		}
		r := integrations.Release{
			Version:    e.Version,
			Digest:     e.Digest,
			Deprecated: e.Deprecated,
		}
		if t, err := time.Parse(time.RFC3339Nano, e.Created); err == nil {
			r.PublishedAt = t
		}
		if len(e.URLs) > 0 {
			r.URL = e.URLs[0]
		}
		out = append(out, r)
	}
	return out
}
