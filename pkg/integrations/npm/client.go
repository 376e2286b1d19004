package npm

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// DefaultBaseURL is the public npm registry.
const DefaultBaseURL = "https://registry.npmjs.org"

// Package is the release listing of an npm package.
type Package struct {
	Name     string                 `json:"name"`
	Releases []integrations.Release `json:"releases"`
	DistTags map[string]string      `json:"dist_tags,omitempty"`
}

// Latest returns the version the "latest" dist-tag points at.
func (p *Package) Latest() string {
	if p == nil {
		return ""
	}
	return p.DistTags["latest"]
}

// Client provides access to the npm registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm registry client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	headers := map[string]string{"Accept": "application/json"}
	return &Client{
		Client:  integrations.NewClient(backend, "npm", cacheTTL, headers, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at a private registry.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// FetchPackage retrieves every published version of a package with its
// publication time and deprecation flag, plus the dist-tags.
//
// The full (non-abbreviated) document is requested because only it carries
// the "time" map. A package that does not exist yields an empty Package.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*Package, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	url := c.baseURL + "/" + escapeName(pkg)

	info := Package{Name: pkg}
	err := c.Cached(ctx, pkg, refresh, &info, func() error {
		return c.fetch(ctx, url, &info)
	})
	releases, err := c.Settle(url, info.Releases, err)
	if err != nil {
		return nil, err
	}
	info.Releases = releases
	return &info, nil
}

// FetchReleases is FetchPackage without the dist-tags.
func (c *Client) FetchReleases(ctx context.Context, pkg string, refresh bool) ([]integrations.Release, error) {
	info, err := c.FetchPackage(ctx, pkg, refresh)
	if err != nil {
		return nil, err
	}
	return info.Releases, nil
}

func (c *Client) fetch(ctx context.Context, url string, info *Package) error {
	var data registryResponse
	if err := c.Get(ctx, url, &data); err != nil {
		return err
	}

	releases := make([]integrations.Release, 0, len(data.Versions))
	for v, details := range data.Versions {
		r := integrations.Release{
			Version:    v,
			Deprecated: deprecated(details.Deprecated),
		}
		if ts, ok := data.Time[v]; ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				r.PublishedAt = t
			}
		}
		releases = append(releases, r)
	}

	info.Releases = releases
	info.DistTags = data.DistTags
	return nil
}

// escapeName encodes the slash of scoped packages (@scope/name).
func escapeName(pkg string) string {
	return strings.Replace(pkg, "/", "%2F", 1)
}

// deprecated interprets the registry's "deprecated" field, which is a
// message string, or false when a deprecation was lifted.
func deprecated(v any) bool {
	switch val := v.(type) {
	case string:
		return val != ""
	case bool:
		return val
	}
	return false
}

type registryResponse struct {
	Name     string                    `json:"name"`
	DistTags map[string]string         `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
	Time     map[string]string         `json:"time"`
}

type versionDetails struct {
	Deprecated any `json:"deprecated"`
}
