package bcr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// Default endpoints of the Bazel Central Registry.
const (
	DefaultAPIURL  = "https://registry.bazel.build"
	DefaultBaseURL = "https://bcr.bazel.build"
)

// Metadata is a module's metadata.json in a Bazel registry.
type Metadata struct {
	Homepage       string            `json:"homepage"`
	Repository     []string          `json:"repository"`
	Versions       []string          `json:"versions"`
	YankedVersions map[string]string `json:"yanked_versions,omitempty"`
	Deprecated     string            `json:"deprecated,omitempty"`
}

// Client lists module versions from a Bazel registry.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	apiURL  string
	baseURL string
}

// NewClient creates a registry client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	headers := map[string]string{"Accept": "application/json"}
	return &Client{
		Client:  integrations.NewClient(backend, "bcr", cacheTTL, headers, opts...),
		apiURL:  DefaultAPIURL,
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another registry serving the
// modules/<name>/metadata.json layout. The BCR web API is not consulted for
// custom registries.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
		c.apiURL = ""
	}
	return c
}

// FetchReleases lists the versions of a module. The registry web API is
// tried first; when it is unavailable or does not know the module, the
// static metadata.json is read. Yanked versions are flagged.
func (c *Client) FetchReleases(ctx context.Context, name string, refresh bool) ([]integrations.Release, error) {
	name = strings.TrimSpace(name)
	metaURL := fmt.Sprintf("%s/modules/%s/metadata.json", c.baseURL, name)

	var releases []integrations.Release
	err := c.Cached(ctx, name, refresh, &releases, func() error {
		if c.apiURL != "" {
			if out, err := c.fromAPI(ctx, name); err == nil && len(out) > 0 {
				releases = out
				return nil
			} else if err != nil {
				c.Logger().Debug("registry API unavailable, using metadata.json", "module", name, "err", err)
			}
		}
		meta, err := c.FetchMetadata(ctx, name)
		if err != nil {
			return err
		}
		releases = meta.Releases()
		return nil
	})
	return c.Settle(metaURL, releases, err)
}

// FetchMetadata reads a module's metadata.json.
func (c *Client) FetchMetadata(ctx context.Context, name string) (*Metadata, error) {
	var meta Metadata
	if err := c.Get(ctx, fmt.Sprintf("%s/modules/%s/metadata.json", c.baseURL, name), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Releases converts the version list, flagging yanked versions.
func (m *Metadata) Releases() []integrations.Release {
	out := make([]integrations.Release, 0, len(m.Versions))
	for _, v := range m.Versions {
		_, yanked := m.YankedVersions[v]
		out = append(out, integrations.Release{Version: v, Yanked: yanked})
	}
	return out
}

func (c *Client) fromAPI(ctx context.Context, name string) ([]integrations.Release, error) {
	var data struct {
		Versions []struct {
			Version string `json:"version"`
			Yanked  bool   `json:"yanked"`
		} `json:"versions"`
	}
	if err := c.Get(ctx, fmt.Sprintf("%s/modules/%s", c.apiURL, name), &data); err != nil {
		return nil, err
	}
	out := make([]integrations.Release, 0, len(data.Versions))
	for _, v := range data.Versions {
		if v.Version == "" {
			continue
		}
		out = append(out, integrations.Release{Version: v.Version, Yanked: v.Yanked})
	}
	return out, nil
}
