package goproxy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// DefaultBaseURL is the public Go module proxy.
const DefaultBaseURL = "https://proxy.golang.org"

// infoConcurrency bounds parallel .info lookups per module.
const infoConcurrency = 8

// Client provides access to the Go module proxy API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Go module proxy client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (use cache.NewNullCache() for no caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "goproxy", cacheTTL, nil, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another GOPROXY.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// FetchReleases lists the tagged versions of a module with their
// publication times. Versions retracted by the latest go.mod are flagged.
//
// When the module has no tags, the proxy's @latest answer (usually a
// pseudo-version) is returned as the only release.
func (c *Client) FetchReleases(ctx context.Context, mod string, refresh bool) ([]integrations.Release, error) {
	mod = strings.TrimSpace(mod)
	escaped, err := module.EscapePath(mod)
	if err != nil {
		return nil, fmt.Errorf("invalid module path %q: %w", mod, err)
	}
	base := fmt.Sprintf("%s/%s/@v/", c.baseURL, escaped)

	var releases []integrations.Release
	err = c.Cached(ctx, mod, refresh, &releases, func() error {
		return c.fetch(ctx, escaped, &releases)
	})
	return c.Settle(base+"list", releases, err)
}

func (c *Client) fetch(ctx context.Context, escaped string, releases *[]integrations.Release) error {
	list, err := c.GetText(ctx, fmt.Sprintf("%s/%s/@v/list", c.baseURL, escaped))
	if err != nil {
		return err
	}
	versions := strings.Fields(list)

	if len(versions) == 0 {
		latest, err := c.info(ctx, escaped, "@latest")
		if err != nil {
			return err
		}
		*releases = []integrations.Release{{Version: latest.Version, PublishedAt: latest.Time}}
		return nil
	}

	out := make([]integrations.Release, len(versions))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(infoConcurrency)
	for i, v := range versions {
		out[i] = integrations.Release{Version: v}
		g.Go(func() error {
			ev, err := module.EscapeVersion(v)
			if err != nil {
				return nil
			}
			info, err := c.info(gctx, escaped, "@v/"+ev+".info")
			if err != nil {
				// Publication time is best effort.
				c.Logger().Debug("module info unavailable", "module", escaped, "version", v, "err", err)
				return nil
			}
			mu.Lock()
			out[i].PublishedAt = info.Time
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	retractions := c.retractions(ctx, escaped, versions)
	for i := range out {
		out[i].Retracted = retracted(retractions, out[i].Version)
	}
	*releases = out
	return nil
}

func (c *Client) info(ctx context.Context, escaped, suffix string) (*infoResponse, error) {
	var data infoResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/%s", c.baseURL, escaped, suffix), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// retractions reads retract directives from the go.mod of the highest
// listed version. Failures yield no retractions.
func (c *Client) retractions(ctx context.Context, escaped string, versions []string) []modfile.VersionInterval {
	latest := ""
	for _, v := range versions {
		if semver.IsValid(v) && (latest == "" || semver.Compare(v, latest) > 0) {
			latest = v
		}
	}
	if latest == "" {
		return nil
	}
	ev, err := module.EscapeVersion(latest)
	if err != nil {
		return nil
	}
	body, err := c.GetBytes(ctx, fmt.Sprintf("%s/%s/@v/%s.mod", c.baseURL, escaped, ev), nil)
	if err != nil {
		return nil
	}
	return ParseRetractions(body)
}

// ParseRetractions returns the retract intervals of a go.mod file.
func ParseRetractions(gomod []byte) []modfile.VersionInterval {
	f, err := modfile.ParseLax("go.mod", gomod, nil)
	if err != nil {
		return nil
	}
	out := make([]modfile.VersionInterval, 0, len(f.Retract))
	for _, r := range f.Retract {
		out = append(out, r.VersionInterval)
	}
	return out
}

func retracted(intervals []modfile.VersionInterval, v string) bool {
	for _, iv := range intervals {
		if semver.Compare(iv.Low, v) <= 0 && semver.Compare(v, iv.High) <= 0 {
			return true
		}
	}
	return false
}

type infoResponse struct {
	Version string    `json:"Version"`
	Time    time.Time `json:"Time"`
}
