package nuget

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// DefaultIndexURL is the nuget.org v3 service index.
const DefaultIndexURL = "https://api.nuget.org/v3/index.json"

// Resource type prefixes in the service index.
const (
	registrationsResource = "RegistrationsBaseUrl"
	flatContainerResource = "PackageBaseAddress"
	searchResource        = "SearchQueryService"
)

// unlistedPublished is the publication date NuGet assigns to unlisted versions.
var unlistedPublished = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Client provides access to a NuGet v3 feed.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	indexURL string
}

// NewClient creates a NuGet client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	headers := map[string]string{"Accept": "application/json"}
	return &Client{
		Client:   integrations.NewClient(backend, "nuget", cacheTTL, headers, opts...),
		indexURL: DefaultIndexURL,
	}
}

// WithIndexURL points the client at another feed's service index.
func (c *Client) WithIndexURL(url string) *Client {
	if url != "" {
		c.indexURL = url
	}
	return c
}

// FetchReleases lists the versions of a package.
//
// The registration resource is consulted first because it carries listing
// state, deprecation and publication times. When the feed has no
// registration resource, or it knows nothing about the package, the flat
// container and finally the search service are tried.
func (c *Client) FetchReleases(ctx context.Context, id string, refresh bool) ([]integrations.Release, error) {
	id = strings.ToLower(strings.TrimSpace(id))

	var releases []integrations.Release
	err := c.Cached(ctx, id, refresh, &releases, func() error {
		return c.fetch(ctx, id, &releases)
	})
	return c.Settle(c.indexURL, releases, err)
}

func (c *Client) fetch(ctx context.Context, id string, releases *[]integrations.Release) error {
	svc, err := c.serviceIndex(ctx)
	if err != nil {
		return err
	}

	sources := []func(context.Context, *serviceIndex, string) ([]integrations.Release, error){
		c.fromRegistration,
		c.fromFlatContainer,
		c.fromSearch,
	}
	var firstErr error
	for _, source := range sources {
		out, err := source(ctx, svc, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(out) > 0 {
			*releases = out
			return nil
		}
	}
	if firstErr != nil {
		return firstErr
	}
	*releases = nil
	return nil
}

func (c *Client) serviceIndex(ctx context.Context) (*serviceIndex, error) {
	var idx serviceIndex
	if err := c.Get(ctx, c.indexURL, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func (c *Client) fromRegistration(ctx context.Context, svc *serviceIndex, id string) ([]integrations.Release, error) {
	base := svc.resource(registrationsResource)
	if base == "" {
		return nil, nil
	}
	var idx registrationIndex
	if err := c.Get(ctx, base+id+"/index.json", &idx); err != nil {
		return nil, err
	}

	var out []integrations.Release
	for _, page := range idx.Items {
		items := page.Items
		if items == nil && page.ID != "" {
			var full registrationPage
			if err := c.Get(ctx, page.ID, &full); err != nil {
				return nil, err
			}
			items = full.Items
		}
		for _, item := range items {
			out = append(out, item.Entry.release())
		}
	}
	return out, nil
}

func (c *Client) fromFlatContainer(ctx context.Context, svc *serviceIndex, id string) ([]integrations.Release, error) {
	base := svc.resource(flatContainerResource)
	if base == "" {
		return nil, nil
	}
	var data struct {
		Versions []string `json:"versions"`
	}
	if err := c.Get(ctx, base+id+"/index.json", &data); err != nil {
		return nil, err
	}
	out := make([]integrations.Release, 0, len(data.Versions))
	for _, v := range data.Versions {
		out = append(out, integrations.Release{Version: v})
	}
	return out, nil
}

func (c *Client) fromSearch(ctx context.Context, svc *serviceIndex, id string) ([]integrations.Release, error) {
	base := svc.resource(searchResource)
	if base == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", "packageid:"+id)
	q.Set("prerelease", "true")
	q.Set("semVerLevel", "2.0.0")

	var data struct {
		Data []struct {
			ID       string `json:"id"`
			Versions []struct {
				Version string `json:"version"`
			} `json:"versions"`
		} `json:"data"`
	}
	if err := c.Get(ctx, base+"?"+q.Encode(), &data); err != nil {
		return nil, err
	}
	for _, pkg := range data.Data {
		if !strings.EqualFold(pkg.ID, id) {
			continue
		}
		out := make([]integrations.Release, 0, len(pkg.Versions))
		for _, v := range pkg.Versions {
			out = append(out, integrations.Release{Version: v.Version})
		}
		return out, nil
	}
	return nil, nil
}

type serviceIndex struct {
	Resources []struct {
		ID   string `json:"@id"`
		Type string `json:"@type"`
	} `json:"resources"`
}

// resource returns the base URL of the first resource whose type starts
// with prefix, with a trailing slash for path-style resources.
func (s *serviceIndex) resource(prefix string) string {
	for _, r := range s.Resources {
		if r.Type == prefix || strings.HasPrefix(r.Type, prefix+"/") {
			if prefix == searchResource {
				return r.ID
			}
			if !strings.HasSuffix(r.ID, "/") {
				return r.ID + "/"
			}
			return r.ID
		}
	}
	return ""
}

type registrationIndex struct {
	Items []registrationPage `json:"items"`
}

type registrationPage struct {
	ID    string             `json:"@id"`
	Items []registrationLeaf `json:"items"`
}

type registrationLeaf struct {
	Entry catalogEntry `json:"catalogEntry"`
}

type catalogEntry struct {
	Version     string    `json:"version"`
	Listed      *bool     `json:"listed"`
	Published   time.Time `json:"published"`
	Deprecation *struct {
		Reasons []string `json:"reasons"`
	} `json:"deprecation"`
}

func (e catalogEntry) release() integrations.Release {
	r := integrations.Release{
		Version:    e.Version,
		Deprecated: e.Deprecation != nil,
	}
	unlisted := e.Listed != nil && !*e.Listed
	if e.Published.Equal(unlistedPublished) {
		unlisted = true
	} else {
		r.PublishedAt = e.Published
	}
	r.Yanked = unlisted
	return r
}

