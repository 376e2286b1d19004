package packagist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// DefaultBaseURL is the Packagist metadata mirror.
const DefaultBaseURL = "https://repo.packagist.org"

// Version is one published version of a Composer package.
//
// Platform holds the release's platform requirements ("php", "ext-*",
// "lib-*"), which decide whether it can be installed on a given PHP
// runtime. Package requirements are not kept.
type Version struct {
	integrations.Release
	Platform map[string]string `json:"platform,omitempty"`
}

// Client provides access to the Packagist package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Packagist client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "packagist", cacheTTL, nil, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at a private Composer repository.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// FetchVersions retrieves the tagged versions of a package.
//
// The package must be in "vendor/package" form. The Composer v2 metadata
// endpoint is tried first. When it has nothing for the package, the
// repository's v1 packages.json is consulted, which is what most private
// repositories still serve. Development branches are skipped.
func (c *Client) FetchVersions(ctx context.Context, pkg string, refresh bool) ([]Version, error) {
	pkg = integrations.NormalizePkgName(pkg)
	p2URL := fmt.Sprintf("%s/p2/%s.json", c.baseURL, pkg)

	var versions []Version
	err := c.Cached(ctx, pkg, refresh, &versions, func() error {
		return c.fetch(ctx, pkg, &versions)
	})
	if err != nil {
		if _, err := c.Settle(p2URL, nil, err); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return versions, nil
}

// FetchReleases is FetchVersions without platform requirements.
func (c *Client) FetchReleases(ctx context.Context, pkg string, refresh bool) ([]integrations.Release, error) {
	versions, err := c.FetchVersions(ctx, pkg, refresh)
	if err != nil {
		return nil, err
	}
	out := make([]integrations.Release, len(versions))
	for i, v := range versions {
		out[i] = v.Release
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, out *[]Version) error {
	entries, err := c.listing(ctx, fmt.Sprintf("%s/p2/%s.json", c.baseURL, pkg), pkg)
	if err != nil || len(entries) == 0 {
		v1, v1Err := c.listing(ctx, c.baseURL+"/packages.json", pkg)
		if v1Err == nil && len(v1) > 0 {
			entries, err = v1, nil
		}
	}
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(entries))
	versions := make([]Version, 0, len(entries))
	for _, e := range entries {
		v, ok := e.version()
		if !ok || seen[v.Version] {
			continue
		}
		seen[v.Version] = true
		versions = append(versions, v)
	}
	*out = versions
	return nil
}

// listing fetches a metadata document and returns the entries for pkg,
// expanding the minified v2 format when present.
func (c *Client) listing(ctx context.Context, url, pkg string) ([]entry, error) {
	body, err := c.GetBytes(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return parseListing(body, pkg)
}

// parseListing extracts the version entries of pkg from a Composer
// metadata document. Both the v2 array form and the v1 form keyed by
// version are accepted.
func parseListing(body []byte, pkg string) ([]entry, error) {
	var doc struct {
		Minified string                     `json:"minified"`
		Packages map[string]json.RawMessage `json:"packages"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", integrations.ErrMalformed, err)
	}
	raw, ok := doc.Packages[strings.ToLower(pkg)]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		var keyed map[string]map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return nil, fmt.Errorf("%w: packages.%s: %v", integrations.ErrMalformed, pkg, err)
		}
		for _, v := range keyed {
			list = append(list, v)
		}
	}
	if doc.Minified != "" {
		list = expand(list)
	}

	out := make([]entry, 0, len(list))
	for _, fields := range list {
		var e entry
		if err := e.decode(fields); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// expand undoes Composer's metadata minification: every entry inherits the
// fields of the previous one, and "__unset" removes an inherited field.
func expand(list []map[string]json.RawMessage) []map[string]json.RawMessage {
	out := make([]map[string]json.RawMessage, 0, len(list))
	var prev map[string]json.RawMessage
	for _, cur := range list {
		merged := make(map[string]json.RawMessage, len(prev)+len(cur))
		for k, v := range prev {
			merged[k] = v
		}
		for k, v := range cur {
			if string(v) == `"__unset"` {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		out = append(out, merged)
		prev = merged
	}
	return out
}

type entry struct {
	Version string            `json:"version"`
	Time    string            `json:"time"`
	Require map[string]string `json:"require"`
	Dist    struct {
		URL       string `json:"url"`
		Reference string `json:"reference"`
	} `json:"dist"`
	Abandoned json.RawMessage `json:"abandoned"`
}

func (e *entry) decode(fields map[string]json.RawMessage) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, e); err != nil {
		// "require" is occasionally "__unset" or an array in old metadata.
		delete(fields, "require")
		b, _ = json.Marshal(fields)
		return json.Unmarshal(b, e)
	}
	return nil
}

func (e entry) version() (Version, bool) {
	v := strings.TrimPrefix(strings.TrimSpace(e.Version), "v")
	lv := strings.ToLower(v)
	if v == "" || strings.HasPrefix(lv, "dev-") || strings.HasSuffix(lv, "-dev") {
		return Version{}, false
	}
	out := Version{
		Release: integrations.Release{
			Version:    v,
			Digest:     e.Dist.Reference,
			URL:        e.Dist.URL,
			Deprecated: abandoned(e.Abandoned),
		},
		Platform: platformRequirements(e.Require),
	}
	if e.Time != "" {
		if t, err := time.Parse(time.RFC3339, e.Time); err == nil {
			out.PublishedAt = t
		}
	}
	return out, true
}

// platformRequirements keeps the requirements that target the runtime
// rather than other packages.
func platformRequirements(require map[string]string) map[string]string {
	var out map[string]string
	for name, constraint := range require {
		ln := strings.ToLower(name)
		if ln == "php" || ln == "php-64bit" || strings.HasPrefix(ln, "ext-") || strings.HasPrefix(ln, "lib-") {
			if out == nil {
				out = make(map[string]string)
			}
			out[ln] = constraint
		}
	}
	return out
}

func abandoned(raw json.RawMessage) bool {
	switch s := strings.TrimSpace(string(raw)); s {
	case "", "null", "false":
		return false
	default:
		return true
	}
}
