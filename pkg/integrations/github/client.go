package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

const perPage = 100

var (
	repoURLPattern = regexp.MustCompile(`^(?:https?://|git@)(?:www\.)?github\.com[/:]([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

	// GitHub usernames/orgs: 1-39 alphanumeric or hyphen, not starting with hyphen
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	// GitHub repo names: 1-100 alphanumeric, hyphen, underscore, or dot
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
)

// Client lists releases and tags of GitHub repositories.
// It handles HTTP requests with caching, automatic retries, and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower rate
// limits) or credentials from configuration.
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(backend, "github", cacheTTL, headers, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at a GitHub Enterprise API.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// FetchReleases lists the published releases of owner/repo, falling back to
// tags when the repository has never cut a release. Drafts are skipped.
// Versions are tag names as written (often with a "v" prefix).
func (c *Client) FetchReleases(ctx context.Context, ref string, refresh bool) ([]integrations.Release, error) {
	owner, repo, err := ParseRepoRef(ref)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d", c.baseURL, owner, repo, perPage)

	var releases []integrations.Release
	err = c.Cached(ctx, owner+"/"+repo, refresh, &releases, func() error {
		out, err := c.releases(ctx, url)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			if out, err = c.tags(ctx, owner, repo); err != nil {
				return err
			}
		}
		releases = out
		return nil
	})
	return c.Settle(url, releases, err)
}

// FetchTags lists the tags of owner/repo with their commit SHAs.
func (c *Client) FetchTags(ctx context.Context, ref string, refresh bool) ([]integrations.Release, error) {
	owner, repo, err := ParseRepoRef(ref)
	if err != nil {
		return nil, err
	}
	var tags []integrations.Release
	err = c.Cached(ctx, "tags:"+owner+"/"+repo, refresh, &tags, func() error {
		out, err := c.tags(ctx, owner, repo)
		tags = out
		return err
	})
	return c.Settle(fmt.Sprintf("%s/repos/%s/%s/tags", c.baseURL, owner, repo), tags, err)
}

func (c *Client) releases(ctx context.Context, url string) ([]integrations.Release, error) {
	var out []integrations.Release
	err := c.Paginate(ctx, url, nil, func(body []byte) error {
		var page []releaseResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("%w: %v", integrations.ErrMalformed, err)
		}
		for _, r := range page {
			if r.Draft || r.TagName == "" {
				continue
			}
			out = append(out, integrations.Release{
				Version:     r.TagName,
				PublishedAt: r.PublishedAt,
				URL:         r.HTMLURL,
			})
		}
		return nil
	})
	return out, err
}

func (c *Client) tags(ctx context.Context, owner, repo string) ([]integrations.Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=%d", c.baseURL, owner, repo, perPage)
	var out []integrations.Release
	err := c.Paginate(ctx, url, nil, func(body []byte) error {
		var page []tagResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("%w: %v", integrations.ErrMalformed, err)
		}
		for _, t := range page {
			out = append(out, integrations.Release{Version: t.Name, Digest: t.Commit.SHA})
		}
		return nil
	})
	return out, err
}

// ParseRepoURL extracts owner and repository from a GitHub URL, such as an
// archive or release asset link.
func ParseRepoURL(raw string) (owner, repo string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", "", false
	}
	if ValidateRepoRef(m[1], m[2]) != nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ValidateRepoRef validates both owner and repo parameters.
func ValidateRepoRef(owner, repo string) error {
	if owner == "" || !validOwner.MatchString(owner) {
		return fmt.Errorf("invalid owner %q: must be 1-39 alphanumeric characters or hyphens, cannot start with hyphen", owner)
	}
	if repo == "" || !validRepo.MatchString(repo) {
		return fmt.Errorf("invalid repo %q: must be 1-100 alphanumeric characters, hyphens, underscores, or dots", repo)
	}
	return nil
}

// ParseRepoRef parses an "owner/repo" string or a GitHub URL.
func ParseRepoRef(ref string) (owner, repo string, err error) {
	if owner, repo, ok := ParseRepoURL(ref); ok {
		return owner, repo, nil
	}
	parts := strings.SplitN(strings.TrimSpace(ref), "/", 2)
	if len(parts) != 2 {
		return "", "", errors.New("invalid repo format: use owner/repo")
	}
	if err := ValidateRepoRef(parts[0], parts[1]); err != nil {
		return "", "", err
	}
	return parts[0], parts[1], nil
}

type releaseResponse struct {
	TagName     string    `json:"tag_name"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

type tagResponse struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}
