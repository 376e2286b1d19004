package oci

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
)

// DockerHub is the registry host Docker Hub images are served from.
const DockerHub = "registry-1.docker.io"

// manifestAccept lists the manifest media types a digest lookup accepts,
// index types first so multi-arch images resolve to the index digest.
var manifestAccept = strings.Join([]string{
	"application/vnd.oci.image.index.v1+json",
	"application/vnd.docker.distribution.manifest.list.v2+json",
	"application/vnd.oci.image.manifest.v1+json",
	"application/vnd.docker.distribution.manifest.v2+json",
}, ", ")

var challengeParam = regexp.MustCompile(`(\w+)="([^"]*)"`)

// Client lists tags and resolves digests on OCI distribution registries.
// It handles HTTP requests with caching and automatic retries, and
// answers bearer token challenges.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client

	mu     sync.Mutex
	tokens map[string]token
}

type token struct {
	value   string
	expires time.Time
}

// NewClient creates a registry client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	return &Client{
		Client: integrations.NewClient(backend, "oci", cacheTTL, nil, opts...),
		tokens: make(map[string]token),
	}
}

// Reference identifies a repository on a registry.
type Reference struct {
	Registry   string // host[:port], optionally with an http:// or https:// scheme
	Repository string // e.g. "library/nginx"
}

// ParseReference splits an image name such as "nginx",
// "ghcr.io/org/app" or "localhost:5000/app" into registry and repository.
// Docker Hub names without a namespace get the "library/" prefix.
func ParseReference(image string) Reference {
	image, _, _ = strings.Cut(strings.TrimSpace(image), "@")

	ref := Reference{Registry: DockerHub, Repository: image}
	if first, rest, found := strings.Cut(image, "/"); found && (strings.ContainsAny(first, ".:") || first == "localhost") {
		ref = Reference{Registry: first, Repository: rest}
		if first == "docker.io" || first == "index.docker.io" {
			ref.Registry = DockerHub
		}
	}
	ref.Repository, _, _ = strings.Cut(ref.Repository, ":")
	if ref.Registry == DockerHub && !strings.Contains(ref.Repository, "/") {
		ref.Repository = "library/" + ref.Repository
	}
	return ref
}

func (r Reference) String() string {
	return r.Registry + "/" + r.Repository
}

func (r Reference) base() string {
	if strings.Contains(r.Registry, "://") {
		return strings.TrimSuffix(r.Registry, "/")
	}
	return "https://" + r.Registry
}

// FetchTags lists every tag of a repository, following Link pagination.
func (c *Client) FetchTags(ctx context.Context, ref Reference, refresh bool) ([]integrations.Release, error) {
	listURL := fmt.Sprintf("%s/v2/%s/tags/list?n=1000", ref.base(), ref.Repository)

	var releases []integrations.Release
	err := c.Cached(ctx, "tags:"+ref.String(), refresh, &releases, func() error {
		var out []integrations.Release
		err := c.authorized(ctx, ref, func(headers map[string]string) error {
			out = out[:0]
			return c.Paginate(ctx, listURL, headers, func(body []byte) error {
				var page struct {
					Tags []string `json:"tags"`
				}
				if err := json.Unmarshal(body, &page); err != nil {
					return fmt.Errorf("%w: %v", integrations.ErrMalformed, err)
				}
				for _, t := range page.Tags {
					out = append(out, integrations.Release{Version: t})
				}
				return nil
			})
		})
		releases = out
		return err
	})
	return c.Settle(listURL, releases, err)
}

// Digest returns the content digest of the manifest a tag points at.
// An unknown tag yields an empty digest.
func (c *Client) Digest(ctx context.Context, ref Reference, tag string, refresh bool) (string, error) {
	manifestURL := fmt.Sprintf("%s/v2/%s/manifests/%s", ref.base(), ref.Repository, tag)

	var digest string
	err := c.Cached(ctx, "digest:"+ref.String()+":"+tag, refresh, &digest, func() error {
		return c.authorized(ctx, ref, func(headers map[string]string) error {
			headers["Accept"] = manifestAccept
			h, err := c.Head(ctx, manifestURL, headers)
			if err != nil {
				return err
			}
			digest = h.Get("Docker-Content-Digest")
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", nil
		}
		return "", c.Classify(manifestURL, err)
	}
	return digest, nil
}

// authorized runs fn with a cached bearer token for ref, if any. When the
// registry answers with a bearer challenge, a token is requested from the
// challenge's realm and fn is run once more.
func (c *Client) authorized(ctx context.Context, ref Reference, fn func(headers map[string]string) error) error {
	key := ref.String()
	headers := map[string]string{}
	if tok, ok := c.token(key); ok {
		headers["Authorization"] = "Bearer " + tok
	}
	err := fn(headers)

	var status *integrations.StatusError
	if err == nil || !errors.As(err, &status) || status.Code != 401 {
		return err
	}
	challenge := status.Header.Get("WWW-Authenticate")
	if !strings.HasPrefix(strings.ToLower(challenge), "bearer ") {
		return err
	}
	tok, tokErr := c.fetchToken(ctx, challenge, ref)
	if tokErr != nil {
		return tokErr
	}
	c.storeToken(key, tok)

	headers = map[string]string{"Authorization": "Bearer " + tok.value}
	return fn(headers)
}

func (c *Client) fetchToken(ctx context.Context, challenge string, ref Reference) (token, error) {
	params := ParseChallenge(challenge)
	realm := params["realm"]
	if realm == "" {
		return token{}, fmt.Errorf("%w: bearer challenge without realm", integrations.ErrUnauthorized)
	}
	q := url.Values{}
	if s := params["service"]; s != "" {
		q.Set("service", s)
	}
	scope := params["scope"]
	if scope == "" {
		scope = "repository:" + ref.Repository + ":pull"
	}
	q.Set("scope", scope)

	var resp struct {
		Token       string `json:"token"`
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := c.Get(ctx, realm+"?"+q.Encode(), &resp); err != nil {
		return token{}, err
	}
	value := resp.Token
	if value == "" {
		value = resp.AccessToken
	}
	if value == "" {
		return token{}, fmt.Errorf("%w: empty token from %s", integrations.ErrUnauthorized, realm)
	}
	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return token{value: value, expires: time.Now().Add(ttl)}, nil
}

func (c *Client) token(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[key]
	if !ok || time.Now().After(t.expires) {
		return "", false
	}
	return t.value, true
}

func (c *Client) storeToken(key string, t token) {
	c.mu.Lock()
	c.tokens[key] = t
	c.mu.Unlock()
}

// ParseChallenge returns the parameters of a WWW-Authenticate header.
func ParseChallenge(header string) map[string]string {
	out := make(map[string]string)
	for _, m := range challengeParam.FindAllStringSubmatch(header, -1) {
		out[strings.ToLower(m[1])] = m[2]
	}
	return out
}
