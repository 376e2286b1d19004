package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/config"
	"github.com/matzehuels/updatecheck/pkg/httputil"
	"github.com/matzehuels/updatecheck/pkg/observability"
)

// maxBodySize caps registry responses read into memory.
const maxBodySize = 64 << 20

// Client provides shared HTTP functionality for all registry API clients.
// It handles caching, retry logic, credentials and common request headers.
//
// Concurrent fetches of the same cache key are collapsed into one request,
// and cached entries are written once per key.
type Client struct {
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ns       string
	ttl      time.Duration
	headers  map[string]string
	auth     func(host string) string
	private  func(host string) bool
	attempts int
	delay    time.Duration
	logger   *log.Logger
	group    singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithConfig applies timeouts, retry settings, the user agent and registry
// credentials from cfg.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) {
		if cfg == nil {
			return
		}
		c.http = httputil.NewClient(cfg.OpenTimeout, cfg.ReadTimeout)
		if cfg.RetryAttempts > 0 {
			c.attempts = cfg.RetryAttempts
		}
		if cfg.RetryDelay > 0 {
			c.delay = cfg.RetryDelay
		}
		if cfg.UserAgent != "" {
			if c.headers == nil {
				c.headers = map[string]string{}
			}
			if _, ok := c.headers["User-Agent"]; !ok {
				c.headers["User-Agent"] = cfg.UserAgent
			}
		}
		c.auth = func(host string) string {
			if cred, ok := cfg.CredentialFor(host); ok {
				return cred.Header()
			}
			return ""
		}
		c.private = func(host string) bool {
			_, ok := cfg.CredentialFor(host)
			return ok
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithKeyer replaces the cache keyer, e.g. with a run-scoped one.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithLogger sets the logger used for cache and decode diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry overrides the retry attempts and initial delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// NewClient creates a Client with the given cache, key namespace, TTL and
// default headers. Headers are applied to all requests made through this
// client. Pass nil for headers if no default headers are needed.
func NewClient(backend cache.Cache, namespace string, ttl time.Duration, headers map[string]string, opts ...Option) *Client {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	c := &Client{
		http:     httputil.NewClient(config.DefaultOpenTimeout, config.DefaultReadTimeout),
		cache:    backend,
		keyer:    cache.NewDefaultKeyer(),
		ns:       namespace,
		ttl:      ttl,
		headers:  maps.Clone(headers),
		attempts: config.DefaultRetryAttempts,
		delay:    config.DefaultRetryDelay,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Namespace returns the cache namespace of the client.
func (c *Client) Namespace() string { return c.ns }

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger { return c.logger }

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
//
// Entries are inserted only if absent: when another writer stored the key
// first, its value wins and is decoded into v.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	key = c.keyer.HTTPKey(c.ns, key)
	if !refresh && c.load(ctx, key, v) {
		return nil
	}

	var own []byte
	leader := false
	res, err, _ := c.group.Do(key, func() (any, error) {
		leader = true
		if err := c.retry(ctx, fetch); err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		own = data
		return c.store(ctx, key, data, refresh), nil
	})
	if err != nil {
		return err
	}
	if data := res.([]byte); !leader || !bytes.Equal(data, own) {
		return json.Unmarshal(data, v)
	}
	return nil
}

func (c *Client) load(ctx context.Context, key string, v any) bool {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Debug("cache read failed", "key", key, "err", err)
	}
	if !ok || err != nil || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, "http")
		return false
	}
	observability.Cache().OnCacheHit(ctx, "http")
	return true
}

// store writes data under key and returns the value that ended up cached.
func (c *Client) store(ctx context.Context, key string, data []byte, overwrite bool) []byte {
	if overwrite {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Debug("cache write failed", "key", key, "err", err)
		}
		return data
	}
	stored, err := cache.Add(ctx, c.cache, key, data, c.ttl)
	if err != nil {
		c.logger.Debug("cache write failed", "key", key, "err", err)
		return data
	}
	if stored {
		observability.Cache().OnCacheSet(ctx, "http", len(data))
		return data
	}
	if existing, ok, _ := c.cache.Get(ctx, key); ok {
		return existing
	}
	return data
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return httputil.RetryNotify(ctx, c.attempts, c.delay, fn, func(attempt int, err error) {
		c.logger.Debug("retrying registry request", "registry", c.ns, "attempt", attempt, "err", err)
		observability.Registry().OnRetry(ctx, c.ns, attempt, err)
	})
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers and handles retries automatically.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	data, err := c.GetBytes(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, redact(url), err)
	}
	return nil
}

// GetText performs an HTTP GET request and returns the response body as a string.
// Useful for non-JSON endpoints like go.mod files or plain text responses.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	data, err := c.GetBytes(ctx, url, nil)
	return string(data), err
}

// GetBytes performs an HTTP GET request and returns the raw body.
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return readBody(resp.Body)
}

// Head performs an HTTP HEAD request and returns the response headers.
func (c *Client) Head(ctx context.Context, url string, headers map[string]string) (http.Header, error) {
	resp, err := c.do(ctx, http.MethodHead, url, headers)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	return resp.Header, nil
}

// Paginate fetches url and follows Link rel="next" headers until the last
// page, calling fn with every page body. Each page is retried on its own.
func (c *Client) Paginate(ctx context.Context, rawURL string, headers map[string]string, fn func(body []byte) error) error {
	seen := map[string]bool{}
	for next := rawURL; next != ""; {
		if seen[next] {
			return fmt.Errorf("%w: pagination loop at %s", ErrMalformed, redact(next))
		}
		seen[next] = true

		var body []byte
		var link string
		err := c.retry(ctx, func() error {
			resp, err := c.do(ctx, http.MethodGet, next, headers)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			link = resp.Header.Get("Link")
			body, err = readBody(resp.Body)
			return err
		})
		if err != nil {
			return err
		}
		if err := fn(body); err != nil {
			return err
		}
		next = NextLink(next, link)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.auth != nil && req.Header.Get("Authorization") == "" {
		if auth := c.auth(req.URL.Host); auth != "" {
			req.Header.Set("Authorization", auth)
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.Registry()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnResponse(ctx, method, host, path, 0, time.Since(start), err)
		if httputil.IsTimeout(err) {
			return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %s", ErrTimeout, redact(rawURL))}
		}
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %s", ErrNetwork, redact(rawURL))}
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start), nil)

	if err := checkStatus(resp.StatusCode, resp.Header); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// IsPrivate reports whether credentials are configured for the host of rawURL.
func (c *Client) IsPrivate(rawURL string) bool {
	if c.private == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	return err == nil && c.private(u.Host)
}

// Classify converts a transport error for rawURL into a typed registry
// error, treating hosts with configured credentials as private sources.
func (c *Client) Classify(rawURL string, err error) error {
	return Classify(rawURL, err, c.IsPrivate(rawURL))
}

// Settle applies the shared failure policy of release listings: a missing
// package yields no releases, a malformed body is logged and yields no
// releases, and any other failure is classified.
func (c *Client) Settle(rawURL string, releases []Release, err error) ([]Release, error) {
	switch {
	case err == nil:
		return releases, nil
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case errors.Is(err, ErrMalformed):
		c.logger.Warn("malformed registry response", "registry", c.ns, "url", redact(rawURL), "err", err)
		return nil, nil
	}
	return nil, c.Classify(rawURL, err)
}

func readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBodySize))
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	return data, nil
}

func checkStatus(code int, header http.Header) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return &StatusError{Code: code, Header: header, Err: ErrNotFound}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &StatusError{Code: code, Header: header, Err: ErrUnauthorized}
	case code == http.StatusTooManyRequests:
		return &httputil.RetryableError{
			Err:   &StatusError{Code: code, Header: header, Err: ErrRateLimited},
			After: httputil.RetryAfter(header),
		}
	case code >= 500:
		return &httputil.RetryableError{Err: &StatusError{Code: code, Header: header, Err: ErrNetwork}}
	default:
		return &StatusError{Code: code, Header: header, Err: ErrNetwork}
	}
}
