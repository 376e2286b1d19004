package integrations

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/updatecheck/pkg/httputil"
)

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrTimeout is returned when the registry did not answer within the
	// configured open or read timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformed is returned when a response body cannot be decoded.
	ErrMalformed = errors.New("malformed response")
)

// StatusError carries the status code and headers of a non-2xx response.
type StatusError struct {
	Code   int
	Header http.Header
	Err    error
}

func (e *StatusError) Error() string { return fmt.Sprintf("%v: status %d", e.Err, e.Code) }
func (e *StatusError) Unwrap() error { return e.Err }

// Release is the raw release record shared by all registry adapters.
// Version is the registry's own spelling; parsing happens per ecosystem.
type Release struct {
	Version     string    `json:"version"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	Yanked      bool      `json:"yanked,omitempty"`
	Retracted   bool      `json:"retracted,omitempty"`
	Deprecated  bool      `json:"deprecated,omitempty"`
	Digest      string    `json:"digest,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// NextLink returns the absolute rel="next" target of a Link header,
// resolved against current, or "" when there is none.
func NextLink(current, header string) string {
	for _, part := range strings.Split(header, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		target := strings.TrimSpace(segs[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, p := range segs[1:] {
			p = strings.ReplaceAll(strings.TrimSpace(p), " ", "")
			if p != `rel="next"` && p != "rel=next" {
				continue
			}
			ref, err := url.Parse(target[1 : len(target)-1])
			if err != nil {
				return ""
			}
			base, err := url.Parse(current)
			if err != nil {
				return ""
			}
			return base.ResolveReference(ref).String()
		}
	}
	return ""
}

// NormalizePkgName converts a package name to its canonical form: lowercase
// with surrounding whitespace trimmed.
func NormalizePkgName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// URLEncode percent-encodes a string for use in URL paths.
// This is a convenience wrapper around [url.PathEscape].
func URLEncode(s string) string { return url.PathEscape(s) }

// redact strips userinfo and the query string from a URL for error messages.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

func isRetryable(err error) bool {
	return errors.As(err, new(*httputil.RetryableError))
}
