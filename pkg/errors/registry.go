package errors

import (
	"fmt"
	"net/url"
	"strings"
)

// SanitizeHost reduces a registry URL to its bare host, dropping scheme,
// userinfo, path, query and fragment. Credentials never leave this function.
func SanitizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Fall back to manual stripping for inputs url.Parse rejects.
		s := raw[strings.Index(raw, "://")+3:]
		if i := strings.LastIndex(s, "@"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.IndexAny(s, "/?#"); i >= 0 {
			s = s[:i]
		}
		return s
	}
	return u.Host
}

// RegistryUnavailable reports that every attempt and fallback for a registry failed.
func RegistryUnavailable(rawURL string, cause error) *Error {
	host := SanitizeHost(rawURL)
	return &Error{
		Code:    ErrCodeRegistryUnavailable,
		Message: fmt.Sprintf("registry %s is unavailable", host),
		Host:    host,
		Cause:   cause,
	}
}

// PrivateSourceAuthFailure reports rejected credentials for a registry.
func PrivateSourceAuthFailure(rawURL string) *Error {
	host := SanitizeHost(rawURL)
	return &Error{
		Code:    ErrCodePrivateSourceAuthFailure,
		Message: fmt.Sprintf("authentication failed for %s", host),
		Host:    host,
	}
}

// PrivateSourceTimedOut reports a registry that did not answer in time.
func PrivateSourceTimedOut(rawURL string) *Error {
	host := SanitizeHost(rawURL)
	return &Error{
		Code:    ErrCodePrivateSourceTimedOut,
		Message: fmt.Sprintf("timed out waiting for %s", host),
		Host:    host,
	}
}

// PrivateSourceBadResponse reports a registry answering with an unexpected status.
func PrivateSourceBadResponse(rawURL string, status int) *Error {
	host := SanitizeHost(rawURL)
	return &Error{
		Code:    ErrCodePrivateSourceBadResponse,
		Message: fmt.Sprintf("bad response from %s (status %d)", host, status),
		Host:    host,
	}
}

// AllVersionsIgnored reports that ignore conditions removed every newer version.
func AllVersionsIgnored(name string) *Error {
	return New(ErrCodeAllVersionsIgnored, "all versions of %s newer than the current one are ignored", name)
}

// Diagnostic is the structured form of a per-dependency failure in batch output.
type Diagnostic struct {
	Code    Code   `json:"code"`
	Host    string `json:"host,omitempty"`
	Message string `json:"message"`
}

// Diagnose converts err into a Diagnostic. Errors without a code are
// reported as INTERNAL_ERROR. Returns nil for a nil error.
func Diagnose(err error) *Diagnostic {
	if err == nil {
		return nil
	}
	d := &Diagnostic{Code: ErrCodeInternal, Message: err.Error()}
	var e *Error
	if As(err, &e) {
		d.Code = e.Code
		d.Host = e.Host
		d.Message = e.Message
	}
	return d
}
