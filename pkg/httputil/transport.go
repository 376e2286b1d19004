package httputil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// NewTransport returns a transport whose dial and TLS handshake are bounded
// by open and whose wait for response headers is bounded by read. Zero
// values leave the corresponding phase unbounded.
func NewTransport(open, read time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   open,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = open
	t.ResponseHeaderTimeout = read
	return t
}

// NewClient returns an http.Client using [NewTransport]. The overall
// request timeout covers connection, headers and body.
func NewClient(open, read time.Duration) *http.Client {
	return &http.Client{
		Transport: NewTransport(open, read),
		Timeout:   open + 2*read,
	}
}

// IsTimeout reports whether err is a deadline, dial or header timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
