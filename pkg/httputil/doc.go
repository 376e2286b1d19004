// Package httputil provides HTTP utilities for package registry clients.
//
// # Overview
//
// This package provides infrastructure used by all registry API clients:
//
//   - [Retry], [RetryNotify]: Automatic retry with exponential backoff,
//     honoring a server-requested [RetryAfter] wait
//   - [NewTransport]: An http.Transport with separate open and read timeouts
//   - [IsTimeout]: Classification of deadline and dial timeouts
//
// # Retry
//
// [Retry] re-runs an operation for transient failures. Callers mark an
// error as transient by wrapping it in [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// # Timeouts
//
// Registry calls carry two timeouts: the open timeout bounds connection
// setup (dial and TLS handshake), the read timeout bounds the wait for
// response headers. Both come from configuration in whole seconds.
package httputil
