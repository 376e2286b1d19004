// Package api serves dependency update checks over HTTP.
//
// Routes:
//
//	POST /v1/check   check dependencies or manifests of one ecosystem
//	GET  /healthz    liveness and build information
//	GET  /metrics    Prometheus metrics
//
// Every check runs with its own cache key scope, so the write-once cache
// semantics hold per request even when the backend is shared. The scope id
// is returned as run_id.
package api
