// Package goproxy provides an HTTP client for the Go module proxy protocol.
//
// # Overview
//
// Versions come from @v/list, publication times from @v/<version>.info and
// retractions from the retract directives of the latest version's go.mod.
// Module paths and versions are case-escaped per the proxy protocol.
//
// # Usage
//
//	client := goproxy.NewClient(backend, time.Hour)
//	releases, err := client.FetchReleases(ctx, "github.com/spf13/cobra", false)
package goproxy
