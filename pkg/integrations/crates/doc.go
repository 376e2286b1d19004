// Package crates provides an HTTP client for the crates.io API.
//
// # Overview
//
// This package lists crate versions from crates.io (https://crates.io),
// the Rust community's package registry.
//
// # Usage
//
//	client := crates.NewClient(backend, time.Hour)
//
//	releases, err := client.FetchReleases(ctx, "serde", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range releases {
//	    fmt.Println(r.Version, r.Yanked, r.PublishedAt)
//	}
//
// # Pagination
//
// The versions endpoint is paginated through meta.next_page, which holds a
// query string relative to the listing URL. All pages are drained.
//
// # User-Agent
//
// The client includes a User-Agent header as requested by crates.io policy.
package crates
