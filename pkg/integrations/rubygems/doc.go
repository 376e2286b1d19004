// Package rubygems provides an HTTP client for the RubyGems API.
//
// # Overview
//
// This package lists gem versions from RubyGems.org
// (https://rubygems.org) via /api/v1/versions/<gem>.json.
//
// # Usage
//
//	client := rubygems.NewClient(backend, 24*time.Hour)
//
//	releases, err := client.FetchReleases(ctx, "rails", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Gem names are case-sensitive on RubyGems and are passed through as given.
package rubygems
