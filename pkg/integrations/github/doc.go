// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package lists releases and tags of GitHub repositories. It backs
// dependencies that are pinned to GitHub archives rather than published to
// a package registry, such as Bazel WORKSPACE http_archive rules.
//
// # Usage
//
//	client := github.NewClient(backend, token, time.Hour)
//
//	releases, err := client.FetchReleases(ctx, "bazelbuild/rules_go", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour. Credentials configured
// for api.github.com are used when no token is passed.
//
// # Pagination
//
// Results are read page by page by following the Link response header.
//
// # URL Parsing
//
// [ParseRepoURL] extracts owner/repo from archive, release asset and clone
// URLs (with/without .git, trailing paths, etc.).
package github
