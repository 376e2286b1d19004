// Package nuget provides an HTTP client for NuGet v3 feeds.
//
// # Overview
//
// Feeds are discovered through their service index. Versions come from the
// first of these resources that knows the package:
//
//  1. RegistrationsBaseUrl: paged registration index with listing state,
//     deprecation and publication times
//  2. PackageBaseAddress: the flat container version list
//  3. SearchQueryService: a packageid: search
//
// Unlisted versions are reported with [integrations.Release.Yanked] set.
//
// # Usage
//
//	client := nuget.NewClient(backend, time.Hour)
//	releases, err := client.FetchReleases(ctx, "Newtonsoft.Json", false)
package nuget
