// Package bcr provides an HTTP client for Bazel module registries.
//
// Versions of a module are read from the Bazel Central Registry web API
// (https://registry.bazel.build/modules/<name>) and, when that fails, from
// the registry's static modules/<name>/metadata.json. Custom registries only
// serve the static layout.
//
//	client := bcr.NewClient(backend, time.Hour)
//	releases, err := client.FetchReleases(ctx, "rules_go", false)
package bcr
