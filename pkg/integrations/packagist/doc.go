// Package packagist provides an HTTP client for Composer package
// repositories.
//
// # Overview
//
// This package lists package versions from Packagist
// (https://repo.packagist.org) or any repository serving Composer
// metadata.
//
// # Usage
//
//	client := packagist.NewClient(backend, 24*time.Hour)
//
//	versions, err := client.FetchVersions(ctx, "symfony/console", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Formats
//
// Two metadata layouts are understood:
//
//   - v2 (/p2/vendor/package.json): a list of versions, usually minified
//   - v1 (/packages.json): versions keyed by version string
//
// Each [Version] carries the platform requirements (php, ext-*, lib-*) of
// the release so callers can discard versions their runtime cannot install.
package packagist
