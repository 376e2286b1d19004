// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package lists package versions from the npm registry
// (https://registry.npmjs.org) or a compatible private registry.
//
// # Usage
//
//	client := npm.NewClient(backend, time.Hour)
//
//	pkg, err := client.FetchPackage(ctx, "express", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(pkg.Latest(), len(pkg.Releases))
//
// # Package
//
// [Client.FetchPackage] returns a [Package] containing:
//
//   - Releases: every version with publication time and deprecation flag
//   - DistTags: the dist-tags map ("latest", "next", ...)
//
// Scoped packages (@scope/name) are supported; the slash is escaped.
package npm
