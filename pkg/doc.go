// Package pkg provides the core libraries for updatecheck dependency update
// checks.
//
// # Overview
//
// updatecheck lists the published releases of a dependency, filters them
// through a policy, and computes the updated requirement strings for the
// newest usable version. The pkg directory is organized into these areas:
//
//  1. [version], [constraint] - Version schemes and requirement grammars
//  2. [policy] - Ignore conditions, advisories, cooldowns and the filter pipeline
//  3. [deps] - The update checker and one subpackage per ecosystem
//  4. [integrations] - Registry API clients (npm, crates.io, Go proxy, OCI, ...)
//  5. [cache], [config], [errors], [observability] - Infrastructure
//
// # Architecture
//
// The data flow of one check:
//
//	Manifest / Dependency
//	         ↓
//	    [integrations] package (list releases, cached)
//	         ↓
//	    [policy] package (drop ignored, vulnerable, cooling down)
//	         ↓
//	    [deps] package (pick target, rewrite requirements)
//	         ↓
//	    ResolvedUpdate
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/updatecheck/pkg/deps"
//	    "github.com/matzehuels/updatecheck/pkg/deps/cargo"
//	)
//
//	dep := deps.Dependency{
//	    Name:    "serde",
//	    Version: "1.0.100",
//	    Requirements: []deps.Requirement{
//	        {File: "Cargo.toml", Requirement: "1.0.100"},
//	    },
//	}
//	c, _ := cargo.Ecosystem.Checker(dep, deps.Options{Strategy: deps.BumpVersions})
//	upd, _ := deps.Check(context.Background(), c, dep)
//	fmt.Println(upd.LatestResolvableVersion, upd.Requirements)
//
// Every dependency of a manifest:
//
//	eco, x, _ := ecosystems.ForManifest("package.json")
//	found, _ := x.Extract("package.json", content)
//	for _, o := range deps.Batch(ctx, eco, found, opts) {
//	    ...
//	}
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/deps/...               # Checker and ecosystems
//	go test -run Example                 # Examples only
//
// [version]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/version
// [constraint]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/constraint
// [policy]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/policy
// [deps]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/deps
// [integrations]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/updatecheck/pkg/observability
package pkg
