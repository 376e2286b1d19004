// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// This package contains low-level API clients that list the published
// releases of a package. Each registry has its own subpackage:
//
//   - [bcr]: Bazel Central Registry
//   - [crates]: Rust crates.io
//   - [goproxy]: Go Module Proxy
//   - [helmrepo]: Helm chart repositories (index.yaml)
//   - [maven]: Maven repositories (maven-metadata.xml)
//   - [npm]: Node Package Manager
//   - [nuget]: NuGet v3 feeds
//   - [oci]: Docker / OCI distribution registries
//   - [packagist]: PHP Composer packages
//   - [rubygems]: Ruby gems
//   - [github]: GitHub releases and tags
//
// # Client Pattern
//
// All registry clients follow a consistent pattern:
//
//	client := crates.NewClient(backend, time.Hour, integrations.WithConfig(cfg))
//	releases, err := client.FetchReleases(ctx, "serde", false)  // false = use cache
//
// Clients handle:
//   - HTTP requests with retry and exponential backoff
//   - Response caching with write-once semantics
//   - Collapsing of concurrent identical fetches
//   - Registry credentials from configuration
//   - API-specific parsing and normalization
//
// A 404 means "no releases" and yields an empty list. Malformed bodies are
// logged and also yield an empty list. Transport failures that survive all
// retries are classified with [Classify].
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all registry
// clients, including response caching via [cache.Cache] and Link-header
// pagination via [Client.Paginate].
//
// [bcr]: github.com/matzehuels/updatecheck/pkg/integrations/bcr
// [crates]: github.com/matzehuels/updatecheck/pkg/integrations/crates
// [goproxy]: github.com/matzehuels/updatecheck/pkg/integrations/goproxy
// [helmrepo]: github.com/matzehuels/updatecheck/pkg/integrations/helmrepo
// [maven]: github.com/matzehuels/updatecheck/pkg/integrations/maven
// [npm]: github.com/matzehuels/updatecheck/pkg/integrations/npm
// [nuget]: github.com/matzehuels/updatecheck/pkg/integrations/nuget
// [oci]: github.com/matzehuels/updatecheck/pkg/integrations/oci
// [packagist]: github.com/matzehuels/updatecheck/pkg/integrations/packagist
// [rubygems]: github.com/matzehuels/updatecheck/pkg/integrations/rubygems
// [github]: github.com/matzehuels/updatecheck/pkg/integrations/github
// [cache.Cache]: github.com/matzehuels/updatecheck/pkg/cache.Cache
package integrations
