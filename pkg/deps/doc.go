// Package deps decides whether and how a dependency can be updated.
//
// # Overview
//
// A [Dependency] carries its resolved version and the [Requirement]s that
// manifests declare for it. A [Checker] answers the update questions for
// one dependency: the latest candidate, the latest version the existing
// requirements admit, the lowest security fix, and the rewritten
// requirements. [Check] assembles the answers into a [ResolvedUpdate] with
// the text [Replacement]s to apply.
//
// # Ecosystems
//
// Each package manager lives in a subpackage that exports an [Ecosystem]:
//
//	eco := cargo.Ecosystem
//	c, _ := eco.Checker(deps.Dependency{
//	    Name:         "serde",
//	    Version:      "1.0.100",
//	    Requirements: []deps.Requirement{{File: "Cargo.toml", Requirement: "^1.0"}},
//	}, deps.Options{Strategy: deps.BumpVersions})
//	upd, _ := deps.Check(ctx, c, dep)
//
// Most checkers compose [Base], which fetches releases once, runs the
// policy pipeline and renders requirements through the ecosystem's
// [Grammar]. Ecosystems override only what differs, such as digest-aware
// freshness for container images.
//
// # Requirements
//
// [UpdateRequirements] applies a [Strategy] through a [Grammar]. Every
// rewritten requirement is satisfied by the target; requirements the
// grammar cannot parse are left as they are.
//
// # Batches
//
// [Batch] checks many dependencies concurrently. Failures are isolated:
// each produces an [Outcome] with an error diagnostic while the rest of
// the batch completes.
//
// # Discovery
//
// Some resolutions only succeed once the environment is known, for example
// the PHP extensions a package needs. [Discover] retries such resolutions
// with accumulated knowledge, bounded by a maximum number of attempts.
package deps
