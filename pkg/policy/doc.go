// Package policy decides which published releases of a dependency are
// candidates for an update.
//
// A [Policy] bundles the user's rules for one dependency: ignore
// conditions, pre-release admission, a release cooldown and security
// advisories. A [Pipeline] applies it to the releases a registry returned,
// in a fixed order:
//
//  1. [DropUnusable]: unparsable, yanked and retracted releases
//  2. [DropPrereleases]: pre-releases, unless admitted
//  3. [DropIgnored]: releases matching an ignore condition
//  4. [DropVulnerable]: in security mode, releases still affected by an advisory
//  5. [DropCoolingDown]: releases younger than their cooldown window
//  6. [DropNotNewer]: releases not newer than the current version
//
// Filtering is idempotent: running the pipeline on its own output returns
// the same releases.
//
// Policies can be loaded from a YAML or TOML file with [LoadFile].
package policy
