// Package cargo checks Rust crates for updates.
//
// # Overview
//
// This package implements [deps.Ecosystem] for Cargo, supporting:
//
//   - crates.io release listing via the [crates] client
//   - Cargo requirement syntax: caret, tilde, "=", comparators, wildcards
//     and comma-joined AND
//   - Cargo.toml manifest extraction
//
// A bare requirement such as "1.2" means "^1.2". Under
// BumpVersionsIfNecessary requirements move toward the latest version the
// existing requirements resolve to, so "^1.2.0" stays as written while a
// 1.x release is available.
//
// [crates]: github.com/matzehuels/updatecheck/pkg/integrations/crates
// [deps.Ecosystem]: github.com/matzehuels/updatecheck/pkg/deps.Ecosystem
package cargo
