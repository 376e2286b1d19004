// Package npm checks npm packages for updates.
//
// # Overview
//
// This package implements [deps.Ecosystem] for npm, supporting:
//
//   - registry.npmjs.org release listing via the [npm] client
//   - node-semver ranges: "||", space-joined AND, hyphen ranges, caret,
//     tilde, x-ranges and comparators
//   - package.json manifest extraction
//
// Deprecated releases are never offered. Specs that are not ranges, such as
// dist-tags, git URLs or "file:" paths, are left untouched.
//
// [npm]: github.com/matzehuels/updatecheck/pkg/integrations/npm
// [deps.Ecosystem]: github.com/matzehuels/updatecheck/pkg/deps.Ecosystem
package npm
