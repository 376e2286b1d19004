// Package bundler checks Ruby gems for updates.
//
// # Overview
//
// This package implements [deps.Ecosystem] for Bundler, supporting:
//
//   - RubyGems.org release listing via the [rubygems] client
//   - RubyGems version ordering ([Scheme])
//   - "~>", ">=", ">", "<", "<=", "=", "!=" requirements joined by commas
//   - Gemfile extraction
//
// Gem versions compare segment by segment after trailing zeros are
// dropped, so "1.0" equals "1.0.0". A version containing a letter is a
// pre-release and sorts before the release it precedes:
//
//	1.0.a < 1.0.b1 < 1.0.rc1 < 1.0
//
// [rubygems]: github.com/matzehuels/updatecheck/pkg/integrations/rubygems
// [deps.Ecosystem]: github.com/matzehuels/updatecheck/pkg/deps.Ecosystem
package bundler
