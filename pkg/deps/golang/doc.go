// Package golang checks Go modules for updates.
//
// # Overview
//
// This package implements [deps.Ecosystem] for Go modules, supporting:
//
//   - Go module proxy listing via the [goproxy] client, with publication
//     times and go.mod retractions
//   - Go semantic versions ([Scheme]), including pseudo-versions
//   - go.mod extraction with golang.org/x/mod/modfile
//
// A go.mod requirement is an exact version, so updates replace it with
// the target. Pseudo-versions are only offered when a module has no tagged
// releases at all.
//
// [goproxy]: github.com/matzehuels/updatecheck/pkg/integrations/goproxy
// [deps.Ecosystem]: github.com/matzehuels/updatecheck/pkg/deps.Ecosystem
package golang
