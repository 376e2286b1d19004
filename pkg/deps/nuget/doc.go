// Package nuget checks NuGet packages for updates.
//
// # Overview
//
// This package implements [deps.Ecosystem] for NuGet, supporting:
//
//   - v3 feeds via the [nuget] client (registration, flat container and
//     search resources)
//   - NuGet versions, parsed with hashicorp/go-version ([Scheme])
//   - minimum ("1.2.3"), exact ("[1.2.3]"), interval ("[1.0,2.0)") and
//     floating ("1.*", "1.0.0-*") version specs
//   - PackageReference extraction from .csproj, .fsproj and .vbproj files
//     and PackageVersion entries from Directory.Packages.props
//
// Unlisted versions are treated as yanked.
//
// [nuget]: github.com/matzehuels/updatecheck/pkg/integrations/nuget
// [deps.Ecosystem]: github.com/matzehuels/updatecheck/pkg/deps.Ecosystem
package nuget
