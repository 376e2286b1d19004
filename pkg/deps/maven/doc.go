// Package maven checks Maven artifacts for updates.
//
// # Overview
//
// This package implements [deps.Ecosystem] for Maven, supporting:
//
//   - maven-metadata.xml release listing via the [maven] client
//   - Maven ComparableVersion ordering ([Scheme])
//   - soft versions ("1.2.3") and interval ranges ("[1.0,2.0)")
//   - pom.xml extraction, including ${property} versions
//
// Artifacts are named "groupId:artifactId". Because colons are awkward in
// file names, "groupId_artifactId" is accepted too (see
// [NormalizeCoordinate]).
//
// [maven]: github.com/matzehuels/updatecheck/pkg/integrations/maven
// [deps.Ecosystem]: github.com/matzehuels/updatecheck/pkg/deps.Ecosystem
package maven
