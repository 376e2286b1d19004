// Package docker checks container image tags.
//
// A tag such as "3.9.18-slim-bookworm" is split into a prefix, a numeric
// version and a suffix. Only tags with the same prefix, suffix and format
// as the current one are candidates, so "3.9.18-slim" never moves to
// "3.12.1-alpine". Numeric versions compare like [version.Generic],
// including the "_N" update part of tags like "17.0.2_8-jre".
//
// Tags whose version is newer than the one "latest" points at are treated
// as pre-releases. When the newest candidate is more precise than the
// current tag ("1.25" → "1.25.3") and the newest tag at the current
// precision has the same digest, the current precision is kept.
//
// Requirements pinned to a digest are checked by digest: they are up to
// date when the registry digest of the target tag matches the pin, and an
// ignore rule covering every newer tag does not raise ALL_VERSIONS_IGNORED
// for them.
//
// [version.Generic]: github.com/matzehuels/updatecheck/pkg/version.Generic
package docker
