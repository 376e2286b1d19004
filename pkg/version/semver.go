package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Semver is the SemVer 2.0 scheme used by Cargo and npm. A leading "v" and
// short forms such as "1.2" are accepted; build metadata is ignored when
// comparing.
var Semver Scheme = NewScheme("semver", func(raw string) (Version, error) {
	v, err := ParseSemver(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
})

// SemverVersion wraps a Masterminds semver value.
type SemverVersion struct {
	v *semver.Version
}

// ParseSemver parses raw into a SemverVersion.
func ParseSemver(raw string) (*SemverVersion, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " *|<>=~^") {
		return nil, ParseError("semver", raw)
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, ParseError("semver", raw)
	}
	return &SemverVersion{v: v}, nil
}

// Semver exposes the underlying Masterminds value.
func (v *SemverVersion) Semver() *semver.Version { return v.v }

func (v *SemverVersion) String() string   { return v.v.Original() }
func (v *SemverVersion) Prerelease() bool { return v.v.Prerelease() != "" }

func (v *SemverVersion) Segments() []int {
	return []int{int(v.v.Major()), int(v.v.Minor()), int(v.v.Patch())}
}

func (v *SemverVersion) Compare(other Version) int {
	o, ok := other.(*SemverVersion)
	if !ok {
		return CompareForeign(v, other)
	}
	return v.v.Compare(o.v)
}
