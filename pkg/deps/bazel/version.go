package bazel

import (
	"regexp"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/version"
)

var versionPattern = regexp.MustCompile(`^([a-zA-Z0-9.]+)(?:-([a-zA-Z0-9.-]+))?(?:\+[a-zA-Z0-9.-]+)?$`)

// Scheme parses Bazel module versions: RELEASE[-PRERELEASE][+BUILD], where
// both parts are dot-separated identifiers. Build metadata is ignored.
var Scheme version.Scheme = version.NewScheme("bazel", func(raw string) (version.Version, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
})

// Version is a Bazel module version. The empty version, used by
// non-registry overrides, sorts above every other version.
type Version struct {
	raw     string
	release string
	pre     string
}

func ParseVersion(raw string) (*Version, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return &Version{}, nil
	}
	m := versionPattern.FindStringSubmatch(s)
	if m == nil || hasEmptyIdentifier(m[1]) || m[2] != "" && hasEmptyIdentifier(m[2]) {
		return nil, version.ParseError("bazel", raw)
	}
	return &Version{raw: s, release: m[1], pre: m[2]}, nil
}

func hasEmptyIdentifier(s string) bool {
	return strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") || strings.Contains(s, "..")
}

func (v *Version) String() string   { return v.raw }
func (v *Version) Prerelease() bool { return v.pre != "" }
func (v *Version) Segments() []int  { return version.LeadingInts(v.release) }

// Compare orders release identifiers, then places pre-releases before
// their release. Digit-only identifiers compare numerically and sort
// before alphanumeric ones.
func (v *Version) Compare(other version.Version) int {
	o, ok := other.(*Version)
	if !ok {
		return version.CompareForeign(v, other)
	}
	switch {
	case v.raw == "" && o.raw == "":
		return 0
	case v.raw == "":
		return 1
	case o.raw == "":
		return -1
	}
	if c := version.CompareIdentifiers(v.release, o.release); c != 0 {
		return c
	}
	switch {
	case v.pre == o.pre:
		return 0
	case v.pre == "":
		return 1
	case o.pre == "":
		return -1
	}
	return version.CompareIdentifiers(v.pre, o.pre)
}
