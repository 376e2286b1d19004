package nuget

import (
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/matzehuels/updatecheck/pkg/version"
)

// Scheme parses NuGet versions: up to four numeric segments with optional
// semver pre-release and build metadata.
var Scheme version.Scheme = version.NewScheme("nuget", func(raw string) (version.Version, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
})

type Version struct {
	raw string
	v   *goversion.Version
}

func ParseVersion(raw string) (*Version, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, "[](),*") {
		return nil, version.ParseError("nuget", raw)
	}
	v, err := goversion.NewVersion(s)
	if err != nil {
		return nil, version.ParseError("nuget", raw)
	}
	return &Version{raw: s, v: v}, nil
}

func (v *Version) String() string   { return v.raw }
func (v *Version) Prerelease() bool { return v.v.Prerelease() != "" }

// Segments returns the numeric segments as written.
func (v *Version) Segments() []int { return version.LeadingInts(v.raw) }

// Compare orders versions; pre-release labels compare case-insensitively.
func (v *Version) Compare(other version.Version) int {
	o, ok := other.(*Version)
	if !ok {
		return version.CompareForeign(v, other)
	}
	if c := version.CompareSegments(v.v.Segments(), o.v.Segments()); c != 0 {
		return c
	}
	a, b := strings.ToLower(v.v.Prerelease()), strings.ToLower(o.v.Prerelease())
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return version.CompareIdentifiers(a, b)
}
