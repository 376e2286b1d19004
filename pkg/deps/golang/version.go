package golang

import (
	"regexp"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	"github.com/matzehuels/updatecheck/pkg/version"
)

// Scheme parses Go module versions. A missing "v" prefix is tolerated.
var Scheme version.Scheme = version.NewScheme("go", func(raw string) (version.Version, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
})

// Version is a Go semantic version such as "v1.2.3",
// "v2.0.0+incompatible" or a pseudo-version.
type Version struct {
	v string
}

func ParseVersion(raw string) (*Version, error) {
	s := strings.TrimSpace(raw)
	if s != "" && s[0] != 'v' {
		s = "v" + s
	}
	if !semver.IsValid(s) {
		return nil, version.ParseError("go", raw)
	}
	return &Version{v: s}, nil
}

func (v *Version) String() string { return v.v }

func (v *Version) Prerelease() bool { return semver.Prerelease(v.v) != "" }

// commitSuffix is the timestamp and revision every pseudo-version ends
// with. It also catches hand-written forms such as
// v1.3.0-20230101120000-abcdef123456 that module.IsPseudoVersion rejects.
var commitSuffix = regexp.MustCompile(`-(?:0\.)?\d{14}-[0-9a-f]{12}(?:\+incompatible)?$`)

// Pseudo reports whether v is a pseudo-version naming an untagged commit.
func (v *Version) Pseudo() bool {
	return module.IsPseudoVersion(v.v) || commitSuffix.MatchString(v.v)
}

// Incompatible reports a "+incompatible" major version without a go.mod.
func (v *Version) Incompatible() bool { return semver.Build(v.v) == "+incompatible" }

func (v *Version) Segments() []int {
	return version.LeadingInts(strings.TrimPrefix(semver.Canonical(v.v), "v"))
}

func (v *Version) Compare(other version.Version) int {
	o, ok := other.(*Version)
	if !ok {
		return version.CompareForeign(v, other)
	}
	return semver.Compare(v.v, o.v)
}

// IsPseudo reports whether v is a pseudo-version.
func IsPseudo(v version.Version) bool {
	gv, ok := v.(*Version)
	return ok && gv.Pseudo()
}
