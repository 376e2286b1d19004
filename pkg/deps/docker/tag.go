package docker

import (
	"regexp"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/version"
)

// Format classifies the shape of a tag's version.
type Format int

const (
	FormatNormal Format = iota
	FormatBuildNum
	FormatYearMonth
	FormatYearMonthDay
	FormatSHASuffixed
)

var (
	tagPattern          = regexp.MustCompile(`^(?P<prefix>[A-Za-z._-]*?)(?P<version>v?\d+(?:\.\d+)*(?:_\d+)?)(?P<suffix>[-.][A-Za-z0-9][A-Za-z0-9._-]*)?$`)
	yearMonthPattern    = regexp.MustCompile(`^[12]\d{3}(?:[._-]|$)`)
	yearMonthDayPattern = regexp.MustCompile(`^[12]\d{3}[._-]?(?:0[1-9]|1[0-2])[._-]?(?:0[1-9]|[12]\d|3[01])(?:[._-]|$)`)
	shaSuffixPattern    = regexp.MustCompile(`(?:^|-g?)[0-9a-f]{7,}$`)
)

// TagScheme parses comparable image tags. Tags without a numeric version,
// such as "latest" or "alpine", do not parse.
var TagScheme version.Scheme = version.NewScheme("docker", func(raw string) (version.Version, error) {
	t, err := ParseTag(raw)
	if err != nil {
		return nil, err
	}
	return t, nil
})

// Tag is an image tag with a numeric version.
type Tag struct {
	Name    string
	Prefix  string
	Numeric string
	Suffix  string
	Format  Format

	v   *version.GenericVersion
	pre bool
}

func ParseTag(name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	m := tagPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, version.ParseError("docker", name)
	}
	v, err := version.ParseGeneric(m[2])
	if err != nil {
		return nil, version.ParseError("docker", name)
	}
	t := &Tag{Name: name, Prefix: m[1], Numeric: m[2], Suffix: m[3], v: v}
	t.Format = formatOf(t)
	return t, nil
}

func formatOf(t *Tag) Format {
	bare := strings.TrimPrefix(t.Numeric, "v")
	switch {
	case yearMonthDayPattern.MatchString(bare):
		return FormatYearMonthDay
	case yearMonthPattern.MatchString(bare):
		return FormatYearMonth
	case shaSuffixPattern.MatchString(t.Name) && t.Suffix != "":
		return FormatSHASuffixed
	case !strings.ContainsAny(bare, "._"):
		return FormatBuildNum
	}
	return FormatNormal
}

func (t *Tag) String() string   { return t.Name }
func (t *Tag) Prerelease() bool { return t.pre }
func (t *Tag) Segments() []int  { return t.v.Segments() }

// Compare orders tags by their numeric version.
func (t *Tag) Compare(other version.Version) int {
	o, ok := other.(*Tag)
	if !ok {
		return version.CompareForeign(t, other)
	}
	return t.v.Compare(o.v)
}

// Canonical reports a tag that is only a version, like "1.25.3".
func (t *Tag) Canonical() bool {
	return t.Prefix == "" && t.Suffix == "" && !strings.HasPrefix(t.Numeric, "v")
}

// Precision is the number of numeric parts, counting the update part.
func (t *Tag) Precision() int {
	return len(strings.FieldsFunc(t.Numeric, func(r rune) bool { return r == '.' || r == '_' }))
}

func (t *Tag) SamePrecision(o *Tag) bool { return t.Precision() == o.Precision() }

// SameButLessPrecise reports whether o refines t, as "1.25.3" refines
// "1.25".
func (t *Tag) SameButLessPrecise(o *Tag) bool {
	return strings.HasPrefix(o.Numeric, t.Numeric+".") || strings.HasPrefix(o.Numeric, t.Numeric+"_")
}

// Comparable reports whether o may replace t: same prefix and format, and
// the same suffix unless the suffix is a commit SHA.
func (t *Tag) Comparable(o *Tag) bool {
	if t.Prefix != o.Prefix || t.Format != o.Format {
		return false
	}
	return t.Format == FormatSHASuffixed || t.Suffix == o.Suffix
}

// asPrerelease returns a copy of t flagged as a pre-release.
func (t *Tag) asPrerelease() *Tag {
	cp := *t
	cp.pre = true
	return &cp
}
