package bundler

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/version"
)

var (
	gemVersionPattern = regexp.MustCompile(`^[0-9]+(?:\.[0-9a-zA-Z]+)*(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)
	gemSegmentPattern = regexp.MustCompile(`[0-9]+|[a-zA-Z]+`)
)

// Scheme parses RubyGems versions.
var Scheme version.Scheme = version.NewScheme("rubygems", func(raw string) (version.Version, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
})

// Version is a Gem::Version. Segments are ints or strings.
type Version struct {
	raw  string
	segs []any
}

// ParseVersion parses raw. A "-" is read as ".pre.", as RubyGems does.
func ParseVersion(raw string) (*Version, error) {
	s := strings.TrimSpace(raw)
	if !gemVersionPattern.MatchString(s) {
		return nil, version.ParseError("rubygems", raw)
	}
	v := &Version{raw: s}
	for _, seg := range gemSegmentPattern.FindAllString(strings.ReplaceAll(s, "-", ".pre."), -1) {
		if n, err := strconv.Atoi(seg); err == nil {
			v.segs = append(v.segs, n)
		} else {
			v.segs = append(v.segs, seg)
		}
	}
	return v, nil
}

func (v *Version) String() string { return v.raw }

func (v *Version) Prerelease() bool {
	for _, s := range v.segs {
		if _, ok := s.(string); ok {
			return true
		}
	}
	return false
}

// Segments returns the numeric segments before the first letter.
func (v *Version) Segments() []int {
	var out []int
	for _, s := range v.segs {
		n, ok := s.(int)
		if !ok {
			break
		}
		out = append(out, n)
	}
	return out
}

func (v *Version) Compare(other version.Version) int {
	o, ok := other.(*Version)
	if !ok {
		return version.CompareForeign(v, other)
	}
	a, b := v.canonical(), o.canonical()
	for i := 0; i < max(len(a), len(b)); i++ {
		x, y := segmentAt(a, i), segmentAt(b, i)
		if c := compareSegment(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// canonical drops trailing zeros from the numeric release and from the
// pre-release part, so "1.0.0" equals "1" and "1.0.a" equals "1.a".
func (v *Version) canonical() []any {
	var out []any
	var zeros int
	inPre := false
	for _, s := range v.segs {
		n, isNum := s.(int)
		if isNum && n == 0 {
			zeros++
			continue
		}
		if isNum || inPre {
			for ; zeros > 0; zeros-- {
				out = append(out, 0)
			}
		}
		zeros = 0
		inPre = inPre || !isNum
		out = append(out, s)
	}
	return out
}

// segmentAt pads with zero past the end.
func segmentAt(segs []any, i int) any {
	if i < len(segs) {
		return segs[i]
	}
	return 0
}

// compareSegment orders numbers above letters.
func compareSegment(a, b any) int {
	an, aNum := a.(int)
	bn, bNum := b.(int)
	switch {
	case aNum && bNum:
		return cmp.Compare(an, bn)
	case aNum:
		return 1
	case bNum:
		return -1
	}
	return strings.Compare(a.(string), b.(string))
}
