package maven

import (
	"cmp"
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/updatecheck/pkg/version"
)

// Scheme parses Maven versions. Every non-empty string is a valid Maven
// version; ordering follows ComparableVersion.
var Scheme version.Scheme = version.NewScheme("maven", func(raw string) (version.Version, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
})

// Qualifier ranks. Unknown qualifiers sort after "sp", alphabetically.
var qualifiers = map[string]int{
	"alpha":     0,
	"a":         0,
	"beta":      1,
	"b":         1,
	"milestone": 2,
	"m":         2,
	"rc":        3,
	"cr":        3,
	"snapshot":  4,
	"":          5,
	"ga":        5,
	"final":     5,
	"release":   5,
	"sp":        6,
}

const (
	releaseRank = 5
	unknownRank = 7
)

type item struct {
	num    int
	str    string
	isNum  bool
	hyphen bool // introduced by "-" or a digit/letter transition
}

// Version is a Maven artifact version.
type Version struct {
	raw   string
	items []item
}

func ParseVersion(raw string) (*Version, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, " ,[]()<>=!~^*|") {
		return nil, version.ParseError("maven", raw)
	}
	return &Version{raw: s, items: tokenize(strings.ToLower(s))}, nil
}

// tokenize splits s into items. "-" and digit/letter transitions open a
// sublist; trailing null items of each list are dropped when it closes.
func tokenize(s string) []item {
	var out []item
	start, listStart, hyphen := 0, 0, false
	flush := func(end int) {
		tok := s[start:end]
		it := item{hyphen: hyphen}
		if n, err := strconv.Atoi(tok); err == nil {
			it.num, it.isNum = n, true
		} else {
			it.str = tok
		}
		if tok != "" || it.hyphen {
			out = append(out, it)
		}
	}
	sublist := func() {
		for len(out) > listStart && isNull(out[len(out)-1]) {
			out = out[:len(out)-1]
		}
		listStart = len(out)
	}
	for i, r := range s {
		switch {
		case r == '.':
			flush(i)
			start, hyphen = i+1, false
		case r == '-':
			flush(i)
			sublist()
			start, hyphen = i+1, true
		case i > start && unicode.IsDigit(r) != unicode.IsDigit(rune(s[i-1])):
			flush(i)
			sublist()
			start, hyphen = i, true
		}
	}
	flush(len(s))
	return trim(out)
}

// trim drops trailing null items (0, "", "ga", "final", "release").
func trim(items []item) []item {
	for len(items) > 0 && isNull(items[len(items)-1]) {
		items = items[:len(items)-1]
	}
	return items
}

func isNull(it item) bool {
	if it.isNum {
		return it.num == 0
	}
	r, ok := qualifiers[it.str]
	return ok && r == releaseRank
}

func (v *Version) String() string { return v.raw }

// Prerelease reports an alpha, beta, milestone, rc or snapshot qualifier.
func (v *Version) Prerelease() bool {
	for _, it := range v.items {
		if !it.isNum {
			if r, ok := qualifiers[it.str]; ok && r < releaseRank {
				return true
			}
		}
	}
	return false
}

// Segments returns the dotted numeric prefix as written.
func (v *Version) Segments() []int { return version.LeadingInts(v.raw) }

func (v *Version) Compare(other version.Version) int {
	o, ok := other.(*Version)
	if !ok {
		return version.CompareForeign(v, other)
	}
	for i := 0; i < max(len(v.items), len(o.items)); i++ {
		var c int
		switch {
		case i >= len(v.items):
			c = -compareNull(o.items[i])
		case i >= len(o.items):
			c = compareNull(v.items[i])
		default:
			c = compareItems(v.items[i], o.items[i])
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// compareNull compares an item with the absent item.
func compareNull(it item) int {
	if it.isNum {
		return cmp.Compare(it.num, 0)
	}
	return cmp.Compare(rank(it.str), releaseRank)
}

func compareItems(a, b item) int {
	switch {
	case a.isNum && b.isNum:
		if a.hyphen != b.hyphen {
			// "1.1" is newer than "1-1"
			if a.hyphen {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.num, b.num)
	case a.isNum:
		return 1
	case b.isNum:
		return -1
	}
	ra, rb := rank(a.str), rank(b.str)
	if ra != rb || ra != unknownRank {
		return cmp.Compare(ra, rb)
	}
	return strings.Compare(a.str, b.str)
}

func rank(q string) int {
	if r, ok := qualifiers[q]; ok {
		return r
	}
	return unknownRank
}
