package version

import (
	"regexp"
	"strconv"
	"strings"
)

var genericPattern = regexp.MustCompile(`^[vV]?(\d+(?:\.\d+)*)(?:_(\d+))?(?:-([0-9A-Za-z][0-9A-Za-z.-]*))?(?:\+[0-9A-Za-z.-]+)?$`)

// Generic is the scheme for dotted numeric versions with an optional "_N"
// update part, such as "1.2.3", "v2.0.0-rc.1" or "17.0.2_8".
var Generic Scheme = NewScheme("generic", func(raw string) (Version, error) {
	v, err := ParseGeneric(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
})

// GenericVersion is a version parsed by [Generic].
type GenericVersion struct {
	raw     string
	release []int
	update  int
	pre     string
}

// ParseGeneric parses raw into a GenericVersion.
func ParseGeneric(raw string) (*GenericVersion, error) {
	m := genericPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil, ParseError("generic", raw)
	}
	v := &GenericVersion{raw: strings.TrimSpace(raw), pre: m[3]}
	for _, part := range strings.Split(m[1], ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, ParseError("generic", raw)
		}
		v.release = append(v.release, n)
	}
	if m[2] != "" {
		v.update, _ = strconv.Atoi(m[2])
	}
	return v, nil
}

func (v *GenericVersion) String() string   { return v.raw }
func (v *GenericVersion) Prerelease() bool { return v.pre != "" }
func (v *GenericVersion) Segments() []int  { return v.release }

// Update returns the "_N" update number, or 0 when absent.
func (v *GenericVersion) Update() int { return v.update }

// Compare orders by release segments, then the update part, then
// pre-release identifiers. A release sorts after its pre-releases.
func (v *GenericVersion) Compare(other Version) int {
	o, ok := other.(*GenericVersion)
	if !ok {
		return CompareForeign(v, other)
	}
	if c := CompareSegments(v.release, o.release); c != 0 {
		return c
	}
	if v.update != o.update {
		if v.update < o.update {
			return -1
		}
		return 1
	}
	switch {
	case v.pre == o.pre:
		return 0
	case v.pre == "":
		return 1
	case o.pre == "":
		return -1
	}
	return CompareIdentifiers(v.pre, o.pre)
}
