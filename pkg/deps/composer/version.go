package composer

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/version"
)

var composerPattern = regexp.MustCompile(`(?i)^v?(\d+(?:\.\d+){0,3})(?:[._-]?(stable|beta|b|rc|alpha|a|patch|pl|p)((?:[.-]?\d+)*))?([.-]?dev)?$`)

// Stability ranks, lowest first.
const (
	StabilityDev = iota
	StabilityAlpha
	StabilityBeta
	StabilityRC
	StabilityStable
	StabilityPatch
)

var stabilities = map[string]int{
	"":       StabilityStable,
	"stable": StabilityStable,
	"alpha":  StabilityAlpha,
	"a":      StabilityAlpha,
	"beta":   StabilityBeta,
	"b":      StabilityBeta,
	"rc":     StabilityRC,
	"patch":  StabilityPatch,
	"pl":     StabilityPatch,
	"p":      StabilityPatch,
}

// Scheme parses Composer versions.
var Scheme version.Scheme = version.NewScheme("composer", func(raw string) (version.Version, error) {
	v, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
})

// Version is a normalized Composer version: up to four numeric segments,
// a stability flag with optional numbers, and an optional "-dev" suffix.
type Version struct {
	raw       string
	release   []int
	stability int
	nums      []int
	dev       bool
}

func ParseVersion(raw string) (*Version, error) {
	s := strings.TrimSpace(raw)
	m := composerPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, version.ParseError("composer", raw)
	}
	v := &Version{raw: s, release: version.LeadingInts(m[1]), stability: stabilities[strings.ToLower(m[2])], dev: m[4] != ""}
	for _, n := range strings.FieldsFunc(m[3], func(r rune) bool { return r == '.' || r == '-' }) {
		i, _ := strconv.Atoi(n)
		v.nums = append(v.nums, i)
	}
	if v.dev && m[2] == "" {
		v.stability = StabilityDev
	}
	return v, nil
}

func (v *Version) String() string  { return v.raw }
func (v *Version) Segments() []int { return v.release }

// Stability returns the stability rank, one of the Stability constants.
func (v *Version) Stability() int { return v.stability }

func (v *Version) Prerelease() bool {
	return v.dev || v.stability < StabilityStable
}

func (v *Version) Compare(other version.Version) int {
	o, ok := other.(*Version)
	if !ok {
		return version.CompareForeign(v, other)
	}
	if c := version.CompareSegments(v.release, o.release); c != 0 {
		return c
	}
	if c := cmp.Compare(v.stability, o.stability); c != 0 {
		return c
	}
	if c := slices.Compare(version.Pad(v.nums, len(o.nums)), version.Pad(o.nums, len(v.nums))); c != 0 {
		return c
	}
	switch {
	case v.dev && !o.dev:
		return -1
	case !v.dev && o.dev:
		return 1
	}
	return 0
}
