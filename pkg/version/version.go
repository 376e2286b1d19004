// Package version defines the comparable version values shared by every
// ecosystem.
//
// Each ecosystem parses raw version strings through a [Scheme] into a
// [Version] with a total order. Formatting differences such as a leading "v"
// or leading zeros never affect equality; build metadata is ignored where the
// ecosystem ignores it.
//
// Two schemes live here because several ecosystems share them:
//
//   - [Semver]: strict-ish SemVer 2.0 (Cargo, npm), backed by Masterminds/semver
//   - [Generic]: dotted numeric releases with an optional "_N" update part
//     (Helm charts and images, Docker tags, GitHub release tags)
//
// Ecosystem-specific orderings (Composer stability flags, Maven qualifiers,
// RubyGems segments, Bazel identifiers, Go pseudo-versions) live in their
// ecosystem packages and implement the same interfaces.
package version

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/errors"
)

// Version is a parsed, totally ordered version value.
type Version interface {
	// String returns the version as it should be rendered.
	String() string
	// Compare returns -1, 0 or +1.
	Compare(other Version) int
	// Prerelease reports whether the version is a pre-release.
	Prerelease() bool
}

// Segmented is implemented by versions with a numeric release part.
type Segmented interface {
	Segments() []int
}

// Scheme parses raw version strings for one ecosystem.
type Scheme interface {
	Name() string
	Parse(raw string) (Version, error)
}

type scheme struct {
	name  string
	parse func(string) (Version, error)
}

func (s scheme) Name() string                      { return s.name }
func (s scheme) Parse(raw string) (Version, error) { return s.parse(raw) }

// NewScheme builds a Scheme from a parse function.
func NewScheme(name string, parse func(raw string) (Version, error)) Scheme {
	return scheme{name: name, parse: parse}
}

// Correct reports whether raw parses under s. It never panics.
func Correct(s Scheme, raw string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	_, err := s.Parse(raw)
	return err == nil
}

// MustParse parses raw or panics. Intended for tests and constants.
func MustParse(s Scheme, raw string) Version {
	v, err := s.Parse(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// Equal reports whether a and b compare equal. Two nil versions are equal.
func Equal(a, b Version) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Compare(b) == 0
}

// Less reports whether a sorts before b.
func Less(a, b Version) bool {
	return a.Compare(b) < 0
}

// Sort orders vs ascending in place.
func Sort(vs []Version) {
	slices.SortStableFunc(vs, func(a, b Version) int { return a.Compare(b) })
}

// Max returns the greatest version, or nil for an empty slice.
func Max(vs []Version) Version {
	var best Version
	for _, v := range vs {
		if best == nil || v.Compare(best) > 0 {
			best = v
		}
	}
	return best
}

// Min returns the smallest version, or nil for an empty slice.
func Min(vs []Version) Version {
	var best Version
	for _, v := range vs {
		if best == nil || v.Compare(best) < 0 {
			best = v
		}
	}
	return best
}

// Dedup removes versions that compare equal to an earlier element.
func Dedup(vs []Version) []Version {
	out := make([]Version, 0, len(vs))
	for _, v := range vs {
		if !slices.ContainsFunc(out, func(o Version) bool { return o.Compare(v) == 0 }) {
			out = append(out, v)
		}
	}
	return out
}

// SegmentsOf returns the numeric release segments of v. Versions that do
// not implement Segmented are read from their string form up to the first
// non-numeric segment.
func SegmentsOf(v Version) []int {
	if v == nil {
		return nil
	}
	if s, ok := v.(Segmented); ok {
		return s.Segments()
	}
	return LeadingInts(Release(v))
}

// LeadingInts parses dot-separated integers from the start of s, stopping at
// the first segment that is not a plain number.
func LeadingInts(s string) []int {
	s = strings.TrimLeft(s, "vV")
	var out []int
	for _, part := range strings.Split(s, ".") {
		if i := strings.IndexAny(part, "-+_"); i >= 0 {
			part = part[:i]
			if n, err := strconv.Atoi(part); err == nil {
				out = append(out, n)
			}
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out = append(out, n)
	}
	return out
}

// Release returns v's string without a leading "v" and without build metadata.
func Release(v Version) string {
	s := strings.TrimLeft(v.String(), "vV")
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	return s
}

// Join renders segments as a dotted string.
func Join(segs []int) string {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ".")
}

// Bump returns segs[:idx+1] with segs[idx] incremented, padded with zeros to
// at least width segments.
func Bump(segs []int, idx, width int) []int {
	out := make([]int, max(idx+1, width))
	copy(out, segs[:min(idx+1, len(segs))])
	out[idx]++
	return out
}

// Pad returns segs extended with zeros to width.
func Pad(segs []int, width int) []int {
	out := make([]int, max(len(segs), width))
	copy(out, segs)
	return out
}

// RaiseUpperBound computes a new exclusive upper bound that admits target
// while keeping the shape of old. The segment updated is the last non-zero
// segment of old, capped to target's precision; earlier segments come from
// target and later ones are zeroed.
//
//	RaiseUpperBound([1 2 0], [1 5 0]) = [1 6 0]
//	RaiseUpperBound([2 0 0], [3 1 4]) = [4 0 0]
func RaiseUpperBound(old, target []int) []int {
	if len(target) == 0 {
		return old
	}
	idx := 0
	for i, s := range old {
		if s != 0 {
			idx = i
		}
	}
	idx = min(idx, len(target)-1)

	out := make([]int, 0, len(old))
	for i := range old {
		switch {
		case i < idx:
			out = append(out, target[i])
		case i == idx:
			out = append(out, target[i]+1)
		case i > len(target)-1:
			// drop segments target does not have
		default:
			out = append(out, 0)
		}
	}
	return out
}

// CompareSegments compares numeric segment slices, treating missing
// trailing segments as zero.
func CompareSegments(a, b []int) int {
	for i := range max(len(a), len(b)) {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CompareIdentifiers compares dot-separated pre-release identifiers with
// SemVer precedence: numeric identifiers compare numerically and sort before
// alphanumeric ones, and a longer list wins when all shared fields tie.
func CompareIdentifiers(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := range min(len(as), len(bs)) {
		if c := compareIdent(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func compareIdent(a, b string) int {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// Change classifies the size of an upgrade.
type Change int

const (
	ChangeNone Change = iota
	ChangePatch
	ChangeMinor
	ChangeMajor
)

func (c Change) String() string {
	switch c {
	case ChangePatch:
		return "patch"
	case ChangeMinor:
		return "minor"
	case ChangeMajor:
		return "major"
	}
	return "none"
}

// ChangeKind reports which release segment differs first between from and
// to. A nil from counts as a major change.
func ChangeKind(from, to Version) Change {
	if from == nil {
		return ChangeMajor
	}
	a, b := SegmentsOf(from), SegmentsOf(to)
	for i, kind := range []Change{ChangeMajor, ChangeMinor, ChangePatch} {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if x != y {
			return kind
		}
	}
	if from.Compare(to) != 0 {
		return ChangePatch
	}
	return ChangeNone
}

// CompareForeign orders versions of different concrete types by their
// release segments and then by their string form.
func CompareForeign(a, b Version) int {
	if c := CompareSegments(SegmentsOf(a), SegmentsOf(b)); c != 0 {
		return c
	}
	switch {
	case a.Prerelease() && !b.Prerelease():
		return -1
	case !a.Prerelease() && b.Prerelease():
		return 1
	}
	return strings.Compare(a.String(), b.String())
}

// ParseError is returned by schemes for strings they cannot read.
func ParseError(scheme, raw string) error {
	return errors.New(errors.ErrCodeInvalidVersion, "invalid %s version %q", scheme, raw)
}
