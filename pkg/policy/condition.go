package policy

import (
	"strings"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Matcher compiles a version spec in an ecosystem's own requirement
// grammar. Ecosystems whose ignore conditions are written like their
// manifest requirements (Composer, RubyGems, Maven ranges) supply one.
type Matcher func(spec string) (func(version.Version) bool, error)

// Condition is a parsed ignore or advisory spec.
//
// Accepted forms are an exact version ("1.2.3"), a comparator list
// (">= 1.2, < 2"), the pessimistic operator ("~> 1.4"), wildcards ("1.2.*",
// "1.x"), "||" alternatives and Maven/NuGet intervals ("[1.0,2.0)").
// The spec ">= 0" matches every version.
type Condition struct {
	Spec  string
	exact version.Version
	match func(version.Version) bool
}

// ParseCondition parses spec with the generic comparator grammar.
func ParseCondition(spec string, scheme version.Scheme) (Condition, error) {
	return ParseConditionWith(spec, scheme, nil)
}

// ParseConditionWith parses spec, preferring m over the generic grammar
// when m is not nil.
func ParseConditionWith(spec string, scheme version.Scheme, m Matcher) (Condition, error) {
	s := strings.TrimSpace(spec)
	c := Condition{Spec: s}
	if s == "" {
		return c, errors.New(errors.ErrCodeInvalidPolicy, "empty version condition")
	}
	if MatchesAll(s) {
		c.match = func(version.Version) bool { return true }
		return c, nil
	}
	if v, err := scheme.Parse(s); err == nil {
		c.exact = v
		return c, nil
	}
	if m != nil {
		fn, err := m(s)
		if err != nil {
			return c, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "invalid version condition %q", s)
		}
		c.match = fn
		return c, nil
	}
	if constraint.IsInterval(s) {
		ivs, err := constraint.ParseIntervals(s, true)
		if err != nil {
			return c, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "invalid version condition %q", s)
		}
		c.match = func(v version.Version) bool {
			ok, err := constraint.ContainsAny(ivs, scheme, v)
			return err == nil && ok
		}
		return c, nil
	}
	parsed, err := constraint.Generic(scheme).Parse(s)
	if err != nil {
		return c, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "invalid version condition %q", s)
	}
	c.match = parsed.Check
	return c, nil
}

// MatchesAll reports whether spec is the catch-all ">= 0".
func MatchesAll(spec string) bool {
	s := strings.ReplaceAll(strings.TrimSpace(spec), " ", "")
	return s == ">=0"
}

// Matches reports whether v falls under the condition.
func (c Condition) Matches(v version.Version) bool {
	if v == nil {
		return false
	}
	if c.exact != nil {
		return c.exact.Compare(v) == 0
	}
	return c.match != nil && c.match(v)
}

// MatchesRelease is Matches that also accepts a literal match on the
// release's raw version string.
func (c Condition) MatchesRelease(r Release) bool {
	if c.Spec == r.Raw {
		return true
	}
	return c.Matches(r.Version)
}

// ParseConditions parses every spec, stopping at the first error.
func ParseConditions(specs []string, scheme version.Scheme, m Matcher) ([]Condition, error) {
	out := make([]Condition, 0, len(specs))
	for _, s := range specs {
		c, err := ParseConditionWith(s, scheme, m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
