package policy

import (
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Advisory is a security advisory affecting a dependency.
type Advisory struct {
	VulnerableVersions []string
	SafeVersions       []string

	vulnerable []Condition
	safe       []Condition
}

// NewAdvisory parses the advisory's ranges under scheme.
func NewAdvisory(scheme version.Scheme, m Matcher, vulnerable, safe []string) (Advisory, error) {
	a := Advisory{VulnerableVersions: vulnerable, SafeVersions: safe}
	var err error
	if a.vulnerable, err = ParseConditions(vulnerable, scheme, m); err != nil {
		return a, err
	}
	if a.safe, err = ParseConditions(safe, scheme, m); err != nil {
		return a, err
	}
	return a, nil
}

// Vulnerable reports whether v is affected by the advisory.
//
// A version inside a safe range is never vulnerable. Otherwise it is
// vulnerable when it falls inside a vulnerable range, or, for advisories
// that only list safe ranges, when it is outside all of them.
func (a Advisory) Vulnerable(v version.Version) bool {
	if v == nil || len(a.vulnerable) == 0 && len(a.safe) == 0 {
		return false
	}
	for _, c := range a.safe {
		if c.Matches(v) {
			return false
		}
	}
	for _, c := range a.vulnerable {
		if c.Matches(v) {
			return true
		}
	}
	if len(a.vulnerable) > 0 {
		return false
	}
	return len(a.safe) > 0
}

// Fixes reports whether moving from current to v resolves the advisory.
func (a Advisory) Fixes(current, v version.Version) bool {
	return a.Vulnerable(current) && !a.Vulnerable(v)
}
