package policy

import (
	"time"

	"github.com/matzehuels/updatecheck/pkg/version"
)

// Policy holds the compiled rules for one dependency.
type Policy struct {
	Ignored         []Condition
	Advisories      []Advisory
	Cooldown        *Cooldown
	AllowPrerelease bool
	SecurityOnly    bool
	RaiseOnIgnored  bool

	// Now is the clock used by the cooldown. Defaults to time.Now.
	Now func() time.Time
}

// AdvisorySpec is an advisory as written by the user.
type AdvisorySpec struct {
	VulnerableVersions []string `yaml:"vulnerable-versions" toml:"vulnerable-versions" json:"vulnerable_versions,omitempty"`
	SafeVersions       []string `yaml:"safe-versions" toml:"safe-versions" json:"safe_versions,omitempty"`
}

// Option configures a Policy built by NewPolicy.
type Option func(*options)

type options struct {
	ignored    []string
	advisories []AdvisorySpec
	cooldown   *Cooldown
	matcher    Matcher
	prerelease bool
	security   bool
	raise      bool
	now        func() time.Time
}

// WithIgnored adds ignore conditions.
func WithIgnored(specs ...string) Option {
	return func(o *options) { o.ignored = append(o.ignored, specs...) }
}

// WithAdvisory adds a security advisory.
func WithAdvisory(vulnerable, safe []string) Option {
	return func(o *options) {
		o.advisories = append(o.advisories, AdvisorySpec{VulnerableVersions: vulnerable, SafeVersions: safe})
	}
}

// WithAdvisories adds several advisories at once.
func WithAdvisories(specs ...AdvisorySpec) Option {
	return func(o *options) { o.advisories = append(o.advisories, specs...) }
}

// WithCooldown sets the release cooldown.
func WithCooldown(c *Cooldown) Option {
	return func(o *options) { o.cooldown = c }
}

// WithMatcher parses conditions with an ecosystem-specific grammar.
func WithMatcher(m Matcher) Option {
	return func(o *options) { o.matcher = m }
}

// WithAllowPrerelease admits pre-releases as candidates.
func WithAllowPrerelease(allow bool) Option {
	return func(o *options) { o.prerelease = allow }
}

// WithSecurityOnly restricts candidates to versions not affected by any
// advisory.
func WithSecurityOnly(on bool) Option {
	return func(o *options) { o.security = on }
}

// WithRaiseOnIgnored makes the pipeline fail with ALL_VERSIONS_IGNORED when
// ignore conditions remove every newer release.
func WithRaiseOnIgnored(on bool) Option {
	return func(o *options) { o.raise = on }
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewPolicy compiles the options under scheme. Invalid conditions yield an
// INVALID_POLICY error.
func NewPolicy(scheme version.Scheme, opts ...Option) (*Policy, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ignored, err := ParseConditions(o.ignored, scheme, o.matcher)
	if err != nil {
		return nil, err
	}
	p := &Policy{
		Ignored:         ignored,
		Cooldown:        o.cooldown,
		AllowPrerelease: o.prerelease,
		SecurityOnly:    o.security,
		RaiseOnIgnored:  o.raise,
		Now:             o.now,
	}
	for _, spec := range o.advisories {
		a, err := NewAdvisory(scheme, o.matcher, spec.VulnerableVersions, spec.SafeVersions)
		if err != nil {
			return nil, err
		}
		p.Advisories = append(p.Advisories, a)
	}
	return p, nil
}

// IgnoresAll reports whether an ignore condition covers every version.
func (p *Policy) IgnoresAll() bool {
	if p == nil {
		return false
	}
	for _, c := range p.Ignored {
		if MatchesAll(c.Spec) {
			return true
		}
	}
	return false
}

// Ignores reports whether r matches any ignore condition.
func (p *Policy) Ignores(r Release) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Ignored {
		if c.MatchesRelease(r) {
			return true
		}
	}
	return false
}

// Vulnerable reports whether any advisory affects v.
func (p *Policy) Vulnerable(v version.Version) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Advisories {
		if a.Vulnerable(v) {
			return true
		}
	}
	return false
}

func (p *Policy) now() time.Time {
	if p == nil || p.Now == nil {
		return time.Now()
	}
	return p.Now()
}
