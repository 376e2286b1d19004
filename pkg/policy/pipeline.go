package policy

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Pipeline filters the releases of one dependency.
type Pipeline struct {
	Policy *Policy
	Name   string // dependency name, for cooldown patterns and errors

	// RequirementPrerelease is set when a manifest requirement explicitly
	// names a pre-release, which admits pre-releases as candidates.
	RequirementPrerelease bool

	Logger *log.Logger
}

// Filter returns the releases that are update candidates from current.
// current may be nil when the dependency has no resolved version.
func (p Pipeline) Filter(releases []Release, current version.Version) ([]Release, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.With("dependency", p.Name)

	out := DropUnusable(releases)
	logger.Debug("usable releases", "count", len(out), "from", len(releases))

	admit := p.Policy != nil && p.Policy.AllowPrerelease ||
		p.RequirementPrerelease ||
		current != nil && current.Prerelease()
	if !admit {
		out = DropPrereleases(out)
		logger.Debug("stable releases", "count", len(out))
	}

	var err error
	if out, err = DropIgnored(out, p.Policy, current, p.Name); err != nil {
		return nil, err
	}
	logger.Debug("after ignore conditions", "count", len(out))

	if p.Policy != nil && p.Policy.SecurityOnly {
		out = DropNotNewer(DropVulnerable(out, p.Policy), current)
		logger.Debug("non-vulnerable releases", "count", len(out))
	}

	out = DropCoolingDown(out, p.Policy, current, p.Name)
	logger.Debug("after cooldown", "count", len(out))

	out = DropNotNewer(out, current)
	logger.Debug("candidates", "count", len(out))
	return out, nil
}

// DropUnusable removes unparsable, yanked and retracted releases.
func DropUnusable(releases []Release) []Release {
	return keep(releases, func(r Release) bool {
		return r.Version != nil && !r.Yanked && !r.Retracted
	})
}

// DropPrereleases removes pre-releases.
func DropPrereleases(releases []Release) []Release {
	return keep(releases, func(r Release) bool { return !r.Version.Prerelease() })
}

// DropIgnored removes releases matching an ignore condition. When the
// policy raises on ignored versions and the conditions removed every
// release newer than current, an ALL_VERSIONS_IGNORED error is returned.
func DropIgnored(releases []Release, p *Policy, current version.Version, name string) ([]Release, error) {
	if p == nil || len(p.Ignored) == 0 {
		return releases, nil
	}
	out := keep(releases, func(r Release) bool { return !p.Ignores(r) })
	if p.RaiseOnIgnored && len(DropNotNewer(out, current)) == 0 && len(DropNotNewer(releases, current)) > 0 {
		return nil, errors.AllVersionsIgnored(name)
	}
	return out, nil
}

// DropVulnerable removes releases affected by any advisory of p.
func DropVulnerable(releases []Release, p *Policy) []Release {
	if p == nil || len(p.Advisories) == 0 {
		return releases
	}
	return keep(releases, func(r Release) bool { return !p.Vulnerable(r.Version) })
}

// DropCoolingDown removes releases published inside their cooldown
// window. Releases without a publication time are kept.
func DropCoolingDown(releases []Release, p *Policy, current version.Version, name string) []Release {
	if p == nil || !p.Cooldown.Applies(name) {
		return releases
	}
	now := p.now()
	return keep(releases, func(r Release) bool {
		if r.PublishedAt.IsZero() {
			return true
		}
		return now.Sub(r.PublishedAt) >= p.Cooldown.Window(current, r.Version)
	})
}

// DropNotNewer removes releases not newer than current. A nil current
// keeps everything.
func DropNotNewer(releases []Release, current version.Version) []Release {
	if current == nil {
		return releases
	}
	return keep(releases, func(r Release) bool { return r.Version.Compare(current) > 0 })
}

func keep(releases []Release, fn func(Release) bool) []Release {
	out := make([]Release, 0, len(releases))
	for _, r := range releases {
		if fn(r) {
			out = append(out, r)
		}
	}
	return out
}
