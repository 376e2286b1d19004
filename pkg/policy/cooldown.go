package policy

import (
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/matzehuels/updatecheck/pkg/version"
)

// Cooldown delays adoption of fresh releases.
//
// The window depends on the size of the upgrade: MajorDays, MinorDays and
// PatchDays override DefaultDays when set. Include and Exclude are
// wildcard patterns on the dependency name, where "*" matches any run of
// characters including "/"; an empty Include applies to every dependency
// and Exclude wins over Include.
type Cooldown struct {
	DefaultDays int      `yaml:"default-days" toml:"default-days" json:"default_days,omitempty"`
	MajorDays   int      `yaml:"semver-major-days" toml:"semver-major-days" json:"semver_major_days,omitempty"`
	MinorDays   int      `yaml:"semver-minor-days" toml:"semver-minor-days" json:"semver_minor_days,omitempty"`
	PatchDays   int      `yaml:"semver-patch-days" toml:"semver-patch-days" json:"semver_patch_days,omitempty"`
	Include     []string `yaml:"include" toml:"include" json:"include,omitempty"`
	Exclude     []string `yaml:"exclude" toml:"exclude" json:"exclude,omitempty"`
}

// Applies reports whether the cooldown covers the dependency name.
func (c *Cooldown) Applies(name string) bool {
	if c == nil {
		return false
	}
	for _, p := range c.Exclude {
		if MatchName(p, name) {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, p := range c.Include {
		if MatchName(p, name) {
			return true
		}
	}
	return false
}

// MatchName matches a dependency name against a wildcard pattern, ignoring
// case. Only "*" is special.
func MatchName(pattern, name string) bool {
	parts := strings.Split(strings.ToLower(pattern), "*")
	for i, p := range parts {
		parts[i] = glob.QuoteMeta(p)
	}
	g, err := glob.Compile(strings.Join(parts, "*"))
	if err != nil {
		return false
	}
	return g.Match(strings.ToLower(name))
}

// Window returns how long candidate must have been published before it is
// offered as an update from current.
func (c *Cooldown) Window(current, candidate version.Version) time.Duration {
	if c == nil {
		return 0
	}
	days := c.DefaultDays
	var override int
	switch version.ChangeKind(current, candidate) {
	case version.ChangeMajor:
		override = c.MajorDays
	case version.ChangeMinor:
		override = c.MinorDays
	case version.ChangePatch:
		override = c.PatchDays
	}
	if override > 0 {
		days = override
	}
	return time.Duration(days) * 24 * time.Hour
}
