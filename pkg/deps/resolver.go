package deps

import (
	"github.com/matzehuels/updatecheck/pkg/policy"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Latest returns the highest version among releases, or nil.
func Latest(releases []policy.Release) version.Version {
	return version.Max(policy.Versions(releases))
}

// LowestSecurityFix returns the lowest release newer than current that no
// advisory of p affects.
func LowestSecurityFix(releases []policy.Release, current version.Version, p *policy.Policy) version.Version {
	var fixes []version.Version
	for _, v := range version.Dedup(policy.Versions(releases)) {
		if current != nil && v.Compare(current) <= 0 {
			continue
		}
		if p.Vulnerable(v) {
			continue
		}
		fixes = append(fixes, v)
	}
	return version.Min(fixes)
}

// LatestSatisfying returns the highest release satisfying every
// requirement in reqs that g can parse. Requirements g cannot parse, and
// empty ones, constrain nothing.
func LatestSatisfying(releases []policy.Release, reqs []Requirement, g Grammar) version.Version {
	var ok []version.Version
	for _, v := range version.Dedup(policy.Versions(releases)) {
		if satisfiesAll(v, reqs, g) {
			ok = append(ok, v)
		}
	}
	return version.Max(ok)
}

func satisfiesAll(v version.Version, reqs []Requirement, g Grammar) bool {
	for _, r := range reqs {
		if r.Requirement == "" || !RegistryOnly(r) {
			continue
		}
		sat, err := g.SatisfiedBy(r.Requirement, v)
		if err != nil {
			continue
		}
		if !sat {
			return false
		}
	}
	return true
}
