package deps

import (
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Grammar reads and writes requirement strings of one ecosystem.
type Grammar interface {
	// SatisfiedBy reports whether v satisfies req. Unparsable requirements
	// return an INVALID_REQUIREMENT error.
	SatisfiedBy(req string, v version.Version) (bool, error)

	// RenderUpdated rewrites req so that it admits target, keeping the
	// operators and precision of req where the strategy allows.
	RenderUpdated(req string, target version.Version, s Strategy) (string, error)

	// Pin returns a requirement admitting exactly target.
	Pin(target version.Version) string
}

// UpdateOptions tunes UpdateRequirements.
type UpdateOptions struct {
	// Applies selects the requirements to rewrite. Others pass through.
	Applies func(Requirement) bool
}

// UpdateRequirements rewrites reqs for target under strategy.
//
// BumpVersionsIfNecessary and WidenRanges keep requirements target already
// satisfies. Every rewritten requirement is satisfied by target: if the grammar's
// rendering is not, the requirement is pinned instead. Requirements the
// grammar cannot parse, and empty ones, are returned verbatim.
func UpdateRequirements(reqs []Requirement, target version.Version, s Strategy, g Grammar, opts UpdateOptions) []Requirement {
	out := make([]Requirement, len(reqs))
	for i, r := range reqs {
		out[i] = r.Clone()
		if s == LockfileOnly || target == nil || r.Requirement == "" {
			continue
		}
		if opts.Applies != nil && !opts.Applies(r) {
			continue
		}
		ok, err := g.SatisfiedBy(r.Requirement, target)
		if err != nil {
			continue
		}
		if ok && (s == BumpVersionsIfNecessary || s == WidenRanges) {
			continue
		}
		updated, err := g.RenderUpdated(r.Requirement, target, s)
		if err != nil {
			updated = g.Pin(target)
		}
		if sat, err := g.SatisfiedBy(updated, target); err != nil || !sat {
			updated = g.Pin(target)
		}
		out[i].Requirement = updated
	}
	return out
}

// RegistryOnly selects requirements without a non-registry source.
func RegistryOnly(r Requirement) bool {
	return r.Source == nil || r.Source.Kind == SourceRegistry
}
