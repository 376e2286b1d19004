package composer

import (
	"context"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/packagist"
	"github.com/matzehuels/updatecheck/pkg/version"
)

var Ecosystem = &deps.Ecosystem{
	Name:            "composer",
	DefaultRegistry: "packagist",
	RegistryAliases: map[string]string{"packagist.org": "packagist", "php": "packagist"},
	ManifestFiles:   []string{"composer.json", "composer.lock"},
	ValidateName:    errors.ValidateComposerPackageName,
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{ComposerJSON{}, ComposerLock{}} },
}

// Dialect is the Composer constraint grammar over [Scheme].
var Dialect = constraint.Composer(Scheme)

// NewChecker returns a checker listing releases from Packagist, or from
// opts.Registry when set. Releases the project platform cannot install are
// filtered out before the policy runs.
func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	opts = opts.WithDefaults()
	client := packagist.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...).WithBaseURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "composer",
		Registry:  "packagist",
		Scheme:    Scheme,
		Grammar:   Grammar{},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return client.FetchReleases(ctx, dep.Name, refresh)
		},
		Matcher: matcher,
		Applies: func(r deps.Requirement) bool {
			return deps.RegistryOnly(r) && !branchOnly(r.Requirement)
		},
	})
	if err != nil {
		return nil, err
	}
	pf := &platformFilter{
		client:   client,
		name:     dep.Name,
		platform: PlatformOf(dep),
		attempts: opts.Config.DiscoveryAttempts,
		refresh:  opts.Refresh,
		logger:   b.Logger,
	}
	b.Prefilter = pf.filter
	return b, nil
}

// Grammar implements deps.Grammar for Composer constraints. An inline
// alias ("1.2.x-dev as 1.2.0") is carried along; only the constraint
// before "as" is matched and rewritten.
type Grammar struct{}

func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	c, err := Dialect.Parse(splitAlias(req))
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// RenderUpdated bumps each numeric alternative. WidenRanges appends a new
// alternative unless an upper bound can be raised, so "~1.4.0" becomes
// "~1.4.0 || ~1.5.0".
func (Grammar) RenderUpdated(req string, target version.Version, s deps.Strategy) (string, error) {
	c, err := Dialect.Parse(splitAlias(req))
	if err != nil {
		return "", err
	}
	var out *constraint.Constraint
	if s == deps.WidenRanges {
		out = c.Widened(target)
	} else {
		out = c.Bumped(target)
	}
	return withAlias(req, out.String()), nil
}

func (Grammar) Pin(target version.Version) string { return target.String() }

// splitAlias returns the constraint part of "constraint as alias".
func splitAlias(req string) string {
	if i := strings.Index(req, " as "); i >= 0 {
		return strings.TrimSpace(req[:i])
	}
	return req
}

// withAlias re-attaches the alias of old to rendered.
func withAlias(old, rendered string) string {
	if i := strings.Index(old, " as "); i >= 0 {
		return rendered + old[i:]
	}
	return rendered
}

// branchOnly reports whether req names only dev branches.
func branchOnly(req string) bool {
	c, err := Dialect.Parse(splitAlias(req))
	if err != nil {
		return false
	}
	for _, a := range c.Alternatives {
		if !a.IsBranch() {
			return false
		}
	}
	return len(c.Alternatives) > 0
}

func matcher(spec string) (func(version.Version) bool, error) {
	c, err := Dialect.Parse(spec)
	if err != nil {
		return nil, err
	}
	return c.Check, nil
}
