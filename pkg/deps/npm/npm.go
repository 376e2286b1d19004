package npm

import (
	"context"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/npm"
	"github.com/matzehuels/updatecheck/pkg/policy"
	"github.com/matzehuels/updatecheck/pkg/version"
)

var Ecosystem = &deps.Ecosystem{
	Name:            "npm",
	DefaultRegistry: "registry.npmjs.org",
	RegistryAliases: map[string]string{"npm": "registry.npmjs.org", "npmjs": "registry.npmjs.org", "npm_and_yarn": "registry.npmjs.org"},
	ManifestFiles:   []string{"package.json"},
	ValidateName:    errors.ValidateNpmPackageName,
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{PackageJSON{}} },
}

// NewChecker returns a checker listing releases from the npm registry, or
// from opts.Registry when set.
func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	client := npm.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...).WithBaseURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "npm",
		Registry:  "registry.npmjs.org",
		Scheme:    version.Semver,
		Grammar:   Grammar{},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return client.FetchReleases(ctx, dep.Name, refresh)
		},
		Matcher:   matcher,
		Prefilter: dropDeprecated,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func dropDeprecated(_ context.Context, rs []policy.Release) ([]policy.Release, error) {
	out := rs[:0:0]
	for _, r := range rs {
		if !r.Deprecated {
			out = append(out, r)
		}
	}
	return out, nil
}

// Grammar implements deps.Grammar for node-semver ranges.
type Grammar struct{}

func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	c, err := constraint.Npm.Parse(req)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// RenderUpdated keeps each numeric alternative's operator and precision.
// WidenRanges appends an alternative unless an upper bound can be raised.
func (Grammar) RenderUpdated(req string, target version.Version, s deps.Strategy) (string, error) {
	c, err := constraint.Npm.Parse(req)
	if err != nil {
		return "", err
	}
	if s == deps.WidenRanges {
		return c.Widened(target).String(), nil
	}
	return c.Bumped(target).String(), nil
}

func (Grammar) Pin(target version.Version) string { return target.String() }

func matcher(spec string) (func(version.Version) bool, error) {
	c, err := constraint.Npm.Parse(spec)
	if err != nil {
		return nil, err
	}
	return c.Check, nil
}
