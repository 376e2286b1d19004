package cargo

import (
	"context"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/crates"
	"github.com/matzehuels/updatecheck/pkg/version"
)

var Ecosystem = &deps.Ecosystem{
	Name:            "cargo",
	DefaultRegistry: "crates.io",
	RegistryAliases: map[string]string{"crates": "crates.io", "rust": "crates.io"},
	ManifestFiles:   []string{"Cargo.toml"},
	ValidateName:    errors.ValidateCratesPackageName,
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{CargoToml{}} },
}

// NewChecker returns a checker listing releases from crates.io, or from
// opts.Registry when set.
func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	client := crates.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...).WithBaseURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "cargo",
		Registry:  "crates.io",
		Scheme:    version.Semver,
		Grammar:   Grammar{},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return client.FetchReleases(ctx, dep.Name, refresh)
		},
		Matcher:          matcher,
		ResolvableTarget: true,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Grammar implements deps.Grammar for Cargo requirements.
type Grammar struct{}

func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	c, err := constraint.Cargo.Parse(req)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// RenderUpdated keeps the operator and precision of req. WidenRanges turns
// range operators into explicit bounds when the target leaves them.
func (Grammar) RenderUpdated(req string, target version.Version, s deps.Strategy) (string, error) {
	c, err := constraint.Cargo.Parse(req)
	if err != nil {
		return "", err
	}
	if s == deps.WidenRanges {
		return c.Widened(target).String(), nil
	}
	return c.Bumped(target).String(), nil
}

func (Grammar) Pin(target version.Version) string { return "=" + target.String() }

// matcher reads ignore conditions written as Cargo requirements.
func matcher(spec string) (func(version.Version) bool, error) {
	c, err := constraint.Cargo.Parse(spec)
	if err != nil {
		return nil, err
	}
	return c.Check, nil
}
