package bundler

import (
	"context"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/rubygems"
	"github.com/matzehuels/updatecheck/pkg/version"
)

var Ecosystem = &deps.Ecosystem{
	Name:            "bundler",
	DefaultRegistry: "rubygems",
	RegistryAliases: map[string]string{"gems": "rubygems", "rubygems.org": "rubygems", "ruby": "rubygems"},
	ManifestFiles:   []string{"Gemfile", "gems.rb", "*.gemspec"},
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{Gemfile{}, Gemspec{}} },
}

// Dialect is the RubyGems requirement grammar over [Scheme].
var Dialect = constraint.Ruby(Scheme)

// NewChecker returns a checker listing releases from RubyGems.org, or from
// opts.Registry when set.
func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	client := rubygems.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...).WithBaseURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "bundler",
		Registry:  "rubygems",
		Scheme:    Scheme,
		Grammar:   Grammar{},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return client.FetchReleases(ctx, dep.Name, refresh)
		},
		Matcher: matcher,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Grammar implements deps.Grammar for gem requirements.
type Grammar struct{}

func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	c, err := Dialect.Parse(req)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

// RenderUpdated keeps "~>" at its written precision. WidenRanges rewrites
// a pessimistic requirement as explicit bounds when the target leaves it.
func (Grammar) RenderUpdated(req string, target version.Version, s deps.Strategy) (string, error) {
	c, err := Dialect.Parse(req)
	if err != nil {
		return "", err
	}
	if s == deps.WidenRanges {
		return c.Widened(target).String(), nil
	}
	return c.Bumped(target).String(), nil
}

func (Grammar) Pin(target version.Version) string { return "= " + target.String() }

func matcher(spec string) (func(version.Version) bool, error) {
	c, err := Dialect.Parse(spec)
	if err != nil {
		return nil, err
	}
	return c.Check, nil
}
