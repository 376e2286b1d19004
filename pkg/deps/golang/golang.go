package golang

import (
	"context"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/goproxy"
	"github.com/matzehuels/updatecheck/pkg/policy"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Ecosystem checks Go modules against the module proxy.
var Ecosystem = &deps.Ecosystem{
	Name:            "go_modules",
	DefaultRegistry: "goproxy",
	RegistryAliases: map[string]string{"proxy": "goproxy", "go": "goproxy", "proxy.golang.org": "goproxy"},
	ManifestFiles:   []string{"go.mod"},
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{GoMod{}} },
	ValidateName:    errors.ValidateGoModulePath,
}

func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	client := goproxy.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...).WithBaseURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "go_modules",
		Registry:  "goproxy",
		Scheme:    Scheme,
		Grammar:   Grammar{},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return client.FetchReleases(ctx, dep.Name, refresh)
		},
		Prefilter: DropPseudo,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DropPseudo removes pseudo-versions unless nothing else is published.
func DropPseudo(_ context.Context, rs []policy.Release) ([]policy.Release, error) {
	var tagged []policy.Release
	for _, r := range rs {
		if r.Version != nil && !IsPseudo(r.Version) {
			tagged = append(tagged, r)
		}
	}
	if len(tagged) == 0 {
		return rs, nil
	}
	return tagged, nil
}

// Grammar implements deps.Grammar for go.mod requirements, which are
// always exact versions.
type Grammar struct{}

func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	r, err := Scheme.Parse(req)
	if err != nil {
		return false, err
	}
	return r.Compare(v) == 0, nil
}

func (Grammar) RenderUpdated(_ string, target version.Version, _ deps.Strategy) (string, error) {
	return target.String(), nil
}

func (Grammar) Pin(target version.Version) string { return target.String() }
