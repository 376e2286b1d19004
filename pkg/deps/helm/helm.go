package helm

import (
	"context"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/deps/docker"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/helmrepo"
	"github.com/matzehuels/updatecheck/pkg/integrations/oci"
	"github.com/matzehuels/updatecheck/pkg/version"
)

var Ecosystem = &deps.Ecosystem{
	Name:            "helm",
	DefaultRegistry: "chart-repository",
	ManifestFiles:   []string{"Chart.yaml", "values.yaml", "values.yml"},
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{Chart{}, Values{}} },
}

// Dialect renders chart requirements. It mirrors the Masterminds syntax:
// bare versions are exact, "~" allows patch updates and "||" separates
// alternatives.
var Dialect = constraint.Dialect{
	Name:         "helm",
	Scheme:       version.Generic,
	Bare:         constraint.OpExact,
	Tilde:        constraint.OpTilde,
	Width:        3,
	PartialExact: true,
	Or:           true,
	Hyphen:       true,
}

// NewChecker returns a chart checker, or a docker checker for images
// declared in values files. opts.Registry overrides the chart repository.
func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	if isImage(dep) {
		return docker.NewChecker(dep, opts)
	}
	repo := opts.Registry
	if repo == "" {
		repo = repository(dep)
	}
	fetch, err := fetcher(dep.Name, repo, opts)
	if err != nil {
		return nil, err
	}
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "helm",
		Registry:  repo,
		Scheme:    version.Generic,
		Grammar:   Grammar{},
		Fetch:     fetch,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func isImage(dep deps.Dependency) bool {
	for _, r := range dep.Requirements {
		if r.Source == nil || r.Source.Kind != deps.SourceDocker {
			return false
		}
	}
	return len(dep.Requirements) > 0
}

func repository(dep deps.Dependency) string {
	for _, r := range dep.Requirements {
		if r.Source != nil && r.Source.URL != "" {
			return r.Source.URL
		}
	}
	return ""
}

// fetcher lists chart versions from a classic repository or from the tags
// of an OCI repository.
func fetcher(chart, repo string, opts deps.Options) (deps.FetchFunc, error) {
	if repo == "" {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "chart %s has no repository", chart)
	}
	if rest, ok := strings.CutPrefix(repo, "oci://"); ok {
		ref := ociReference(rest, chart)
		client := oci.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...)
		return func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			tags, err := client.FetchTags(ctx, ref, refresh)
			for i := range tags {
				// OCI tags cannot hold "+", Helm pushes build metadata with "_".
				tags[i].Version = strings.ReplaceAll(tags[i].Version, "_", "+")
			}
			return tags, err
		}, nil
	}
	if u, err := url.Parse(repo); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.New(errors.ErrCodeUnsupported, "chart %s: unsupported repository %q", chart, repo)
	}
	client := helmrepo.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...)
	return func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
		return client.FetchReleases(ctx, repo, chart, refresh)
	}, nil
}

// ociReference locates chart under an oci:// repository path. Hosts
// given with an http:// or https:// scheme keep it.
func ociReference(repo, chart string) oci.Reference {
	repo = strings.TrimSuffix(repo, "/")
	scheme := ""
	for _, s := range []string{"http://", "https://"} {
		if rest, ok := strings.CutPrefix(repo, s); ok {
			scheme, repo = s, rest
		}
	}
	host, path, _ := strings.Cut(repo, "/")
	if path != "" {
		path += "/"
	}
	return oci.Reference{Registry: scheme + host, Repository: path + chart}
}

// Grammar implements deps.Grammar for chart version requirements.
type Grammar struct{}

// SatisfiedBy evaluates req the way Helm does, with Masterminds semver.
// Versions outside SemVer satisfy nothing.
func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	c, err := semver.NewConstraint(req)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeInvalidRequirement, err, "invalid helm requirement %q", req)
	}
	sv, err := semver.NewVersion(v.String())
	if err != nil {
		return false, nil
	}
	return c.Check(sv), nil
}

// RenderUpdated keeps the operator of req. WidenRanges extends ranges to
// admit the target instead of moving them.
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

func (Grammar) Pin(target version.Version) string { return target.String() }
