package maven

import (
	"context"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/maven"
	"github.com/matzehuels/updatecheck/pkg/version"
)

var Ecosystem = &deps.Ecosystem{
	Name:            "maven",
	DefaultRegistry: "maven",
	RegistryAliases: map[string]string{"maven-central": "maven", "mvn": "maven", "java": "maven"},
	ManifestFiles:   []string{"pom.xml"},
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{POM{}} },
	ValidateName: func(name string) error {
		return errors.ValidateMavenCoordinate(NormalizeCoordinate(name))
	},
}

func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	dep.Name = NormalizeCoordinate(dep.Name)
	client := maven.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...).WithBaseURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "maven",
		Registry:  "maven",
		Scheme:    Scheme,
		Grammar:   Grammar{},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return client.FetchReleases(ctx, dep.Name, refresh)
		},
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NormalizeCoordinate converts filename-safe coordinates to Maven format.
// Colons are not allowed in some file names, so "groupId_artifactId" is
// read as "groupId:artifactId" when no colon is present.
//
//	"com.google.guava:guava" -> "com.google.guava:guava"
//	"com.google.guava_guava" -> "com.google.guava:guava"
func NormalizeCoordinate(coord string) string {
	if strings.Contains(coord, ":") {
		return coord
	}
	// groupIds use reverse domain notation, so the last underscore splits
	if idx := strings.LastIndex(coord, "_"); idx != -1 {
		return coord[:idx] + ":" + coord[idx+1:]
	}
	return coord
}

// Grammar implements deps.Grammar for Maven versions. A plain version is
// a soft requirement matched exactly; an interval matches its range.
type Grammar struct{}

func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	if constraint.IsInterval(req) {
		ivs, err := constraint.ParseIntervals(req, true)
		if err != nil {
			return false, err
		}
		return constraint.ContainsAny(ivs, Scheme, v)
	}
	r, err := Scheme.Parse(req)
	if err != nil {
		return false, err
	}
	return r.Compare(v) == 0, nil
}

// RenderUpdated replaces a soft version with the target. Intervals that
// exclude the target become a pinned version.
func (g Grammar) RenderUpdated(req string, target version.Version, _ deps.Strategy) (string, error) {
	if constraint.IsInterval(req) {
		ok, err := g.SatisfiedBy(req, target)
		if err != nil {
			return "", err
		}
		if ok {
			return req, nil
		}
		return g.Pin(target), nil
	}
	if strings.Contains(req, "${") {
		return "", errors.New(errors.ErrCodeInvalidVersion, "unresolved property in %q", req)
	}
	return target.String(), nil
}

func (Grammar) Pin(target version.Version) string { return target.String() }
