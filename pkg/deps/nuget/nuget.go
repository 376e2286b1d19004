package nuget

import (
	"context"
	"strconv"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/nuget"
	"github.com/matzehuels/updatecheck/pkg/version"
)

var Ecosystem = &deps.Ecosystem{
	Name:            "nuget",
	DefaultRegistry: "nuget.org",
	RegistryAliases: map[string]string{"nuget": "nuget.org", "dotnet": "nuget.org"},
	ManifestFiles:   []string{"*.csproj", "*.fsproj", "*.vbproj", "Directory.Packages.props"},
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{Project{}} },
}

// NewChecker returns a checker for a NuGet v3 feed. opts.Registry, when
// set, is the feed's service index URL.
func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	client := nuget.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...).WithIndexURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "nuget",
		Registry:  "nuget.org",
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

// Grammar implements deps.Grammar for NuGet version specs.
type Grammar struct{}

func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	match, err := compile(req)
	if err != nil {
		return false, err
	}
	return match(v), nil
}

// RenderUpdated moves a spec to target while keeping its kind:
//
//	"1.2.3"     -> "2.0.1"       (minimum)
//	"[1.2.3]"   -> "[2.0.1]"     (exact)
//	"1.*"       -> "2.*"         (floating, same precision)
//	"1.0.0-*"   -> "2.0.1-*"
//
// An interval that still contains target is kept. Otherwise its upper
// bound is dropped and target becomes the lower bound, except under
// WidenRanges, which keeps the lower bound:
//
//	"[1.0,2.0)" -> "[2.0.1, )"   (bump)
//	"[1.0,2.0)" -> "[1.0, )"     (widen)
//	"[1.2.3]"   -> "[1.2.3,2.0.1]" (widen)
func (g Grammar) RenderUpdated(req string, target version.Version, strategy deps.Strategy) (string, error) {
	s := strings.TrimSpace(req)
	switch {
	case strings.Contains(s, "*"):
		return floated(s, target), nil
	case constraint.IsInterval(s):
		ivs, err := constraint.ParseIntervals(s, false)
		if err != nil {
			return "", err
		}
		if ok, err := constraint.ContainsAny(ivs, Scheme, target); err == nil && ok {
			return s, nil
		}
		iv := ivs[0]
		if strategy == deps.WidenRanges && widenable(iv, target) {
			if iv.Exact {
				return "[" + iv.Lower + "," + target.String() + "]", nil
			}
			open := "("
			if iv.LowerInclusive {
				open = "["
			}
			return open + iv.Lower + ", )", nil
		}
		if iv.Exact {
			return "[" + target.String() + "]", nil
		}
		return "[" + target.String() + ", )", nil
	}
	if _, err := Scheme.Parse(s); err != nil {
		return "", err
	}
	return target.String(), nil
}

func (Grammar) Pin(target version.Version) string { return target.String() }

// widenable reports whether iv's lower bound lies below target, so that
// only the upper side has to move.
func widenable(iv constraint.Interval, target version.Version) bool {
	if iv.Lower == "" {
		return true
	}
	lo, err := Scheme.Parse(iv.Lower)
	return err == nil && lo.Compare(target) < 0
}

// floated rewrites a floating spec for target at the same precision.
func floated(spec string, target version.Version) string {
	if spec == "*" || spec == "*-*" {
		return spec
	}
	if strings.HasSuffix(spec, "-*") {
		return version.Join(version.SegmentsOf(target)) + "-*"
	}
	fixed := strings.Count(spec, ".")
	segs := version.SegmentsOf(target)
	parts := make([]string, 0, fixed+1)
	for i := range fixed {
		n := 0
		if i < len(segs) {
			n = segs[i]
		}
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(append(parts, "*"), ".")
}

// compile reads a NuGet version spec: a minimum version, an interval or a
// floating version.
func compile(spec string) (func(version.Version) bool, error) {
	s := strings.TrimSpace(spec)
	switch {
	case strings.Contains(s, "*"):
		return floating(s), nil
	case constraint.IsInterval(s):
		ivs, err := constraint.ParseIntervals(s, false)
		if err != nil {
			return nil, err
		}
		return func(v version.Version) bool {
			ok, err := constraint.ContainsAny(ivs, Scheme, v)
			return err == nil && ok
		}, nil
	}
	lo, err := Scheme.Parse(s)
	if err != nil {
		return nil, err
	}
	return func(v version.Version) bool { return v.Compare(lo) >= 0 }, nil
}

// floating matches "1.*", "1.2.*", "*" and pre-release floats such as
// "1.0.0-*" or "1.0.0-beta.*".
func floating(spec string) func(version.Version) bool {
	release, pre, hasPre := strings.Cut(spec, "-")
	if hasPre {
		prefix := strings.TrimSuffix(pre, "*")
		core := version.LeadingInts(release)
		return func(v version.Version) bool {
			_, vp, _ := strings.Cut(version.Release(v), "-")
			if release != "*" && version.CompareSegments(version.SegmentsOf(v), core) != 0 {
				return false
			}
			return strings.HasPrefix(strings.ToLower(vp), strings.ToLower(prefix))
		}
	}
	fixed := version.LeadingInts(strings.TrimSuffix(release, "*"))
	return func(v version.Version) bool {
		if v.Prerelease() {
			return false
		}
		segs := version.SegmentsOf(v)
		for i, n := range fixed {
			if i >= len(segs) || segs[i] != n {
				return false
			}
		}
		return true
	}
}
