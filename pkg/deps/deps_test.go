package deps

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/updatecheck/pkg/constraint"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/policy"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// rangeGrammar reads generic comparator lists and renders exact pins.
type rangeGrammar struct{}

func (rangeGrammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	c, err := constraint.Generic(version.Semver).Parse(req)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}

func (rangeGrammar) RenderUpdated(req string, target version.Version, s Strategy) (string, error) {
	if s == WidenRanges {
		return req + " || " + target.String(), nil
	}
	return target.String(), nil
}

func (rangeGrammar) Pin(target version.Version) string { return target.String() }

// badGrammar renders requirements the target does not satisfy.
type badGrammar struct{ rangeGrammar }

func (badGrammar) RenderUpdated(string, version.Version, Strategy) (string, error) {
	return "0.0.1", nil
}

func sv(s string) version.Version { return version.MustParse(version.Semver, s) }

func fetchOf(vs ...string) FetchFunc {
	return func(context.Context, bool) ([]integrations.Release, error) {
		out := make([]integrations.Release, len(vs))
		for i, v := range vs {
			out[i] = integrations.Release{Version: v}
		}
		return out, nil
	}
}

func newTestBase(t *testing.T, dep Dependency, opts Options, fetch FetchFunc) *Base {
	t.Helper()
	b, err := NewBase(dep, opts, Spec{
		Ecosystem: "test",
		Registry:  "test",
		Scheme:    version.Semver,
		Grammar:   rangeGrammar{},
		Fetch:     fetch,
	})
	if err != nil {
		t.Fatalf("NewBase: %v", err)
	}
	return b
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"", BumpVersionsIfNecessary},
		{"bump_versions", BumpVersions},
		{"widen-ranges", WidenRanges},
		{"LOCKFILE_ONLY", LockfileOnly},
		{"bump_versions_if_necessary", BumpVersionsIfNecessary},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if err != nil {
			t.Fatalf("ParseStrategy(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.in != "" && got.String() == "" {
			t.Errorf("empty String for %v", got)
		}
	}

	_, err := ParseStrategy("yolo")
	if !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Errorf("ParseStrategy(yolo) err = %v", err)
	}
}

func TestUpdateRequirements(t *testing.T) {
	reqs := []Requirement{
		{File: "a", Requirement: ">= 1.0.0, < 2.0.0"},
		{File: "b", Requirement: "1.0.0"},
		{File: "c", Requirement: "not a requirement"},
		{File: "d", Requirement: ""},
		{File: "e", Requirement: "1.0.0", Source: &Source{Kind: SourceGit, Ref: "main"}},
	}
	target := sv("1.5.0")

	tests := []struct {
		name     string
		strategy Strategy
		grammar  Grammar
		want     []string
	}{
		{"lockfile only", LockfileOnly, rangeGrammar{}, []string{">= 1.0.0, < 2.0.0", "1.0.0", "not a requirement", "", "1.0.0"}},
		{"if necessary", BumpVersionsIfNecessary, rangeGrammar{}, []string{">= 1.0.0, < 2.0.0", "1.5.0", "not a requirement", "", "1.0.0"}},
		{"bump", BumpVersions, rangeGrammar{}, []string{"1.5.0", "1.5.0", "not a requirement", "", "1.0.0"}},
		{"widen", WidenRanges, rangeGrammar{}, []string{">= 1.0.0, < 2.0.0", "1.0.0 || 1.5.0", "not a requirement", "", "1.0.0"}},
		{"pin fallback", BumpVersions, badGrammar{}, []string{"1.5.0", "1.5.0", "not a requirement", "", "1.0.0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpdateRequirements(reqs, target, tt.strategy, tt.grammar, UpdateOptions{Applies: RegistryOnly})
			for i, r := range got {
				if r.Requirement != tt.want[i] {
					t.Errorf("req %s = %q, want %q", r.File, r.Requirement, tt.want[i])
				}
				if r.File != reqs[i].File {
					t.Errorf("file changed: %q", r.File)
				}
			}
			for _, r := range got {
				if tt.strategy == LockfileOnly || r.Requirement == "" || r.File == "c" || r.File == "e" {
					continue
				}
				if ok, _ := tt.grammar.SatisfiedBy(r.Requirement, target); !ok {
					t.Errorf("%q not satisfied by target", r.Requirement)
				}
			}
		})
	}
	if reqs[1].Requirement != "1.0.0" {
		t.Error("input requirements were modified")
	}
}

func TestBaseResolution(t *testing.T) {
	dep := Dependency{
		Name:         "widget",
		Version:      "1.2.0",
		Requirements: []Requirement{{File: "manifest", Requirement: ">= 1.2.0, < 2.0.0"}},
	}
	b := newTestBase(t, dep, Options{}, fetchOf("1.1.0", "1.2.0", "1.2.1", "1.3.0", "2.0.0"))
	ctx := context.Background()

	latest, err := b.LatestVersion(ctx)
	if err != nil || latest.String() != "2.0.0" {
		t.Fatalf("LatestVersion = %v, %v", latest, err)
	}
	resolvable, err := b.LatestResolvableVersion(ctx)
	if err != nil || resolvable.String() != "1.3.0" {
		t.Fatalf("LatestResolvableVersion = %v, %v", resolvable, err)
	}
	can, err := b.CanUpdate(ctx)
	if err != nil || !can {
		t.Fatalf("CanUpdate = %v, %v", can, err)
	}
	up, err := b.UpToDate(ctx)
	if err != nil || up {
		t.Fatalf("UpToDate = %v, %v", up, err)
	}

	upd, err := Check(ctx, b, dep)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if upd.Version != "2.0.0" || !upd.CanUpdate {
		t.Errorf("update = %+v", upd)
	}
	if len(upd.Replacements) != 1 || upd.Replacements[0].New != "2.0.0" {
		t.Errorf("replacements = %+v", upd.Replacements)
	}
}

func TestBaseIgnoreAll(t *testing.T) {
	dep := Dependency{Name: "widget", Version: "1.0.0"}
	opts := Options{PolicyOptions: []policy.Option{policy.WithIgnored(">= 0")}}
	b := newTestBase(t, dep, opts, fetchOf("1.0.0", "2.0.0"))

	can, err := b.CanUpdate(context.Background())
	if err != nil || can {
		t.Errorf("CanUpdate = %v, %v", can, err)
	}
	latest, err := b.LatestVersion(context.Background())
	if err != nil || latest.String() != "1.0.0" {
		t.Errorf("LatestVersion = %v, %v", latest, err)
	}
}

func TestBaseRaiseOnIgnored(t *testing.T) {
	dep := Dependency{Name: "widget", Version: "1.0.0"}
	opts := Options{PolicyOptions: []policy.Option{
		policy.WithIgnored(">= 2"),
		policy.WithRaiseOnIgnored(true),
	}}
	b := newTestBase(t, dep, opts, fetchOf("1.0.0", "2.0.0"))
	_, err := b.LatestVersion(context.Background())
	if !errors.Is(err, errors.ErrCodeAllVersionsIgnored) {
		t.Errorf("err = %v, want ALL_VERSIONS_IGNORED", err)
	}
}

func TestBaseSecurityFix(t *testing.T) {
	dep := Dependency{
		Name:         "widget",
		Version:      "1.0.0",
		Requirements: []Requirement{{File: "manifest", Requirement: "1.0.0"}},
	}
	opts := Options{PolicyOptions: []policy.Option{
		policy.WithSecurityOnly(true),
		policy.WithAdvisory([]string{"< 1.0.2"}, nil),
	}}
	b := newTestBase(t, dep, opts, fetchOf("1.0.0", "1.0.1", "1.0.2", "1.1.0"))
	ctx := context.Background()

	if !b.Vulnerable() {
		t.Error("current version should be vulnerable")
	}
	fix, err := b.LowestSecurityFixVersion(ctx)
	if err != nil || fix.String() != "1.0.2" {
		t.Fatalf("LowestSecurityFixVersion = %v, %v", fix, err)
	}
	reqs, err := b.UpdatedRequirements(ctx)
	if err != nil || reqs[0].Requirement != "1.0.2" {
		t.Fatalf("UpdatedRequirements = %+v, %v", reqs, err)
	}
}

func TestBaseRequirementsOnly(t *testing.T) {
	dep := Dependency{
		Name:         "widget",
		Requirements: []Requirement{{File: "manifest", Requirement: ">= 1.0.0, < 2.0.0"}},
	}
	b := newTestBase(t, dep, Options{}, fetchOf("1.0.0", "1.5.0"))
	can, err := b.CanUpdate(context.Background())
	if err != nil || can {
		t.Errorf("CanUpdate = %v, %v; satisfied requirement should stay", can, err)
	}

	b = newTestBase(t, dep, Options{}, fetchOf("1.0.0", "2.1.0"))
	can, err = b.CanUpdate(context.Background())
	if err != nil || !can {
		t.Errorf("CanUpdate = %v, %v", can, err)
	}
}

func TestBaseFetchOnce(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
		calls++
		return fetchOf("1.0.0", "1.1.0")(ctx, refresh)
	}
	b := newTestBase(t, Dependency{Name: "widget", Version: "1.0.0"}, Options{}, fetch)
	if _, err := Check(context.Background(), b, b.Dependency); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times", calls)
	}
}

func TestBatchIsolation(t *testing.T) {
	eco := &Ecosystem{
		Name: "test",
		NewChecker: func(dep Dependency, opts Options) (Checker, error) {
			if dep.Name == "broken" {
				return nil, errors.RegistryUnavailable("https://user:pw@registry.example.com/broken", fmt.Errorf("boom"))
			}
			return NewBase(dep, opts, Spec{
				Ecosystem: "test",
				Scheme:    version.Semver,
				Grammar:   rangeGrammar{},
				Fetch:     fetchOf("1.0.0", "1.1.0"),
			})
		},
	}
	var seen atomic.Int32
	out := Batch(context.Background(), eco, []Dependency{
		{Name: "ok", Version: "1.0.0"},
		{Name: "broken", Version: "1.0.0"},
		{Name: "also-ok", Version: "1.1.0"},
	}, Options{OnOutcome: func(Outcome) { seen.Add(1) }})

	if len(out) != 3 {
		t.Fatalf("got %d outcomes", len(out))
	}
	if n := seen.Load(); n != 3 {
		t.Errorf("OnOutcome called %d times", n)
	}
	if out[0].Update == nil || !out[0].Update.CanUpdate {
		t.Errorf("ok: %+v", out[0])
	}
	if out[1].Diagnostic == nil || out[1].Diagnostic.Code != errors.ErrCodeRegistryUnavailable {
		t.Errorf("broken: %+v", out[1])
	}
	if out[1].Diagnostic != nil && out[1].Diagnostic.Host != "registry.example.com" {
		t.Errorf("host = %q", out[1].Diagnostic.Host)
	}
	if out[2].Update == nil || !out[2].Update.UpToDate {
		t.Errorf("also-ok: %+v", out[2])
	}
}

func TestNextKnowledge(t *testing.T) {
	known := []string{"ext-json"}
	next, retry := NextKnowledge(known, &NeedMoreContextError{Items: []string{"ext-intl", "ext-json"}})
	if !retry || len(next) != 2 || next[0] != "ext-intl" {
		t.Errorf("NextKnowledge = %v, %v", next, retry)
	}
	if len(known) != 1 {
		t.Error("input was modified")
	}
	if _, retry := NextKnowledge(next, &NeedMoreContextError{Items: []string{"ext-intl"}}); retry {
		t.Error("no new knowledge should not retry")
	}
}

func TestDiscover(t *testing.T) {
	got, err := Discover(context.Background(), 5, func(known []string) (string, error) {
		if len(known) < 2 {
			return "", &NeedMoreContextError{Items: []string{fmt.Sprintf("ext-%d", len(known))}}
		}
		return "resolved", nil
	})
	if err != nil || got != "resolved" {
		t.Errorf("Discover = %q, %v", got, err)
	}

	attempts := 0
	_, err = Discover(context.Background(), 3, func(known []string) (int, error) {
		attempts++
		return 0, &NeedMoreContextError{Items: []string{fmt.Sprintf("ext-%d", attempts)}}
	})
	if !errors.Is(err, errors.ErrCodeMissingExtensions) || attempts != 3 {
		t.Errorf("err = %v after %d attempts", err, attempts)
	}
}

func TestHelpers(t *testing.T) {
	if !IsSHA("0123456789abcdef0123456789abcdef01234567") || IsSHA("1.2.3") {
		t.Error("IsSHA")
	}
	if !NamesPrerelease(">= 1.0.0-rc.1, < 2", version.Semver) || NamesPrerelease("^1.0.0", version.Semver) {
		t.Error("NamesPrerelease")
	}
	merged := Merge([]Dependency{
		{Name: "a", Requirements: []Requirement{{File: "x"}}},
		{Name: "b"},
		{Name: "a", Version: "1.0.0", Requirements: []Requirement{{File: "y"}}},
	})
	if len(merged) != 2 || merged[0].Version != "1.0.0" || len(merged[0].Requirements) != 2 {
		t.Errorf("Merge = %+v", merged)
	}
}

func TestEcosystemRegistry(t *testing.T) {
	eco := &Ecosystem{Name: "rust", DefaultRegistry: "crates", RegistryAliases: map[string]string{"crates.io": "crates"}, ManifestFiles: []string{"Cargo.toml", "*.csproj"}}
	if r, err := eco.Registry("crates.io"); err != nil || r != "crates" {
		t.Errorf("Registry(crates.io) = %q, %v", r, err)
	}
	if _, err := eco.Registry("npm"); err == nil {
		t.Error("expected error for unknown registry")
	}
	if !eco.HasManifest("/src/cargo.toml") || !eco.HasManifest("App.csproj") || eco.HasManifest("go.mod") {
		t.Error("HasManifest")
	}
}
