package nuget

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/config"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/version"
)

func TestVersionCompare(t *testing.T) {
	ordered := []string{"1.0.0-alpha", "1.0.0-Beta.2", "1.0.0-beta.11", "1.0.0", "1.0.0.1", "1.0.1", "1.10", "2.0.0-rc.1"}
	for i := 1; i < len(ordered); i++ {
		a, b := version.MustParse(Scheme, ordered[i-1]), version.MustParse(Scheme, ordered[i])
		if a.Compare(b) >= 0 {
			t.Errorf("%s should sort before %s", ordered[i-1], ordered[i])
		}
	}
	if version.MustParse(Scheme, "1.0").Compare(version.MustParse(Scheme, "1.0.0.0")) != 0 {
		t.Error("1.0 != 1.0.0.0")
	}
	if version.MustParse(Scheme, "1.0.0-RC1").Compare(version.MustParse(Scheme, "1.0.0-rc1")) != 0 {
		t.Error("pre-release labels should compare case-insensitively")
	}
	for _, bad := range []string{"", "[1.0]", "1.*", "(1.0,)"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("ParseVersion(%q) should fail", bad)
		}
	}
}

func TestGrammarSatisfiedBy(t *testing.T) {
	tests := []struct {
		req, v string
		want   bool
	}{
		{"1.2.3", "1.2.3", true},
		{"1.2.3", "2.0.0", true},
		{"1.2.3", "1.2.2", false},
		{"[1.2.3]", "1.2.4", false},
		{"[1.0,2.0)", "1.9.9", true},
		{"[1.0,2.0)", "2.0.0", false},
		{"(,1.5]", "1.5.0", true},
		{"1.*", "1.8.0", true},
		{"1.*", "2.0.0", false},
		{"1.*", "1.9.0-beta", false},
		{"1.2.*", "1.3.0", false},
		{"*", "7.0.0", true},
		{"1.0.0-*", "1.0.0-beta.3", true},
		{"1.0.0-*", "1.0.0", true},
		{"1.0.0-beta.*", "1.0.0-alpha.1", false},
	}
	g := Grammar{}
	for _, tt := range tests {
		t.Run(tt.req+"/"+tt.v, func(t *testing.T) {
			got, err := g.SatisfiedBy(tt.req, version.MustParse(Scheme, tt.v))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("SatisfiedBy(%q, %q) = %v, want %v", tt.req, tt.v, got, tt.want)
			}
		})
	}
}

func TestGrammarRenderUpdated(t *testing.T) {
	tests := []struct{ req, target, want string }{
		{"1.2.3", "2.0.1", "2.0.1"},
		{"[1.2.3]", "2.0.1", "[2.0.1]"},
		{"[1.0,3.0)", "2.0.1", "[1.0,3.0)"},
		{"[1.0,2.0)", "2.0.1", "[2.0.1, )"},
		{"1.*", "2.0.1", "2.*"},
		{"1.2.*", "2.0.1", "2.0.*"},
		{"*", "2.0.1", "*"},
		{"1.0.0-*", "2.0.1", "2.0.1-*"},
	}
	g := Grammar{}
	for _, tt := range tests {
		got, err := g.RenderUpdated(tt.req, version.MustParse(Scheme, tt.target), deps.BumpVersions)
		if err != nil {
			t.Fatalf("RenderUpdated(%q): %v", tt.req, err)
		}
		if got != tt.want {
			t.Errorf("RenderUpdated(%q, %s) = %q, want %q", tt.req, tt.target, got, tt.want)
		}
	}
	if _, err := g.RenderUpdated("[1.0", version.MustParse(Scheme, "1.0"), deps.BumpVersions); err == nil {
		t.Error("expected error for unterminated interval")
	}
}

func TestGrammarRenderUpdatedWidenRanges(t *testing.T) {
	tests := []struct{ req, target, want string }{
		{"[1.0,2.0)", "2.1.0", "[1.0, )"},
		{"(1.0,2.0]", "2.1.0", "(1.0, )"},
		{"(,2.0)", "2.1.0", "(, )"},
		{"[1.0,3.0)", "2.1.0", "[1.0,3.0)"},
		{"[1.2.3]", "2.1.0", "[1.2.3,2.1.0]"},
		{"[3.0,4.0)", "2.1.0", "[2.1.0, )"},
	}
	g := Grammar{}
	for _, tt := range tests {
		target := version.MustParse(Scheme, tt.target)
		got, err := g.RenderUpdated(tt.req, target, deps.WidenRanges)
		if err != nil {
			t.Fatalf("RenderUpdated(%q): %v", tt.req, err)
		}
		if got != tt.want {
			t.Errorf("RenderUpdated(%q, %s) = %q, want %q", tt.req, tt.target, got, tt.want)
		}
		if ok, err := g.SatisfiedBy(got, target); err != nil || !ok {
			t.Errorf("%q should admit %s", got, tt.target)
		}
	}

	reqs := deps.UpdateRequirements(
		[]deps.Requirement{{File: "app.csproj", Requirement: "[1.0,2.0)"}},
		version.MustParse(Scheme, "2.1.0"), deps.WidenRanges, g, deps.UpdateOptions{},
	)
	if ok, _ := g.SatisfiedBy(reqs[0].Requirement, version.MustParse(Scheme, "1.5.0")); !ok {
		t.Errorf("widened %q no longer admits 1.5.0", reqs[0].Requirement)
	}
}

func TestCheck(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/index.json":
			fmt.Fprintf(w, `{"version": "3.0.0", "resources": [{"@id": "%s/registration/", "@type": "RegistrationsBaseUrl/3.6.0"}]}`, srv.URL)
		case "/registration/newtonsoft.json/index.json":
			w.Write([]byte(`{"items": [{"items": [
				{"catalogEntry": {"version": "12.0.3", "published": "2019-11-09T01:27:30Z"}},
				{"catalogEntry": {"version": "13.0.1", "published": "2021-03-22T10:00:00Z"}},
				{"catalogEntry": {"version": "13.0.3", "published": "2023-03-08T07:42:54Z"}},
				{"catalogEntry": {"version": "13.0.4", "listed": false, "published": "2024-01-01T00:00:00Z"}},
				{"catalogEntry": {"version": "14.0.1-beta1", "published": "2024-02-01T00:00:00Z"}}
			]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dep := deps.Dependency{
		Name:         "Newtonsoft.Json",
		Version:      "12.0.3",
		Requirements: []deps.Requirement{{File: "App.csproj", Requirement: "[12.0.3]"}},
	}
	opts := deps.Options{
		Registry: srv.URL + "/v3/index.json",
		Strategy: deps.BumpVersionsIfNecessary,
		Config:   &config.Config{RetryAttempts: 1, RetryDelay: time.Millisecond},
	}
	c, err := Ecosystem.Checker(dep, opts)
	if err != nil {
		t.Fatal(err)
	}
	upd, err := deps.Check(context.Background(), c, dep)
	if err != nil {
		t.Fatal(err)
	}
	if upd.LatestVersion != "13.0.3" || !upd.CanUpdate {
		t.Fatalf("update = %+v", upd)
	}
	if got := upd.Requirements[0].Requirement; got != "[13.0.3]" {
		t.Errorf("requirement = %q, want [13.0.3]", got)
	}
}

func TestProjectSupports(t *testing.T) {
	for name, want := range map[string]bool{
		"App.csproj":               true,
		"Lib.FSPROJ":               true,
		"Legacy.vbproj":            true,
		"Directory.Packages.props": true,
		"Directory.Build.props":    false,
		"packages.config":          false,
	} {
		if got := (Project{}).Supports(name); got != want {
			t.Errorf("Supports(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestProjectExtract(t *testing.T) {
	content := `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <SerilogVersion>3.1.1</SerilogVersion>
  </PropertyGroup>
  <ItemGroup>
    <PackageReference Include="Newtonsoft.Json" Version="13.0.1" />
    <PackageReference Include="Serilog" Version="$(SerilogVersion)" />
    <PackageReference Include="xunit">
      <Version>[2.4,3.0)</Version>
    </PackageReference>
    <PackageReference Include="Polly" VersionOverride="8.2.0" />
    <PackageReference Include="Microsoft.NET.Test.Sdk" />
  </ItemGroup>
</Project>`

	got, err := Project{}.Extract("App.csproj", []byte(content))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d dependencies, want 4: %+v", len(got), got)
	}
	byName := map[string]deps.Dependency{}
	for _, d := range got {
		byName[d.Name] = d
	}
	if d := byName["Newtonsoft.Json"]; d.Version != "13.0.1" || d.Requirements[0].Groups[0] != GroupReference {
		t.Errorf("Newtonsoft.Json = %+v", d)
	}
	if d := byName["Serilog"]; d.Version != "3.1.1" || d.Requirements[0].Metadata[MetaProperty] != "SerilogVersion" {
		t.Errorf("Serilog = %+v", d)
	}
	if d := byName["xunit"]; d.Version != "" || d.Requirements[0].Requirement != "[2.4,3.0)" {
		t.Errorf("xunit = %+v", d)
	}
	if d := byName["Polly"]; d.Requirements[0].Requirement != "8.2.0" {
		t.Errorf("Polly = %+v", d)
	}

	if _, err := (Project{}).Extract("App.csproj", []byte("<Project>")); err == nil {
		t.Error("expected parse error")
	}
}

func TestProjectExtractCentralVersions(t *testing.T) {
	content := `<Project>
  <ItemGroup>
    <PackageVersion Include="Newtonsoft.Json" Version="13.0.3" />
    <GlobalPackageReference Include="Nerdbank.GitVersioning" Version="3.6.133" />
  </ItemGroup>
</Project>`
	got, err := Project{}.Extract("Directory.Packages.props", []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d dependencies, want 2", len(got))
	}
	groups := map[string]string{}
	for _, d := range got {
		groups[d.Name] = d.Requirements[0].Groups[0]
	}
	if groups["Newtonsoft.Json"] != GroupCentral || groups["Nerdbank.GitVersioning"] != GroupGlobal {
		t.Errorf("groups = %v", groups)
	}
}
