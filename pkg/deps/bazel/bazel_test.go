package bazel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/config"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/version"
)

func testOptions(url string) deps.Options {
	return deps.Options{
		Registry: url,
		Strategy: deps.BumpVersionsIfNecessary,
		Config:   &config.Config{RetryAttempts: 1, RetryDelay: time.Millisecond},
	}
}

func TestVersionCompare(t *testing.T) {
	ordered := []string{"0.9", "1.0-rc1", "1.0-rc2", "1.0", "1.0.bcr.1", "1.1", "1.10", "1.a", "20230125.0", ""}
	for i := 1; i < len(ordered); i++ {
		a, b := version.MustParse(Scheme, ordered[i-1]), version.MustParse(Scheme, ordered[i])
		if a.Compare(b) >= 0 {
			t.Errorf("%q should sort before %q", ordered[i-1], ordered[i])
		}
	}
	if version.MustParse(Scheme, "1.0+build.5").Compare(version.MustParse(Scheme, "1.0")) != 0 {
		t.Error("build metadata should be ignored")
	}
	for _, bad := range []string{"1..0", "1.0-", "v 1", ".1"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("ParseVersion(%q) should fail", bad)
		}
	}
}

func TestGrammar(t *testing.T) {
	g := Grammar{Scheme: Scheme}
	if ok, _ := g.SatisfiedBy("0.40.0", version.MustParse(Scheme, "0.40.0")); !ok {
		t.Error("exact pin should match")
	}
	if ok, _ := g.SatisfiedBy("0.40.0", version.MustParse(Scheme, "0.41.0")); ok {
		t.Error("exact pin should not match another version")
	}
	if got := g.Pin(version.MustParse(Scheme, "0.41.0")); got != "0.41.0" {
		t.Errorf("Pin = %q", got)
	}
}

func TestCheckModule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/modules/rules_go/metadata.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"versions": ["0.39.0", "0.40.0", "0.41.0", "0.42.0"], "yanked_versions": {"0.42.0": "broken"}}`))
	}))
	defer srv.Close()

	dep := deps.Dependency{
		Name:    "rules_go",
		Version: "0.40.0",
		Requirements: []deps.Requirement{
			{File: "MODULE.bazel", Requirement: "0.40.0"},
			{File: "third_party/deps.bzl", Requirement: "0.40.0"},
			{File: "third_party/go.MODULE.bazel", Requirement: "0.40.0"},
		},
	}
	c, err := Ecosystem.Checker(dep, testOptions(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	upd, err := deps.Check(context.Background(), c, dep)
	if err != nil {
		t.Fatal(err)
	}
	if upd.LatestVersion != "0.41.0" || !upd.CanUpdate || upd.UpToDate {
		t.Fatalf("update = %+v", upd)
	}
	if upd.Requirements[0].Requirement != "0.41.0" {
		t.Errorf("MODULE.bazel requirement = %q, want 0.41.0", upd.Requirements[0].Requirement)
	}
	if upd.Requirements[1].Requirement != "0.40.0" {
		t.Errorf("requirement outside MODULE.bazel rewritten to %q", upd.Requirements[1].Requirement)
	}
	if upd.Requirements[2].Requirement != "0.41.0" {
		t.Errorf("included segment requirement = %q, want 0.41.0", upd.Requirements[2].Requirement)
	}
	if len(upd.Replacements) != 2 || upd.Replacements[0].File != "MODULE.bazel" || upd.Replacements[1].File != "third_party/go.MODULE.bazel" {
		t.Errorf("replacements = %+v", upd.Replacements)
	}
}

func TestIsModuleFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"MODULE.bazel", true},
		{"third_party/go.MODULE.bazel", true},
		{"deps/python.MODULE.bazel", true},
		{"WORKSPACE", false},
		{"MODULE.bazel.lock", false},
		{"third_party/deps.bzl", false},
	}
	for _, tt := range tests {
		if got := IsModuleFile(tt.path); got != tt.want {
			t.Errorf("IsModuleFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
		if got := (Module{}).Supports(filepath.Base(tt.path)); got != tt.want {
			t.Errorf("Supports(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if !Ecosystem.HasManifest("third_party/go.MODULE.bazel") {
		t.Error("segment files should be bazel manifests")
	}
}

const moduleFile = `module(name = "example", version = "1.0.0")

bazel_dep(name = "rules_go", version = "0.40.0")
bazel_dep(name = "gazelle", version = "0.31.0", repo_name = "bazel_gazelle")
bazel_dep(name = "rules_testing", version = "0.4.0", dev_dependency = True)
bazel_dep(name = "protobuf", version = "21.7")
bazel_dep(name = "local_lib", version = "")

single_version_override(module_name = "protobuf", version = "23.1")

local_path_override(
    module_name = "local_lib",
    path = "../local_lib",
)
`

func TestModuleExtract(t *testing.T) {
	got, err := Module{}.Extract("MODULE.bazel", []byte(moduleFile))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d dependencies, want 5", len(got))
	}
	byName := map[string]deps.Dependency{}
	for _, d := range got {
		byName[d.Name] = d
	}
	if d := byName["rules_go"]; d.Version != "0.40.0" || d.Requirements[0].Groups[0] != "default" {
		t.Errorf("rules_go = %+v", d)
	}
	if d := byName["gazelle"]; d.Requirements[0].Metadata[MetaRepoName] != "bazel_gazelle" {
		t.Errorf("gazelle = %+v", d)
	}
	if d := byName["rules_testing"]; d.Requirements[0].Groups[0] != "dev" {
		t.Errorf("rules_testing = %+v", d)
	}
	if d := byName["protobuf"]; d.Version != "23.1" || d.Requirements[0].Requirement != "21.7" {
		t.Errorf("protobuf = %+v", d)
	}
	if d := byName["local_lib"]; d.Requirements[0].Source == nil || d.Requirements[0].Source.Kind != deps.SourcePath {
		t.Errorf("local_lib = %+v", d)
	}

	if _, err := (Module{}).Extract("MODULE.bazel", []byte("bazel_dep(")); err == nil {
		t.Error("expected parse error")
	}
}

func TestRewriteModuleFile(t *testing.T) {
	out, changed, err := RewriteModuleFile([]byte(moduleFile), "rules_go", "0.41.0")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected a change")
	}
	if !strings.Contains(string(out), `bazel_dep(name = "rules_go", version = "0.41.0")`) {
		t.Errorf("rewritten file:\n%s", out)
	}
	if !strings.Contains(string(out), `version = "0.31.0"`) {
		t.Error("other bazel_dep versions must be kept")
	}

	_, changed, err = RewriteModuleFile([]byte(moduleFile), "missing", "1.0")
	if err != nil || changed {
		t.Errorf("RewriteModuleFile(missing) = %v, %v", changed, err)
	}
}

const workspaceFile = `load("@bazel_tools//tools/build_defs/repo:http.bzl", "http_archive")

http_archive(
    name = "io_bazel_rules_go",
    sha256 = "278b7ff5a826f3dc10f04feaf0b70d48b68748ccd512d7f98bf442077f043fe3",
    urls = [
        "https://mirror.bazel.build/github.com/bazelbuild/rules_go/releases/download/v0.40.0/rules_go-v0.40.0.zip",
        "https://github.com/bazelbuild/rules_go/releases/download/v0.40.0/rules_go-v0.40.0.zip",
    ],
)

http_archive(
    name = "com_google_absl",
    strip_prefix = "abseil-cpp-20230125.3",
    url = "https://github.com/abseil/abseil-cpp/archive/refs/tags/20230125.3.tar.gz",
)

http_archive(
    name = "internal",
    url = "https://example.com/internal.tar.gz",
)

git_repository(
    name = "com_github_nelhage_rules_boost",
    remote = "https://github.com/nelhage/rules_boost",
    tag = "v1.2.0",
)
`

func TestWorkspaceExtract(t *testing.T) {
	got, err := Workspace{}.Extract("WORKSPACE", []byte(workspaceFile))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d dependencies, want 3", len(got))
	}
	byName := map[string]deps.Dependency{}
	for _, d := range got {
		byName[d.Name] = d
	}
	rulesGo := byName["io_bazel_rules_go"]
	if rulesGo.Version != "v0.40.0" || !strings.HasPrefix(rulesGo.Requirements[0].Source.URL, "https://github.com/") {
		t.Errorf("io_bazel_rules_go = %+v", rulesGo)
	}
	absl := byName["com_google_absl"]
	if absl.Version != "20230125.3" || absl.Requirements[0].Metadata[MetaStripPrefix] != "abseil-cpp-20230125.3" {
		t.Errorf("com_google_absl = %+v", absl)
	}
	boost := byName["com_github_nelhage_rules_boost"]
	if boost.Requirements[0].Source.Kind != deps.SourceGit || boost.Version != "v1.2.0" {
		t.Errorf("rules_boost = %+v", boost)
	}
}

func TestCheckWorkspace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/abseil/abseil-cpp/releases" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[
			{"tag_name": "20240116.1", "published_at": "2024-02-01T00:00:00Z"},
			{"tag_name": "20230802.1", "published_at": "2023-09-01T00:00:00Z"},
			{"tag_name": "20230125.3", "published_at": "2023-05-01T00:00:00Z"}
		]`))
	}))
	defer srv.Close()

	got, err := Workspace{}.Extract("WORKSPACE", []byte(workspaceFile))
	if err != nil {
		t.Fatal(err)
	}
	var dep deps.Dependency
	for _, d := range got {
		if d.Name == "com_google_absl" {
			dep = d
		}
	}

	c, err := Ecosystem.Checker(dep, testOptions(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	upd, err := deps.Check(context.Background(), c, dep)
	if err != nil {
		t.Fatal(err)
	}
	if upd.LatestVersion != "20240116.1" || !upd.CanUpdate {
		t.Fatalf("update = %+v", upd)
	}
	req := upd.Requirements[0]
	if req.Requirement != "20240116.1" {
		t.Errorf("requirement = %q", req.Requirement)
	}
	if req.Source.URL != "https://github.com/abseil/abseil-cpp/archive/refs/tags/20240116.1.tar.gz" {
		t.Errorf("url = %q", req.Source.URL)
	}
	if req.Metadata[MetaStripPrefix] != "abseil-cpp-20240116.1" {
		t.Errorf("strip_prefix = %q", req.Metadata[MetaStripPrefix])
	}
	if dep.Requirements[0].Metadata[MetaStripPrefix] != "abseil-cpp-20230125.3" {
		t.Error("input requirement was modified")
	}
}

func TestRewriteArchive(t *testing.T) {
	r := deps.Requirement{
		Requirement: "v0.41.0",
		Source:      &deps.Source{Kind: deps.SourceHTTPArchive, URL: "https://github.com/o/r/releases/download/v0.40.0/r-v0.40.0.zip"},
		Metadata:    map[string]string{MetaStripPrefix: "r-0.40.0"},
	}
	rewriteArchive(&r, "v0.40.0", "v0.41.0")
	if r.Source.URL != "https://github.com/o/r/releases/download/v0.41.0/r-v0.41.0.zip" {
		t.Errorf("url = %q", r.Source.URL)
	}
	if r.Metadata[MetaStripPrefix] != "r-0.41.0" {
		t.Errorf("strip_prefix = %q", r.Metadata[MetaStripPrefix])
	}
}
