package docker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/config"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/policy"
)

// newRegistry serves tags/list and manifest digests for library/nginx.
func newRegistry(t *testing.T, digests map[string]string, tags ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const manifests = "/v2/library/nginx/manifests/"
		switch {
		case r.URL.Path == "/v2/library/nginx/tags/list":
			json.NewEncoder(w).Encode(map[string]any{"name": "library/nginx", "tags": tags})
		case strings.HasPrefix(r.URL.Path, manifests):
			d, ok := digests[strings.TrimPrefix(r.URL.Path, manifests)]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Docker-Content-Digest", d)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOptions(url string, popts ...policy.Option) deps.Options {
	return deps.Options{
		Registry:      url,
		Strategy:      deps.BumpVersionsIfNecessary,
		Config:        &config.Config{RetryAttempts: 1, RetryDelay: time.Millisecond},
		PolicyOptions: popts,
	}
}

func imageDep(tag, digest string) deps.Dependency {
	return deps.Dependency{
		Name:    "library/nginx",
		Version: tag,
		Requirements: []deps.Requirement{{
			File:        "Dockerfile",
			Requirement: RenderReference(tag, digest),
			Source:      &deps.Source{Kind: deps.SourceDocker, Tag: tag, Digest: digest},
		}},
	}
}

func check(t *testing.T, dep deps.Dependency, opts deps.Options) *deps.ResolvedUpdate {
	t.Helper()
	c, err := Ecosystem.Checker(dep, opts)
	if err != nil {
		t.Fatal(err)
	}
	upd, err := deps.Check(context.Background(), c, dep)
	if err != nil {
		t.Fatal(err)
	}
	return upd
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		name                    string
		prefix, numeric, suffix string
		format                  Format
		precision               int
	}{
		{"1.25.3", "", "1.25.3", "", FormatNormal, 3},
		{"1.25-alpine", "", "1.25", "-alpine", FormatNormal, 2},
		{"3.9.18-slim-bookworm", "", "3.9.18", "-slim-bookworm", FormatNormal, 3},
		{"17.0.2_8-jre-alpine", "", "17.0.2_8", "-jre-alpine", FormatNormal, 4},
		{"v2.1.0", "", "v2.1.0", "", FormatNormal, 3},
		{"jdk-11.0.2", "jdk-", "11.0.2", "", FormatNormal, 3},
		{"18", "", "18", "", FormatBuildNum, 1},
		{"2023.10", "", "2023.10", "", FormatYearMonth, 2},
		{"20230125", "", "20230125", "", FormatYearMonthDay, 1},
		{"1.2.3-deadbeef", "", "1.2.3", "-deadbeef", FormatSHASuffixed, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := ParseTag(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if tag.Prefix != tt.prefix || tag.Numeric != tt.numeric || tag.Suffix != tt.suffix {
				t.Errorf("ParseTag(%q) = %q %q %q", tt.name, tag.Prefix, tag.Numeric, tag.Suffix)
			}
			if tag.Format != tt.format {
				t.Errorf("Format = %v, want %v", tag.Format, tt.format)
			}
			if tag.Precision() != tt.precision {
				t.Errorf("Precision = %d, want %d", tag.Precision(), tt.precision)
			}
		})
	}
	for _, bad := range []string{"latest", "alpine", "mainline-alpine"} {
		if _, err := ParseTag(bad); err == nil {
			t.Errorf("ParseTag(%q) should fail", bad)
		}
	}
}

func TestTagRelations(t *testing.T) {
	tag := func(s string) *Tag {
		v, err := ParseTag(s)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	if !tag("1.25").SameButLessPrecise(tag("1.25.3")) || tag("1.25").SameButLessPrecise(tag("1.250")) {
		t.Error("SameButLessPrecise")
	}
	if !tag("17.0.2").SameButLessPrecise(tag("17.0.2_8")) {
		t.Error("update part should refine the release")
	}
	if tag("1.25-alpine").Comparable(tag("1.26")) || !tag("1.25-alpine").Comparable(tag("1.26-alpine")) {
		t.Error("Comparable should require the same suffix")
	}
	if !tag("1.2.3-deadbeef").Comparable(tag("1.2.4-cafebabe")) {
		t.Error("SHA-suffixed tags compare regardless of suffix")
	}
	if tag("17.0.2_8").Compare(tag("17.0.2_10")) >= 0 {
		t.Error("update part should order numerically")
	}
}

func TestParseImage(t *testing.T) {
	tests := []struct {
		ref  string
		want Image
	}{
		{"nginx:1.25", Image{Name: "nginx", Tag: "1.25"}},
		{"ghcr.io/org/app:v1@sha256:abc", Image{Registry: "ghcr.io", Name: "org/app", Tag: "v1", Digest: "sha256:abc"}},
		{"localhost:5000/app:2", Image{Registry: "localhost:5000", Name: "app", Tag: "2"}},
		{"ubuntu@sha256:def", Image{Name: "ubuntu", Digest: "sha256:def"}},
		{"busybox", Image{Name: "busybox"}},
	}
	for _, tt := range tests {
		if got := ParseImage(tt.ref); got != tt.want {
			t.Errorf("ParseImage(%q) = %+v, want %+v", tt.ref, got, tt.want)
		}
	}
}

func TestCheckKeepsPrecisionWhenDigestsMatch(t *testing.T) {
	srv := newRegistry(t,
		map[string]string{"1.26": "sha256:aaa", "1.26.1": "sha256:aaa", "latest": "sha256:aaa"},
		"1.24", "1.25", "1.26", "1.26.1", "1.26.1-alpine", "latest", "mainline",
	)
	upd := check(t, imageDep("1.25", ""), testOptions(srv.URL))
	if upd.LatestVersion != "1.26" || !upd.CanUpdate {
		t.Fatalf("update = %+v", upd)
	}
	if upd.Requirements[0].Requirement != "1.26" || upd.Requirements[0].Source.Tag != "1.26" {
		t.Errorf("requirement = %+v", upd.Requirements[0])
	}
}

func TestCheckMorePreciseWhenDigestsDiffer(t *testing.T) {
	srv := newRegistry(t,
		map[string]string{"1.26": "sha256:bbb", "1.26.1": "sha256:aaa", "latest": "sha256:aaa"},
		"1.25", "1.26", "1.26.1", "latest",
	)
	upd := check(t, imageDep("1.25", ""), testOptions(srv.URL))
	if upd.LatestVersion != "1.26.1" {
		t.Fatalf("latest = %q, want 1.26.1", upd.LatestVersion)
	}
}

func TestCheckTagsNewerThanLatestArePrereleases(t *testing.T) {
	srv := newRegistry(t,
		map[string]string{"1.26": "sha256:aaa", "1.27": "sha256:ccc", "latest": "sha256:aaa"},
		"1.25", "1.26", "1.27", "latest",
	)
	upd := check(t, imageDep("1.25", ""), testOptions(srv.URL))
	if upd.LatestVersion != "1.26" {
		t.Fatalf("latest = %q, want 1.26", upd.LatestVersion)
	}
}

func TestCheckSuffixMustMatch(t *testing.T) {
	srv := newRegistry(t, nil, "1.25-alpine", "1.26-alpine", "1.27", "1.28-bookworm")
	upd := check(t, imageDep("1.25-alpine", ""), testOptions(srv.URL))
	if upd.LatestVersion != "1.26-alpine" {
		t.Fatalf("latest = %q, want 1.26-alpine", upd.LatestVersion)
	}
}

func TestCheckPinnedDigest(t *testing.T) {
	srv := newRegistry(t,
		map[string]string{"1.26.1": "sha256:new"},
		"1.25", "1.26.1",
	)
	upd := check(t, imageDep("1.26.1", "sha256:old"), testOptions(srv.URL))
	if upd.UpToDate || !upd.CanUpdate {
		t.Fatalf("update = %+v", upd)
	}
	req := upd.Requirements[0]
	if req.Requirement != "1.26.1@sha256:new" || req.Source.Digest != "sha256:new" || req.Source.Tag != "1.26.1" {
		t.Errorf("requirement = %+v", req)
	}

	upd = check(t, imageDep("1.26.1", "sha256:new"), testOptions(srv.URL))
	if !upd.UpToDate || upd.CanUpdate {
		t.Errorf("matching digest should be up to date: %+v", upd)
	}
}

func TestCheckDigestOnlyFollowsLatest(t *testing.T) {
	srv := newRegistry(t,
		map[string]string{"latest": "sha256:new", "1.26.1": "sha256:new"},
		"1.25", "1.26.1", "latest",
	)
	upd := check(t, imageDep("", "sha256:old"), testOptions(srv.URL))
	if upd.UpToDate || !upd.CanUpdate {
		t.Fatalf("update = %+v", upd)
	}
	req := upd.Requirements[0]
	if req.Requirement != "@sha256:new" || req.Source.Digest != "sha256:new" || req.Source.Tag != "" {
		t.Errorf("requirement = %+v", req)
	}
	if len(upd.Replacements) != 1 {
		t.Errorf("replacements = %+v", upd.Replacements)
	}

	upd = check(t, imageDep("", "sha256:new"), testOptions(srv.URL))
	if !upd.UpToDate || upd.CanUpdate {
		t.Errorf("digest of latest should be up to date: %+v", upd)
	}
}

func TestCheckIgnoredWithDigestDoesNotRaise(t *testing.T) {
	srv := newRegistry(t, map[string]string{"1.25": "sha256:aaa"}, "1.25", "1.26")
	opts := testOptions(srv.URL, policy.WithIgnored(">= 1.26"), policy.WithRaiseOnIgnored(true))

	c, err := Ecosystem.Checker(imageDep("1.25", ""), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.LatestVersion(context.Background()); errors.GetCode(err) != errors.ErrCodeAllVersionsIgnored {
		t.Errorf("err = %v, want ALL_VERSIONS_IGNORED", err)
	}

	upd := check(t, imageDep("1.25", "sha256:aaa"), opts)
	if upd.LatestVersion != "1.25" || !upd.UpToDate {
		t.Errorf("update = %+v", upd)
	}
}

func TestDockerfileExtract(t *testing.T) {
	content := `# syntax=docker/dockerfile:1
ARG BASE=alpine
FROM --platform=$BUILDPLATFORM golang:1.22-alpine AS build
RUN go build ./...

FROM build AS test
FROM ${BASE}:3.19
FROM gcr.io/distroless/static:nonroot@sha256:9ecc53c269509f63c69a266168e4a687c7eb8c0cfd753bd8bfcaa4f58a90876f
FROM scratch
FROM \
    nginx:1.25.3
`
	got, err := Dockerfile{}.Extract("Dockerfile", []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d dependencies, want 3: %+v", len(got), got)
	}
	byName := map[string]deps.Dependency{}
	for _, d := range got {
		byName[d.Name] = d
	}
	if d := byName["golang"]; d.Version != "1.22-alpine" {
		t.Errorf("golang = %+v", d)
	}
	distroless := byName["distroless/static"]
	if src := distroless.Requirements[0].Source; src == nil || src.Registry != "gcr.io" || !strings.HasPrefix(src.Digest, "sha256:") {
		t.Errorf("distroless = %+v", distroless)
	}
	if d := byName["nginx"]; d.Requirements[0].Requirement != "1.25.3" {
		t.Errorf("nginx = %+v", d)
	}
}

func TestComposeExtract(t *testing.T) {
	content := `services:
  web:
    image: nginx:1.25
  proxy:
    image: nginx:1.25
  db:
    image: postgres:16.1-alpine
  app:
    build: .
`
	got, err := Compose{}.Extract("docker-compose.yml", []byte(content))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d dependencies, want 2", len(got))
	}
	for _, d := range got {
		if d.Name == "nginx" && len(d.Requirements[0].Groups) != 2 {
			t.Errorf("nginx groups = %v", d.Requirements[0].Groups)
		}
	}
	if _, err := (Compose{}).Extract("compose.yaml", []byte("services: [")); err == nil {
		t.Error("expected parse error")
	}
}
