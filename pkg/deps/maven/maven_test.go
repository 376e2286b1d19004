package maven

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/updatecheck/pkg/config"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/version"
)

func TestVersionCompare(t *testing.T) {
	ordered := []string{
		"1.0-alpha1", "1.0-beta", "1.0-M1", "1.0-RC1", "1.0-SNAPSHOT", "1.0", "1.0-sp1", "1-1", "1.0.1", "1.1", "2.0-jre",
	}
	for i := 1; i < len(ordered); i++ {
		a, b := version.MustParse(Scheme, ordered[i-1]), version.MustParse(Scheme, ordered[i])
		if a.Compare(b) >= 0 {
			t.Errorf("%s should sort before %s", ordered[i-1], ordered[i])
		}
	}
	equal := [][2]string{{"1", "1.0.0"}, {"1.0", "1.0-ga"}, {"1.0.Final", "1"}, {"1.0-RC1", "1.0-cr1"}}
	for _, p := range equal {
		if version.MustParse(Scheme, p[0]).Compare(version.MustParse(Scheme, p[1])) != 0 {
			t.Errorf("%s != %s", p[0], p[1])
		}
	}
	if !version.MustParse(Scheme, "2.0-SNAPSHOT").Prerelease() || version.MustParse(Scheme, "31.0-jre").Prerelease() {
		t.Error("Prerelease")
	}
	if _, err := ParseVersion("[1.0,2.0)"); err == nil {
		t.Error("interval parsed as version")
	}
}

func TestNormalizeCoordinate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"com.google.guava:guava", "com.google.guava:guava"},
		{"com.google.guava_guava", "com.google.guava:guava"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := NormalizeCoordinate(tt.in); got != tt.want {
			t.Errorf("NormalizeCoordinate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGrammar(t *testing.T) {
	g := Grammar{}
	v := func(s string) version.Version { return version.MustParse(Scheme, s) }

	if ok, _ := g.SatisfiedBy("[1.0,2.0)", v("1.5")); !ok {
		t.Error("[1.0,2.0) should contain 1.5")
	}
	if ok, _ := g.SatisfiedBy("1.0.0", v("1")); !ok {
		t.Error("soft version should match an equal version")
	}
	if got, _ := g.RenderUpdated("[1.0,2.0)", v("1.5"), deps.BumpVersions); got != "[1.0,2.0)" {
		t.Errorf("interval containing target rewritten to %q", got)
	}
	if got, _ := g.RenderUpdated("[1.0,2.0)", v("2.1"), deps.BumpVersions); got != "2.1" {
		t.Errorf("RenderUpdated = %q, want 2.1", got)
	}
	if got, _ := g.RenderUpdated("31.0-jre", v("33.0.0-jre"), deps.BumpVersions); got != "33.0.0-jre" {
		t.Errorf("RenderUpdated = %q", got)
	}
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/com/google/guava/guava/maven-metadata.xml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<metadata><groupId>com.google.guava</groupId><artifactId>guava</artifactId><versioning>
			<versions>
				<version>31.0-jre</version>
				<version>32.1.3-jre</version>
				<version>33.0.0-jre</version>
				<version>34.0-SNAPSHOT</version>
			</versions>
		</versioning></metadata>`))
	}))
	defer srv.Close()

	dep := deps.Dependency{
		Name:         "com.google.guava_guava",
		Version:      "31.0-jre",
		Requirements: []deps.Requirement{{File: "pom.xml", Requirement: "31.0-jre"}},
	}
	opts := deps.Options{
		Registry: srv.URL,
		Strategy: deps.BumpVersions,
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
	if upd.LatestVersion != "33.0.0-jre" || !upd.CanUpdate {
		t.Fatalf("update = %+v", upd)
	}
	if upd.Requirements[0].Requirement != "33.0.0-jre" {
		t.Errorf("requirement = %q", upd.Requirements[0].Requirement)
	}
}

func TestPOMSupports(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"pom.xml", true},
		{"Pom.xml", false},
		{"build.gradle", false},
		{"package.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := (POM{}).Supports(tt.filename); got != tt.want {
				t.Errorf("Supports(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestPOMExtract(t *testing.T) {
	content := `<?xml version="1.0" encoding="UTF-8"?>
<project>
  <groupId>com.example</groupId>
  <artifactId>my-app</artifactId>
  <version>1.0.0</version>
  <properties>
    <guava.version>31.0-jre</guava.version>
  </properties>
  <dependencies>
    <dependency>
      <groupId>org.springframework</groupId>
      <artifactId>spring-core</artifactId>
      <version>5.3.0</version>
    </dependency>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>${guava.version}</version>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
      <version>[1.7,2.0)</version>
      <scope>provided</scope>
    </dependency>
  </dependencies>
</project>`

	got, err := POM{}.Extract("pom.xml", []byte(content))
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
	guava := byName["com.google.guava:guava"]
	if guava.Version != "31.0-jre" || guava.Requirements[0].Metadata[MetaProperty] != "guava.version" {
		t.Errorf("guava = %+v", guava)
	}
	slf4j := byName["org.slf4j:slf4j-api"]
	if slf4j.Version != "" || slf4j.Requirements[0].Groups[0] != "provided" {
		t.Errorf("slf4j = %+v", slf4j)
	}
	if _, ok := byName["junit:junit"]; ok {
		t.Error("test-scoped dependency extracted")
	}

	if _, err := (POM{}).Extract("pom.xml", []byte("<project>")); err == nil {
		t.Error("expected parse error")
	}
}
