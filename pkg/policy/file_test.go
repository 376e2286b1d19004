package policy

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/version"
)

const yamlPolicy = `
raise-on-ignored: true
ignore:
  - dependency: rails
    versions: [">= 7"]
  - dependency: "@types/*"
    ecosystem: npm
cooldown:
  default-days: 3
  semver-major-days: 14
  exclude: ["internal-*"]
advisories:
  - dependency: lodash
    ecosystem: npm
    vulnerable-versions: ["< 4.17.21"]
`

const tomlPolicy = `
security-only = true

[[ignore]]
dependency = "serde"
versions = ["2.x"]

[cooldown]
default-days = 2

[[advisories]]
dependency = "time"
vulnerable-versions = ["< 0.2.23"]
safe-versions = ["0.1.45"]
`

func writePolicy(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	f, err := LoadFile(writePolicy(t, "policy.yml", yamlPolicy))
	if err != nil {
		t.Fatal(err)
	}
	if !f.RaiseOnIgnored {
		t.Error("raise-on-ignored not read")
	}
	if len(f.Ignore) != 2 || !slices.Equal(f.Ignore[0].Versions, []string{">= 7"}) {
		t.Errorf("ignore = %+v", f.Ignore)
	}
	if f.Cooldown == nil || f.Cooldown.MajorDays != 14 {
		t.Errorf("cooldown = %+v", f.Cooldown)
	}
	if len(f.Advisories) != 1 || !slices.Equal(f.Advisories[0].VulnerableVersions, []string{"< 4.17.21"}) {
		t.Errorf("advisories = %+v", f.Advisories)
	}
}

func TestLoadFileTOML(t *testing.T) {
	f, err := LoadFile(writePolicy(t, "policy.toml", tomlPolicy))
	if err != nil {
		t.Fatal(err)
	}
	if !f.SecurityOnly {
		t.Error("security-only not read")
	}
	if len(f.Advisories) != 1 {
		t.Fatalf("advisories = %+v", f.Advisories)
	}
	a := f.Advisories[0]
	if !slices.Equal(a.VulnerableVersions, []string{"< 0.2.23"}) || !slices.Equal(a.SafeVersions, []string{"0.1.45"}) {
		t.Errorf("advisory = %+v", a)
	}
	if f.Cooldown == nil || f.Cooldown.DefaultDays != 2 {
		t.Errorf("cooldown = %+v", f.Cooldown)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestParseFileInvalid(t *testing.T) {
	if _, err := ParseFile([]byte("ignore: [unterminated"), "yaml"); !errors.Is(err, errors.ErrCodeInvalidPolicy) {
		t.Errorf("yaml err = %v", err)
	}
	if _, err := ParseFile([]byte("x"), "ini"); !errors.Is(err, errors.ErrCodeInvalidPolicy) {
		t.Errorf("ini err = %v", err)
	}
}

func TestFileFor(t *testing.T) {
	f, err := ParseFile([]byte(yamlPolicy), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	policyFor := func(eco, name string) *Policy {
		t.Helper()
		p, err := NewPolicy(version.Semver, f.For(eco, name)...)
		if err != nil {
			t.Fatal(err)
		}
		return p
	}

	p := policyFor("bundler", "rails")
	if !p.RaiseOnIgnored || p.Cooldown == nil {
		t.Errorf("rails policy = %+v", p)
	}
	if len(p.Ignored) != 1 || !p.Ignored[0].Matches(sv("7.1.0")) {
		t.Errorf("rails ignored = %+v", p.Ignored)
	}

	if !policyFor("npm", "@types/node").IgnoresAll() {
		t.Error("@types/* rule should ignore every version")
	}
	if p := policyFor("pip", "@types/node"); len(p.Ignored) != 0 {
		t.Errorf("rule leaked across ecosystems: %+v", p.Ignored)
	}

	p = policyFor("npm", "lodash")
	if len(p.Advisories) != 1 || !p.Vulnerable(sv("4.17.20")) {
		t.Errorf("lodash advisories = %+v", p.Advisories)
	}

	if p := policyFor("npm", "internal-tools"); p.Cooldown != nil {
		t.Error("excluded dependency kept its cooldown")
	}
}

func TestFileForNestedNames(t *testing.T) {
	f, err := ParseFile([]byte("ignore:\n  - dependency: \"github.com/aws/*\"\n"), "yaml")
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPolicy(version.Semver, f.For("go_modules", "github.com/aws/aws-sdk-go-v2/service/s3")...)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IgnoresAll() {
		t.Error("wildcard rule should cover nested module paths")
	}
}
