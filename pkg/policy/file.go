package policy

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/updatecheck/pkg/errors"
)

// File is a policy file. Rules select dependencies by ecosystem and by a
// wildcard on the dependency name (see MatchName); an empty selector matches everything.
//
//	security-only: false
//	raise-on-ignored: true
//	ignore:
//	  - dependency: "rails"
//	    versions: [">= 7"]
//	  - dependency: "@types/*"
//	    ecosystem: npm
//	cooldown:
//	  default-days: 3
//	  semver-major-days: 14
//	advisories:
//	  - dependency: lodash
//	    ecosystem: npm
//	    vulnerable-versions: ["< 4.17.21"]
type File struct {
	AllowPrerelease bool           `yaml:"allow-prerelease" toml:"allow-prerelease"`
	SecurityOnly    bool           `yaml:"security-only" toml:"security-only"`
	RaiseOnIgnored  bool           `yaml:"raise-on-ignored" toml:"raise-on-ignored"`
	Ignore          []IgnoreRule   `yaml:"ignore" toml:"ignore"`
	Cooldown        *Cooldown      `yaml:"cooldown" toml:"cooldown"`
	Advisories      []AdvisoryRule `yaml:"advisories" toml:"advisories"`
}

// IgnoreRule ignores versions of matching dependencies. A rule without
// versions ignores every version.
type IgnoreRule struct {
	Dependency string   `yaml:"dependency" toml:"dependency"`
	Ecosystem  string   `yaml:"ecosystem" toml:"ecosystem"`
	Versions   []string `yaml:"versions" toml:"versions"`
}

// AdvisoryRule attaches an advisory to matching dependencies.
type AdvisoryRule struct {
	Dependency   string `yaml:"dependency" toml:"dependency"`
	Ecosystem    string `yaml:"ecosystem" toml:"ecosystem"`
	AdvisorySpec `yaml:",inline"`
}

// LoadFile reads a YAML (.yml, .yaml) or TOML (.toml) policy file.
func LoadFile(name string) (*File, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "policy file %s not found", name)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "read policy file")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return ParseFile(data, "toml")
	default:
		return ParseFile(data, "yaml")
	}
}

// ParseFile decodes a policy file in the given format ("yaml" or "toml").
func ParseFile(data []byte, format string) (*File, error) {
	var f File
	switch format {
	case "toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "parse policy file")
		}
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPolicy, err, "parse policy file")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidPolicy, "unsupported policy format %q", format)
	}
	return &f, nil
}

// For returns the options that apply to one dependency.
func (f *File) For(ecosystem, name string) []Option {
	if f == nil {
		return nil
	}
	opts := []Option{
		WithAllowPrerelease(f.AllowPrerelease),
		WithSecurityOnly(f.SecurityOnly),
		WithRaiseOnIgnored(f.RaiseOnIgnored),
	}
	for _, r := range f.Ignore {
		if !selects(r.Ecosystem, r.Dependency, ecosystem, name) {
			continue
		}
		if len(r.Versions) == 0 {
			opts = append(opts, WithIgnored(">= 0"))
			continue
		}
		opts = append(opts, WithIgnored(r.Versions...))
	}
	if f.Cooldown != nil && f.Cooldown.Applies(name) {
		opts = append(opts, WithCooldown(f.Cooldown))
	}
	for _, a := range f.Advisories {
		if selects(a.Ecosystem, a.Dependency, ecosystem, name) {
			opts = append(opts, WithAdvisories(a.AdvisorySpec))
		}
	}
	return opts
}

func selects(ruleEco, ruleDep, ecosystem, name string) bool {
	if ruleEco != "" && !strings.EqualFold(ruleEco, ecosystem) {
		return false
	}
	if ruleDep == "" {
		return true
	}
	return MatchName(ruleDep, name)
}
