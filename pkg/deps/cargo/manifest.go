package cargo

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// CargoToml extracts dependencies from Cargo.toml.
type CargoToml struct{}

func (CargoToml) Supports(name string) bool { return strings.EqualFold(name, "cargo.toml") }

func (CargoToml) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var cargo cargoFile
	if err := toml.Unmarshal(content, &cargo); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	var out []deps.Dependency
	sections := []struct {
		group string
		deps  map[string]any
	}{
		{"", cargo.Dependencies},
		{"dev", cargo.DevDependencies},
		{"build", cargo.BuildDependencies},
		{"workspace", cargo.Workspace.Dependencies},
	}
	for _, s := range sections {
		out = append(out, extractSection(path, s.group, s.deps)...)
	}
	for _, target := range sortedKeys(cargo.Target) {
		t := cargo.Target[target]
		out = append(out, extractSection(path, "", t.Dependencies)...)
		out = append(out, extractSection(path, "dev", t.DevDependencies)...)
		out = append(out, extractSection(path, "build", t.BuildDependencies)...)
	}
	return deps.Merge(out), nil
}

func extractSection(path, group string, section map[string]any) []deps.Dependency {
	var out []deps.Dependency
	for _, key := range sortedKeys(section) {
		name, req := key, deps.Requirement{File: path}
		if group != "" {
			req.Groups = []string{group}
		}
		switch v := section[key].(type) {
		case string:
			req.Requirement = v
		case map[string]any:
			if inherit, _ := v["workspace"].(bool); inherit {
				// inherited from [workspace.dependencies]
				continue
			}
			if pkg, ok := v["package"].(string); ok && pkg != "" {
				name = pkg
			}
			req.Requirement, _ = v["version"].(string)
			req.Source = source(v)
		default:
			continue
		}
		out = append(out, deps.Dependency{Name: name, Ecosystem: "cargo", Requirements: []deps.Requirement{req}})
	}
	return out
}

func source(v map[string]any) *deps.Source {
	str := func(k string) string { s, _ := v[k].(string); return s }
	switch {
	case str("git") != "":
		return &deps.Source{
			Kind:   deps.SourceGit,
			URL:    str("git"),
			Ref:    str("branch"),
			Tag:    str("tag"),
			Commit: str("rev"),
		}
	case str("path") != "":
		return &deps.Source{Kind: deps.SourcePath, URL: str("path")}
	case str("registry") != "":
		return &deps.Source{Kind: deps.SourceRegistry, Registry: str("registry")}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type cargoFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
	Workspace         struct {
		Dependencies map[string]any `toml:"dependencies"`
	} `toml:"workspace"`
	Target map[string]struct {
		Dependencies      map[string]any `toml:"dependencies"`
		DevDependencies   map[string]any `toml:"dev-dependencies"`
		BuildDependencies map[string]any `toml:"build-dependencies"`
	} `toml:"target"`
}
